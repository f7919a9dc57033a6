package services

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(buffer int) *Client {
	return &Client{
		id:   uuid.NewString(),
		send: make(chan []byte, buffer),
	}
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case b := <-c.send:
		var ev Event
		require.NoError(t, json.Unmarshal(b, &ev))
		return ev
	default:
		t.Fatal("expected a pending event")
		return Event{}
	}
}

func TestHubPublishReachesAllSubscribers(t *testing.T) {
	hub := NewHub()
	a, b := newTestClient(4), newTestClient(4)
	hub.Subscribe("ABCD23", a)
	hub.Subscribe("ABCD23", b)
	assert.Equal(t, 2, hub.RoomSize("ABCD23"))

	hub.Publish("ABCD23", Event{Name: "picks-submitted", Data: PicksSubmitted{ParticipantID: 7}})

	for _, c := range []*Client{a, b} {
		ev := receive(t, c)
		assert.Equal(t, "picks-submitted", ev.Name)
	}
}

func TestHubScopesRoomsByGameCode(t *testing.T) {
	hub := NewHub()
	a, b := newTestClient(4), newTestClient(4)
	hub.Subscribe("ABCD23", a)
	hub.Subscribe("EFGH45", b)

	hub.Publish("ABCD23", Event{Name: "cell-changed", Data: CellChanged{Row: 1, Col: 2}})

	assert.Equal(t, "cell-changed", receive(t, a).Name)
	assert.Empty(t, b.send)
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub()
	a, b := newTestClient(4), newTestClient(4)
	hub.Subscribe("ABCD23", a)
	hub.Subscribe("ABCD23", b)

	hub.Unsubscribe("ABCD23", a)
	assert.Equal(t, 1, hub.RoomSize("ABCD23"))

	hub.Publish("ABCD23", Event{Name: "game-started"})
	assert.Equal(t, "game-started", receive(t, b).Name)

	// The removed client's channel is closed and received nothing new.
	_, open := <-a.send
	assert.False(t, open)

	hub.Unsubscribe("ABCD23", b)
	assert.Equal(t, 0, hub.RoomSize("ABCD23"))
}

func TestHubDropsWhenSubscriberIsSlow(t *testing.T) {
	hub := NewHub()
	slow := newTestClient(1)
	hub.Subscribe("ABCD23", slow)

	// The second publish overflows the buffer; it must not block.
	hub.Publish("ABCD23", Event{Name: "cell-changed", Data: CellChanged{Row: 0, Col: 0}})
	hub.Publish("ABCD23", Event{Name: "cell-changed", Data: CellChanged{Row: 0, Col: 1}})

	assert.Len(t, slow.send, 1)
}
