package services

import (
	"encoding/json"
	"sync"

	"github.com/squarespool/squares-backend/utils/logger"
)

// Hub keeps the ephemeral per-game subscriber groups. Nothing here is
// persisted; a reconnecting client re-fetches the grid snapshot.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*Client // game code -> client id -> client
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[string]*Client)}
}

// Subscribe adds a client to a game's room. The same participant may hold
// several connections (one per tab); clients are keyed by connection id.
func (h *Hub) Subscribe(gameCode string, c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[gameCode]
	if !ok {
		room = make(map[string]*Client)
		h.rooms[gameCode] = room
	}
	room[c.id] = c
	total := len(room)
	h.mu.Unlock()

	logger.Debugf("[Hub %s] client %s subscribed (total=%d)", gameCode, c.id, total)
}

// Unsubscribe drops a client and closes it. Empty rooms are removed.
func (h *Hub) Unsubscribe(gameCode string, c *Client) {
	h.mu.Lock()
	if room, ok := h.rooms[gameCode]; ok {
		delete(room, c.id)
		if len(room) == 0 {
			delete(h.rooms, gameCode)
		}
	}
	h.mu.Unlock()

	c.Close()
}

// Publish fans an event out to every subscriber of the game. Best-effort
// and at-most-once: a client whose send buffer is full misses the event
// and reconciles through the next snapshot fetch.
func (h *Hub) Publish(gameCode string, event Event) {
	b, err := json.Marshal(event)
	if err != nil {
		logger.Errorf("[Hub %s] marshal %s: %v", gameCode, event.Name, err)
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[gameCode]))
	for _, c := range h.rooms[gameCode] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- b:
		default:
			logger.Debugf("[Hub %s] dropping %s to client %s", gameCode, event.Name, c.id)
		}
	}
}

// RoomSize reports the number of connected clients for a game.
func (h *Hub) RoomSize(gameCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[gameCode])
}
