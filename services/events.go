package services

// Event is the wire envelope pushed to every subscriber of a game's
// channel. Delivery is best-effort and at-most-once; the grid endpoint is
// the reconciliation path for anyone who misses one.
type Event struct {
	Name string      `json:"event"`
	Data interface{} `json:"data"`
}

type CellChanged struct {
	Row     int   `json:"row"`
	Col     int   `json:"col"`
	OwnerID *uint `json:"ownerId"`
}

type GameStarted struct {
	RowNumbers []int `json:"rowNumbers"`
	ColNumbers []int `json:"colNumbers"`
}

type PicksSubmitted struct {
	ParticipantID uint `json:"participantId"`
}

// Broadcaster fans an event out to a game's subscribers. Implementations
// must never block the caller; the engine treats publishing as
// fire-and-forget.
type Broadcaster interface {
	Publish(gameCode string, event Event)
}
