package store

import "errors"

// Every rejection the store can surface. Each maps 1:1 to a user-facing
// error kind; none is retried automatically except ErrDuplicateCode,
// which the engine retries with a fresh code during game creation.
var (
	ErrGameNotFound        = errors.New("game not found")
	ErrGameNotPending      = errors.New("game has already started")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrNotAdmin            = errors.New("only the admin can start the game")
	ErrAlreadyTaken        = errors.New("square already taken")
	ErrNotOwner            = errors.New("you can only release your own squares")
	ErrQuotaExceeded       = errors.New("square quota exceeded")
	ErrIncompleteSelection = errors.New("select all your squares before submitting")
	ErrAlreadySubmitted    = errors.New("picks already submitted")
	ErrDuplicateRecoveryID = errors.New("recovery identifier already used in this game")
	ErrDuplicateCode       = errors.New("game code already exists")
	ErrInvalidQuantity     = errors.New("must buy between 1 and 100 squares")
	ErrTokenInvalid        = errors.New("invalid or expired link")
)
