package models

import "time"

// MagicToken is a single-use email login token. Deleted on use, on failed
// send, or once expired.
type MagicToken struct {
	Token     string    `gorm:"primaryKey;size:64" json:"-"`
	Email     string    `gorm:"not null" json:"email"`
	GameID    uint      `gorm:"not null" json:"gameId"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}
