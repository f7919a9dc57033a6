package models

import "time"

type Participant struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	GameID  uint   `gorm:"not null;uniqueIndex:idx_participants_game_phone;uniqueIndex:idx_participants_game_email" json:"gameId"`
	Name    string `gorm:"not null" json:"name"`
	IsAdmin bool   `gorm:"not null;default:false" json:"isAdmin"`
	// Quota is the number of squares the participant committed to buy.
	// Always 0 for the admin.
	Quota          int  `gorm:"not null;default:0" json:"quota"`
	PicksSubmitted bool `gorm:"not null;default:false" json:"picksSubmitted"`
	// Phone and Email are login-recovery identifiers, each unique within a
	// game when present. NULLs never collide in a unique index, so
	// participants without one are unrestricted.
	Phone     *string   `gorm:"uniqueIndex:idx_participants_game_phone" json:"phone,omitempty"`
	Email     *string   `gorm:"uniqueIndex:idx_participants_game_email" json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
