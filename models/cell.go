package models

import "time"

// Cell is one slot of a game's 10x10 grid. All 100 cells are created with
// the game; only ParticipantID ever changes, and only while the game is
// pending.
type Cell struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	GameID        uint      `gorm:"not null;uniqueIndex:idx_cells_game_row_col" json:"gameId"`
	Row           int       `gorm:"column:row_index;not null;uniqueIndex:idx_cells_game_row_col" json:"row"`
	Col           int       `gorm:"column:col_index;not null;uniqueIndex:idx_cells_game_row_col" json:"col"`
	ParticipantID *uint     `gorm:"index" json:"participantId"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
