package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	StatusPending   = "pending"
	StatusStarted   = "started"
	StatusCompleted = "completed"
)

type Game struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	Code           string  `gorm:"uniqueIndex;size:6;not null" json:"code"`
	Name           string  `gorm:"not null" json:"name"`
	PricePerSquare float64 `gorm:"not null" json:"pricePerSquare"`
	PayoutQ1       float64 `gorm:"not null" json:"payoutQ1"`
	PayoutQ2       float64 `gorm:"not null" json:"payoutQ2"`
	PayoutQ3       float64 `gorm:"not null" json:"payoutQ3"`
	PayoutFinal    float64 `gorm:"not null" json:"payoutFinal"`
	Status         string  `gorm:"not null;default:pending" json:"status"`
	AdminID        *uint   `json:"adminId"`
	// RowNumbers and ColNumbers stay null until the game starts, then each
	// holds a JSON array that is a permutation of 0..9.
	RowNumbers datatypes.JSON `json:"rowNumbers"`
	ColNumbers datatypes.JSON `json:"colNumbers"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}
