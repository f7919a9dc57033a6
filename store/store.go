package store

import (
	"errors"
	"time"

	"github.com/squarespool/squares-backend/models"

	"gorm.io/gorm"
)

// Store is the durable game state. Every mutating method runs as a single
// transaction; concurrent mutators of the same game serialize on the
// game's row lock (see lockPendingGame), so no claim, release, submit or
// start can interleave with another for that game.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for migrations and test setup.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// lockPendingGame is the per-game serialization point. The conditional
// touch-update takes the row write lock (held until the transaction
// commits) and verifies status = pending in the same statement, so a
// game that starts concurrently can never admit a late mutation.
func lockPendingGame(tx *gorm.DB, gameID uint) error {
	res := tx.Model(&models.Game{}).
		Where("id = ? AND status = ?", gameID, models.StatusPending).
		Update("updated_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := tx.Model(&models.Game{}).Where("id = ?", gameID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrGameNotFound
		}
		return ErrGameNotPending
	}
	return nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
