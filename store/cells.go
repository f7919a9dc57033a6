package store

import (
	"errors"

	"github.com/squarespool/squares-backend/models"

	"gorm.io/gorm"
)

// ClaimCell assigns a cell to a participant. In one transaction it
// verifies the game is pending (taking the per-game lock), the
// participant has not locked their picks, their claimed count is below
// quota, and the cell is unowned. Any failed check aborts with no
// mutation.
func (s *Store) ClaimCell(gameID uint, row, col int, participantID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockPendingGame(tx, gameID); err != nil {
			return err
		}

		p, err := participantInGame(tx, gameID, participantID)
		if err != nil {
			return err
		}
		if p.PicksSubmitted {
			return ErrAlreadySubmitted
		}

		var claimed int64
		if err := tx.Model(&models.Cell{}).
			Where("game_id = ? AND participant_id = ?", gameID, participantID).
			Count(&claimed).Error; err != nil {
			return err
		}
		if claimed >= int64(p.Quota) {
			return ErrQuotaExceeded
		}

		res := tx.Model(&models.Cell{}).
			Where("game_id = ? AND row_index = ? AND col_index = ? AND participant_id IS NULL", gameID, row, col).
			Update("participant_id", participantID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyTaken
		}
		return nil
	})
}

// ReleaseCell clears a cell's owner, only when the caller owns it and has
// not locked their picks.
func (s *Store) ReleaseCell(gameID uint, row, col int, participantID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockPendingGame(tx, gameID); err != nil {
			return err
		}

		p, err := participantInGame(tx, gameID, participantID)
		if err != nil {
			return err
		}
		if p.PicksSubmitted {
			return ErrAlreadySubmitted
		}

		res := tx.Model(&models.Cell{}).
			Where("game_id = ? AND row_index = ? AND col_index = ? AND participant_id = ?", gameID, row, col, participantID).
			Update("participant_id", nil)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotOwner
		}
		return nil
	})
}

// CellsByGame returns all 100 cells ordered by (row, col).
func (s *Store) CellsByGame(gameID uint) ([]models.Cell, error) {
	var cells []models.Cell
	err := s.db.Where("game_id = ?", gameID).
		Order("row_index, col_index").
		Find(&cells).Error
	return cells, err
}

// TakenCount returns the number of owned cells in a game.
func (s *Store) TakenCount(gameID uint) (int, error) {
	var n int64
	err := s.db.Model(&models.Cell{}).
		Where("game_id = ? AND participant_id IS NOT NULL", gameID).
		Count(&n).Error
	return int(n), err
}

// ClaimedCount returns how many cells a participant currently owns.
func (s *Store) ClaimedCount(gameID, participantID uint) (int, error) {
	var n int64
	err := s.db.Model(&models.Cell{}).
		Where("game_id = ? AND participant_id = ?", gameID, participantID).
		Count(&n).Error
	return int(n), err
}

func participantInGame(tx *gorm.DB, gameID, participantID uint) (*models.Participant, error) {
	var p models.Participant
	err := tx.Where("id = ? AND game_id = ?", participantID, gameID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrParticipantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
