package store

import (
	"errors"

	"github.com/squarespool/squares-backend/models"

	"gorm.io/gorm"
)

// ParticipantSpec is the validated input for AddParticipant.
type ParticipantSpec struct {
	Name  string
	Quota int
	Phone *string
	Email *string
}

// AddParticipant joins a participant to a pending game. The recovery
// identifiers must be unused within the game; collisions surface as
// ErrDuplicateRecoveryID via the composite unique indexes.
func (s *Store) AddParticipant(gameID uint, spec ParticipantSpec) (*models.Participant, error) {
	p := &models.Participant{
		GameID: gameID,
		Name:   spec.Name,
		Quota:  spec.Quota,
		Phone:  spec.Phone,
		Email:  spec.Email,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockPendingGame(tx, gameID); err != nil {
			return err
		}
		if err := tx.Create(p).Error; err != nil {
			if isDuplicate(err) {
				return ErrDuplicateRecoveryID
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SubmitPicks locks a participant's selection. Succeeds only when the
// game is pending, the claimed count equals the quota, and picks were not
// already submitted. Once set, the flag is immutable.
func (s *Store) SubmitPicks(gameID, participantID uint) error {
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
		if claimed != int64(p.Quota) {
			return ErrIncompleteSelection
		}

		return tx.Model(p).Update("picks_submitted", true).Error
	})
}

// ParticipantByID fetches a participant scoped to a game.
func (s *Store) ParticipantByID(gameID, participantID uint) (*models.Participant, error) {
	var p models.Participant
	err := s.db.Where("id = ? AND game_id = ?", participantID, gameID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrParticipantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ParticipantByPhone finds a game's participant by normalized phone.
func (s *Store) ParticipantByPhone(gameID uint, phone string) (*models.Participant, error) {
	var p models.Participant
	err := s.db.Where("game_id = ? AND phone = ?", gameID, phone).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrParticipantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ParticipantByEmail finds a game's participant by lowercased email.
func (s *Store) ParticipantByEmail(gameID uint, email string) (*models.Participant, error) {
	var p models.Participant
	err := s.db.Where("game_id = ? AND email = ?", gameID, email).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrParticipantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ParticipantsByGame lists all participants, admin included.
func (s *Store) ParticipantsByGame(gameID uint) ([]models.Participant, error) {
	var ps []models.Participant
	err := s.db.Where("game_id = ?", gameID).Order("id").Find(&ps).Error
	return ps, err
}

// SelectionCounts returns participant_id -> owned-cell count for a game.
func (s *Store) SelectionCounts(gameID uint) (map[uint]int, error) {
	var rows []struct {
		ParticipantID uint
		N             int
	}
	err := s.db.Model(&models.Cell{}).
		Select("participant_id, count(*) as n").
		Where("game_id = ? AND participant_id IS NOT NULL", gameID).
		Group("participant_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uint]int, len(rows))
	for _, r := range rows {
		counts[r.ParticipantID] = r.N
	}
	return counts, nil
}
