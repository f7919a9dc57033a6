package store

import (
	"encoding/json"
	"errors"

	"github.com/squarespool/squares-backend/game"
	"github.com/squarespool/squares-backend/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GameSpec is the validated input for CreateGame.
type GameSpec struct {
	Code           string
	Name           string
	PricePerSquare float64
	PayoutQ1       float64
	PayoutQ2       float64
	PayoutQ3       float64
	PayoutFinal    float64
	AdminName      string
}

// CreateGame allocates the game, its admin participant and all 100 cells
// in one transaction. Returns ErrDuplicateCode when the code collides;
// the caller retries with a fresh one.
func (s *Store) CreateGame(spec GameSpec) (*models.Game, *models.Participant, error) {
	g := &models.Game{
		Code:           game.NormalizeCode(spec.Code),
		Name:           spec.Name,
		PricePerSquare: spec.PricePerSquare,
		PayoutQ1:       spec.PayoutQ1,
		PayoutQ2:       spec.PayoutQ2,
		PayoutQ3:       spec.PayoutQ3,
		PayoutFinal:    spec.PayoutFinal,
		Status:         models.StatusPending,
	}
	admin := &models.Participant{
		Name:    spec.AdminName,
		IsAdmin: true,
		Quota:   0,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(g).Error; err != nil {
			if isDuplicate(err) {
				return ErrDuplicateCode
			}
			return err
		}

		admin.GameID = g.ID
		if err := tx.Create(admin).Error; err != nil {
			return err
		}
		if err := tx.Model(g).Update("admin_id", admin.ID).Error; err != nil {
			return err
		}

		cells := make([]models.Cell, 0, game.GridSize*game.GridSize)
		for r := 0; r < game.GridSize; r++ {
			for c := 0; c < game.GridSize; c++ {
				cells = append(cells, models.Cell{GameID: g.ID, Row: r, Col: c})
			}
		}
		return tx.Create(&cells).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return g, admin, nil
}

// GameByCode looks a game up by its (case-insensitive) code.
func (s *Store) GameByCode(code string) (*models.Game, error) {
	var g models.Game
	err := s.db.Where("code = ?", game.NormalizeCode(code)).First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// GameByID fetches a game by primary key.
func (s *Store) GameByID(id uint) (*models.Game, error) {
	var g models.Game
	err := s.db.First(&g, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// StartGame is the single irreversible lock transition: it checks admin
// and pending status and stores the permutations in one conditional
// update. After it commits, every further mutation fails with
// ErrGameNotPending.
func (s *Store) StartGame(gameID, adminID uint, rowNums, colNums []int) error {
	rowJSON, err := json.Marshal(rowNums)
	if err != nil {
		return err
	}
	colJSON, err := json.Marshal(colNums)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Game{}).
			Where("id = ? AND status = ? AND admin_id = ?", gameID, models.StatusPending, adminID).
			Updates(map[string]interface{}{
				"status":      models.StatusStarted,
				"row_numbers": datatypes.JSON(rowJSON),
				"col_numbers": datatypes.JSON(colJSON),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			return nil
		}

		// Figure out which check failed.
		var g models.Game
		if err := tx.First(&g, gameID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGameNotFound
			}
			return err
		}
		if g.AdminID == nil || *g.AdminID != adminID {
			return ErrNotAdmin
		}
		return ErrGameNotPending
	})
}
