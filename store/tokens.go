package store

import (
	"errors"
	"time"

	"github.com/squarespool/squares-backend/models"

	"gorm.io/gorm"
)

// CreateMagicToken stores a single-use login token.
func (s *Store) CreateMagicToken(token, email string, gameID uint, expiresAt time.Time) error {
	return s.db.Create(&models.MagicToken{
		Token:     token,
		Email:     email,
		GameID:    gameID,
		ExpiresAt: expiresAt,
	}).Error
}

// ConsumeMagicToken deletes and returns an unexpired token. A token can
// be consumed exactly once: the conditional delete decides the winner
// when two verifications race.
func (s *Store) ConsumeMagicToken(token string) (*models.MagicToken, error) {
	var mt models.MagicToken
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("token = ? AND expires_at > ?", token, time.Now()).
			First(&mt).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTokenInvalid
			}
			return err
		}
		res := tx.Where("token = ?", token).Delete(&models.MagicToken{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTokenInvalid
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &mt, nil
}

// DeleteMagicToken removes a token, used to roll back after a failed send.
func (s *Store) DeleteMagicToken(token string) error {
	return s.db.Where("token = ?", token).Delete(&models.MagicToken{}).Error
}

// DeleteExpiredTokens prunes tokens past their expiry.
func (s *Store) DeleteExpiredTokens() error {
	return s.db.Where("expires_at <= ?", time.Now()).Delete(&models.MagicToken{}).Error
}
