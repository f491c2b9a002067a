package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/discord_alt/internal/models"
)

func (r *GormRepo) CreateSession(ctx context.Context, s *models.Session) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

// FindSession returns the live session of userID bound to tokenID. Expired rows
// that the sweeper has not reclaimed yet are treated as absent.
func (r *GormRepo) FindSession(ctx context.Context, userID uuid.UUID, tokenID string, now time.Time) (*models.Session, error) {
	var s models.Session
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND refresh_token = ? AND expires_at > ?", userID, tokenID, now).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// RotateSession swaps the token id of a session in place. The swap only
// applies while the row still holds oldTokenID.
func (r *GormRepo) RotateSession(ctx context.Context, id uuid.UUID, oldTokenID, newTokenID string, expiresAt time.Time) error {
	res := r.DB.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND refresh_token = ?", id, oldTokenID).
		Updates(map[string]any{
			"refresh_token": newTokenID,
			"expires_at":    expiresAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) DeleteSessionsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Session{})
	return res.RowsAffected, res.Error
}

func (r *GormRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.Session{})
	return res.RowsAffected, res.Error
}

// ListSessions returns every stored session of a user, expired ones included.
// It inspects the store directly and is not used by the auth flows.
func (r *GormRepo) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	var out []models.Session
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
