package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/discord_alt/internal/apperr"
	"github.com/Skotchmaster/discord_alt/internal/models"
	"github.com/Skotchmaster/discord_alt/pkg/logging"
)

// ErrNotFound covers both a session that never existed and one that expired.
var ErrNotFound = errors.New("session not found")

type Store interface {
	CreateSession(ctx context.Context, s *models.Session) error
	FindSession(ctx context.Context, userID uuid.UUID, tokenID string, now time.Time) (*models.Session, error)
	RotateSession(ctx context.Context, id uuid.UUID, oldTokenID, newTokenID string, expiresAt time.Time) error
	DeleteSessionsByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// ExpiryFunc returns the expiry for a session created or rotated now.
type ExpiryFunc func() time.Time

type Manager struct {
	store  Store
	expiry ExpiryFunc
	now    func() time.Time
}

func NewManager(store Store, expiry ExpiryFunc) *Manager {
	return &Manager{
		store:  store,
		expiry: expiry,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (m *Manager) Create(ctx context.Context, userID uuid.UUID, tokenID, deviceInfo, ip string) (*models.Session, error) {
	s := &models.Session{
		UserID:       userID,
		RefreshToken: tokenID,
		DeviceInfo:   deviceInfo,
		IPAddress:    ip,
		ExpiresAt:    m.expiry().UTC(),
	}
	if err := m.store.CreateSession(ctx, s); err != nil {
		logging.FromContext(ctx).Error("session_create_failed", "user_id", userID, "error", err)
		return nil, apperr.Internal("create session", err)
	}
	return s, nil
}

// Rotate replaces the token id of s in place and pushes its expiry forward.
// A session already rotated by a concurrent refresh reports ErrNotFound.
func (m *Manager) Rotate(ctx context.Context, s *models.Session, newTokenID string) (*models.Session, error) {
	exp := m.expiry().UTC()
	if err := m.store.RotateSession(ctx, s.ID, s.RefreshToken, newTokenID, exp); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		logging.FromContext(ctx).Error("session_rotate_failed", "session_id", s.ID, "error", err)
		return nil, apperr.Internal("rotate session", err)
	}

	rotated := *s
	rotated.RefreshToken = newTokenID
	rotated.ExpiresAt = exp
	return &rotated, nil
}

func (m *Manager) FindByTokenID(ctx context.Context, userID uuid.UUID, tokenID string) (*models.Session, error) {
	now := m.now()
	s, err := m.store.FindSession(ctx, userID, tokenID, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, apperr.Internal("find session", err)
	}
	if !s.Valid(now) {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *Manager) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	n, err := m.store.DeleteSessionsByUser(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Error("session_revoke_failed", "user_id", userID, "error", err)
		return apperr.Internal("revoke sessions", err)
	}
	logging.FromContext(ctx).Info("sessions_revoked", "user_id", userID, "count", n)
	return nil
}

// Sweep deletes every session whose expiry has passed.
func (m *Manager) Sweep(ctx context.Context) (int64, error) {
	return m.store.DeleteExpiredSessions(ctx, m.now())
}
