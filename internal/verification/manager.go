package verification

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/discord_alt/internal/apperr"
	"github.com/Skotchmaster/discord_alt/pkg/hash"
	"github.com/Skotchmaster/discord_alt/pkg/logging"
)

const (
	EmailVerificationTTL = 24 * time.Hour
	PasswordResetTTL     = time.Hour

	tokenBytes = 16
)

var (
	ErrInvalidVerificationToken = apperr.Auth("Invalid or expired verification token")
	ErrInvalidResetToken        = apperr.Auth("Invalid or expired reset token")
)

type Store interface {
	SetEmailVerificationToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) error
	ConsumeEmailVerificationToken(ctx context.Context, token string, now time.Time) (uuid.UUID, error)
	SetPasswordResetToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) error
	ConsumePasswordResetToken(ctx context.Context, token, passwordHash string, now time.Time) (uuid.UUID, error)
}

type SessionRevoker interface {
	RevokeAll(ctx context.Context, userID uuid.UUID) error
}

type Manager struct {
	store    Store
	sessions SessionRevoker
	now      func() time.Time
	hash     func(string) (string, error)
}

func NewManager(store Store, sessions SessionRevoker) *Manager {
	return &Manager{
		store:    store,
		sessions: sessions,
		now:      func() time.Time { return time.Now().UTC() },
		hash:     hash.HashPassword,
	}
}

func (m *Manager) IssueEmailVerification(ctx context.Context, userID uuid.UUID) (string, error) {
	return m.issue(ctx, userID, EmailVerificationTTL, m.store.SetEmailVerificationToken)
}

func (m *Manager) IssuePasswordReset(ctx context.Context, userID uuid.UUID) (string, error) {
	return m.issue(ctx, userID, PasswordResetTTL, m.store.SetPasswordResetToken)
}

// NewEmailVerification returns a token and its expiry for a user that is not
// stored yet, so the caller can insert both with the user row.
func (m *Manager) NewEmailVerification() (string, time.Time, error) {
	token, err := NewToken()
	if err != nil {
		return "", time.Time{}, apperr.Internal("generate token", err)
	}
	return token, m.now().Add(EmailVerificationTTL), nil
}

type setFunc func(ctx context.Context, id uuid.UUID, token string, expiry time.Time) error

func (m *Manager) issue(ctx context.Context, userID uuid.UUID, ttl time.Duration, set setFunc) (string, error) {
	token, err := NewToken()
	if err != nil {
		return "", apperr.Internal("generate token", err)
	}
	if err := set(ctx, userID, token, m.now().Add(ttl)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.NotFound("User not found")
		}
		return "", apperr.Internal("store token", err)
	}
	return token, nil
}

// ConsumeEmailVerification marks the token owner verified. A token can be
// consumed once.
func (m *Manager) ConsumeEmailVerification(ctx context.Context, token string) (uuid.UUID, error) {
	id, err := m.store.ConsumeEmailVerificationToken(ctx, token, m.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, ErrInvalidVerificationToken
		}
		return uuid.Nil, apperr.Internal("consume verification token", err)
	}
	return id, nil
}

// ConsumePasswordReset replaces the password of the token owner and revokes
// every session the user holds.
func (m *Manager) ConsumePasswordReset(ctx context.Context, token, newPassword string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ErrInvalidResetToken
	}
	pwHash, err := m.hash(newPassword)
	if err != nil {
		return uuid.Nil, apperr.Internal("hash password", err)
	}

	id, err := m.store.ConsumePasswordResetToken(ctx, token, pwHash, m.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, ErrInvalidResetToken
		}
		return uuid.Nil, apperr.Internal("consume reset token", err)
	}

	if err := m.sessions.RevokeAll(ctx, id); err != nil {
		logging.FromContext(ctx).Error("password_reset_error", "status", 500, "reason", "cannot revoke sessions", "user_id", id, "error", err)
		return id, err
	}
	return id, nil
}

// NewToken returns 32 random hex characters.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("random token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
