package twofactor

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"github.com/Skotchmaster/discord_alt/internal/apperr"
	"github.com/Skotchmaster/discord_alt/internal/models"
)

var (
	ErrNotSetUp    = apperr.NotFound("2FA not set up")
	ErrInvalidCode = apperr.Auth("Invalid code")
)

type Store interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetTwoFactorSetup(ctx context.Context, id uuid.UUID, secret string, backupCodes []string) error
	EnableTwoFactor(ctx context.Context, id uuid.UUID) error
}

type Setup struct {
	Secret          string
	ProvisioningURI string
	QRCode          string
	BackupCodes     []string
}

type Manager struct {
	store Store
	now   func() time.Time
}

func NewManager(store Store) *Manager {
	return &Manager{store: store, now: time.Now}
}

// BeginSetup stores a fresh secret and backup codes for the user. Two-factor
// stays disabled until ConfirmSetup succeeds; calling it again replaces the
// pending secret.
func (m *Manager) BeginSetup(ctx context.Context, userID uuid.UUID, username string) (*Setup, error) {
	secret, err := newSecret()
	if err != nil {
		return nil, apperr.Internal("generate 2fa secret", err)
	}
	codes, err := newBackupCodes()
	if err != nil {
		return nil, apperr.Internal("generate backup codes", err)
	}

	uri := ProvisioningURI(secret, username)
	png, err := qrcode.Encode(uri, qrcode.Medium, 256)
	if err != nil {
		return nil, apperr.Internal("render qr code", err)
	}

	if err := m.store.SetTwoFactorSetup(ctx, userID, secret, codes); err != nil {
		return nil, apperr.Internal("store 2fa setup", err)
	}

	return &Setup{
		Secret:          secret,
		ProvisioningURI: uri,
		QRCode:          "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		BackupCodes:     codes,
	}, nil
}

func (m *Manager) ConfirmSetup(ctx context.Context, userID uuid.UUID, code string) error {
	u, err := m.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotSetUp
		}
		return apperr.Internal("load user", err)
	}
	if u.TwoFactorSecret == nil || *u.TwoFactorSecret == "" {
		return ErrNotSetUp
	}

	if !Verify(*u.TwoFactorSecret, code, m.now()) {
		return ErrInvalidCode
	}

	if err := m.store.EnableTwoFactor(ctx, userID); err != nil {
		return apperr.Internal("enable 2fa", err)
	}
	return nil
}
