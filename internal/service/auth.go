package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/discord_alt/internal/apperr"
	"github.com/Skotchmaster/discord_alt/internal/directory"
	"github.com/Skotchmaster/discord_alt/internal/models"
	"github.com/Skotchmaster/discord_alt/internal/repo"
	"github.com/Skotchmaster/discord_alt/internal/session"
	"github.com/Skotchmaster/discord_alt/internal/transport"
	"github.com/Skotchmaster/discord_alt/internal/twofactor"
	"github.com/Skotchmaster/discord_alt/internal/verification"
	"github.com/Skotchmaster/discord_alt/pkg/cache"
	"github.com/Skotchmaster/discord_alt/pkg/events"
	"github.com/Skotchmaster/discord_alt/pkg/hash"
	"github.com/Skotchmaster/discord_alt/pkg/logging"
	"github.com/Skotchmaster/discord_alt/pkg/tokens"
)

var (
	ErrEmailInUse          = apperr.Conflict("Email already in use")
	ErrUsernameTaken       = apperr.Conflict("Username already taken")
	ErrInvalidCredentials  = apperr.Auth("Invalid credentials")
	ErrInvalidRefreshToken = apperr.Auth("Invalid refresh token")
)

const ForgotPasswordMessage = "If the email exists, a password reset link has been sent"

type AuthService struct {
	Repo         *repo.GormRepo
	Tokens       *tokens.Service
	Sessions     *session.Manager
	Verification *verification.Manager
	TwoFactor    *twofactor.Manager
	Profiles     *cache.Memo[transport.Profile]
	Events       events.Publisher
	Directory    directory.Index

	hashPassword func(string) (string, error)
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*transport.RegisterResponse, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")
	email := normalizeEmail(req.Email)

	if err := s.checkAvailable(ctx, email, req.Username); err != nil {
		l.Warn("register_error", "status", 409, "reason", apperr.Message(err))
		return nil, err
	}

	pwHash, err := s.hash(req.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, apperr.Internal("hash password", err)
	}
	disc, err := newDiscriminator()
	if err != nil {
		return nil, apperr.Internal("discriminator", err)
	}
	verifyToken, verifyExpiry, err := s.Verification.NewEmailVerification()
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot issue verification token", "error", err)
		return nil, err
	}

	user := &models.User{
		Email:         email,
		Username:      req.Username,
		Discriminator: disc,
		PasswordHash:  pwHash,
		DateOfBirth:   req.DateOfBirth,
		Status:        "offline",
		Badges:        []string{},

		EmailVerificationToken:  &verifyToken,
		EmailVerificationExpiry: &verifyExpiry,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost a race with a concurrent registration; report which field
			if cerr := s.checkAvailable(ctx, email, req.Username); cerr != nil {
				return nil, cerr
			}
			return nil, ErrEmailInUse
		}
		l.Error("register_error", "status", 500, "reason", "cannot create user", "error", err)
		return nil, apperr.Internal("create user", err)
	}

	s.publish(ctx, events.UserRegistered, user)
	s.index(ctx, user)
	l.Info("register_success", "user_id", user.ID)

	return &transport.RegisterResponse{
		UserID:                user.ID.String(),
		Username:              user.Username,
		Email:                 user.Email,
		Discriminator:         user.Discriminator,
		VerificationEmailSent: true,
	}, nil
}

func (s *AuthService) checkAvailable(ctx context.Context, email, username string) error {
	exists, err := s.Repo.EmailExists(ctx, email)
	if err != nil {
		return apperr.Internal("check email", err)
	}
	if exists {
		return ErrEmailInUse
	}
	taken, err := s.Repo.UsernameTaken(ctx, username, uuid.Nil)
	if err != nil {
		return apperr.Internal("check username", err)
	}
	if taken {
		return ErrUsernameTaken
	}
	return nil
}

// dummyHash keeps the cost of a login for an unknown email close to that of a
// wrong password.
var dummyHash = sync.OnceValue(func() string {
	h, _ := hash.HashPassword("not-a-real-password")
	return h
})

func (s *AuthService) Login(ctx context.Context, req transport.LoginRequest, deviceInfo, ip string) (*transport.LoginResponse, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hash.CheckPassword(dummyHash(), req.Password)
			l.Warn("login_failed", "status", 401, "reason", "invalid email or password")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, apperr.Internal("load user", err)
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		l.Warn("login_failed", "status", 401, "reason", "invalid email or password")
		return nil, ErrInvalidCredentials
	}

	pair, tokenID, err := s.issuePair(user)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	if _, err := s.Sessions.Create(ctx, user.ID, tokenID, deviceInfo, ip); err != nil {
		return nil, err
	}
	if err := s.Repo.SetLastLogin(ctx, user.ID, nowUTC()); err != nil {
		l.Warn("login_last_login_failed", "user_id", user.ID, "error", err)
	}

	s.publish(ctx, events.UserLoggedIn, user)
	l.Info("login_successful", "user_id", user.ID)

	return &transport.LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User: transport.LoginUser{
			ID:            user.ID.String(),
			Username:      user.Username,
			Discriminator: user.Discriminator,
			Email:         user.Email,
			EmailVerified: user.EmailVerified,
		},
	}, nil
}

// Refresh trades a refresh token bound to a live session for a new pair and
// rotates the session in place. The presented token stops working.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*transport.TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := s.Tokens.VerifyRefresh(refreshToken)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", "invalid token")
		return nil, ErrInvalidRefreshToken
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", "bad subject")
		return nil, ErrInvalidRefreshToken
	}

	sess, err := s.Sessions.FindByTokenID(ctx, userID, claims.TokenID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			l.Warn("refresh_failed", "status", 401, "reason", "session not found", "user_id", userID)
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("refresh_failed", "status", 401, "reason", "user not found", "user_id", userID)
			return nil, ErrInvalidRefreshToken
		}
		return nil, apperr.Internal("load user", err)
	}

	pair, tokenID, err := s.issuePair(user)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, err
	}
	if _, err := s.Sessions.Rotate(ctx, sess, tokenID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			l.Warn("refresh_failed", "status", 401, "reason", "session rotated concurrently", "user_id", userID)
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	l.Info("refresh_successful", "user_id", userID)
	return pair, nil
}

func (s *AuthService) issuePair(user *models.User) (*transport.TokenPair, string, error) {
	access, _, err := s.Tokens.IssueAccess(user.ID.String(), user.Email, user.Username)
	if err != nil {
		return nil, "", apperr.Internal("issue access token", err)
	}
	refresh, tokenID, _, err := s.Tokens.IssueRefresh(user.ID.String())
	if err != nil {
		return nil, "", apperr.Internal("issue refresh token", err)
	}
	return &transport.TokenPair{AccessToken: access, RefreshToken: refresh}, tokenID, nil
}

func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.Sessions.RevokeAll(ctx, userID); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("successful_logout", "user_id", userID)
	return nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	l := logging.FromContext(ctx).With("svc", "auth.verify_email")

	userID, err := s.Verification.ConsumeEmailVerification(ctx, token)
	if err != nil {
		l.Warn("verify_email_failed", "reason", apperr.Message(err))
		return err
	}

	s.Profiles.Invalidate(ctx, ProfileCacheKey(userID))
	s.publish(ctx, events.EmailVerified, &models.User{ID: userID})
	l.Info("email_verified", "user_id", userID)
	return nil
}

// ForgotPassword never reports whether email belongs to an account. Failures
// are logged and swallowed.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) {
	l := logging.FromContext(ctx).With("svc", "auth.forgot_password")

	user, err := s.Repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			l.Error("forgot_password_error", "error", err)
		}
		return
	}

	if _, err := s.Verification.IssuePasswordReset(ctx, user.ID); err != nil {
		l.Error("forgot_password_error", "user_id", user.ID, "error", err)
		return
	}
	// TODO: hand the reset token to the mail delivery service once it exists.
	l.Info("password_reset_requested", "user_id", user.ID)
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	l := logging.FromContext(ctx).With("svc", "auth.reset_password")

	userID, err := s.Verification.ConsumePasswordReset(ctx, token, newPassword)
	if err != nil {
		l.Warn("reset_password_failed", "reason", apperr.Message(err))
		return err
	}

	s.Profiles.Invalidate(ctx, ProfileCacheKey(userID))
	s.publish(ctx, events.PasswordReset, &models.User{ID: userID})
	l.Info("password_reset", "user_id", userID)
	return nil
}

func (s *AuthService) Enable2FA(ctx context.Context, userID uuid.UUID, username string) (*transport.Enable2FAResponse, error) {
	setup, err := s.TwoFactor.BeginSetup(ctx, userID, username)
	if err != nil {
		logging.FromContext(ctx).Error("enable_2fa_error", "user_id", userID, "error", err)
		return nil, err
	}
	logging.FromContext(ctx).Info("2fa_setup_initiated", "user_id", userID)

	return &transport.Enable2FAResponse{
		Secret:      setup.Secret,
		QRCode:      setup.QRCode,
		BackupCodes: setup.BackupCodes,
	}, nil
}

func (s *AuthService) Verify2FA(ctx context.Context, userID uuid.UUID, code string) error {
	l := logging.FromContext(ctx).With("svc", "auth.verify_2fa")

	if err := s.TwoFactor.ConfirmSetup(ctx, userID, code); err != nil {
		l.Warn("verify_2fa_failed", "user_id", userID, "reason", apperr.Message(err))
		return err
	}

	s.Profiles.Invalidate(ctx, ProfileCacheKey(userID))
	s.publish(ctx, events.TwoFactorEnabled, &models.User{ID: userID})
	l.Info("2fa_enabled", "user_id", userID)
	return nil
}

func (s *AuthService) hash(pw string) (string, error) {
	if s.hashPassword != nil {
		return s.hashPassword(pw)
	}
	return hash.HashPassword(pw)
}

func (s *AuthService) publish(ctx context.Context, typ string, u *models.User) {
	if s.Events == nil {
		return
	}
	ev := events.Event{Type: typ, UserID: u.ID.String(), Username: u.Username}
	if err := s.Events.Publish(ctx, ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", typ, "error", err)
	}
}

func (s *AuthService) index(ctx context.Context, u *models.User) {
	indexUser(ctx, s.Directory, u)
}

// newDiscriminator returns a uniformly random number in [1000, 9999]. It is not
// checked against existing (username, discriminator) pairs.
func newDiscriminator() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+1000, 10), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
