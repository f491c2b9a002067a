package verification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/discord_alt/internal/apperr"
	"github.com/Skotchmaster/discord_alt/internal/models"
	"github.com/Skotchmaster/discord_alt/internal/repo"
	"github.com/Skotchmaster/discord_alt/internal/session"
	"github.com/Skotchmaster/discord_alt/internal/testutil"
	"github.com/Skotchmaster/discord_alt/pkg/hash"
)

type testEnv struct {
	repo     *repo.GormRepo
	sessions *session.Manager
	mgr      *Manager
	user     *models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	r := repo.New(db)
	sessions := session.NewManager(r, func() time.Time { return time.Now().Add(time.Hour) })
	mgr := NewManager(r, sessions)
	mgr.hash = func(pw string) (string, error) {
		h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
		return string(h), err
	}

	return &testEnv{
		repo:     r,
		sessions: sessions,
		mgr:      mgr,
		user:     testutil.CreateUser(t, db, "a@example.com", "alice", "password123"),
	}
}

func TestNewToken(t *testing.T) {
	t.Parallel()

	a, err := NewToken()
	require.NoError(t, err)
	b, err := NewToken()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.Regexp(t, `^[0-9a-f]{32}$`, a)
	assert.NotEqual(t, a, b)
}

func TestManager_NewEmailVerification(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mgr := NewManager(nil, nil)
	mgr.now = func() time.Time { return fixed }

	token, expiry, err := mgr.NewEmailVerification()
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9a-f]{32}$`, token)
	assert.Equal(t, fixed.Add(EmailVerificationTTL), expiry)
}

func TestManager_EmailVerification_SingleUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	token, err := env.mgr.IssueEmailVerification(ctx, env.user.ID)
	require.NoError(t, err)

	u, err := env.repo.GetUserByID(ctx, env.user.ID)
	require.NoError(t, err)
	require.NotNil(t, u.EmailVerificationExpiry)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), *u.EmailVerificationExpiry, 2*time.Second)

	id, err := env.mgr.ConsumeEmailVerification(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, env.user.ID, id)

	_, err = env.mgr.ConsumeEmailVerification(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidVerificationToken)
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))

	u, err = env.repo.GetUserByID(ctx, env.user.ID)
	require.NoError(t, err)
	assert.True(t, u.EmailVerified)
}

func TestManager_EmailVerification_Expired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.mgr.now = func() time.Time { return time.Now().UTC().Add(-25 * time.Hour) }
	token, err := env.mgr.IssueEmailVerification(ctx, env.user.ID)
	require.NoError(t, err)
	env.mgr.now = func() time.Time { return time.Now().UTC() }

	_, err = env.mgr.ConsumeEmailVerification(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidVerificationToken)
}

func TestManager_IssueForUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.mgr.IssuePasswordReset(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestManager_PasswordReset_RevokesSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.sessions.Create(ctx, env.user.ID, "tok-1", "d", "ip")
	require.NoError(t, err)
	_, err = env.sessions.Create(ctx, env.user.ID, "tok-2", "d", "ip")
	require.NoError(t, err)

	token, err := env.mgr.IssuePasswordReset(ctx, env.user.ID)
	require.NoError(t, err)

	id, err := env.mgr.ConsumePasswordReset(ctx, token, "new-password-1")
	require.NoError(t, err)
	assert.Equal(t, env.user.ID, id)

	u, err := env.repo.GetUserByID(ctx, env.user.ID)
	require.NoError(t, err)
	assert.True(t, hash.CheckPassword(u.PasswordHash, "new-password-1"))
	assert.False(t, hash.CheckPassword(u.PasswordHash, "password123"))
	assert.Nil(t, u.PasswordResetToken)
	assert.Nil(t, u.PasswordResetExpiry)

	_, err = env.sessions.FindByTokenID(ctx, env.user.ID, "tok-1")
	assert.ErrorIs(t, err, session.ErrNotFound)

	_, err = env.mgr.ConsumePasswordReset(ctx, token, "another-password")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestManager_PasswordReset_OlderThanAnHourFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.mgr.now = func() time.Time { return time.Now().UTC().Add(-61 * time.Minute) }
	token, err := env.mgr.IssuePasswordReset(ctx, env.user.ID)
	require.NoError(t, err)
	env.mgr.now = func() time.Time { return time.Now().UTC() }

	_, err = env.mgr.ConsumePasswordReset(ctx, token, "new-password-1")
	assert.ErrorIs(t, err, ErrInvalidResetToken)

	u, err := env.repo.GetUserByID(ctx, env.user.ID)
	require.NoError(t, err)
	assert.True(t, hash.CheckPassword(u.PasswordHash, "password123"))
}

func TestManager_PasswordReset_EmptyToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.mgr.ConsumePasswordReset(context.Background(), "", "new-password-1")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}
