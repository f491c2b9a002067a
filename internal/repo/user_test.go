package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/discord_alt/internal/models"
	"github.com/Skotchmaster/discord_alt/internal/testutil"
)

func TestGormRepo_CreateUser_UniqueFields(t *testing.T) {
	db := testutil.NewDB(t)
	r := New(db)
	ctx := context.Background()

	testutil.CreateUser(t, db, "a@example.com", "alice", "password123")

	err := r.CreateUser(ctx, &models.User{Email: "a@example.com", Username: "other", Discriminator: "1000"})
	require.Error(t, err)

	err = r.CreateUser(ctx, &models.User{Email: "b@example.com", Username: "alice", Discriminator: "1000"})
	require.Error(t, err)

	exists, err := r.EmailExists(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	taken, err := r.UsernameTaken(ctx, "alice", uuid.Nil)
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestGormRepo_UsernameTaken_ExceptSelf(t *testing.T) {
	db := testutil.NewDB(t)
	r := New(db)
	ctx := context.Background()

	u := testutil.CreateUser(t, db, "a@example.com", "alice", "password123")

	taken, err := r.UsernameTaken(ctx, "alice", u.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestGormRepo_ConsumeEmailVerificationToken_SingleUse(t *testing.T) {
	db := testutil.NewDB(t)
	r := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	u := testutil.CreateUser(t, db, "a@example.com", "alice", "password123")
	require.NoError(t, r.SetEmailVerificationToken(ctx, u.ID, "tok", now.Add(time.Hour)))

	id, err := r.ConsumeEmailVerificationToken(ctx, "tok", now)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	got, err := r.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.EmailVerified)
	assert.Nil(t, got.EmailVerificationToken)
	assert.Nil(t, got.EmailVerificationExpiry)

	_, err = r.ConsumeEmailVerificationToken(ctx, "tok", now)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGormRepo_ConsumePasswordResetToken_Expired(t *testing.T) {
	db := testutil.NewDB(t)
	r := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	u := testutil.CreateUser(t, db, "a@example.com", "alice", "password123")
	require.NoError(t, r.SetPasswordResetToken(ctx, u.ID, "reset", now.Add(-time.Minute)))

	_, err := r.ConsumePasswordResetToken(ctx, "reset", "new-hash", now)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = r.ConsumePasswordResetToken(ctx, "", "new-hash", now)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	got, err := r.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.PasswordHash, got.PasswordHash)
}

func TestGormRepo_TwoFactorSetupAndEnable(t *testing.T) {
	db := testutil.NewDB(t)
	r := New(db)
	ctx := context.Background()

	u := testutil.CreateUser(t, db, "a@example.com", "alice", "password123")
	codes := []string{"0a1b2c3d", "deadbeef"}
	require.NoError(t, r.SetTwoFactorSetup(ctx, u.ID, "SECRET", codes))

	got, err := r.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.TwoFactorSecret)
	assert.Equal(t, "SECRET", *got.TwoFactorSecret)
	assert.Equal(t, codes, got.TwoFactorBackupCodes)
	assert.False(t, got.TwoFactorEnabled)

	require.NoError(t, r.EnableTwoFactor(ctx, u.ID))
	got, err = r.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.TwoFactorEnabled)
}

func TestGormRepo_UpdateProfile(t *testing.T) {
	db := testutil.NewDB(t)
	r := New(db)
	ctx := context.Background()

	u := testutil.CreateUser(t, db, "a@example.com", "alice", "password123")
	bio := "hello"
	require.NoError(t, r.UpdateProfile(ctx, u.ID, ProfileUpdate{Bio: &bio}))
	require.NoError(t, r.UpdateProfile(ctx, u.ID, ProfileUpdate{}))

	got, err := r.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Bio)
	assert.Equal(t, "alice", got.Username)

	err = r.UpdateProfile(ctx, uuid.New(), ProfileUpdate{Bio: &bio})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGormRepo_SearchUsers(t *testing.T) {
	db := testutil.NewDB(t)
	r := New(db)
	ctx := context.Background()

	testutil.CreateUser(t, db, "alice@example.com", "Alice", "password123")
	testutil.CreateUser(t, db, "bob@example.com", "bob_the_builder", "password123")
	testutil.CreateUser(t, db, "carol@test.org", "carol", "password123")

	got, err := r.SearchUsers(ctx, "ALI", 20)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Alice", got[0].Username)

	got, err = r.SearchUsers(ctx, "example", 20)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = r.SearchUsers(ctx, "example", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = r.SearchUsers(ctx, "_", 20)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "bob_the_builder", got[0].Username)

	got, err = r.SearchUsers(ctx, "%", 20)
	require.NoError(t, err)
	assert.Empty(t, got)
}
