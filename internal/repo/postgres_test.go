package repo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/discord_alt/internal/models"
	"github.com/Skotchmaster/discord_alt/internal/testutil"
)

func TestPostgres_DuplicateEmailIsTranslated(t *testing.T) {
	db := testutil.NewPostgresDB(t)
	r := New(db)
	ctx := context.Background()

	testutil.CreateUser(t, db, "a@example.com", "alice", "password123")

	err := r.CreateUser(ctx, &models.User{Email: "a@example.com", Username: "other", Discriminator: "1000", PasswordHash: "x"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestPostgres_RotateSession_SingleWinner(t *testing.T) {
	db := testutil.NewPostgresDB(t)
	r := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	u := testutil.CreateUser(t, db, "a@example.com", "alice", "password123")
	s := &models.Session{UserID: u.ID, RefreshToken: "t0", DeviceInfo: "x", IPAddress: "x", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, r.CreateSession(ctx, s))

	const racers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			next := "t" + string(rune('a'+i))
			if err := r.RotateSession(ctx, s.ID, "t0", next, now.Add(2*time.Hour)); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}
