package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/discord_alt/internal/migrations"
	"github.com/Skotchmaster/discord_alt/internal/models"
	"github.com/Skotchmaster/discord_alt/pkg/db"
)

// NewDB returns a fresh in-memory sqlite store with the schema applied.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), db.GormConfig())
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// every pooled connection would otherwise see its own empty database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(&models.User{}, &models.Session{}))

	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

// NewPostgresDB connects to TEST_DATABASE_URL and applies the goose
// migrations, skipping the test when the variable is unset.
func NewPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is required for tests")
	}

	ctx := context.Background()
	gdb, err := db.Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, gdb, migrations.Migrations))

	t.Cleanup(func() {
		gdb.Exec("TRUNCATE TABLE sessions, users CASCADE")
		_ = db.Close(gdb)
	})
	return gdb
}
