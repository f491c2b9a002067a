package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Skotchmaster/discord_alt/internal/models"
)

// CreateUser inserts a user with the given password hashed at the minimum
// bcrypt cost to keep tests fast.
func CreateUser(t *testing.T, db *gorm.DB, email, username, password string) *models.User {
	t.Helper()

	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	u := &models.User{
		ID:            uuid.New(),
		Email:         email,
		Username:      username,
		Discriminator: "1234",
		PasswordHash:  string(h),
		Status:        "offline",
		Badges:        []string{},
	}
	require.NoError(t, db.Create(u).Error)
	return u
}
