package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/discord_alt/internal/models"
)

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Create(u).Error
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UsernameTaken reports whether another user than except owns username.
// Pass uuid.Nil to check against every user.
func (r *GormRepo) UsernameTaken(ctx context.Context, username string, except uuid.UUID) (bool, error) {
	var count int64
	q := r.DB.WithContext(ctx).Model(&models.User{}).Where("username = ?", username)
	if except != uuid.Nil {
		q = q.Where("id <> ?", except)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) SetEmailVerificationToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) error {
	return r.updateUser(ctx, id, map[string]any{
		"email_verification_token":  token,
		"email_verification_expiry": expiry,
	})
}

// ConsumeEmailVerificationToken marks the owner of a live token verified and
// clears the token in the same update. The update is conditional on the token
// still being present, so only one of two racing consumers wins.
func (r *GormRepo) ConsumeEmailVerificationToken(ctx context.Context, token string, now time.Time) (uuid.UUID, error) {
	return r.consumeToken(ctx, "email_verification_token", "email_verification_expiry", token, now, map[string]any{
		"email_verified": true,
	})
}

func (r *GormRepo) SetPasswordResetToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) error {
	return r.updateUser(ctx, id, map[string]any{
		"password_reset_token":  token,
		"password_reset_expiry": expiry,
	})
}

func (r *GormRepo) ConsumePasswordResetToken(ctx context.Context, token, passwordHash string, now time.Time) (uuid.UUID, error) {
	return r.consumeToken(ctx, "password_reset_token", "password_reset_expiry", token, now, map[string]any{
		"password_hash": passwordHash,
	})
}

func (r *GormRepo) consumeToken(ctx context.Context, tokenCol, expiryCol, token string, now time.Time, set map[string]any) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, gorm.ErrRecordNotFound
	}

	var user models.User
	if err := r.DB.WithContext(ctx).
		Select("id").
		Where(tokenCol+" = ? AND "+expiryCol+" > ?", token, now).
		First(&user).Error; err != nil {
		return uuid.Nil, err
	}

	updates := map[string]any{
		tokenCol:  nil,
		expiryCol: nil,
	}
	for k, v := range set {
		updates[k] = v
	}

	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND "+tokenCol+" = ?", user.ID, token).
		Updates(updates)
	if res.Error != nil {
		return uuid.Nil, res.Error
	}
	if res.RowsAffected == 0 {
		return uuid.Nil, gorm.ErrRecordNotFound
	}
	return user.ID, nil
}

func (r *GormRepo) SetTwoFactorSetup(ctx context.Context, id uuid.UUID, secret string, backupCodes []string) error {
	return r.DB.WithContext(ctx).Model(&models.User{ID: id}).
		Select("two_factor_secret", "two_factor_backup_codes", "two_factor_enabled").
		Updates(&models.User{
			TwoFactorSecret:      &secret,
			TwoFactorBackupCodes: backupCodes,
			TwoFactorEnabled:     false,
		}).Error
}

func (r *GormRepo) EnableTwoFactor(ctx context.Context, id uuid.UUID) error {
	return r.updateUser(ctx, id, map[string]any{"two_factor_enabled": true})
}

func (r *GormRepo) SetLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.updateUser(ctx, id, map[string]any{"last_login_at": at})
}

type ProfileUpdate struct {
	Username     *string
	Bio          *string
	CustomStatus *string
}

func (r *GormRepo) UpdateProfile(ctx context.Context, id uuid.UUID, p ProfileUpdate) error {
	updates := map[string]any{}
	if p.Username != nil {
		updates["username"] = *p.Username
	}
	if p.Bio != nil {
		updates["bio"] = *p.Bio
	}
	if p.CustomStatus != nil {
		updates["custom_status"] = *p.CustomStatus
	}
	if len(updates) == 0 {
		return nil
	}
	return r.updateUser(ctx, id, updates)
}

func (r *GormRepo) updateUser(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SearchUsers matches q case-insensitively against username and email.
func (r *GormRepo) SearchUsers(ctx context.Context, q string, limit int) ([]models.User, error) {
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"

	users := make([]models.User, 0, limit)
	if err := r.DB.WithContext(ctx).
		Where(`LOWER(username) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\'`, pattern, pattern).
		Order("username ASC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
