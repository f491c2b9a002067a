package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"  json:"id"`
	Email         string    `gorm:"uniqueIndex;not null"  json:"email"`
	Username      string    `gorm:"uniqueIndex;not null"  json:"username"`
	Discriminator string    `gorm:"size:4;not null"       json:"discriminator"`
	PasswordHash  string    `gorm:"not null"              json:"-"`
	DateOfBirth   string    `gorm:"not null"              json:"-"`

	EmailVerified           bool       `gorm:"not null" json:"emailVerified"`
	EmailVerificationToken  *string    `gorm:"index"    json:"-"`
	EmailVerificationExpiry *time.Time `                json:"-"`
	PasswordResetToken      *string    `gorm:"index"    json:"-"`
	PasswordResetExpiry     *time.Time `                json:"-"`

	TwoFactorSecret      *string  `                                 json:"-"`
	TwoFactorEnabled     bool     `gorm:"not null"                  json:"twoFactorEnabled"`
	TwoFactorBackupCodes []string `gorm:"type:text;serializer:json" json:"-"`

	Avatar       string   `gorm:"not null"                  json:"avatar"`
	Banner       string   `gorm:"not null"                  json:"banner"`
	Bio          string   `gorm:"not null"                  json:"bio"`
	CustomStatus string   `gorm:"not null"                  json:"customStatus"`
	Status       string   `gorm:"not null"                  json:"status"`
	Badges       []string `gorm:"type:text;serializer:json" json:"badges"`

	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Session is the server-side half of a login. RefreshToken holds the token id
// embedded in the refresh JWT, never the signed token itself.
type Session struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"                                    json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index:idx_sessions_user_token,priority:1" json:"userId"`
	RefreshToken string    `gorm:"not null;index:idx_sessions_user_token,priority:2"          json:"-"`
	DeviceInfo   string    `gorm:"not null"                                                json:"deviceInfo"`
	IPAddress    string    `gorm:"not null"                                                json:"ipAddress"`
	ExpiresAt    time.Time `gorm:"not null;index"                                          json:"expiresAt"`
	CreatedAt    time.Time `                                                               json:"createdAt"`
}

func (s *Session) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Valid reports whether the session may still be trusted at now.
func (s *Session) Valid(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
