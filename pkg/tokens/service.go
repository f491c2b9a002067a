package tokens

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is the only failure Verify* report. Expired, forged and
// malformed tokens are indistinguishable to callers.
var ErrInvalidToken = errors.New("invalid token")

const tokenIDBytes = 24

type Service struct {
	accessSecret     []byte
	refreshSecret    []byte
	accessExpiresIn  string
	refreshExpiresIn string
	now              func() time.Time
}

func NewService(accessSecret, refreshSecret []byte, accessExpiresIn, refreshExpiresIn string) *Service {
	return &Service{
		accessSecret:     accessSecret,
		refreshSecret:    refreshSecret,
		accessExpiresIn:  accessExpiresIn,
		refreshExpiresIn: refreshExpiresIn,
		now:              time.Now,
	}
}

func (s *Service) IssueAccess(userID, email, username string) (string, time.Time, error) {
	now := s.now()
	exp := computeExpiryAt(s.accessExpiresIn, now)
	claims := AccessClaims{
		UserID:   userID,
		Email:    email,
		Username: username,
		Type:     typeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, exp, nil
}

// IssueRefresh returns the signed token together with its fresh token id; the
// id is what a session row stores.
func (s *Service) IssueRefresh(userID string) (token, tokenID string, exp time.Time, err error) {
	tokenID, err = NewTokenID()
	if err != nil {
		return "", "", time.Time{}, err
	}

	now := s.now()
	exp = computeExpiryAt(s.refreshExpiresIn, now)
	claims := RefreshClaims{
		UserID:  userID,
		TokenID: tokenID,
		Type:    typeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshSecret)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return token, tokenID, exp, nil
}

func (s *Service) VerifyAccess(token string) (*AccessClaims, error) {
	claims, err := AccessClaimsFromToken(token, s.accessSecret)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) VerifyRefresh(token string) (*RefreshClaims, error) {
	claims, err := RefreshClaimsFromToken(token, s.refreshSecret)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// RefreshExpiry is the expiry a session created now should carry.
func (s *Service) RefreshExpiry() time.Time {
	return computeExpiryAt(s.refreshExpiresIn, s.now())
}

func NewTokenID() (string, error) {
	b := make([]byte, tokenIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("token id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
