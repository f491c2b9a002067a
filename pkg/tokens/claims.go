package tokens

import "github.com/golang-jwt/jwt/v5"

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

type AccessClaims struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Type     string `json:"typ"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	UserID  string `json:"userId"`
	TokenID string `json:"tokenId"`
	Type    string `json:"typ"`
	jwt.RegisteredClaims
}
