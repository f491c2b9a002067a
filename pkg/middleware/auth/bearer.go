package authmw

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/discord_alt/pkg/logging"
	"github.com/Skotchmaster/discord_alt/pkg/tokens"
)

const (
	CtxUserID   = "user_id"
	CtxUsername = "username"
	CtxEmail    = "email"
	CtxClaims   = "claims"
)

// RequireBearer accepts requests carrying "Authorization: Bearer <access token>".
// Every failure is reported as the same 401 so callers cannot tell a missing
// header from an expired or forged token.
func RequireBearer(svc *tokens.Service) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  CtxClaims,
		TokenLookup: "header:Authorization:Bearer ",
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			claims, err := svc.VerifyAccess(auth)
			if err != nil {
				return nil, err
			}
			if claims.UserID == "" {
				return nil, tokens.ErrInvalidToken
			}
			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxUsername, claims.Username)
			c.Set(CtxEmail, claims.Email)
			return claims, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			logging.FromContext(c.Request().Context()).Warn("auth_failed", "status", 401, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
		},
	})
}

func UserID(c echo.Context) string {
	id, _ := c.Get(CtxUserID).(string)
	return id
}

func Username(c echo.Context) string {
	name, _ := c.Get(CtxUsername).(string)
	return name
}
