package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"

	authmw "github.com/Skotchmaster/discord_alt/pkg/middleware/auth"
	loggingmw "github.com/Skotchmaster/discord_alt/pkg/middleware/logging"
	"github.com/Skotchmaster/discord_alt/pkg/tokens"
)

type Deps struct {
	AuthHandler *AuthHTTP
	UserHandler *UserHTTP
	Tokens      *tokens.Service
	Logger      *slog.Logger

	CORSOrigins []string
	Production  bool
}

func Common(d *Deps) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		ecM.RequestID(),
		loggingmw.RequestLogger(d.Logger),
		ecM.Recover(),
		ecM.Secure(),
		ecM.CORSWithConfig(ecM.CORSConfig{
			AllowOrigins:     d.CORSOrigins,
			AllowCredentials: true,
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}),
	}
}

func Register(e *echo.Echo, d *Deps) {
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler(d.Production)

	for _, m := range Common(d) {
		e.Use(m)
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})

	requireAuth := authmw.RequireBearer(d.Tokens)

	auth := e.Group("/api/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/verify-email", d.AuthHandler.VerifyEmail)
	auth.POST("/forgot-password", d.AuthHandler.ForgotPassword)
	auth.POST("/reset-password", d.AuthHandler.ResetPassword)

	private := auth.Group("", requireAuth)
	private.POST("/logout", d.AuthHandler.LogOut)
	private.POST("/enable-2fa", d.AuthHandler.Enable2FA)
	private.POST("/verify-2fa", d.AuthHandler.Verify2FA)

	users := e.Group("/api/users", requireAuth)
	users.GET("/@me", d.UserHandler.Me)
	users.PATCH("/@me", d.UserHandler.UpdateMe)
	users.GET("/search", d.UserHandler.Search)
	users.GET("/:id", d.UserHandler.Get)
}
