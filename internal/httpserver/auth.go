package httpserver

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/discord_alt/internal/service"
	"github.com/Skotchmaster/discord_alt/internal/transport"
	"github.com/Skotchmaster/discord_alt/pkg/logging"
	authmw "github.com/Skotchmaster/discord_alt/pkg/middleware/auth"
)

const unknownClient = "Unknown"

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("register_error", "status", 422, "error", err)
		return err
	}

	res, err := h.Svc.Register(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("login_error", "status", 422, "error", err)
		return err
	}

	res, err := h.Svc.Login(ctx, req, deviceInfo(c.Request()), clientIP(c.Request()))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	var req transport.RefreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	pair, err := h.Svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Logout(c.Request().Context(), userID); err != nil {
		logging.FromContext(c.Request().Context()).Error("logout_failed", "status", 500, "reason", "cannot revoke sessions", "error", err)
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHTTP) VerifyEmail(c echo.Context) error {
	var req transport.VerifyEmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.Svc.VerifyEmail(c.Request().Context(), req.Token); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.StatusResponse{Success: true, Message: "Email verified successfully"})
}

func (h *AuthHTTP) ForgotPassword(c echo.Context) error {
	var req transport.ForgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	h.Svc.ForgotPassword(c.Request().Context(), req.Email)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: service.ForgotPasswordMessage})
}

func (h *AuthHTTP) ResetPassword(c echo.Context) error {
	var req transport.ResetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.Svc.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.StatusResponse{Success: true, Message: "Password reset successfully"})
}

func (h *AuthHTTP) Enable2FA(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	res, err := h.Svc.Enable2FA(c.Request().Context(), userID, authmw.Username(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHTTP) Verify2FA(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req transport.Verify2FARequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.Svc.Verify2FA(c.Request().Context(), userID, req.Code); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.Verify2FAResponse{Enabled: true, Message: "2FA enabled successfully"})
}

func currentUserID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(authmw.UserID(c))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	return id, nil
}

func deviceInfo(r *http.Request) string {
	if ua := r.UserAgent(); ua != "" {
		return ua
	}
	return unknownClient
}

// clientIP is the first X-Forwarded-For hop.
func clientIP(r *http.Request) string {
	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	if ip := strings.TrimSpace(first); ip != "" {
		return ip
	}
	return unknownClient
}
