package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/discord_alt/internal/service"
	"github.com/Skotchmaster/discord_alt/internal/transport"
)

type UserHTTP struct {
	Svc *service.UserService
}

func (h *UserHTTP) Me(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	p, err := h.Svc.Me(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *UserHTTP) UpdateMe(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req transport.UpdateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	p, err := h.Svc.UpdateMe(c.Request().Context(), userID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *UserHTTP) Search(c echo.Context) error {
	var req transport.SearchUsersRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	users, err := h.Svc.Search(c.Request().Context(), req.Q, req.Limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.SearchUsersResponse{Users: users})
}

func (h *UserHTTP) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user id")
	}
	p, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
