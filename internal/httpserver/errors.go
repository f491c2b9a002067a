package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/discord_alt/internal/apperr"
	"github.com/Skotchmaster/discord_alt/internal/transport"
	"github.com/Skotchmaster/discord_alt/pkg/logging"
)

const internalMessage = "Internal server error"

// ErrorHandler renders every handler error as {"error": ..., "details": ...}.
// In production internal failures never leak their cause.
func ErrorHandler(production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := errorResponse(err, production)
		if status >= http.StatusInternalServerError {
			logging.FromContext(c.Request().Context()).Error("request_error", "status", status, "error", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logging.FromContext(c.Request().Context()).Error("error_response_failed", "error", err)
		}
	}
}

func errorResponse(err error, production bool) (int, transport.ErrorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = fmt.Sprint(he.Message)
		}
		if he.Code >= http.StatusInternalServerError && production {
			msg = internalMessage
		}
		return he.Code, transport.ErrorResponse{Error: msg}
	}

	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	if kind == apperr.KindInternal {
		if production {
			return status, transport.ErrorResponse{Error: internalMessage}
		}
		return status, transport.ErrorResponse{Error: err.Error()}
	}

	resp := transport.ErrorResponse{Error: apperr.Message(err)}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		for _, f := range ae.Fields {
			resp.Details = append(resp.Details, transport.FieldError{Field: f.Field, Message: f.Message})
		}
	}
	return status, resp
}
