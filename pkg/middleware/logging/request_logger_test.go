package loggingmw

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/discord_alt/pkg/logging"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(logging.NewWithWriter(&buf, "debug")))

	e.GET("/ok", func(c echo.Context) error {
		logging.FromContext(c.Request().Context()).Info("inside_handler")
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/missing", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "nope")
	})

	tests := []struct {
		path  string
		want  int
		level string
	}{
		{path: "/ok", want: http.StatusNoContent, level: "INFO"},
		{path: "/missing", want: http.StatusNotFound, level: "WARN"},
	}
	for _, tt := range tests {
		buf.Reset()
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		req.Header.Set(echo.HeaderXRequestID, "req-1")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		require.Equal(t, tt.want, rec.Code)
		assert.Equal(t, "req-1", rec.Header().Get(echo.HeaderXRequestID))

		lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
		var last map[string]any
		require.NoError(t, json.Unmarshal(lines[len(lines)-1], &last))
		assert.Equal(t, "request_completed", last["msg"])
		assert.Equal(t, tt.level, last["level"])
		assert.Equal(t, float64(tt.want), last["status"])
		assert.Equal(t, "req-1", last["request_id"])
		assert.Equal(t, tt.path, last["url"])
	}

}
