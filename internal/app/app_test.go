package app

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/discord_alt/internal/testutil"
	"github.com/Skotchmaster/discord_alt/pkg/config"
	"github.com/Skotchmaster/discord_alt/pkg/events"
	"github.com/Skotchmaster/discord_alt/pkg/logging"
)

func newTestResources(t *testing.T) (*Resources, *events.Recorder) {
	t.Helper()
	rec := &events.Recorder{}
	return &Resources{
		Logger: logging.NewWithWriter(io.Discard, "error"),
		DB:     testutil.NewDB(t),
		Events: rec,
	}, rec
}

func testConfig() config.Config {
	return config.Config{
		Env:                  "test",
		JWTAccessSecret:      []byte("access"),
		JWTRefreshSecret:     []byte("refresh"),
		JWTAccessExpiresIn:   "15m",
		JWTRefreshExpiresIn:  "7d",
		CORSOrigins:          []string{"http://localhost:3000"},
		SessionSweepInterval: "30s",
	}
}

func TestNewServer_ServesAPI(t *testing.T) {
	res, rec := newTestResources(t)
	srv := NewServer(testConfig(), res)

	assert.Equal(t, "30s", srv.Sweeper.Interval.String())

	req := httptest.NewRequest(http.MethodGet, "/health/", nil)
	w := httptest.NewRecorder()
	srv.Echo.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	body, _ := json.Marshal(map[string]string{
		"email":       "alice@example.com",
		"username":    "alice",
		"password":    "password123",
		"dateOfBirth": "2000-01-01",
	})
	req = httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	w = httptest.NewRecorder()
	srv.Echo.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, []string{events.UserRegistered}, rec.Types())

	req = httptest.NewRequest(http.MethodGet, "/api/users/@me", nil)
	w = httptest.NewRecorder()
	srv.Echo.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestResources_CloseOnce(t *testing.T) {
	res, _ := newTestResources(t)

	require.NoError(t, res.Close())
	require.NoError(t, res.Close())
	assert.Nil(t, res.cacheClient())
}
