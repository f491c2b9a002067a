package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/discord_alt/internal/repo"
	"github.com/Skotchmaster/discord_alt/internal/service"
	"github.com/Skotchmaster/discord_alt/internal/session"
	"github.com/Skotchmaster/discord_alt/internal/testutil"
	"github.com/Skotchmaster/discord_alt/internal/transport"
	"github.com/Skotchmaster/discord_alt/internal/twofactor"
	"github.com/Skotchmaster/discord_alt/internal/verification"
	"github.com/Skotchmaster/discord_alt/pkg/cache"
	"github.com/Skotchmaster/discord_alt/pkg/events"
	"github.com/Skotchmaster/discord_alt/pkg/logging"
	"github.com/Skotchmaster/discord_alt/pkg/tokens"
)

type testEnv struct {
	T      *testing.T
	E      *echo.Echo
	DB     *gorm.DB
	Repo   *repo.GormRepo
	Tokens *tokens.Service
	Events *events.Recorder
}

func newTestEnv(t *testing.T, production bool) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	r := repo.New(db)
	tk := tokens.NewService([]byte("test-jwt-secret"), []byte("test-refresh-secret"), "15m", "7d")
	sessions := session.NewManager(r, tk.RefreshExpiry)
	profiles := cache.NewMemo[transport.Profile](nil)
	rec := &events.Recorder{}

	e := echo.New()
	Register(e, &Deps{
		AuthHandler: &AuthHTTP{Svc: &service.AuthService{
			Repo:         r,
			Tokens:       tk,
			Sessions:     sessions,
			Verification: verification.NewManager(r, sessions),
			TwoFactor:    twofactor.NewManager(r),
			Profiles:     profiles,
			Events:       rec,
		}},
		UserHandler: &UserHTTP{Svc: &service.UserService{Repo: r, Profiles: profiles}},
		Tokens:      tk,
		Logger:      logging.NewWithWriter(io.Discard, "error"),
		CORSOrigins: []string{"http://localhost:3000"},
		Production:  production,
	})

	return &testEnv{T: t, E: e, DB: db, Repo: r, Tokens: tk, Events: rec}
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}, accessToken string) (*httptest.ResponseRecorder, []byte) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("User-Agent", "test-agent")
	if accessToken != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+accessToken)
	}

	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec, rec.Body.Bytes()
}

// registerAndLogin creates an account through the API and returns its login response.
func (env *testEnv) registerAndLogin(email, username string) transport.LoginResponse {
	env.T.Helper()

	rec, _ := env.doJSONRequest(http.MethodPost, "/api/auth/register", map[string]string{
		"email":       email,
		"username":    username,
		"password":    "password123",
		"dateOfBirth": "2000-01-01",
	}, "")
	require.Equal(env.T, http.StatusCreated, rec.Code, rec.Body.String())

	rec, body := env.doJSONRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": "password123",
	}, "")
	require.Equal(env.T, http.StatusOK, rec.Code, rec.Body.String())

	var resp transport.LoginResponse
	require.NoError(env.T, json.Unmarshal(body, &resp))
	require.NotEmpty(env.T, resp.AccessToken)
	return resp
}

func decodeError(t *testing.T, body []byte) transport.ErrorResponse {
	t.Helper()
	var resp transport.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}
