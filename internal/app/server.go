package app

import (
	"time"

	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/discord_alt/internal/httpserver"
	"github.com/Skotchmaster/discord_alt/internal/repo"
	"github.com/Skotchmaster/discord_alt/internal/service"
	"github.com/Skotchmaster/discord_alt/internal/session"
	"github.com/Skotchmaster/discord_alt/internal/transport"
	"github.com/Skotchmaster/discord_alt/internal/twofactor"
	"github.com/Skotchmaster/discord_alt/internal/verification"
	"github.com/Skotchmaster/discord_alt/pkg/cache"
	"github.com/Skotchmaster/discord_alt/pkg/config"
	"github.com/Skotchmaster/discord_alt/pkg/tokens"
)

type Server struct {
	Echo    *echo.Echo
	Sweeper *session.Sweeper
}

// NewServer wires the services over res and registers the HTTP routes.
func NewServer(cfg config.Config, res *Resources) *Server {
	GormRepo := repo.New(res.DB)
	tk := tokens.NewService(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTAccessExpiresIn, cfg.JWTRefreshExpiresIn)
	sessions := session.NewManager(GormRepo, tk.RefreshExpiry)
	profiles := cache.NewMemo[transport.Profile](res.cacheClient())

	AuthHTTP := &httpserver.AuthHTTP{
		Svc: &service.AuthService{
			Repo:         GormRepo,
			Tokens:       tk,
			Sessions:     sessions,
			Verification: verification.NewManager(GormRepo, sessions),
			TwoFactor:    twofactor.NewManager(GormRepo),
			Profiles:     profiles,
			Events:       res.Events,
			Directory:    res.Directory,
		},
	}
	UserHTTP := &httpserver.UserHTTP{
		Svc: &service.UserService{
			Repo:      GormRepo,
			Profiles:  profiles,
			Directory: res.Directory,
		},
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Pre(ecM.RemoveTrailingSlash())

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: AuthHTTP,
		UserHandler: UserHTTP,
		Tokens:      tk,
		Logger:      res.Logger,
		CORSOrigins: cfg.CORSOrigins,
		Production:  cfg.IsProduction(),
	})

	return &Server{
		Echo: e,
		Sweeper: &session.Sweeper{
			Manager:  sessions,
			Interval: tokens.ParseExpiresIn(cfg.SessionSweepInterval),
			Logger:   res.Logger,
		},
	}
}
