package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/discord_alt/internal/app"
	"github.com/Skotchmaster/discord_alt/pkg/config"
	"github.com/Skotchmaster/discord_alt/pkg/logging"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	cfg.MustProductionSecrets()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName, "env", cfg.Env)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	res, err := app.Open(initCtx, cfg, logger)
	cancel()
	if err != nil {
		log.Fatalf("init error: %v", err)
	}

	srv := app.NewServer(cfg, res)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go srv.Sweeper.Run(ctx)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.ServerPort)
		logger.Info("server_started", "addr", addr)
		if err := srv.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("echo start: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Echo.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo_shutdown_failed", "error", err)
	}
	if err := res.Close(); err != nil {
		logger.Error("resources_close_failed", "error", err)
	}
	logger.Info("shutdown_complete")
}
