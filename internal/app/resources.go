package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Skotchmaster/discord_alt/internal/directory"
	"github.com/Skotchmaster/discord_alt/internal/migrations"
	"github.com/Skotchmaster/discord_alt/pkg/cache"
	"github.com/Skotchmaster/discord_alt/pkg/config"
	"github.com/Skotchmaster/discord_alt/pkg/db"
	"github.com/Skotchmaster/discord_alt/pkg/events"
)

// Resources holds the process-wide connections. They are opened once at
// startup and released by Close.
type Resources struct {
	Logger    *slog.Logger
	DB        *gorm.DB
	Redis     *redis.Client
	Events    events.Publisher
	Directory directory.Index

	closeOnce sync.Once
	closeErr  error
}

// Open connects the store and applies migrations. Redis, Kafka and
// Elasticsearch are optional: an unset or unreachable one is logged and left
// out.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Resources, error) {
	res := &Resources{Logger: logger, Events: events.Nop{}}

	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	res.DB = gdb

	if err := db.Migrate(ctx, gdb, migrations.Migrations); err != nil {
		_ = res.Close()
		return nil, err
	}

	rdb, err := cache.Open(ctx, cfg.RedisURL)
	switch {
	case err != nil:
		logger.Warn("redis_unavailable", "reason", "profile cache disabled", "error", err)
	case rdb != nil:
		res.Redis = rdb
	}

	if len(cfg.KafkaBrokers) > 0 {
		res.Events = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaUserTopic)
	}

	if cfg.ESURL != "" {
		es, err := directory.NewClient(ctx, cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			logger.Warn("elasticsearch_unavailable", "reason", "search falls back to the database", "error", err)
		} else {
			res.Directory = directory.NewESIndex(es, cfg.ESUsersIndex)
		}
	}

	logger.Info("resources_ready",
		"redis", res.Redis != nil,
		"kafka", len(cfg.KafkaBrokers) > 0,
		"elasticsearch", res.Directory != nil,
	)
	return res, nil
}

// Close releases everything Open acquired. Later calls return the first
// result.
func (r *Resources) Close() error {
	r.closeOnce.Do(func() {
		var errs []error
		if r.Events != nil {
			if err := r.Events.Close(); err != nil {
				errs = append(errs, fmt.Errorf("events close: %w", err))
			}
		}
		if r.Redis != nil {
			if err := r.Redis.Close(); err != nil {
				errs = append(errs, fmt.Errorf("redis close: %w", err))
			}
		}
		if r.DB != nil {
			if err := db.Close(r.DB); err != nil {
				errs = append(errs, fmt.Errorf("db close: %w", err))
			}
		}
		r.closeErr = errors.Join(errs...)
	})
	return r.closeErr
}

// cacheClient hands the memo a nil interface rather than a typed nil pointer
// when redis is not configured.
func (r *Resources) cacheClient() redis.Cmdable {
	if r.Redis == nil {
		return nil
	}
	return r.Redis
}
