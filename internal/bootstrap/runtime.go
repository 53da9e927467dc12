// Package bootstrap wires the process-level dependencies shared by every command.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"linkboard/internal/cache"
	"linkboard/internal/config"
	"linkboard/internal/database"
	"linkboard/internal/middleware"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// Migrate applies the schema before returning. Commands that only read
	// (admin status changes) leave it off.
	Migrate bool
}

// InitRuntime configures logging, connects to the database and Redis, and
// optionally migrates the schema. The Redis client is nil when unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	middleware.ConfigureLogger(cfg.Env, cfg.LogLevel)

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if opts.Migrate || cfg.DBAutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return nil, nil, fmt.Errorf("migration failed: %w", err)
		}
		middleware.Logger.Info("schema migrated", slog.String("driver", db.Dialector.Name()))
	}

	return db, cache.InitRedis(cfg.RedisURL), nil
}
