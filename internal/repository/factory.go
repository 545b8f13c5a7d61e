package repository

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/namefreezers/weatherhere/internal/config"
)

// NewLocationRepository opens the backend chosen by cfg.StorageDriver. The returned
// close func releases the underlying connection.
func NewLocationRepository(cfg *config.Config, logger *zap.Logger) (LocationRepository, func() error, error) {
	logger = logger.With(zap.String("storage", cfg.StorageDriver))

	switch cfg.StorageDriver {
	case "sqlite":
		db, err := OpenDB(DriverSQLite, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite %q: %w", cfg.SQLitePath, err)
		}
		logger.Info("location store ready", zap.String("path", cfg.SQLitePath))
		return NewSQLLocationRepository(db, logger), db.Close, nil

	case "postgres":
		db, err := OpenDB(DriverPostgres, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		logger.Info("location store ready")
		return NewSQLLocationRepository(db, logger), db.Close, nil

	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("location store ready", zap.String("addr", cfg.RedisAddr))
		return NewRedisLocationRepository(rdb, logger), rdb.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}
