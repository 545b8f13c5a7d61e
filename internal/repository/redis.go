package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/namefreezers/weatherhere/internal/weather/types"
)

const redisKeyPrefix = "weatherhere:"

type redisRepo struct {
	redis  *redis.Client
	logger *zap.Logger
}

// NewRedisLocationRepository keeps values under weatherhere:-prefixed keys with no expiry.
func NewRedisLocationRepository(rdb *redis.Client, logger *zap.Logger) LocationRepository {
	return &redisRepo{redis: rdb, logger: logger}
}

func (r *redisRepo) put(ctx context.Context, key, value string) error {
	if err := r.redis.Set(ctx, redisKeyPrefix+key, value, 0).Err(); err != nil {
		r.logger.Error("redis SET failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (r *redisRepo) get(ctx context.Context, key string) (string, bool, error) {
	raw, err := r.redis.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		r.logger.Error("redis GET failed", zap.String("key", key), zap.Error(err))
		return "", false, err
	}
	return raw, true, nil
}

func (r *redisRepo) SaveLastCity(ctx context.Context, city types.City) error {
	blob, err := json.Marshal(city)
	if err != nil {
		return err
	}
	return r.put(ctx, KeyCity, string(blob))
}

func (r *redisRepo) LoadLastCity(ctx context.Context) (*types.City, error) {
	raw, ok, err := r.get(ctx, KeyCity)
	if err != nil || !ok {
		return nil, err
	}
	return decodeCity(raw, r.logger), nil
}

func (r *redisRepo) SaveBackgroundEnteredAt(ctx context.Context, t time.Time) error {
	return r.put(ctx, KeyTimeInBackground, t.UTC().Format(time.RFC3339Nano))
}

func (r *redisRepo) LoadBackgroundEnteredAt(ctx context.Context) (*time.Time, error) {
	raw, ok, err := r.get(ctx, KeyTimeInBackground)
	if err != nil || !ok {
		return nil, err
	}
	return decodeTime(raw, r.logger), nil
}
