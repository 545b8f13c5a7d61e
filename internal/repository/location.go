package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/namefreezers/weatherhere/internal/weather/types"
)

// Persisted keys.
const (
	KeyCity             = "city"
	KeyTimeInBackground = "timeInBackground"
)

// LocationRepository persists the last chosen city and when the app was last backgrounded.
type LocationRepository interface {
	SaveLastCity(ctx context.Context, city types.City) error
	// LoadLastCity returns nil, nil when nothing usable is stored.
	LoadLastCity(ctx context.Context) (*types.City, error)
	SaveBackgroundEnteredAt(ctx context.Context, t time.Time) error
	LoadBackgroundEnteredAt(ctx context.Context) (*time.Time, error)
}

type sqlRepo struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewSQLLocationRepository stores values in the kv table of a postgres or sqlite database.
func NewSQLLocationRepository(db *sqlx.DB, logger *zap.Logger) LocationRepository {
	return &sqlRepo{db: db, logger: logger}
}

const (
	upsertKV = `
        INSERT INTO kv (name, value, updated_at)
        VALUES (?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at;
    `
	selectKV = `SELECT value FROM kv WHERE name = ?;`
)

func (r *sqlRepo) put(ctx context.Context, key, value string) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(upsertKV), key, value); err != nil {
		r.logger.Error("failed to store value", zap.String("key", key), zap.Error(err))
		return err
	}
	r.logger.Debug("value stored", zap.String("key", key))
	return nil
}

// get reports ok=false when the key is absent.
func (r *sqlRepo) get(ctx context.Context, key string) (value string, ok bool, err error) {
	err = r.db.GetContext(ctx, &value, r.db.Rebind(selectKV), key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		r.logger.Error("failed to load value", zap.String("key", key), zap.Error(err))
		return "", false, err
	}
	return value, true, nil
}

func (r *sqlRepo) SaveLastCity(ctx context.Context, city types.City) error {
	blob, err := json.Marshal(city)
	if err != nil {
		return err
	}
	return r.put(ctx, KeyCity, string(blob))
}

func (r *sqlRepo) LoadLastCity(ctx context.Context) (*types.City, error) {
	raw, ok, err := r.get(ctx, KeyCity)
	if err != nil || !ok {
		return nil, err
	}
	return decodeCity(raw, r.logger), nil
}

func (r *sqlRepo) SaveBackgroundEnteredAt(ctx context.Context, t time.Time) error {
	return r.put(ctx, KeyTimeInBackground, t.UTC().Format(time.RFC3339Nano))
}

func (r *sqlRepo) LoadBackgroundEnteredAt(ctx context.Context) (*time.Time, error) {
	raw, ok, err := r.get(ctx, KeyTimeInBackground)
	if err != nil || !ok {
		return nil, err
	}
	return decodeTime(raw, r.logger), nil
}

func decodeCity(raw string, logger *zap.Logger) *types.City {
	var c types.City
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		logger.Warn("stored city is unreadable, ignoring", zap.Error(err))
		return nil
	}
	return &c
}

func decodeTime(raw string, logger *zap.Logger) *time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		logger.Warn("stored background time is unreadable, ignoring", zap.Error(err))
		return nil
	}
	return &t
}
