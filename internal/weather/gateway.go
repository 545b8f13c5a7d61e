package weather

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/namefreezers/weatherhere/internal/config"
	"github.com/namefreezers/weatherhere/internal/weather/openweathermap"
	"github.com/namefreezers/weatherhere/internal/weather/types"
)

// Gateway translates domain operations into requests against the weather API routes.
type Gateway interface {
	CurrentWeather(ctx context.Context, coord types.Coordinate) (*types.CurrentWeatherResponse, error)
	Forecast(ctx context.Context, coord types.Coordinate) (*types.ForecastResponse, error)
	SearchCity(ctx context.Context, query string, limit int) ([]types.City, error)
}

var _ Gateway = (*openweathermap.Client)(nil)

// BuildGateway constructs the OpenWeatherMap-backed Gateway from configuration.
func BuildGateway(cfg *config.Config, logger *zap.Logger) (Gateway, error) {
	owm, err := openweathermap.NewClient(cfg, logger.Named("openweathermap"))
	if err != nil {
		return nil, fmt.Errorf("openweathermap client not configured: %w", err)
	}
	logger.Info("weather gateway ready",
		zap.String("provider", "openweathermap"),
		zap.Duration("timeout", cfg.HTTPTimeout),
	)
	return owm, nil
}
