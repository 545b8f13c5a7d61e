package openweathermap

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/namefreezers/weatherhere/internal/config"
	"github.com/namefreezers/weatherhere/internal/weather/types"
)

// DefaultSearchLimit is the number of geocoding matches requested when the caller passes none.
const DefaultSearchLimit = 25

// Client is the gateway to the three OpenWeatherMap routes.
type Client struct {
	apiKey  string
	scheme  string
	host    string
	http    Doer
	builder URLBuilder
	logger  *zap.Logger
}

// NewClient returns a new Client, or an error if the API key is not set.
func NewClient(cfg *config.Config, logger *zap.Logger) (*Client, error) {
	key := cfg.OpenWeatherMapOrgKey
	if key == "" {
		return nil, fmt.Errorf("OPENWEATHERMAP_ORG_API_KEY is not set")
	}

	c := &Client{
		apiKey:  key,
		scheme:  DefaultScheme,
		host:    DefaultHost,
		http:    &http.Client{Timeout: cfg.HTTPTimeout},
		builder: ComponentsBuilder{},
		logger:  logger,
	}

	if cfg.OpenWeatherMapURL != "" {
		u, err := url.Parse(cfg.OpenWeatherMapURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid OWM_BASE_URL %q", cfg.OpenWeatherMapURL)
		}
		c.scheme, c.host = u.Scheme, u.Host
	}
	return c, nil
}

// CurrentWeather implements weather.Gateway.
func (c *Client) CurrentWeather(ctx context.Context, coord types.Coordinate) (*types.CurrentWeatherResponse, error) {
	u, err := c.url(RouteWeather, coordinateQuery(coord))
	if err != nil {
		return nil, err
	}
	w, err := Fetch[types.CurrentWeatherResponse](ctx, c.http, u)
	if err != nil {
		c.logFailure(RouteWeather, err)
		return nil, err
	}
	c.logger.Debug("current weather fetched",
		zap.String("location", w.Name),
		zap.Float64("temp_k", w.Main.Temp),
	)
	return &w, nil
}

// Forecast implements weather.Gateway.
func (c *Client) Forecast(ctx context.Context, coord types.Coordinate) (*types.ForecastResponse, error) {
	u, err := c.url(RouteForecast, coordinateQuery(coord))
	if err != nil {
		return nil, err
	}
	f, err := Fetch[types.ForecastResponse](ctx, c.http, u)
	if err != nil {
		c.logFailure(RouteForecast, err)
		return nil, err
	}
	c.logger.Debug("forecast fetched", zap.Int("entries", len(f.List)))
	return &f, nil
}

// SearchCity implements weather.Gateway. A non-positive limit means DefaultSearchLimit.
func (c *Client) SearchCity(ctx context.Context, query string, limit int) ([]types.City, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	u, err := c.url(RouteSearch, map[string]string{
		"q":     query,
		"limit": strconv.Itoa(limit),
	})
	if err != nil {
		return nil, err
	}
	matches, err := Fetch[[]geoMatch](ctx, c.http, u)
	if err != nil {
		c.logFailure(RouteSearch, err)
		return nil, err
	}
	cities := make([]types.City, len(matches))
	for i, m := range matches {
		cities[i] = m.City
		cities[i].Region = m.State
	}
	c.logger.Debug("city search done", zap.String("query", query), zap.Int("matches", len(cities)))
	return cities, nil
}

// geoMatch is a geocoding result, which names the region "state".
type geoMatch struct {
	types.City
	State *string `json:"state"`
}

func (c *Client) url(route Route, query map[string]string) (*url.URL, error) {
	query["appid"] = c.apiKey
	u, err := c.builder.Build(c.scheme, c.host, string(route), query)
	if err != nil {
		return nil, fmt.Errorf("openweathermap: failed to build %s url: %w", route, err)
	}
	return u, nil
}

func (c *Client) logFailure(route Route, err error) {
	c.logger.Warn("openweathermap request failed",
		zap.String("route", string(route)),
		zap.Bool("retriable", IsRetriable(err)),
		zap.Error(err),
	)
}

func coordinateQuery(coord types.Coordinate) map[string]string {
	return map[string]string{
		"lat": strconv.FormatFloat(coord.Latitude, 'f', -1, 64),
		"lon": strconv.FormatFloat(coord.Longitude, 'f', -1, 64),
	}
}
