package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/namefreezers/weatherhere/internal/config"
	"github.com/namefreezers/weatherhere/internal/forecast"
	"github.com/namefreezers/weatherhere/internal/repository"
	"github.com/namefreezers/weatherhere/internal/search"
	"github.com/namefreezers/weatherhere/internal/weather/types"
)

var (
	// returned when there is no live coordinate, nothing remembered and no fallback configured
	ErrNoLocation = errors.New("no location available")

	// returned when a selected city has no coordinates to fetch weather for
	ErrCityWithoutCoordinate = errors.New("selected city has no coordinates")
)

// Source tells where a resolved coordinate came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceStored   Source = "stored"
	SourceFallback Source = "fallback"
)

// LocationService owns the current location and drives the forecast and search state for it.
type LocationService struct {
	repo     repository.LocationRepository
	forecast *forecast.State
	search   *search.State
	cfg      *config.Config
	logger   *zap.Logger

	mu      sync.RWMutex
	current *types.Coordinate
}

func NewLocationService(
	repo repository.LocationRepository,
	forecastState *forecast.State,
	searchState *search.State,
	cfg *config.Config,
	logger *zap.Logger,
) *LocationService {
	return &LocationService{
		repo:     repo,
		forecast: forecastState,
		search:   searchState,
		cfg:      cfg,
		logger:   logger,
	}
}

// Current returns the coordinate weather is being shown for.
func (s *LocationService) Current() (types.Coordinate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return types.Coordinate{}, false
	}
	return *s.current, true
}

func (s *LocationService) setCurrent(c types.Coordinate) {
	s.mu.Lock()
	s.current = &c
	s.mu.Unlock()
}

// Resolve picks the location to show: live if given, else the remembered city,
// else the configured fallback. The chosen coordinate becomes current.
func (s *LocationService) Resolve(ctx context.Context, live *types.Coordinate) (types.Coordinate, Source, error) {
	if live != nil {
		s.setCurrent(*live)
		return *live, SourceLive, nil
	}

	city, err := s.repo.LoadLastCity(ctx)
	if err != nil {
		s.logger.Warn("could not load remembered city", zap.Error(err))
	}
	if city != nil {
		if c, ok := city.Coordinate(); ok {
			s.setCurrent(c)
			s.logger.Info("using remembered city", zap.String("city", city.Title()), zap.Stringer("coord", c))
			return c, SourceStored, nil
		}
	}

	if s.cfg.HasFallback {
		c := types.Coordinate{Latitude: s.cfg.FallbackLat, Longitude: s.cfg.FallbackLon}
		s.setCurrent(c)
		s.logger.Info("using fallback location", zap.String("name", s.cfg.FallbackName), zap.Stringer("coord", c))
		return c, SourceFallback, nil
	}
	return types.Coordinate{}, "", ErrNoLocation
}

// Refresh reloads current conditions and the forecast for the current location.
// One failing does not cancel the other.
func (s *LocationService) Refresh(ctx context.Context) error {
	c, ok := s.Current()
	if !ok {
		return ErrNoLocation
	}

	var g errgroup.Group
	g.Go(func() error { return s.forecast.RefreshCurrent(ctx, c) })
	g.Go(func() error { return s.forecast.RefreshForecast(ctx, c) })
	if err := g.Wait(); err != nil {
		return fmt.Errorf("services.Refresh: %w", err)
	}
	return nil
}

// SelectCity makes the search result at index the current location, remembers it and refreshes.
// Once the location has switched the selection stands: a failed refresh is logged
// and left in the forecast state's LastError rather than returned.
func (s *LocationService) SelectCity(ctx context.Context, index int) (types.City, error) {
	city, err := s.search.Select(index)
	if err != nil {
		return types.City{}, err
	}
	c, ok := city.Coordinate()
	if !ok {
		return city, ErrCityWithoutCoordinate
	}

	if err := s.repo.SaveLastCity(ctx, city); err != nil {
		s.logger.Warn("could not remember city", zap.String("city", city.Title()), zap.Error(err))
	}
	s.setCurrent(c)
	s.logger.Info("city selected", zap.String("city", city.Title()), zap.Stringer("coord", c))

	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn("refresh after city selection failed", zap.String("city", city.Title()), zap.Error(err))
	}
	return city, nil
}

// LastCity returns the remembered city, or nil.
func (s *LocationService) LastCity(ctx context.Context) (*types.City, error) {
	city, err := s.repo.LoadLastCity(ctx)
	if err != nil {
		return nil, fmt.Errorf("repo.LoadLastCity: %w", err)
	}
	return city, nil
}

// EnterBackground records when the app stopped serving in the foreground.
func (s *LocationService) EnterBackground(ctx context.Context, t time.Time) error {
	if err := s.repo.SaveBackgroundEnteredAt(ctx, t); err != nil {
		return fmt.Errorf("repo.SaveBackgroundEnteredAt: %w", err)
	}
	s.logger.Info("entered background", zap.Time("at", t))
	return nil
}
