package search

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/namefreezers/weatherhere/internal/events"
	"github.com/namefreezers/weatherhere/internal/weather"
	"github.com/namefreezers/weatherhere/internal/weather/types"
)

var (
	ErrIndexOutOfRange = errors.New("search result index out of range")
	// ErrSuperseded means a Search or Clear happened after this search started,
	// so its response was dropped.
	ErrSuperseded = errors.New("search superseded")
)

// State holds the city search results.
type State struct {
	gateway weather.Gateway
	limit   int
	pub     events.Publisher
	logger  *zap.Logger

	mu      sync.Mutex
	results []types.City
	gen     uint64
	cancel  context.CancelFunc
}

func NewState(gateway weather.Gateway, limit int, pub events.Publisher, logger *zap.Logger) *State {
	return &State{gateway: gateway, limit: limit, pub: pub, logger: logger}
}

// Results returns a copy of the current results.
func (s *State) Results() []types.City {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.City, len(s.results))
	copy(out, s.results)
	return out
}

// Search queries the gateway for text and replaces the results. A failed search
// leaves prior results as they were.
func (s *State) Search(ctx context.Context, text string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	gen := s.bump()
	s.cancel = cancel
	s.mu.Unlock()

	cities, err := s.gateway.SearchCity(ctx, text, s.limit)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return ErrSuperseded
	}
	s.cancel = nil
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("city search failed", zap.String("query", text), zap.Error(err))
		return fmt.Errorf("search.Search: %w", err)
	}
	e := s.setResults(cities)
	s.mu.Unlock()

	s.pub.Publish(e)
	s.logger.Debug("city search done", zap.String("query", text), zap.Int("count", len(cities)))
	return nil
}

// Clear empties the results and drops any search still in flight.
func (s *State) Clear() {
	s.mu.Lock()
	s.bump()
	e := s.setResults(nil)
	s.mu.Unlock()

	s.pub.Publish(e)
}

// Select emits the city at index as the chosen location and clears the results.
func (s *State) Select(index int) (types.City, error) {
	s.mu.Lock()
	if index < 0 || index >= len(s.results) {
		s.mu.Unlock()
		return types.City{}, ErrIndexOutOfRange
	}
	city := s.results[index]
	s.bump()
	cleared := s.setResults(nil)
	s.mu.Unlock()

	s.pub.Publish(events.Event{Type: events.LocationSelected, Payload: city})
	s.pub.Publish(cleared)
	return city, nil
}

// bump invalidates the in-flight search. Callers hold s.mu.
func (s *State) bump() uint64 {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	return s.gen
}

// setResults replaces the results and returns the event announcing them.
// Callers hold s.mu and publish the event after releasing it.
func (s *State) setResults(cities []types.City) events.Event {
	if cities == nil {
		cities = []types.City{}
	}
	s.results = cities
	return events.Event{Type: events.SearchResults, Payload: cities}
}
