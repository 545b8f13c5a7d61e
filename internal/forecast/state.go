package forecast

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

// ErrSuperseded is returned by a refresh whose result was discarded because a newer
// refresh of the same kind started before it completed.
var ErrSuperseded = errors.New("refresh superseded by a newer request")

// Snapshot is a point-in-time copy of the observable forecast values.
type Snapshot struct {
	LoadingCurrent  bool                          `json:"loadingCurrent"`
	LoadingForecast bool                          `json:"loadingForecast"`
	LastError       *string                       `json:"lastError,omitempty"`
	Current         *types.CurrentWeatherResponse `json:"current,omitempty"`
	Forecast        *types.ForecastResponse       `json:"forecast,omitempty"`
}

type inflight struct {
	gen    uint64
	cancel context.CancelFunc
}

// State owns current conditions and the 5-day forecast for whatever coordinate
// it was last asked to refresh. The two refresh kinds are independent.
type State struct {
	gateway weather.Gateway
	pub     events.Publisher
	logger  *zap.Logger

	mu       sync.Mutex
	snap     Snapshot
	current  inflight
	forecast inflight
}

func NewState(gateway weather.Gateway, pub events.Publisher, logger *zap.Logger) *State {
	return &State{gateway: gateway, pub: pub, logger: logger}
}

// Snapshot returns a copy of the current values.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snap
	if snap.LastError != nil {
		msg := *snap.LastError
		snap.LastError = &msg
	}
	return snap
}

// RefreshCurrent fetches current conditions for coord and stores them.
func (s *State) RefreshCurrent(ctx context.Context, coord types.Coordinate) error {
	return refresh(ctx, s, "current", &s.current, events.CurrentLoading, events.CurrentUpdated,
		func(v bool) { s.snap.LoadingCurrent = v },
		func(ctx context.Context) (*types.CurrentWeatherResponse, error) {
			return s.gateway.CurrentWeather(ctx, coord)
		},
		func(res *types.CurrentWeatherResponse) { s.snap.Current = res },
	)
}

// RefreshForecast fetches the 5-day forecast for coord and stores it.
func (s *State) RefreshForecast(ctx context.Context, coord types.Coordinate) error {
	return refresh(ctx, s, "forecast", &s.forecast, events.ForecastLoading, events.ForecastUpdated,
		func(v bool) { s.snap.LoadingForecast = v },
		func(ctx context.Context) (*types.ForecastResponse, error) {
			return s.gateway.Forecast(ctx, coord)
		},
		func(res *types.ForecastResponse) { s.snap.Forecast = res },
	)
}

// refresh runs one gateway call for a refresh kind. setLoading and store are
// called with s.mu held; events are published after it is released.
func refresh[T any](
	ctx context.Context,
	s *State,
	kind string,
	slot *inflight,
	loadingEvt, updatedEvt events.Type,
	setLoading func(bool),
	fetch func(context.Context) (T, error),
	store func(T),
) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if slot.cancel != nil {
		slot.cancel()
	}
	slot.gen++
	gen := slot.gen
	slot.cancel = cancel
	setLoading(true)
	s.mu.Unlock()
	s.pub.Publish(events.Event{Type: loadingEvt, Payload: true})

	res, err := fetch(ctx)

	s.mu.Lock()
	if gen != slot.gen {
		s.mu.Unlock()
		s.logger.Debug("discarding superseded result", zap.String("kind", kind))
		return ErrSuperseded
	}
	slot.cancel = nil
	setLoading(false)
	var msg string
	if err != nil {
		msg = err.Error()
		s.snap.LastError = &msg
	} else {
		store(res)
	}
	s.mu.Unlock()

	s.pub.Publish(events.Event{Type: loadingEvt, Payload: false})
	if err != nil {
		s.pub.Publish(events.Event{Type: events.Error, Payload: msg})
		s.logger.Warn("refresh failed", zap.String("kind", kind), zap.Error(err))
		return fmt.Errorf("forecast.Refresh(%s): %w", kind, err)
	}
	s.pub.Publish(events.Event{Type: updatedEvt, Payload: res})
	return nil
}
