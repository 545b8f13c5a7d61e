package forecast

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/namefreezers/weatherhere/internal/events"
	"github.com/namefreezers/weatherhere/internal/weather/openweathermap"
	"github.com/namefreezers/weatherhere/internal/weather/types"
)

type fakeGateway struct {
	current     func(ctx context.Context, c types.Coordinate) (*types.CurrentWeatherResponse, error)
	forecast    func(ctx context.Context, c types.Coordinate) (*types.ForecastResponse, error)
	searchCalls int
}

func (f *fakeGateway) CurrentWeather(ctx context.Context, c types.Coordinate) (*types.CurrentWeatherResponse, error) {
	return f.current(ctx, c)
}

func (f *fakeGateway) Forecast(ctx context.Context, c types.Coordinate) (*types.ForecastResponse, error) {
	return f.forecast(ctx, c)
}

func (f *fakeGateway) SearchCity(context.Context, string, int) ([]types.City, error) {
	f.searchCalls++
	return nil, nil
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(e events.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

var nyc = types.Coordinate{Latitude: 40.7306, Longitude: -73.9352}

func TestRefreshCurrent_Success(t *testing.T) {
	want := &types.CurrentWeatherResponse{Name: "Long Island City"}
	gw := &fakeGateway{current: func(_ context.Context, c types.Coordinate) (*types.CurrentWeatherResponse, error) {
		if c != nyc {
			t.Errorf("coordinate = %v, want %v", c, nyc)
		}
		return want, nil
	}}
	rec := &recorder{}
	s := NewState(gw, rec, zap.NewNop())

	if err := s.RefreshCurrent(context.Background(), nyc); err != nil {
		t.Fatalf("RefreshCurrent() error: %v", err)
	}

	snap := s.Snapshot()
	if snap.Current != want {
		t.Errorf("Current = %v, want %v", snap.Current, want)
	}
	if snap.LoadingCurrent || snap.LastError != nil {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	got := rec.types()
	wantEvents := []events.Type{events.CurrentLoading, events.CurrentLoading, events.CurrentUpdated}
	if len(got) != len(wantEvents) {
		t.Fatalf("events = %v, want %v", got, wantEvents)
	}
	for i := range wantEvents {
		if got[i] != wantEvents[i] {
			t.Fatalf("events = %v, want %v", got, wantEvents)
		}
	}
}

func TestRefreshCurrent_ServerError(t *testing.T) {
	serverErr := &openweathermap.HTTPError{Kind: openweathermap.KindServerError, StatusCode: http.StatusInternalServerError}
	gw := &fakeGateway{current: func(context.Context, types.Coordinate) (*types.CurrentWeatherResponse, error) {
		return nil, serverErr
	}}
	rec := &recorder{}
	s := NewState(gw, rec, zap.NewNop())

	err := s.RefreshCurrent(context.Background(), nyc)
	if !errors.Is(err, openweathermap.ErrServerError) {
		t.Fatalf("error = %v, want server error", err)
	}

	snap := s.Snapshot()
	if snap.Current != nil {
		t.Error("Current should stay nil")
	}
	if snap.LoadingCurrent {
		t.Error("LoadingCurrent should be cleared after a failure")
	}
	if snap.LastError == nil || *snap.LastError != serverErr.Error() {
		t.Errorf("LastError = %v, want %q", snap.LastError, serverErr.Error())
	}
	if got := rec.types(); got[len(got)-1] != events.Error {
		t.Errorf("last event = %q, want error", got[len(got)-1])
	}
}

func TestRefresh_LastErrorSurvivesSuccess(t *testing.T) {
	fail := true
	gw := &fakeGateway{
		current: func(context.Context, types.Coordinate) (*types.CurrentWeatherResponse, error) {
			if fail {
				return nil, &openweathermap.HTTPError{Kind: openweathermap.KindRequestFailed, StatusCode: http.StatusNotFound}
			}
			return &types.CurrentWeatherResponse{}, nil
		},
		forecast: func(context.Context, types.Coordinate) (*types.ForecastResponse, error) {
			return &types.ForecastResponse{}, nil
		},
	}
	s := NewState(gw, &recorder{}, zap.NewNop())

	_ = s.RefreshCurrent(context.Background(), nyc)
	fail = false
	if err := s.RefreshCurrent(context.Background(), nyc); err != nil {
		t.Fatal(err)
	}
	if err := s.RefreshForecast(context.Background(), nyc); err != nil {
		t.Fatal(err)
	}

	snap := s.Snapshot()
	if snap.LastError == nil {
		t.Fatal("LastError should persist until the next failure")
	}
	if snap.Current == nil || snap.Forecast == nil {
		t.Error("both values should be populated")
	}
}

func TestRefresh_KindsAreIndependent(t *testing.T) {
	gw := &fakeGateway{
		current: func(context.Context, types.Coordinate) (*types.CurrentWeatherResponse, error) {
			return nil, &openweathermap.HTTPError{Kind: openweathermap.KindServerError, StatusCode: http.StatusServiceUnavailable}
		},
		forecast: func(context.Context, types.Coordinate) (*types.ForecastResponse, error) {
			return &types.ForecastResponse{List: make([]types.ForecastEntry, 40)}, nil
		},
	}
	s := NewState(gw, &recorder{}, zap.NewNop())

	_ = s.RefreshCurrent(context.Background(), nyc)
	if err := s.RefreshForecast(context.Background(), nyc); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	if snap.Current != nil || snap.Forecast == nil || len(snap.Forecast.List) != 40 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestRefresh_NewerSupersedesOlder(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	first := &types.CurrentWeatherResponse{Name: "first"}
	second := &types.CurrentWeatherResponse{Name: "second"}

	calls := 0
	var mu sync.Mutex
	gw := &fakeGateway{current: func(ctx context.Context, _ types.Coordinate) (*types.CurrentWeatherResponse, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			started <- struct{}{}
			select {
			case <-ctx.Done():
			case <-release:
			}
			return first, nil
		}
		return second, nil
	}}
	s := NewState(gw, &recorder{}, zap.NewNop())

	errc := make(chan error, 1)
	go func() { errc <- s.RefreshCurrent(context.Background(), nyc) }()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("first refresh never started")
	}

	if err := s.RefreshCurrent(context.Background(), nyc); err != nil {
		t.Fatalf("second RefreshCurrent() error: %v", err)
	}
	close(release)

	if err := <-errc; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("first RefreshCurrent() error = %v, want ErrSuperseded", err)
	}
	snap := s.Snapshot()
	if snap.Current != second {
		t.Errorf("Current = %+v, want the newer result", snap.Current)
	}
	if snap.LoadingCurrent {
		t.Error("LoadingCurrent should be false")
	}
}

type stallingSink struct {
	release chan struct{}
}

func (s *stallingSink) Deliver(events.Event) error {
	<-s.release
	return nil
}

func snapshotWithin(t *testing.T, s *State, d time.Duration) {
	t.Helper()
	got := make(chan struct{})
	go func() {
		s.Snapshot()
		close(got)
	}()
	select {
	case <-got:
	case <-time.After(d):
		t.Fatalf("Snapshot() blocked for more than %v", d)
	}
}

func TestRefresh_StalledHubDoesNotBlockSnapshot(t *testing.T) {
	release := make(chan struct{})
	hub := events.NewHub(2, zap.NewNop(), &stallingSink{release: release})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	defer func() {
		close(release)
		cancel()
		<-done
	}()

	gw := &fakeGateway{
		current: func(context.Context, types.Coordinate) (*types.CurrentWeatherResponse, error) {
			return &types.CurrentWeatherResponse{}, nil
		},
		forecast: func(context.Context, types.Coordinate) (*types.ForecastResponse, error) {
			return &types.ForecastResponse{}, nil
		},
	}
	s := NewState(gw, hub, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); _ = s.RefreshCurrent(context.Background(), nyc) }()
		go func() { defer wg.Done(); _ = s.RefreshForecast(context.Background(), nyc) }()
	}
	snapshotWithin(t, s, 500*time.Millisecond)

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("refreshes stalled behind the event sink")
	}
}

func TestRefresh_StoppedHub(t *testing.T) {
	hub := events.NewHub(1, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hub.Run(ctx) // returns immediately; the hub is now stopped

	gw := &fakeGateway{current: func(context.Context, types.Coordinate) (*types.CurrentWeatherResponse, error) {
		return &types.CurrentWeatherResponse{Name: "after shutdown"}, nil
	}}
	s := NewState(gw, hub, zap.NewNop())

	errc := make(chan error, 1)
	go func() { errc <- s.RefreshCurrent(context.Background(), nyc) }()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RefreshCurrent blocked on a stopped hub")
	}
	snapshotWithin(t, s, 500*time.Millisecond)
	if s.Snapshot().Current == nil {
		t.Error("result should still be stored")
	}
}
