package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Type names an observable change.
type Type string

const (
	CurrentLoading   Type = "current.loading"
	ForecastLoading  Type = "forecast.loading"
	CurrentUpdated   Type = "current.updated"
	ForecastUpdated  Type = "forecast.updated"
	Error            Type = "error"
	SearchResults    Type = "search.results"
	LocationSelected Type = "location.selected"
)

// Event is one change notification. Payload is JSON-encodable.
type Event struct {
	Type    Type      `json:"type"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload,omitempty"`
}

// Publisher is what state containers depend on.
type Publisher interface {
	Publish(e Event)
}

// Sink receives every event after subscribers, on the dispatch goroutine.
type Sink interface {
	Deliver(e Event) error
}

// Hub fans events out to subscribers from a single dispatch goroutine, so
// observers see changes one at a time and in publish order.
type Hub struct {
	in     chan Event
	sinks  []Sink
	logger *zap.Logger

	done     chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	subs    map[int]chan Event
	nextID  int
	stopped bool
}

// NewHub creates a Hub whose inbound queue holds up to buffer events.
func NewHub(buffer int, logger *zap.Logger, sinks ...Sink) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		in:     make(chan Event, buffer),
		sinks:  sinks,
		logger: logger,
		done:   make(chan struct{}),
		subs:   make(map[int]chan Event),
	}
}

// Publish enqueues e for dispatch without blocking. Events are dropped when the
// queue is full or the hub has stopped.
func (h *Hub) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	select {
	case <-h.done:
		h.logger.Debug("hub stopped, event dropped", zap.String("type", string(e.Type)))
		return
	default:
	}
	select {
	case h.in <- e:
	default:
		h.logger.Warn("event queue full, event dropped", zap.String("type", string(e.Type)))
	}
}

// Subscribe registers an observer. The returned func unsubscribes and closes the channel.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)

	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(ch)
			}
		})
	}
}

// Run dispatches until ctx is done, then drains what is already queued and
// closes every subscriber channel.
func (h *Hub) Run(ctx context.Context) {
	defer h.stop()
	for {
		select {
		case e := <-h.in:
			h.dispatch(e)
		case <-ctx.Done():
			for {
				select {
				case e := <-h.in:
					h.dispatch(e)
				default:
					return
				}
			}
		}
	}
}

func (h *Hub) stop() {
	h.stopOnce.Do(func() { close(h.done) })

	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

func (h *Hub) dispatch(e Event) {
	h.mu.Lock()
	for id, ch := range h.subs {
		select {
		case ch <- e:
		default:
			h.logger.Warn("subscriber too slow, event dropped",
				zap.Int("subscriber", id),
				zap.String("type", string(e.Type)),
			)
		}
	}
	h.mu.Unlock()

	for _, s := range h.sinks {
		if err := s.Deliver(e); err != nil {
			h.logger.Error("event sink delivery failed", zap.String("type", string(e.Type)), zap.Error(err))
		}
	}
}
