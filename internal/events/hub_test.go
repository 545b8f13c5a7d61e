package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"go.uber.org/zap"
)

func startHub(t *testing.T, sinks ...Sink) *Hub {
	t.Helper()
	h := NewHub(16, zap.NewNop(), sinks...)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return h
}

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHub_DeliversInOrder(t *testing.T) {
	h := startHub(t)
	ch, unsubscribe := h.Subscribe(8)
	defer unsubscribe()

	h.Publish(Event{Type: CurrentLoading, Payload: true})
	h.Publish(Event{Type: CurrentUpdated})
	h.Publish(Event{Type: CurrentLoading, Payload: false})

	want := []Type{CurrentLoading, CurrentUpdated, CurrentLoading}
	for i, w := range want {
		e := receive(t, ch)
		if e.Type != w {
			t.Fatalf("event %d = %q, want %q", i, e.Type, w)
		}
		if e.At.IsZero() {
			t.Errorf("event %d has no timestamp", i)
		}
	}
}

func TestHub_FanOutAndUnsubscribe(t *testing.T) {
	h := startHub(t)
	a, unsubA := h.Subscribe(4)
	b, unsubB := h.Subscribe(4)
	defer unsubB()

	h.Publish(Event{Type: SearchResults})
	if receive(t, a).Type != SearchResults || receive(t, b).Type != SearchResults {
		t.Fatal("both subscribers should receive the event")
	}

	unsubA()
	unsubA() // idempotent
	if _, ok := <-a; ok {
		t.Error("channel still open after unsubscribe")
	}

	h.Publish(Event{Type: Error})
	if receive(t, b).Type != Error {
		t.Fatal("remaining subscriber missed the event")
	}
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := startHub(t)
	slow, unsubSlow := h.Subscribe(0)
	defer unsubSlow()
	fast, unsubFast := h.Subscribe(4)
	defer unsubFast()

	h.Publish(Event{Type: ForecastUpdated})
	if receive(t, fast).Type != ForecastUpdated {
		t.Fatal("fast subscriber starved by slow one")
	}
	select {
	case <-slow:
		t.Error("unbuffered, unread subscriber should have had the event dropped")
	default:
	}
}

type recordingSink struct {
	got chan Event
	err error
}

func (r *recordingSink) Deliver(e Event) error {
	r.got <- e
	return r.err
}

func TestHub_Sinks(t *testing.T) {
	ok := &recordingSink{got: make(chan Event, 2)}
	failing := &recordingSink{got: make(chan Event, 2), err: errors.New("broker down")}
	h := startHub(t, failing, ok)

	h.Publish(Event{Type: LocationSelected})
	if receive(t, failing.got).Type != LocationSelected {
		t.Fatal("failing sink not called")
	}
	if receive(t, ok.got).Type != LocationSelected {
		t.Fatal("sink after a failing sink not called")
	}
}

func TestKafkaSink_Deliver(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var e Event
		if err := json.Unmarshal(val, &e); err != nil {
			return err
		}
		if e.Type != CurrentUpdated {
			return errors.New("unexpected event type " + string(e.Type))
		}
		return nil
	})
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	sink := NewKafkaSinkWithProducer(producer, "weatherhere.events", zap.NewNop())
	defer sink.Close()

	if err := sink.Deliver(Event{Type: CurrentUpdated, At: time.Now()}); err != nil {
		t.Fatalf("Deliver() unexpected error: %v", err)
	}
	if err := sink.Deliver(Event{Type: Error}); !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("Deliver() error = %v, want %v", err, sarama.ErrOutOfBrokers)
	}
}

func TestHub_RunClosesSubscribersOnStop(t *testing.T) {
	h := NewHub(4, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	ch, unsubscribe := h.Subscribe(4)
	cancel()
	<-done

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel, got an event")
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber channel not closed after Run returned")
	}
	unsubscribe() // must not double-close

	late, unsubLate := h.Subscribe(1)
	defer unsubLate()
	if _, ok := <-late; ok {
		t.Error("subscribing to a stopped hub should yield a closed channel")
	}
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	release := make(chan struct{})
	stuck := &blockingSink{release: release}
	h := NewHub(1, zap.NewNop(), stuck)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	published := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			h.Publish(Event{Type: CurrentUpdated})
		}
		close(published)
	}()
	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked behind a stalled sink")
	}

	close(release)
	cancel()
	<-done

	stopped := make(chan struct{})
	go func() {
		h.Publish(Event{Type: Error})
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a stopped hub")
	}
}

type blockingSink struct {
	release chan struct{}
}

func (b *blockingSink) Deliver(Event) error {
	<-b.release
	return nil
}
