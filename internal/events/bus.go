package events

import (
	"context"
	"io"
	"sync"
	"time"

	uuid "github.com/google/uuid"

	logger "github.com/berth-automation/berth/internal/logger"
)

// Publisher accepts events
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Sink delivers events somewhere outside the process
type Sink interface {
	Name() string
	Handle(ctx context.Context, e Event) error
}

// Discard drops every event
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, Event) {}

// Bus stamps events and fans them out to sinks and subscribers. Sinks run
// synchronously in registration order; a failing sink is logged and skipped.
type Bus struct {
	runID       string
	sinks       []Sink
	subscribers []chan Event
	closed      bool
	mu          sync.RWMutex
}

var _ Publisher = (*Bus)(nil)

// NewBus creates a bus for one run
func NewBus(runID string, sinks ...Sink) *Bus {
	if runID == "" {
		runID = uuid.New().String()
	}
	return &Bus{runID: runID, sinks: sinks}
}

// RunID returns the id stamped on every event
func (b *Bus) RunID() string {
	return b.runID
}

// Subscribe returns a channel receiving every later event. Slow subscribers
// miss events rather than blocking the run. The channel is closed by Close.
func (b *Bus) Subscribe(buffer int) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, buffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Publish stamps e and delivers it
func (b *Bus) Publish(ctx context.Context, e Event) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.RunID = b.runID

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	// sinks still deliver the final events after a stop
	sinkCtx := context.WithoutCancel(ctx)
	for _, s := range b.sinks {
		if err := s.Handle(sinkCtx, e); err != nil {
			logger.Warn("Event sink failed", "sink", s.Name(), "event", string(e.Type), "error", err)
		}
	}

	for _, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
}

// Close closes subscriber channels and any sink holding resources
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	for _, ch := range b.subscribers {
		close(ch)
	}

	var firstErr error
	for _, s := range b.sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
