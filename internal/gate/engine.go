package gate

import (
	"context"
	"time"

	zap "go.uber.org/zap"

	dispatch "github.com/berth-automation/berth/internal/dispatch"
	domain "github.com/berth-automation/berth/internal/domain"
	events "github.com/berth-automation/berth/internal/events"
	logger "github.com/berth-automation/berth/internal/logger"
)

// Waiter is the stop signal as seen by the engine
type Waiter interface {
	domain.StopChecker
	// Sleep waits d and reports whether the full duration elapsed
	Sleep(ctx context.Context, d time.Duration) bool
	// Reason names what raised the stop, empty while running
	Reason() string
}

// Dispatcher executes action sequences
type Dispatcher interface {
	Dispatch(ctx context.Context, phase string, seq dispatch.Sequence) error
}

// Options holds the engine's polling budget
type Options struct {
	MaxAttempts int
	RetryDelay  time.Duration
}

// Engine polls regions and dispatches sequences on a single goroutine
type Engine struct {
	reader     domain.RegionReader
	dispatcher Dispatcher
	waiter     Waiter
	events     events.Publisher
	opts       Options
}

// NewEngine wires an engine. A nil publisher discards events.
func NewEngine(reader domain.RegionReader, dispatcher Dispatcher, waiter Waiter, publisher events.Publisher, opts Options) *Engine {
	if publisher == nil {
		publisher = events.Discard
	}
	return &Engine{
		reader:     reader,
		dispatcher: dispatcher,
		waiter:     waiter,
		events:     publisher,
		opts:       opts,
	}
}

func (e *Engine) stopped(ctx context.Context) bool {
	return e.waiter.Stopped() || ctx.Err() != nil
}

// PollUntilGateClears reads region up to maxAttempts times. The first
// reading with a pair decides: a zero component gives PollExhausted, two
// positive components give PollCleared. Readings without a pair are retried
// after retryDelay. Stop is checked before every attempt and wakes the delay.
func (e *Engine) PollUntilGateClears(ctx context.Context, region domain.Region, maxAttempts int, retryDelay time.Duration) (domain.PollResult, domain.Reading) {
	log := logger.FromContext(ctx)
	last := domain.Reading{Region: region.Name}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if e.stopped(ctx) {
			return domain.PollStopped, last
		}

		last = e.reader.Read(ctx, region)
		e.events.Publish(ctx, events.Event{
			Type:      events.TypePoll,
			Iteration: attempt,
			Reading:   &last,
		})

		if last.HasPair {
			if PrimaryGate(last.Pair) == domain.GatePass {
				log.Info("List clear", zap.String("region", region.Name), zap.Stringer("pair", last.Pair))
				return domain.PollExhausted, last
			}
			return domain.PollCleared, last
		}

		log.Debug("No pair read",
			zap.String("region", region.Name),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.String("text", last.Text),
		)

		if attempt < maxAttempts && !e.waiter.Sleep(ctx, retryDelay) {
			return domain.PollStopped, last
		}
	}

	return domain.PollNoData, last
}

// Poll runs PollUntilGateClears with the engine's configured budget
func (e *Engine) Poll(ctx context.Context, region domain.Region) (domain.PollResult, domain.Reading) {
	return e.PollUntilGateClears(ctx, region, e.opts.MaxAttempts, e.opts.RetryDelay)
}
