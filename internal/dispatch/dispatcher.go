package dispatch

import (
	"context"
	"time"

	zap "go.uber.org/zap"

	display "github.com/berth-automation/berth/internal/display"
	domain "github.com/berth-automation/berth/internal/domain"
	logger "github.com/berth-automation/berth/internal/logger"
)

// Dispatcher executes sequences in order. A sequence always runs to
// completion or to the first backend failure; the stop signal is only
// observed between sequences.
type Dispatcher struct {
	input  display.InputController
	dryRun bool
	sleep  func(time.Duration)
}

// New returns a dispatcher sending input to the given backend
func New(input display.InputController) *Dispatcher {
	return &Dispatcher{input: input, sleep: time.Sleep}
}

// NewDryRun returns a dispatcher that only logs ops
func NewDryRun() *Dispatcher {
	return &Dispatcher{dryRun: true, sleep: func(time.Duration) {}}
}

// DryRun reports whether the dispatcher sends no input
func (d *Dispatcher) DryRun() bool {
	return d.dryRun
}

// Dispatch runs seq for the named phase. Backend failures come back as
// *domain.DispatchError.
func (d *Dispatcher) Dispatch(ctx context.Context, phase string, seq Sequence) error {
	if len(seq) == 0 {
		return nil
	}

	log := logger.FromContext(ctx)
	log.Debug("Dispatching sequence",
		zap.String("phase", phase),
		zap.Int("ops", len(seq)),
		zap.Duration("waits", seq.Duration()),
		zap.Bool("dry_run", d.dryRun),
	)

	// Ops run against a background context so a cancelled run never leaves a
	// button held down halfway through a drag.
	opCtx := context.WithoutCancel(ctx)

	for i, op := range seq {
		if d.dryRun {
			log.Info("Dry-run op", zap.String("phase", phase), zap.Int("index", i), zap.String("op", op.String()))
			continue
		}
		if err := d.execute(opCtx, op); err != nil {
			return &domain.DispatchError{Phase: phase, Op: i, Desc: op.String(), Err: err}
		}
	}
	return nil
}

func (d *Dispatcher) execute(ctx context.Context, op Op) error {
	switch op.Kind {
	case KindWait:
		d.sleep(op.Wait)
		return nil
	case KindMove:
		return d.input.MoveMouse(ctx, op.At.X, op.At.Y)
	}

	if err := d.input.MoveMouse(ctx, op.At.X, op.At.Y); err != nil {
		return err
	}
	switch op.Kind {
	case KindClick:
		return d.input.ClickMouse(ctx, display.MouseButtonLeft, 1)
	case KindPress:
		return d.input.PressMouse(ctx, display.MouseButtonLeft)
	default:
		return d.input.ReleaseMouse(ctx, display.MouseButtonLeft)
	}
}
