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

// Plan describes a full run
type Plan struct {
	Startup       dispatch.Sequence
	Phases        map[domain.Phase]PhaseSpec
	BetweenPhases time.Duration
	// Cycles bounds the number of full cycles; zero runs until stopped
	Cycles int
}

// Run executes the startup ops, then cycles through the phases until the stop
// signal, the cycle limit, or a dispatch failure. Only the failure is
// returned as an error.
func (e *Engine) Run(ctx context.Context, plan Plan) error {
	log := logger.FromContext(ctx)
	machine := NewMachine()

	if e.stopped(ctx) {
		return e.stop(ctx, machine)
	}

	e.events.Publish(ctx, events.Event{Type: events.TypeRunStarted})
	log.Info("Automation running")

	if err := e.dispatcher.Dispatch(ctx, "startup", plan.Startup); err != nil {
		return e.fatal(ctx, machine, err)
	}

	for {
		if e.stopped(ctx) {
			return e.stop(ctx, machine)
		}

		phase := machine.Current()
		spec, ok := plan.Phases[phase]
		if !ok {
			spec = PhaseSpec{Phase: phase, Skip: true}
		}

		if spec.Skip {
			log.Info("Skipping phase", zap.Stringer("phase", phase))
			e.events.Publish(ctx, events.Event{Type: events.TypePhaseSkipped, Phase: phase.String()})
		} else {
			report, err := e.RunPhase(ctx, spec)
			if err != nil {
				return e.fatal(ctx, machine, err)
			}
			if report.Stopped() {
				return e.stop(ctx, machine)
			}
		}

		if !e.waiter.Sleep(ctx, plan.BetweenPhases) {
			return e.stop(ctx, machine)
		}

		if phase == domain.PhaseHandling {
			cycle := machine.Cycles() + 1
			e.events.Publish(ctx, events.Event{Type: events.TypeCycleFinished, Cycle: cycle})
			if plan.Cycles > 0 && cycle >= plan.Cycles {
				e.events.Publish(ctx, events.Event{Type: events.TypeFinished, Cycle: cycle, Message: "Cycle limit reached"})
				log.Info("Cycle limit reached", zap.Int("cycles", cycle))
				return nil
			}
		}

		if _, err := machine.Advance(); err != nil {
			return err
		}
	}
}

func (e *Engine) stop(ctx context.Context, m *Machine) error {
	reason := e.waiter.Reason()
	if reason == "" && ctx.Err() != nil {
		reason = "context cancelled"
	}
	logger.FromContext(ctx).Info("Stopped", zap.String("reason", reason))
	e.events.Publish(ctx, events.Event{
		Type:    events.TypeStopped,
		Phase:   m.Current().String(),
		Cycle:   m.Cycles(),
		Message: reason,
	})
	return nil
}

func (e *Engine) fatal(ctx context.Context, m *Machine, err error) error {
	logger.FromContext(ctx).Error("Dispatch failed", zap.Error(err))
	e.events.Publish(ctx, events.Event{
		Type:  events.TypeFatal,
		Phase: m.Current().String(),
		Cycle: m.Cycles(),
		Error: err.Error(),
	})
	return err
}
