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

// SecondaryCheck pairs a secondary gate with the region it reads
type SecondaryCheck struct {
	Region domain.Region
	Gate   SecondaryGate
}

// PhaseSpec is everything needed to run one phase
type PhaseSpec struct {
	Phase     domain.Phase
	Skip      bool
	Region    domain.Region
	Select    dispatch.Sequence
	Actions   dispatch.Sequence
	Settle    time.Duration
	Secondary *SecondaryCheck
}

// PhaseReport summarizes one phase run
type PhaseReport struct {
	Phase      domain.Phase
	Iterations int
	Poll       domain.PollResult
	Outcome    domain.GateOutcome
	Last       domain.Reading
}

// Stopped reports whether the phase ended on the stop signal
func (r PhaseReport) Stopped() bool {
	return r.Poll == domain.PollStopped
}

// RunPhase dispatches the phase's select ops once, then dispatches its
// actions for as long as the primary gate clears and the secondary gate, if
// any, allows it. A secondary-gate failure ends the phase without an error.
// Dispatch failures are returned and are fatal.
func (e *Engine) RunPhase(ctx context.Context, spec PhaseSpec) (PhaseReport, error) {
	name := spec.Phase.String()
	ctx = logger.With(ctx, zap.String("phase", name))
	log := logger.FromContext(ctx)

	report := PhaseReport{Phase: spec.Phase, Outcome: domain.GateContinue}

	if e.stopped(ctx) {
		report.Poll = domain.PollStopped
		return report, nil
	}

	e.events.Publish(ctx, events.Event{Type: events.TypePhaseStarted, Phase: name})
	log.Info("Checking phase", zap.String("region", spec.Region.Name))

	if err := e.dispatcher.Dispatch(ctx, name, spec.Select); err != nil {
		return report, err
	}

	for {
		poll, reading := e.Poll(ctx, spec.Region)
		report.Poll = poll
		report.Last = reading

		if !poll.Cleared() {
			if poll != domain.PollStopped {
				report.Outcome = domain.GatePass
			}
			break
		}

		if e.stopped(ctx) {
			report.Poll = domain.PollStopped
			break
		}

		if spec.Secondary != nil {
			sec := e.reader.Read(ctx, spec.Secondary.Region)
			if spec.Secondary.Gate.Evaluate(sec.Pair, sec.HasPair) == domain.GateFail {
				report.Outcome = domain.GateFail
				report.Last = sec
				log.Info("Secondary gate not met",
					zap.String("region", spec.Secondary.Region.Name),
					zap.Int("threshold", spec.Secondary.Gate.Threshold),
					zap.Bool("has_pair", sec.HasPair),
					zap.Stringer("pair", sec.Pair),
				)
				e.events.Publish(ctx, events.Event{
					Type:    events.TypeGateFailed,
					Phase:   name,
					Outcome: domain.GateFail.String(),
					Reading: &sec,
					Message: "Secondary gate not met",
				})
				break
			}
		}

		if err := e.dispatcher.Dispatch(ctx, name, spec.Actions); err != nil {
			return report, err
		}
		report.Iterations++
		e.events.Publish(ctx, events.Event{
			Type:      events.TypeDispatched,
			Phase:     name,
			Iteration: report.Iterations,
			Reading:   &reading,
		})

		if spec.Settle > 0 && !e.waiter.Sleep(ctx, spec.Settle) {
			report.Poll = domain.PollStopped
			break
		}
		if e.stopped(ctx) {
			report.Poll = domain.PollStopped
			break
		}
	}

	e.events.Publish(ctx, events.Event{
		Type:      events.TypePhaseFinished,
		Phase:     name,
		Iteration: report.Iterations,
		Poll:      report.Poll.String(),
		Outcome:   report.Outcome.String(),
	})
	log.Info("Phase finished",
		zap.Int("iterations", report.Iterations),
		zap.String("poll", report.Poll.String()),
		zap.String("outcome", report.Outcome.String()),
	)
	return report, nil
}
