package domain

import (
	"fmt"
	"strings"
)

// Phase is one of the three stages of the interaction cycle
type Phase int

const (
	PhaseDeparture Phase = iota
	PhaseApproach
	PhaseHandling
)

// Phases lists every phase in cycle order
var Phases = []Phase{PhaseDeparture, PhaseApproach, PhaseHandling}

func (p Phase) String() string {
	switch p {
	case PhaseDeparture:
		return "departure"
	case PhaseApproach:
		return "approach"
	case PhaseHandling:
		return "handling"
	default:
		return "unknown"
	}
}

// Next returns the phase that follows p, wrapping Handling back to Departure
func (p Phase) Next() Phase {
	return Phase((int(p) + 1) % len(Phases))
}

// ParsePhase parses a phase name
func ParsePhase(s string) (Phase, error) {
	for _, p := range Phases {
		if strings.EqualFold(strings.TrimSpace(s), p.String()) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}

// GateOutcome is the decision a gate makes over a recognized pair
type GateOutcome int

const (
	// GateContinue means work remains and the phase action should repeat
	GateContinue GateOutcome = iota
	// GatePass means the repeating condition is false and the phase is complete
	GatePass
	// GateFail means a precondition was not met and the phase aborts
	GateFail
)

func (g GateOutcome) String() string {
	switch g {
	case GateContinue:
		return "continue"
	case GatePass:
		return "pass"
	case GateFail:
		return "fail"
	default:
		return "unknown"
	}
}

// PollResult is what a bounded poll over a monitored region reports
type PollResult int

const (
	// PollCleared means a pair with both sides > 0 was read: work remains
	PollCleared PollResult = iota
	// PollExhausted means a pair with a zero side was read: the monitored list is empty
	PollExhausted
	// PollNoData means every attempt failed to produce a pair
	PollNoData
	// PollStopped means the stop signal was observed before a decision
	PollStopped
)

// Cleared reports whether the poll found work remaining
func (r PollResult) Cleared() bool {
	return r == PollCleared
}

func (r PollResult) String() string {
	switch r {
	case PollCleared:
		return "cleared"
	case PollExhausted:
		return "exhausted"
	case PollNoData:
		return "no_data"
	case PollStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
