// Package events carries run progress to the log, external sinks and the
// live monitor.
package events

import (
	"time"

	domain "github.com/berth-automation/berth/internal/domain"
)

// Type names an event
type Type string

const (
	TypeRunStarted    Type = "run_started"
	TypePhaseStarted  Type = "phase_started"
	TypePhaseSkipped  Type = "phase_skipped"
	TypePoll          Type = "poll"
	TypeGateFailed    Type = "gate_failed"
	TypeDispatched    Type = "dispatched"
	TypePhaseFinished Type = "phase_finished"
	TypeCycleFinished Type = "cycle_finished"
	TypeStopped       Type = "stopped"
	TypeFatal         Type = "fatal"
	TypeFinished      Type = "finished"
)

// Event is one step of a run
type Event struct {
	ID        string          `json:"id"`
	RunID     string          `json:"run_id"`
	Type      Type            `json:"type"`
	Time      time.Time       `json:"time"`
	Phase     string          `json:"phase,omitempty"`
	Cycle     int             `json:"cycle,omitempty"`
	Iteration int             `json:"iteration,omitempty"`
	Poll      string          `json:"poll,omitempty"`
	Outcome   string          `json:"outcome,omitempty"`
	Reading   *domain.Reading `json:"reading,omitempty"`
	Message   string          `json:"message,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Terminal reports whether the event ends the run
func (e Event) Terminal() bool {
	switch e.Type {
	case TypeStopped, TypeFatal, TypeFinished:
		return true
	default:
		return false
	}
}
