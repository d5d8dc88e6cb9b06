// Package gate runs the polling gates and the three-phase cycle that decides
// when action sequences are dispatched.
package gate

import (
	domain "github.com/berth-automation/berth/internal/domain"
)

// PrimaryGate continues while both sides of the pair are non-zero. A zero on
// either side means the list is clear and the phase is done.
func PrimaryGate(pair domain.NumericPair) domain.GateOutcome {
	if pair.HasZero() {
		return domain.GatePass
	}
	return domain.GateContinue
}

// SecondaryGate allows a dispatch only while Right-Left stays strictly above
// Threshold. It is evaluated independently of the primary gate.
type SecondaryGate struct {
	Threshold int
}

// Evaluate returns GateContinue when the reading allows another dispatch and
// GateFail otherwise, including when no pair was read.
func (g SecondaryGate) Evaluate(pair domain.NumericPair, ok bool) domain.GateOutcome {
	if ok && pair.Delta() > g.Threshold {
		return domain.GateContinue
	}
	return domain.GateFail
}
