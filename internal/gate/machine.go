package gate

import (
	"fmt"
	"sync"

	domain "github.com/berth-automation/berth/internal/domain"
)

// Machine tracks the current phase and only allows the transitions of the
// fixed cycle Departure -> Approach -> Handling -> Departure
type Machine struct {
	current domain.Phase
	cycles  int
	mu      sync.RWMutex

	transitions map[domain.Phase][]domain.Phase
}

// NewMachine creates a machine positioned at Departure
func NewMachine() *Machine {
	m := &Machine{
		current:     domain.PhaseDeparture,
		transitions: make(map[domain.Phase][]domain.Phase),
	}
	m.registerTransitions()
	return m
}

func (m *Machine) registerTransitions() {
	m.addTransition(domain.PhaseDeparture, domain.PhaseApproach)
	m.addTransition(domain.PhaseApproach, domain.PhaseHandling)
	m.addTransition(domain.PhaseHandling, domain.PhaseDeparture)
}

func (m *Machine) addTransition(from, to domain.Phase) {
	m.transitions[from] = append(m.transitions[from], to)
}

// Transition moves to target if the table allows it
func (m *Machine) Transition(target domain.Phase) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.allowed(m.current, target) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, target)
	}

	if m.current == domain.PhaseHandling && target == domain.PhaseDeparture {
		m.cycles++
	}
	m.current = target
	return nil
}

func (m *Machine) allowed(from, to domain.Phase) bool {
	for _, t := range m.transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Advance moves to the next phase in the cycle
func (m *Machine) Advance() (domain.Phase, error) {
	next := m.Current().Next()
	if err := m.Transition(next); err != nil {
		return m.Current(), err
	}
	return next, nil
}

// Current returns the current phase
func (m *Machine) Current() domain.Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Cycles returns how many times the machine wrapped from Handling to Departure
func (m *Machine) Cycles() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cycles
}
