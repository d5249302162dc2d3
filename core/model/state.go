// Package model tracks the lifecycle of a boosting run.
//
// A run moves through three phases and never goes back:
//
//	Initialized -> Iterating(t = 1..T) -> Converged
//
// There is no early-stop phase: a run always spends its full budget, which
// keeps results comparable across calls with the same seed.
package model

import (
	"fmt"
	"sync"

	"github.com/ezoic/oddvibe/pkg/errors"
)

// Phase is the lifecycle position of a run.
type Phase int

const (
	// Initialized means buffers are allocated and weights are uniform.
	Initialized Phase = iota
	// Iterating means at least one round has started.
	Iterating
	// Converged means the budget is spent and weights are final.
	Converged
)

func (p Phase) String() string {
	switch p {
	case Initialized:
		return "initialized"
	case Iterating:
		return "iterating"
	case Converged:
		return "converged"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// StateManager records the phase and round counters of one run.
type StateManager struct {
	mu        sync.RWMutex
	phase     Phase
	budget    int
	iteration int
	skipped   int
	nSamples  int
	nFeatures int
}

// NewStateManager returns a manager in the Initialized phase.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// Start fixes the round budget and dataset dimensions.
func (s *StateManager) Start(budget, nSamples, nFeatures int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != Initialized || s.iteration != 0 {
		return errors.NewValueError("StateManager.Start", "run already started")
	}
	if budget <= 0 {
		return errors.NewInvalidIterationCountError("StateManager.Start", budget)
	}
	s.budget = budget
	s.nSamples = nSamples
	s.nFeatures = nFeatures
	return nil
}

// Advance records one finished round. skipped marks a round whose weak
// learner found no split.
func (s *StateManager) Advance(skipped bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == Converged {
		return errors.NewValueError("StateManager.Advance", "run already converged")
	}
	if s.iteration >= s.budget {
		return errors.NewValueError("StateManager.Advance", "iteration budget exhausted")
	}
	s.phase = Iterating
	s.iteration++
	if skipped {
		s.skipped++
	}
	return nil
}

// Converge moves the run to its terminal phase. Every round of the budget
// must have been recorded.
func (s *StateManager) Converge() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.iteration != s.budget {
		return errors.NewValueError("StateManager.Converge",
			fmt.Sprintf("only %d of %d rounds recorded", s.iteration, s.budget))
	}
	s.phase = Converged
	return nil
}

// MarkFitted records a single-shot fit on data of the given shape and moves
// straight to Converged. Unlike Start, it may be called again to refit.
func (s *StateManager) MarkFitted(nSamples, nFeatures int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.phase = Converged
	s.budget = 0
	s.iteration = 0
	s.skipped = 0
	s.nSamples = nSamples
	s.nFeatures = nFeatures
}

// Phase returns the current phase.
func (s *StateManager) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// IsConverged reports whether the run has finished.
func (s *StateManager) IsConverged() bool {
	return s.Phase() == Converged
}

// Iteration returns the number of recorded rounds.
func (s *StateManager) Iteration() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.iteration
}

// Skipped returns the number of degenerate rounds.
func (s *StateManager) Skipped() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.skipped
}

// Budget returns the round budget fixed by Start.
func (s *StateManager) Budget() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.budget
}

// Dimensions returns the dataset shape fixed by Start.
func (s *StateManager) Dimensions() (nSamples, nFeatures int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nSamples, s.nFeatures
}
