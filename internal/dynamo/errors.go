package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrUnstable indicates the closed loop diverged past the divergence bound.
	ErrUnstable = errors.New("dynamo: simulation unstable (state diverged)")

	// ErrInvalidGrid indicates a time grid that is empty or not increasing.
	ErrInvalidGrid = errors.New("dynamo: time grid must be non-empty and increasing")

	// ErrDimensionMismatch indicates mismatched state, control or signal lengths.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch")
)

// SimulationError wraps an error with the step at which it happened.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
