package ranking

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for the solver. These allow errors.Is/As from callers.
var (
	ErrEmptySelection = errors.New("selection contains no players")
	ErrDidNotConverge = errors.New("ranking did not converge")
	ErrInvalidParams  = errors.New("invalid solver parameters")
)

// ConvergenceError reports an iteration cap reached before the ranking order
// stabilised. It unwraps to ErrDidNotConverge.
type ConvergenceError struct {
	Iterations      int // iterations performed
	OrderChanges    int // position changes seen in the last iteration
	MaxOrderChanges int // threshold that was not met
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s after %d iterations (last order changes %d, allowed %d)",
		ErrDidNotConverge, e.Iterations, e.OrderChanges, e.MaxOrderChanges)
}

func (e *ConvergenceError) Unwrap() error { return ErrDidNotConverge }
