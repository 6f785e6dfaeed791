package ranking

import (
	"github.com/ryanbouguerra/wbw-rank/pkg/logger"
)

// Option applies a configuration option to the Solver.
type Option func(*Solver)

// WithParams replaces all solver parameters at once.
func WithParams(p Params) Option {
	return func(s *Solver) {
		s.params = p
	}
}

// WithDampingFactor sets the share of score redistributed through the loss graph.
func WithDampingFactor(d float64) Option {
	return func(s *Solver) {
		s.params.DampingFactor = d
	}
}

// WithMaxOrderChanges sets how many positions may still move for the ranking
// to count as converged.
func WithMaxOrderChanges(n int) Option {
	return func(s *Solver) {
		s.params.MaxOrderChanges = n
	}
}

// WithMaxIterations caps the number of iterations.
func WithMaxIterations(n int) Option {
	return func(s *Solver) {
		s.params.MaxIterations = n
	}
}

// WithLogger sets a custom logger for the solver.
func WithLogger(l logger.Logger) Option {
	return func(s *Solver) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver registers a callback invoked after every rescale step.
func WithObserver(fn func(Iteration)) Option {
	return func(s *Solver) {
		s.observer = fn
	}
}
