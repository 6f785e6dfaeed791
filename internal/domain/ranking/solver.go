// Package ranking implements the Winners-Beat-Winners solver: a damped power
// iteration over the loss graph in which every player's score flows to the
// players who beat them.
//
// Convergence is judged on the ranking order, not on the scores: the
// iteration stops as soon as at most MaxOrderChanges positions differ between
// two consecutive orderings.
package ranking

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/ryanbouguerra/wbw-rank/internal/domain/graph"
	"github.com/ryanbouguerra/wbw-rank/internal/domain/model"
	"github.com/ryanbouguerra/wbw-rank/internal/domain/types"
	"github.com/ryanbouguerra/wbw-rank/pkg/logger"
	"github.com/ryanbouguerra/wbw-rank/pkg/metrics"
)

// Default solver parameters.
const (
	DefaultDampingFactor   = 0.85
	DefaultMaxOrderChanges = 10
	DefaultMaxIterations   = 100

	// PeriodMaxIterations is the looser cap used for whole-period rankings.
	PeriodMaxIterations = 500
)

// Params controls one solver run.
type Params struct {
	DampingFactor   float64 `json:"damping_factor"`
	MaxOrderChanges int     `json:"max_order_changes"`
	MaxIterations   int     `json:"max_iterations"`
}

// DefaultParams returns the standard parameter set.
func DefaultParams() Params {
	return Params{
		DampingFactor:   DefaultDampingFactor,
		MaxOrderChanges: DefaultMaxOrderChanges,
		MaxIterations:   DefaultMaxIterations,
	}
}

// IsZero reports whether p is the zero value, which callers use to mean
// "use the configured defaults".
func (p Params) IsZero() bool { return p == Params{} }

// Validate checks the parameters are usable.
func (p Params) Validate() error {
	switch {
	case !(p.DampingFactor > 0 && p.DampingFactor < 1):
		return fmt.Errorf("%w: damping factor must be in (0, 1), got %v", ErrInvalidParams, p.DampingFactor)
	case p.MaxOrderChanges < 0:
		return fmt.Errorf("%w: max order changes must not be negative, got %d", ErrInvalidParams, p.MaxOrderChanges)
	case p.MaxIterations < 1:
		return fmt.Errorf("%w: max iterations must be at least 1, got %d", ErrInvalidParams, p.MaxIterations)
	}
	return nil
}

// Iteration is what an observer sees after each rescale step.
type Iteration struct {
	Number       int       // 1-based
	Scores       []float64 // indexed by graph enumeration order; a copy
	OrderChanges int
}

// Result is a converged ranking.
type Result struct {
	Snapshot     types.Snapshot
	Iterations   int
	OrderChanges int
}

// Ranker computes a ranking from a loss graph.
type Ranker interface {
	Solve(ctx context.Context, g *graph.WinLoss) (Result, error)
}

// Solver is the WbW Ranker. A Solver holds no state between calls and is safe
// for concurrent use as long as the observer is.
type Solver struct {
	params   Params
	logger   logger.Logger
	observer func(Iteration)
}

// NewSolver creates a solver with default parameters overridden by opts.
func NewSolver(opts ...Option) *Solver {
	s := &Solver{
		params: DefaultParams(),
		logger: logger.GetOrNop().Named("solver"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Params returns the parameters the solver runs with.
func (s *Solver) Params() Params { return s.params }

// WithParams returns a copy of the solver using p.
func (s *Solver) WithParams(p Params) *Solver {
	c := *s
	c.params = p
	return &c
}

// SolveMatches builds the loss graph of matches and solves it.
func (s *Solver) SolveMatches(ctx context.Context, matches []model.Match) (Result, error) {
	g, err := graph.Build(matches)
	if err != nil {
		metrics.RecordSolverRun(metrics.OutcomeInvalidInput)
		return Result{}, err
	}
	return s.Solve(ctx, g)
}

// Solve runs the iteration until the order stabilises or MaxIterations is
// reached. The loop is synchronous; MaxIterations is the only bound.
func (s *Solver) Solve(ctx context.Context, g *graph.WinLoss) (Result, error) {
	start := time.Now()
	res, err := s.solve(ctx, g)
	metrics.RecordSolverLatency(float64(time.Since(start).Microseconds()) / 1000)

	var convErr *ConvergenceError
	switch {
	case err == nil:
		metrics.RecordSolverRun(metrics.OutcomeConverged)
		metrics.RecordSolverIterations(res.Iterations)
		s.logger.Debug(ctx, "ranking converged",
			logger.Int("players", g.Len()),
			logger.Int("iterations", res.Iterations),
			logger.Int("orderChanges", res.OrderChanges),
		)
	case errors.As(err, &convErr):
		metrics.RecordSolverRun(metrics.OutcomeDidNotConverge)
		metrics.RecordSolverIterations(convErr.Iterations)
		s.logger.Debug(ctx, "ranking did not converge",
			logger.Int("players", g.Len()),
			logger.Int("iterations", convErr.Iterations),
			logger.Int("orderChanges", convErr.OrderChanges),
		)
	case errors.Is(err, ErrEmptySelection):
		metrics.RecordSolverRun(metrics.OutcomeEmptySelection)
	default:
		metrics.RecordSolverRun(metrics.OutcomeInvalidInput)
	}
	return res, err
}

func (s *Solver) solve(_ context.Context, g *graph.WinLoss) (Result, error) {
	if err := s.params.Validate(); err != nil {
		return Result{}, err
	}
	n := g.Len()
	if n == 0 {
		return Result{}, ErrEmptySelection
	}
	metrics.RecordSolverPlayers(n)

	rank := make([]float64, n)
	for i := range rank {
		rank[i] = 1 / float64(n)
	}
	if n == 1 {
		return Result{Snapshot: snapshot(g, []int{0}, rank)}, nil
	}

	d := s.params.DampingFactor
	teleport := (1 - d) / float64(n)
	next := make([]float64, n)
	oldOrder := make([]int, n)
	newOrder := make([]int, n)

	changes := 0
	for iter := 1; iter <= s.params.MaxIterations; iter++ {
		clear(next)

		// Undefeated players keep their own score.
		for p := 0; p < n; p++ {
			if g.IsSink(p) {
				next[p] = rank[p]
			}
		}
		// Everyone else splits their score evenly over their losses.
		for q := 0; q < n; q++ {
			defeaters := g.DefeatersOf(q)
			if len(defeaters) == 0 {
				continue
			}
			share := rank[q] / float64(len(defeaters))
			for _, w := range defeaters {
				next[w] += share
			}
		}
		for p := range next {
			next[p] = next[p]*d + teleport
		}

		order(newOrder, next)
		order(oldOrder, rank)
		changes = 0
		for i := range newOrder {
			if newOrder[i] != oldOrder[i] {
				changes++
			}
		}

		if s.observer != nil {
			s.observer(Iteration{Number: iter, Scores: slices.Clone(next), OrderChanges: changes})
		}

		if changes <= s.params.MaxOrderChanges {
			return Result{
				Snapshot:     snapshot(g, newOrder, next),
				Iterations:   iter,
				OrderChanges: changes,
			}, nil
		}
		rank, next = next, rank
	}

	return Result{}, &ConvergenceError{
		Iterations:      s.params.MaxIterations,
		OrderChanges:    changes,
		MaxOrderChanges: s.params.MaxOrderChanges,
	}
}

// order fills dst with player indices sorted by descending score. Equal
// scores keep enumeration order.
func order(dst []int, scores []float64) {
	for i := range dst {
		dst[i] = i
	}
	slices.SortStableFunc(dst, func(a, b int) int {
		return cmp.Compare(scores[b], scores[a])
	})
}

func snapshot(g *graph.WinLoss, ord []int, scores []float64) types.Snapshot {
	out := make(types.Snapshot, len(ord))
	for pos, i := range ord {
		out[pos] = types.Entry{
			Position: pos + 1,
			Player:   g.Player(i),
			Score:    scores[i],
		}
	}
	return out
}
