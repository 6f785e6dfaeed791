// Package service exposes the ranking operations: one-off period and window
// rankings, the chronological snapshot sequence, and parallel precomputation
// of many window rankings.
package service

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ryanbouguerra/wbw-rank/internal/adapters/mq/queue"
	"github.com/ryanbouguerra/wbw-rank/internal/adapters/mq/worker"
	"github.com/ryanbouguerra/wbw-rank/internal/adapters/repository"
	"github.com/ryanbouguerra/wbw-rank/internal/config"
	"github.com/ryanbouguerra/wbw-rank/internal/domain/model"
	"github.com/ryanbouguerra/wbw-rank/internal/domain/ranking"
	"github.com/ryanbouguerra/wbw-rank/internal/domain/selection"
	"github.com/ryanbouguerra/wbw-rank/internal/domain/sequencer"
	"github.com/ryanbouguerra/wbw-rank/internal/domain/types"
	"github.com/ryanbouguerra/wbw-rank/pkg/logger"
)

// Service wires selection, solver, sequencer and the precompute pipeline.
// It holds no per-call state and is safe for concurrent use.
//
// Zero values passed for params, lookback or bootstrapYear fall back to the
// service defaults, which WithConfig takes from configuration.
type Service struct {
	params        ranking.Params
	lookback      time.Duration
	bootstrapYear int
	anchor        sequencer.Anchor
	workerCount   int
	queueSize     int
	logger        logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		params:        ranking.DefaultParams(),
		lookback:      selection.DefaultLookback,
		bootstrapYear: sequencer.DefaultBootstrapYear,
		anchor:        sequencer.AnchorNextTournament,
		workerCount:   runtime.NumCPU(),
		queueSize:     1024,
		logger:        logger.GetOrNop().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads configuration from the environment, initialises the process
// logger from it and returns a service built on it. opts are applied after
// the configuration.
func Load(ctx context.Context, opts ...Option) (*Service, *config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.InitLogger(); err != nil {
		return nil, nil, err
	}
	s := New(append([]Option{WithConfig(cfg)}, opts...)...)
	s.logger.Info(ctx, "service configured",
		logger.Float64("dampingFactor", s.params.DampingFactor),
		logger.Int("maxOrderChanges", s.params.MaxOrderChanges),
		logger.Int("maxIterations", s.params.MaxIterations),
		logger.Duration("lookback", s.lookback),
		logger.Int("bootstrapYear", s.bootstrapYear),
		logger.String("anchor", s.anchor.String()),
		logger.Int("workers", s.workerCount),
	)
	return s, cfg, nil
}

func (s *Service) resolve(params ranking.Params, lookback time.Duration) (ranking.Params, time.Duration) {
	if params.IsZero() {
		params = s.params
	}
	if lookback == 0 {
		lookback = s.lookback
	}
	return params, lookback
}

func (s *Service) solver(params ranking.Params) *ranking.Solver {
	return ranking.NewSolver(ranking.WithParams(params), ranking.WithLogger(s.logger.Named("solver")))
}

// RankByPeriod ranks the matches that ended in any of years.
func (s *Service) RankByPeriod(ctx context.Context, matches []model.Match, years []int, params ranking.Params) (types.Snapshot, error) {
	params, _ = s.resolve(params, 0)
	sel, err := selection.ByPeriod(matches, years...)
	if err != nil {
		return nil, err
	}
	res, err := s.solver(params).SolveMatches(ctx, sel)
	if err != nil {
		return nil, err
	}
	s.logger.Debug(ctx, "period ranked",
		logger.Any("years", years),
		logger.Int("matches", len(sel)),
		logger.Int("players", len(res.Snapshot)),
		logger.Int("iterations", res.Iterations),
	)
	return res.Snapshot, nil
}

// RankByWindow ranks the matches that ended within lookback before reference.
func (s *Service) RankByWindow(ctx context.Context, matches []model.Match, reference time.Time, lookback time.Duration, params ranking.Params) (types.Snapshot, error) {
	params, lookback = s.resolve(params, lookback)
	sel, err := selection.ByWindow(matches, reference, lookback)
	if err != nil {
		return nil, err
	}
	res, err := s.solver(params).SolveMatches(ctx, sel)
	if err != nil {
		return nil, err
	}
	s.logger.Debug(ctx, "window ranked",
		logger.Time("reference", reference),
		logger.Int("matches", len(sel)),
		logger.Int("players", len(res.Snapshot)),
		logger.Int("iterations", res.Iterations),
	)
	return res.Snapshot, nil
}

// SequenceSnapshots produces the chronological (rating, position) dataset.
func (s *Service) SequenceSnapshots(ctx context.Context, matches []model.Match, lookback time.Duration, bootstrapYear int, params ranking.Params) ([]types.RatingPoint, error) {
	params, lookback = s.resolve(params, lookback)
	if bootstrapYear == 0 {
		bootstrapYear = s.bootstrapYear
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	seq := sequencer.New(
		sequencer.WithRanker(s.solver(params)),
		sequencer.WithLookback(lookback),
		sequencer.WithBootstrapYear(bootstrapYear),
		sequencer.WithAnchor(s.anchor),
		sequencer.WithLogger(s.logger.Named("sequencer")),
	)
	return seq.Sequence(ctx, matches)
}

// PrecomputeWindows ranks one trailing window per reference date in parallel.
// Every window is selected before any job runs, so an invalid lookback fails
// without work being done. Windows that do not converge are returned with
// Converged unset; any other failure aborts the run. Records come back
// ordered by reference date, equal dates in the order of references.
func (s *Service) PrecomputeWindows(ctx context.Context, matches []model.Match, references []time.Time, lookback time.Duration, params ranking.Params) ([]repository.Record, error) {
	params, lookback = s.resolve(params, lookback)
	if err := params.Validate(); err != nil {
		return nil, err
	}
	jobs := make([]model.RankJob, 0, len(references))
	for i, ref := range references {
		sel, err := selection.ByWindow(matches, ref, lookback)
		if err != nil {
			return nil, err
		}
		job := model.NewRankJob(ref, lookback, sel)
		job.Seq = i
		jobs = append(jobs, job)
	}

	start := time.Now()
	q := queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	store := repository.NewSnapshotStore()
	pool := worker.NewPool(s.workerCount, q, s.solver(params), store,
		worker.WithLogger(s.logger.Named("worker")))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer func() { _ = q.Close() }()
		for _, j := range jobs {
			if err := q.Enqueue(gctx, j); err != nil {
				return fmt.Errorf("enqueue job %s: %w", j.ID, err)
			}
		}
		return nil
	})
	g.Go(func() error { return pool.Run(gctx) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := store.List(ctx)
	s.logger.Info(ctx, "windows precomputed",
		logger.Int("windows", len(records)),
		logger.Int("workers", pool.Size()),
		logger.Duration("elapsed", time.Since(start)),
	)
	return records, nil
}
