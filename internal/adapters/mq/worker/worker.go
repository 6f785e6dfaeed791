// Package worker solves queued ranking jobs in parallel and records the
// outcome of each one.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ryanbouguerra/wbw-rank/internal/adapters/repository"
	"github.com/ryanbouguerra/wbw-rank/internal/domain/model"
	"github.com/ryanbouguerra/wbw-rank/internal/domain/ranking"
	"github.com/ryanbouguerra/wbw-rank/pkg/logger"
	"github.com/ryanbouguerra/wbw-rank/pkg/metrics"
)

// Job is what workers read off the queue.
type Job = model.RankJob

// Ranker solves one match selection.
type Ranker interface {
	SolveMatches(ctx context.Context, matches []model.Match) (ranking.Result, error)
}

// Recorder stores the outcome of a job.
type Recorder interface {
	Put(ctx context.Context, r repository.Record) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// InMemoryWorker takes jobs off a queue until the queue is drained.
type InMemoryWorker struct {
	queue    Queue
	ranker   Ranker
	recorder Recorder
	name     string
	logger   logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, ranker Ranker, recorder Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		ranker:   ranker,
		recorder: recorder,
		name:     "worker",
		logger:   logger.GetOrNop().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run processes jobs until the queue channel closes or ctx is cancelled. A
// ranking that does not converge is recorded and the worker moves on; any
// other failure stops the worker and is returned.
func (w *InMemoryWorker) Run(ctx context.Context) error {
	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job, ok := <-jobs:
			if !ok {
				return ctx.Err()
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing job", logger.String("jobID", job.ID), logger.Error(err))
				return err
			}
		}
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job Job) error { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	rec := repository.Record{
		JobID:     job.ID,
		Seq:       job.Seq,
		Reference: job.Reference,
		Lookback:  job.Lookback,
	}

	res, err := w.ranker.SolveMatches(ctx, job.Matches)
	var convErr *ranking.ConvergenceError
	switch {
	case err == nil:
		rec.Snapshot = res.Snapshot
		rec.Iterations = res.Iterations
		rec.Converged = true
		metrics.RecordWorkerJob(metrics.OutcomeConverged)
	case errors.As(err, &convErr):
		rec.Iterations = convErr.Iterations
		metrics.RecordWorkerJob(metrics.OutcomeDidNotConverge)
		w.logger.Warn(ctx, "window ranking did not converge",
			logger.String("jobID", job.ID),
			logger.Time("reference", job.Reference),
			logger.Int("iterations", convErr.Iterations),
		)
	default:
		outcome := metrics.OutcomeInvalidInput
		if errors.Is(err, ranking.ErrEmptySelection) {
			outcome = metrics.OutcomeEmptySelection
		}
		metrics.RecordWorkerJob(outcome)
		metrics.RecordErrorByComponent("worker", outcome)
		return fmt.Errorf("job %s: %w", job.ID, err)
	}

	if err := w.recorder.Put(ctx, rec); err != nil {
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("store job %s: %w", job.ID, err)
	}
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	logger  logger.Logger
}

// NewPool creates a new worker pool. A workerCount below one uses one worker
// per CPU.
func NewPool(workerCount int, queue Queue, ranker Ranker, recorder Recorder, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		logger:  logger.GetOrNop().Named("worker-pool"),
	}
	for i := range pool.workers {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(queue, ranker, recorder, workerOpts...)
	}
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Run starts every worker and waits until the queue is drained. The first
// worker error cancels the others and is returned.
func (p *Pool) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, w := range p.workers {
		g.Go(func() error { return w.Run(gctx) })
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
	defer metrics.UpdateWorkerActiveCount(0)

	if err := g.Wait(); err != nil {
		p.logger.Error(ctx, "worker pool stopped", logger.Error(err))
		return err
	}
	p.logger.Debug(ctx, "worker pool drained", logger.Int("workers", len(p.workers)))
	return nil
}
