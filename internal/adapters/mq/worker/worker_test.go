package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ryanbouguerra/wbw-rank/internal/adapters/mq/queue"
	"github.com/ryanbouguerra/wbw-rank/internal/adapters/mq/worker"
	"github.com/ryanbouguerra/wbw-rank/internal/adapters/repository"
	"github.com/ryanbouguerra/wbw-rank/internal/domain/model"
	"github.com/ryanbouguerra/wbw-rank/internal/domain/ranking"
	"github.com/ryanbouguerra/wbw-rank/internal/domain/types"
	"github.com/smartystreets/goconvey/convey"
)

// mockRanker ranks the winners of a selection in order of appearance. Jobs
// whose first match belongs to a tournament listed in fail return that error.
type mockRanker struct {
	mu    sync.Mutex
	calls int
	fail  map[string]error
}

func (m *mockRanker) SolveMatches(_ context.Context, matches []model.Match) (ranking.Result, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if len(matches) == 0 {
		return ranking.Result{}, ranking.ErrEmptySelection
	}
	if err, ok := m.fail[matches[0].TournamentID]; ok {
		return ranking.Result{}, err
	}
	snap := types.Snapshot{{Position: 1, Player: matches[0].Winner}}
	return ranking.Result{Snapshot: snap, Iterations: 3}, nil
}

type failingRecorder struct{}

func (failingRecorder) Put(context.Context, repository.Record) error {
	return errors.New("disk full")
}

func rankJob(tournament string, month time.Month) model.RankJob {
	ref := time.Date(2008, month, 1, 0, 0, 0, 0, time.UTC)
	return model.NewRankJob(ref, 364*24*time.Hour, []model.Match{{
		TournamentID: tournament,
		EndDate:      ref.AddDate(0, 0, -7),
		PlayerA:      "Federer",
		PlayerB:      "Nadal",
		Winner:       "Federer",
	}})
}

func fill(q *queue.InMemoryQueue, jobs ...model.RankJob) {
	for _, j := range jobs {
		convey.So(q.Enqueue(context.Background(), j), convey.ShouldBeNil)
	}
	convey.So(q.Close(), convey.ShouldBeNil)
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		store := repository.NewSnapshotStore()
		ranker := &mockRanker{fail: map[string]error{
			"Stalled": &ranking.ConvergenceError{Iterations: 100, OrderChanges: 12, MaxOrderChanges: 10},
			"Broken":  fmt.Errorf("match 0: %w", ranking.ErrInvalidParams),
		}}
		w := worker.NewInMemoryWorker(q, ranker, store, worker.WithName("test-worker"))

		convey.Convey("When jobs converge", func() {
			a, b := rankJob("Open", 2), rankJob("Masters", 3)
			fill(q, a, b)
			err := w.Run(ctx)

			convey.Convey("Then every outcome is stored", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(store.Count(ctx), convey.ShouldEqual, 2)

				rec, err := store.Get(ctx, a.ID)
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.Converged, convey.ShouldBeTrue)
				convey.So(rec.Iterations, convey.ShouldEqual, 3)
				convey.So(rec.Reference, convey.ShouldEqual, a.Reference)
				convey.So(rec.Snapshot[0].Player, convey.ShouldEqual, model.Player("Federer"))
			})
		})

		convey.Convey("When a ranking does not converge", func() {
			stalled := rankJob("Stalled", 2)
			fill(q, stalled, rankJob("Open", 3))
			err := w.Run(ctx)

			convey.Convey("Then it is recorded as unconverged and the worker goes on", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(store.Count(ctx), convey.ShouldEqual, 2)

				rec, _ := store.Get(ctx, stalled.ID)
				convey.So(rec.Converged, convey.ShouldBeFalse)
				convey.So(rec.Iterations, convey.ShouldEqual, 100)
				convey.So(rec.Snapshot, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When a ranking fails outright", func() {
			fill(q, rankJob("Broken", 2))
			err := w.Run(ctx)

			convey.Convey("Then the worker stops with the error", func() {
				convey.So(errors.Is(err, ranking.ErrInvalidParams), convey.ShouldBeTrue)
				convey.So(store.Count(ctx), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the store rejects a record", func() {
			fill(q, rankJob("Open", 2))
			err := worker.NewInMemoryWorker(q, ranker, failingRecorder{}).Run(ctx)

			convey.Convey("Then the worker stops with the store error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "disk full")
			})
		})

		convey.Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			done := make(chan error, 1)
			go func() { done <- w.Run(cctx) }()
			cancel()

			convey.Convey("Then the worker returns the context error", func() {
				select {
				case err := <-done:
					convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
				case <-time.After(time.Second):
					convey.So("worker still running", convey.ShouldBeEmpty)
				}
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		store := repository.NewSnapshotStore()
		ranker := &mockRanker{}

		convey.Convey("When created with a non-positive count", func() {
			pool := worker.NewPool(0, q, ranker, store)

			convey.Convey("Then it still has workers", func() {
				convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When running over many jobs", func() {
			pool := worker.NewPool(4, q, ranker, store)
			var jobs []model.RankJob
			for i := 0; i < 40; i++ {
				jobs = append(jobs, rankJob("Open", time.Month(1+i%12)))
			}
			fill(q, jobs...)
			err := pool.Run(ctx)

			convey.Convey("Then every job is solved once and stored", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(ranker.calls, convey.ShouldEqual, 40)
				convey.So(store.Count(ctx), convey.ShouldEqual, 40)
			})
		})

		convey.Convey("When one job fails", func() {
			pool := worker.NewPool(2, q, ranker, store)
			fill(q, rankJob("Open", 1), model.NewRankJob(time.Now(), time.Hour, nil), rankJob("Open", 2))
			err := pool.Run(ctx)

			convey.Convey("Then the pool reports it", func() {
				convey.So(errors.Is(err, ranking.ErrEmptySelection), convey.ShouldBeTrue)
			})
		})
	})
}
