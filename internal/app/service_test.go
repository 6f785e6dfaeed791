package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	service "github.com/ryanbouguerra/wbw-rank/internal/app"
	"github.com/ryanbouguerra/wbw-rank/internal/config"
	"github.com/ryanbouguerra/wbw-rank/internal/domain/model"
	"github.com/ryanbouguerra/wbw-rank/internal/domain/ranking"
	"github.com/ryanbouguerra/wbw-rank/internal/domain/selection"
	"github.com/ryanbouguerra/wbw-rank/internal/domain/types"
	"github.com/ryanbouguerra/wbw-rank/internal/matchgen"
	"github.com/ryanbouguerra/wbw-rank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
}

const lookback = 364 * 24 * time.Hour

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func match(tournament string, start time.Time, winner, loser model.Player, rw, rl string) model.Match {
	return model.Match{
		TournamentID: tournament,
		StartDate:    start,
		EndDate:      start.AddDate(0, 0, 6),
		PlayerA:      winner,
		PlayerB:      loser,
		RatingA:      rw,
		RatingB:      rl,
		Winner:       winner,
	}
}

// history: A beats B twice in 2007, then loses to B in two 2008 tournaments.
func history() []model.Match {
	return []model.Match{
		match("Boot", day(2007, 5, 1), "A", "B", "", ""),
		match("Boot", day(2007, 5, 1), "A", "B", "", ""),
		{
			TournamentID: "Open", StartDate: day(2008, 1, 1), EndDate: day(2008, 1, 7),
			PlayerA: "A", PlayerB: "B", RatingA: "3", RatingB: "9", Winner: "B",
		},
		{
			TournamentID: "Masters", StartDate: day(2008, 2, 1), EndDate: day(2008, 2, 7),
			PlayerA: "A", PlayerB: "B", RatingA: "4", RatingB: "8", Winner: "B",
		},
	}
}

func players(s types.Snapshot) []model.Player { return s.Players() }

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
		})
	})

	Convey("Given a new service built from config", t, func() {
		cfg := config.New()
		cfg.WorkerCount = 2
		cfg.QueueSize = 4
		cfg.WindowAnchor = "closed"
		svc := service.New(service.WithConfig(cfg), service.WithLogger(logger.Nop()))

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
		})
	})
}

func TestService_RankByPeriod(t *testing.T) {
	Convey("Given a match history", t, func() {
		ctx := context.Background()
		svc := service.New()
		params := ranking.DefaultParams()

		Convey("When ranking 2007", func() {
			snap, err := svc.RankByPeriod(ctx, history(), []int{2007}, params)

			Convey("Then the repeated winner leads", func() {
				So(err, ShouldBeNil)
				So(players(snap), ShouldResemble, []model.Player{"A", "B"})
				So(snap[0].Score, ShouldAlmostEqual, 0.925, 1e-12)
				So(snap[1].Score, ShouldAlmostEqual, 0.075, 1e-12)
			})
		})

		Convey("When no year is given", func() {
			_, err := svc.RankByPeriod(ctx, history(), nil, params)

			Convey("Then the period is rejected", func() {
				So(errors.Is(err, selection.ErrInvalidPeriod), ShouldBeTrue)
			})
		})

		Convey("When the period holds no matches", func() {
			_, err := svc.RankByPeriod(ctx, history(), []int{1999}, params)

			Convey("Then the selection is reported empty", func() {
				So(errors.Is(err, ranking.ErrEmptySelection), ShouldBeTrue)
			})
		})
	})
}

func TestService_RankByWindow(t *testing.T) {
	Convey("Given a match history", t, func() {
		ctx := context.Background()
		svc := service.New()
		params := ranking.DefaultParams()

		Convey("When ranking the year before June 2008", func() {
			snap, err := svc.RankByWindow(ctx, history(), day(2008, 6, 1), lookback, params)

			Convey("Then only 2008 results count", func() {
				So(err, ShouldBeNil)
				So(players(snap), ShouldResemble, []model.Player{"B", "A"})
			})
		})

		Convey("When the lookback is negative", func() {
			_, err := svc.RankByWindow(ctx, history(), day(2008, 6, 1), -time.Hour, params)

			Convey("Then the period is rejected", func() {
				So(errors.Is(err, selection.ErrInvalidPeriod), ShouldBeTrue)
			})
		})
	})
}

func TestService_SequenceSnapshots(t *testing.T) {
	Convey("Given a match history", t, func() {
		ctx := context.Background()
		svc := service.New()

		Convey("When sequencing from 2007", func() {
			points, err := svc.SequenceSnapshots(ctx, history(), lookback, 2007, ranking.DefaultParams())

			Convey("Then the first 2008 tournament is paired with the 2007 ranking", func() {
				So(err, ShouldBeNil)
				So(points, ShouldResemble, []types.RatingPoint{
					{Rating: 3, Position: 1},
					{Rating: 9, Position: 2},
				})
			})
		})

		Convey("When the parameters are invalid", func() {
			params := ranking.DefaultParams()
			params.DampingFactor = 0
			_, err := svc.SequenceSnapshots(ctx, history(), lookback, 2007, params)

			Convey("Then nothing is ranked", func() {
				So(errors.Is(err, ranking.ErrInvalidParams), ShouldBeTrue)
			})
		})
	})
}

func TestService_PrecomputeWindows(t *testing.T) {
	Convey("Given a service with a small worker pool", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(1))
		refs := []time.Time{day(2008, 6, 1), day(2008, 3, 1), day(2007, 6, 1)}

		Convey("When precomputing three windows", func() {
			records, err := svc.PrecomputeWindows(ctx, history(), refs, lookback, ranking.DefaultParams())

			Convey("Then every window is ranked and returned in reference order", func() {
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 3)

				So(records[0].Reference, ShouldEqual, day(2007, 6, 1))
				So(records[1].Reference, ShouldEqual, day(2008, 3, 1))
				So(records[2].Reference, ShouldEqual, day(2008, 6, 1))

				So(players(records[0].Snapshot), ShouldResemble, []model.Player{"A", "B"})
				So(players(records[1].Snapshot), ShouldResemble, []model.Player{"A", "B"})
				So(players(records[2].Snapshot), ShouldResemble, []model.Player{"B", "A"})
				for _, r := range records {
					So(r.Converged, ShouldBeTrue)
					So(r.JobID, ShouldNotBeEmpty)
				}
			})
		})

		Convey("When the solver may not reorder anything", func() {
			params := ranking.DefaultParams()
			params.MaxIterations = 1
			params.MaxOrderChanges = 0
			records, err := svc.PrecomputeWindows(ctx, history(), refs, lookback, params)

			Convey("Then windows that would reorder are kept as unconverged", func() {
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 3)
				So(records[0].Converged, ShouldBeTrue)
				So(records[2].Converged, ShouldBeFalse)
				So(records[2].Snapshot, ShouldBeEmpty)
			})
		})

		Convey("When the same reference date is given several times", func() {
			dup := []time.Time{day(2008, 6, 1), day(2008, 3, 1), day(2008, 6, 1), day(2008, 6, 1)}
			records, err := svc.PrecomputeWindows(ctx, history(), dup, lookback, ranking.DefaultParams())

			Convey("Then equal dates come back in submission order", func() {
				So(err, ShouldBeNil)
				var seqs []int
				for _, r := range records {
					seqs = append(seqs, r.Seq)
				}
				So(seqs, ShouldResemble, []int{1, 0, 2, 3})
			})
		})

		Convey("When no reference is given", func() {
			records, err := svc.PrecomputeWindows(ctx, history(), nil, lookback, ranking.DefaultParams())

			Convey("Then nothing is returned", func() {
				So(err, ShouldBeNil)
				So(records, ShouldBeEmpty)
			})
		})

		Convey("When a window holds no matches", func() {
			_, err := svc.PrecomputeWindows(ctx, history(), append(refs, day(2000, 1, 1)), lookback, ranking.DefaultParams())

			Convey("Then the run fails", func() {
				So(errors.Is(err, ranking.ErrEmptySelection), ShouldBeTrue)
			})
		})

		Convey("When the lookback is not positive", func() {
			_, err := svc.PrecomputeWindows(ctx, history(), refs, -time.Hour, ranking.DefaultParams())

			Convey("Then no job is run", func() {
				So(errors.Is(err, selection.ErrInvalidPeriod), ShouldBeTrue)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := svc.PrecomputeWindows(cctx, history(), refs, lookback, ranking.DefaultParams())

			Convey("Then the run reports it", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestService_PrecomputeMatchesSequential(t *testing.T) {
	Convey("Given a generated two-season history", t, func() {
		ctx := context.Background()
		cfg := matchgen.DefaultConfig()
		cfg.Players = 48
		cfg.DrawSize = 16
		matches, err := matchgen.Generate(ctx, cfg)
		So(err, ShouldBeNil)

		var refs []time.Time
		for w := 10; w < cfg.Tournaments; w += 6 {
			refs = append(refs, cfg.Start.AddDate(0, 0, 7*w))
		}
		params := ranking.DefaultParams()
		params.MaxIterations = ranking.PeriodMaxIterations

		Convey("When windows are precomputed by several workers", func() {
			svc := service.New(service.WithWorkerCount(4), service.WithQueueSize(2))
			records, err := svc.PrecomputeWindows(ctx, matches, refs, lookback, params)
			So(err, ShouldBeNil)
			So(records, ShouldHaveLength, len(refs))

			Convey("Then each result equals the sequential ranking of that window", func() {
				for i, r := range records {
					So(r.Reference, ShouldEqual, refs[i])
					want, err := svc.RankByWindow(ctx, matches, r.Reference, lookback, params)
					if errors.Is(err, ranking.ErrDidNotConverge) {
						So(r.Converged, ShouldBeFalse)
						continue
					}
					So(err, ShouldBeNil)
					So(r.Snapshot, ShouldResemble, want)
				}
			})
		})

		Convey("When the history is sequenced", func() {
			points, err := service.New().SequenceSnapshots(ctx, matches, lookback, 2007, params)

			Convey("Then 2008 tournaments yield points with valid positions", func() {
				So(err, ShouldBeNil)
				So(points, ShouldNotBeEmpty)
				for _, p := range points {
					So(p.Position, ShouldBeGreaterThan, 0)
					So(p.Position, ShouldBeLessThanOrEqualTo, cfg.Players)
					So(p.Rating, ShouldBeBetweenOrEqual, 1.0, float64(cfg.Players))
				}
			})
		})
	})
}

func TestService_Defaults(t *testing.T) {
	Convey("Given a history whose early window is tied", t, func() {
		ctx := context.Background()
		ref := day(2008, 1, 10)

		Convey("When a call passes zero values", func() {
			snap, err := service.New().RankByWindow(ctx, history(), ref, 0, ranking.Params{})

			Convey("Then the default year-long window and parameters are used", func() {
				So(err, ShouldBeNil)
				So(players(snap), ShouldResemble, []model.Player{"A", "B"})
			})
		})

		Convey("When the service is given a short lookback", func() {
			svc := service.New(service.WithLookback(5 * 24 * time.Hour))
			snap, err := svc.RankByWindow(ctx, history(), ref, 0, ranking.Params{})

			Convey("Then only the latest tournament counts", func() {
				So(err, ShouldBeNil)
				So(players(snap), ShouldResemble, []model.Player{"B", "A"})
			})
		})

		Convey("When the service is given a later bootstrap year", func() {
			points, err := service.New(service.WithBootstrapYear(2008)).SequenceSnapshots(ctx, history(), 0, 0, ranking.Params{})

			Convey("Then no tournament is walked", func() {
				So(err, ShouldBeNil)
				So(points, ShouldBeEmpty)
			})
		})
	})
}

func TestService_LoadFromFile(t *testing.T) {
	Convey("Given a config file with a five-day lookback", t, func() {
		path := filepath.Join(t.TempDir(), "wbw.yaml")
		So(os.WriteFile(path, []byte("log_level: error\nlookback_days: 5\nworker_count: 2\n"), 0o600), ShouldBeNil)
		t.Setenv(config.EnvConfig, path)

		Convey("When the service is loaded", func() {
			svc, cfg, err := service.Load(context.Background())
			So(err, ShouldBeNil)
			So(cfg.LookbackDays, ShouldEqual, 5)

			Convey("Then window rankings use the configured lookback", func() {
				snap, err := svc.RankByWindow(context.Background(), history(), day(2008, 1, 10), 0, ranking.Params{})
				So(err, ShouldBeNil)
				So(players(snap), ShouldResemble, []model.Player{"B", "A"})
			})
		})
	})
}

func TestService_LoadFromEnv(t *testing.T) {
	Convey("Given environment overrides for the solver and bootstrap year", t, func() {
		t.Setenv("WBW_LOG_LEVEL", "error")
		t.Setenv("WBW_MAX_ITERATIONS", "1")
		t.Setenv("WBW_MAX_ORDER_CHANGES", "0")
		t.Setenv("WBW_BOOTSTRAP_YEAR", "2008")

		Convey("When the service is loaded", func() {
			ctx := context.Background()
			svc, _, err := service.Load(ctx, service.WithWorkerCount(1))
			So(err, ShouldBeNil)

			Convey("Then the configured bootstrap year is used for sequencing", func() {
				points, err := svc.SequenceSnapshots(ctx, history(), 0, 0, ranking.Params{})
				So(err, ShouldBeNil)
				So(points, ShouldBeEmpty)
			})

			Convey("Then the configured solver parameters are used for precomputation", func() {
				records, err := svc.PrecomputeWindows(ctx, history(), []time.Time{day(2007, 6, 1), day(2008, 6, 1)}, 0, ranking.Params{})
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 2)
				So(records[0].Converged, ShouldBeTrue)
				So(records[1].Converged, ShouldBeFalse)
			})
		})
	})
}
