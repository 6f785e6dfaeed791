// Package sequencer walks a match history tournament by tournament and, at
// every tournament boundary, ranks the players on the results known so far.
// Each ranked player who carried an external rating into the tournament that
// just closed yields one (rating, position) point.
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/ryanbouguerra/wbw-rank/internal/domain/model"
	"github.com/ryanbouguerra/wbw-rank/internal/domain/ranking"
	"github.com/ryanbouguerra/wbw-rank/internal/domain/selection"
	"github.com/ryanbouguerra/wbw-rank/internal/domain/types"
	"github.com/ryanbouguerra/wbw-rank/pkg/logger"
	"github.com/ryanbouguerra/wbw-rank/pkg/metrics"
)

// DefaultBootstrapYear is the year ranked for the first snapshot.
const DefaultBootstrapYear = 2007

// Anchor selects the reference date that ends each trailing window.
type Anchor int

const (
	// AnchorNextTournament ends the window at the start of the tournament
	// that opens at the boundary.
	AnchorNextTournament Anchor = iota
	// AnchorClosedTournament ends the window at the start of the tournament
	// whose ratings are being paired, so none of its results are used.
	AnchorClosedTournament
)

// ParseAnchor maps "next" and "closed" to an Anchor.
func ParseAnchor(s string) (Anchor, error) {
	switch s {
	case "", "next":
		return AnchorNextTournament, nil
	case "closed":
		return AnchorClosedTournament, nil
	}
	return 0, fmt.Errorf("unknown window anchor %q", s)
}

func (a Anchor) String() string {
	if a == AnchorClosedTournament {
		return "closed"
	}
	return "next"
}

// MatchRanker ranks a match selection.
type MatchRanker interface {
	SolveMatches(ctx context.Context, matches []model.Match) (ranking.Result, error)
}

// Sequencer produces the chronological rating/position dataset.
type Sequencer struct {
	ranker        MatchRanker
	lookback      time.Duration
	bootstrapYear int
	anchor        Anchor
	logger        logger.Logger
}

// New creates a sequencer with configuration options.
func New(opts ...Option) *Sequencer {
	s := &Sequencer{
		ranker:        ranking.NewSolver(),
		lookback:      selection.DefaultLookback,
		bootstrapYear: DefaultBootstrapYear,
		anchor:        AnchorNextTournament,
		logger:        logger.GetOrNop().Named("sequencer"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sequence returns every emitted point in emission order. matches is not
// modified. Tournaments ending in or before the bootstrap year are not
// walked; they only feed the bootstrap ranking.
//
// A boundary whose ranking does not converge yields no points and the walk
// goes on. Any other error aborts the sequence.
func (s *Sequencer) Sequence(ctx context.Context, matches []model.Match) ([]types.RatingPoint, error) {
	if s.lookback <= 0 {
		return nil, fmt.Errorf("%w: lookback must be positive, got %s", selection.ErrInvalidPeriod, s.lookback)
	}

	sorted := slices.Clone(matches)
	slices.SortStableFunc(sorted, func(a, b model.Match) int {
		return a.StartDate.Compare(b.StartDate)
	})

	var (
		points  []types.RatingPoint
		acc     *ratingSnapshot
		current model.Match
		ranked  bool
	)
	for _, m := range sorted {
		if m.EndDate.Year() <= s.bootstrapYear {
			continue
		}
		if acc == nil {
			acc = newRatingSnapshot()
			acc.record(m)
			current = m
			continue
		}
		if m.Tournament().Equal(current.Tournament()) {
			acc.record(m)
			continue
		}

		metrics.RecordSequencerBoundary()
		pts, produced, err := s.boundary(ctx, sorted, current, m, acc, ranked)
		if err != nil {
			return nil, err
		}
		ranked = ranked || produced
		points = append(points, pts...)
		metrics.RecordSequencerPoints(len(pts))

		acc = newRatingSnapshot()
		acc.record(m)
		current = m
	}

	s.logger.Info(ctx, "snapshot sequence complete",
		logger.Int("matches", len(sorted)),
		logger.Int("points", len(points)),
	)
	return points, nil
}

// boundary ranks the players at the transition from closed to opening and
// pairs the ranking with the ratings collected for closed. Until a ranking has
// been produced the bootstrap year is ranked; afterwards the trailing window.
// produced is false when the ranking did not converge.
func (s *Sequencer) boundary(ctx context.Context, all []model.Match, closed, opening model.Match, acc *ratingSnapshot, ranked bool) (points []types.RatingPoint, produced bool, err error) {
	var sel []model.Match
	if !ranked {
		sel, err = selection.ByPeriod(all, s.bootstrapYear)
	} else {
		ref := opening.StartDate
		if s.anchor == AnchorClosedTournament {
			ref = closed.StartDate
		}
		sel, err = selection.ByWindow(all, ref, s.lookback)
	}
	if err != nil {
		return nil, false, err
	}

	res, err := s.ranker.SolveMatches(ctx, sel)
	if errors.Is(err, ranking.ErrDidNotConverge) {
		metrics.RecordSequencerSkipped(metrics.OutcomeDidNotConverge)
		s.logger.Warn(ctx, "ranking did not converge; no points for tournament",
			logger.String("tournament", closed.TournamentID),
			logger.Time("endDate", closed.EndDate),
			logger.Error(err),
		)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ranking before %q ending %s: %w",
			closed.TournamentID, closed.EndDate.Format(time.DateOnly), err)
	}

	points = make([]types.RatingPoint, 0, acc.len())
	for _, e := range res.Snapshot {
		rating, ok, perr := acc.lookup(e.Player)
		if perr != nil {
			metrics.RecordSequencerRatingRejected()
			s.logger.Warn(ctx, "ignoring unparseable rating",
				logger.String("player", string(e.Player)),
				logger.String("tournament", closed.TournamentID),
				logger.Error(perr),
			)
			continue
		}
		if !ok {
			continue
		}
		points = append(points, types.RatingPoint{Rating: rating, Position: e.Position})
	}

	s.logger.Debug(ctx, "tournament boundary",
		logger.String("tournament", closed.TournamentID),
		logger.Int("selected", len(sel)),
		logger.Int("points", len(points)),
		logger.Int("iterations", res.Iterations),
	)
	return points, true, nil
}
