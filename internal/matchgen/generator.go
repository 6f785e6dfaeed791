// Package matchgen generates synthetic, reproducible tour histories: weekly
// single-elimination tournaments between players of hidden strength, with an
// external rating attached to most entries.
package matchgen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"time"

	"github.com/ryanbouguerra/wbw-rank/internal/domain/model"
	"github.com/ryanbouguerra/wbw-rank/pkg/logger"
)

// Strength tiers. Each player draws one tier, then a strength inside it.
const (
	tierAverage = iota
	tierHigh
	tierLow
	tierElite
	tierVeryLow
	tierMidHigh
	tierMidLow
	tierWide
	tierCount
)

var tierRange = [tierCount][2]float64{
	tierAverage: {3.0, 7.0},
	tierHigh:    {7.0, 9.0},
	tierLow:     {0.1, 3.0},
	tierElite:   {9.0, 10.0},
	tierVeryLow: {0.1, 1.0},
	tierMidHigh: {6.0, 8.0},
	tierMidLow:  {2.0, 4.0},
	tierWide:    {0.1, 10.0},
}

// Config describes the history to generate.
type Config struct {
	Players     int       // size of the player pool
	Tournaments int       // one per week
	DrawSize    int       // entrants per tournament, a power of two
	Circuit     int       // distinct tournament ids, reused in turn
	Unrated     float64   // share of entries without a rating, in [0, 1)
	Start       time.Time // start date of the first tournament
	Seed        uint64
}

// DefaultConfig returns a two-season history of 64-player draws.
func DefaultConfig() Config {
	return Config{
		Players:     128,
		Tournaments: 104,
		DrawSize:    64,
		Circuit:     52,
		Unrated:     0.1,
		Start:       time.Date(2007, 1, 1, 0, 0, 0, 0, time.UTC),
		Seed:        1,
	}
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	switch {
	case c.DrawSize < 2 || c.DrawSize&(c.DrawSize-1) != 0:
		return fmt.Errorf("%w: draw size must be a power of two, got %d", ErrInvalidConfig, c.DrawSize)
	case c.Players < c.DrawSize:
		return fmt.Errorf("%w: %d players cannot fill a draw of %d", ErrInvalidConfig, c.Players, c.DrawSize)
	case c.Tournaments < 1:
		return fmt.Errorf("%w: need at least one tournament, got %d", ErrInvalidConfig, c.Tournaments)
	case c.Circuit < 1:
		return fmt.Errorf("%w: circuit must hold at least one tournament, got %d", ErrInvalidConfig, c.Circuit)
	case c.Unrated < 0 || c.Unrated >= 1:
		return fmt.Errorf("%w: unrated share must be in [0, 1), got %v", ErrInvalidConfig, c.Unrated)
	}
	return nil
}

type entrant struct {
	player   model.Player
	strength float64
	rating   string
}

// Generate returns the matches of every tournament, in tournament order and
// round order within each tournament. The same Config always yields the same
// history.
func Generate(ctx context.Context, cfg Config) ([]model.Match, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	pool := make([]entrant, cfg.Players)
	for i := range pool {
		r := tierRange[rng.IntN(tierCount)]
		pool[i] = entrant{
			player:   model.Player(fmt.Sprintf("P%04d", i+1)),
			strength: r[0] + rng.Float64()*(r[1]-r[0]),
		}
	}

	// The external rating is the player's position by strength.
	byStrength := make([]int, len(pool))
	for i := range byStrength {
		byStrength[i] = i
	}
	slices.SortStableFunc(byStrength, func(a, b int) int {
		switch {
		case pool[a].strength > pool[b].strength:
			return -1
		case pool[a].strength < pool[b].strength:
			return 1
		}
		return 0
	})
	for pos, i := range byStrength {
		pool[i].rating = strconv.Itoa(pos + 1)
	}

	matches := make([]model.Match, 0, cfg.Tournaments*(cfg.DrawSize-1))
	for t := 0; t < cfg.Tournaments; t++ {
		start := cfg.Start.AddDate(0, 0, 7*t)
		end := start.AddDate(0, 0, 6)
		id := fmt.Sprintf("T%03d", t%cfg.Circuit+1)

		draw := make([]entrant, cfg.DrawSize)
		for i, p := range rng.Perm(cfg.Players)[:cfg.DrawSize] {
			draw[i] = pool[p]
			if rng.Float64() < cfg.Unrated {
				draw[i].rating = ""
			}
		}

		for len(draw) > 1 {
			next := draw[:0:0]
			for i := 0; i < len(draw); i += 2 {
				a, b := draw[i], draw[i+1]
				w := b
				if rng.Float64()*(a.strength+b.strength) < a.strength {
					w = a
				}
				matches = append(matches, model.Match{
					TournamentID: id,
					StartDate:    start,
					EndDate:      end,
					PlayerA:      a.player,
					PlayerB:      b.player,
					RatingA:      a.rating,
					RatingB:      b.rating,
					Winner:       w.player,
				})
				next = append(next, w)
			}
			draw = next
		}
	}

	logger.GetOrNop().Named("matchgen").Debug(ctx, "generated match history",
		logger.Int("players", cfg.Players),
		logger.Int("tournaments", cfg.Tournaments),
		logger.Int("matches", len(matches)),
	)
	return matches, nil
}
