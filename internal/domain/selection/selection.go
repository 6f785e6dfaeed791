// Package selection filters a match collection down to the subset used by one
// ranking computation. Every function returns a new slice and preserves the
// input order.
package selection

import (
	"fmt"
	"time"

	"github.com/ryanbouguerra/wbw-rank/internal/domain/model"
)

// DefaultLookback is the trailing window used when ranking before a tournament.
const DefaultLookback = 364 * 24 * time.Hour

// ByPeriod returns the matches whose tournament ended in one of years.
func ByPeriod(matches []model.Match, years ...int) ([]model.Match, error) {
	if len(years) == 0 {
		return nil, fmt.Errorf("%w: empty year set", ErrInvalidPeriod)
	}
	set := make(map[int]struct{}, len(years))
	for _, y := range years {
		set[y] = struct{}{}
	}

	out := make([]model.Match, 0, len(matches))
	for _, m := range matches {
		if _, ok := set[m.EndDate.Year()]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// ByWindow returns the matches whose tournament ended strictly before
// reference and no more than lookback before it.
func ByWindow(matches []model.Match, reference time.Time, lookback time.Duration) ([]model.Match, error) {
	if lookback <= 0 {
		return nil, fmt.Errorf("%w: lookback must be positive, got %s", ErrInvalidPeriod, lookback)
	}

	out := make([]model.Match, 0, len(matches))
	for _, m := range matches {
		if InWindow(m, reference, lookback) {
			out = append(out, m)
		}
	}
	return out, nil
}

// InWindow reports whether m satisfies 0 < reference-EndDate <= lookback.
func InWindow(m model.Match, reference time.Time, lookback time.Duration) bool {
	age := reference.Sub(m.EndDate)
	return age > 0 && age <= lookback
}
