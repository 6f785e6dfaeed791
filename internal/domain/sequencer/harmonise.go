package sequencer

import (
	"slices"
	"time"

	"github.com/ryanbouguerra/wbw-rank/internal/domain/model"
)

// SameTournamentGap is the largest start-date difference under which two
// consecutive records of the same tournament are treated as one edition.
const SameTournamentGap = 30 * 24 * time.Hour

// HarmoniseStartDates returns a copy of matches in which records of the same
// tournament whose start date lies within SameTournamentGap of the edition's
// first start date are moved onto that date. This merges editions that
// straddle a year boundary. The input must be grouped by tournament and
// ordered by start date within each group.
func HarmoniseStartDates(matches []model.Match) []model.Match {
	out := slices.Clone(matches)

	var (
		id      string
		start   time.Time
		started bool
	)
	for i := range out {
		m := &out[i]
		switch {
		case !started || m.TournamentID != id:
			id, start, started = m.TournamentID, m.StartDate, true
		case m.StartDate.Equal(start):
		case absDuration(m.StartDate.Sub(start)) > SameTournamentGap:
			start = m.StartDate
		default:
			m.StartDate = start
		}
	}
	return out
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
