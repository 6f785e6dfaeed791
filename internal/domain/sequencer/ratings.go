package sequencer

import (
	"strconv"
	"strings"

	"github.com/ryanbouguerra/wbw-rank/internal/domain/model"
)

// ratingSnapshot holds the external rating each player carried into the
// current tournament. The first rating seen for a player wins, even if empty.
type ratingSnapshot struct {
	ratings map[model.Player]string
}

func newRatingSnapshot() *ratingSnapshot {
	return &ratingSnapshot{ratings: make(map[model.Player]string)}
}

func (r *ratingSnapshot) record(m model.Match) {
	if _, ok := r.ratings[m.PlayerA]; !ok {
		r.ratings[m.PlayerA] = m.RatingA
	}
	if _, ok := r.ratings[m.PlayerB]; !ok {
		r.ratings[m.PlayerB] = m.RatingB
	}
}

// lookup returns the parsed rating of p. present is false when p did not play
// or has no rating; err is set when the rating is not a number.
func (r *ratingSnapshot) lookup(p model.Player) (rating float64, present bool, err error) {
	raw, ok := r.ratings[p]
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func (r *ratingSnapshot) len() int { return len(r.ratings) }
