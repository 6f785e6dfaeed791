// Package types contains common result types shared across the application.
package types

import "github.com/ryanbouguerra/wbw-rank/internal/domain/model"

// Entry is one row of a ranking snapshot.
type Entry struct {
	Position int          `json:"position"`
	Player   model.Player `json:"player"`
	Score    float64      `json:"score"`
}

// Snapshot is a ranking ordered by position, best first.
type Snapshot []Entry

// Position returns the 1-based position of p, or false if p is not ranked.
func (s Snapshot) Position(p model.Player) (int, bool) {
	for _, e := range s {
		if e.Player == p {
			return e.Position, true
		}
	}
	return 0, false
}

// Top returns at most the first n entries.
func (s Snapshot) Top(n int) Snapshot {
	if n < 0 {
		n = 0
	}
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}

// Players returns the ranked players in position order.
func (s Snapshot) Players() []model.Player {
	out := make([]model.Player, len(s))
	for i, e := range s {
		out[i] = e.Player
	}
	return out
}

// RatingPoint pairs an external rating with the position the ranking assigned.
type RatingPoint struct {
	Rating   float64 `json:"rating"`
	Position int     `json:"position"`
}
