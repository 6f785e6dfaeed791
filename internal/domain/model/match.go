// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Player identifies a player by normalized name. Equality is exact string match.
type Player string

// Match is one resolved match result as delivered by the ingestion layer.
type Match struct {
	TournamentID string    // tournament name as recorded upstream
	StartDate    time.Time // tournament start date
	EndDate      time.Time // tournament end date
	PlayerA      Player
	PlayerB      Player
	RatingA      string // external rating of PlayerA at the time; empty when unknown
	RatingB      string // external rating of PlayerB at the time; empty when unknown
	Winner       Player // always PlayerA or PlayerB
}

// Loser returns the party that did not win. ok is false when the winner is
// missing, names neither party, or both parties are the same player.
func (m Match) Loser() (Player, bool) {
	if m.Winner == "" || m.PlayerA == m.PlayerB {
		return "", false
	}
	switch m.Winner {
	case m.PlayerA:
		return m.PlayerB, true
	case m.PlayerB:
		return m.PlayerA, true
	}
	return "", false
}

// Rating returns the external rating recorded for p in this match.
func (m Match) Rating(p Player) string {
	switch p {
	case m.PlayerA:
		return m.RatingA
	case m.PlayerB:
		return m.RatingB
	}
	return ""
}

// Tournament returns the key identifying the tournament edition this match belongs to.
func (m Match) Tournament() TournamentKey {
	return TournamentKey{ID: m.TournamentID, EndDate: m.EndDate}
}

// TournamentKey identifies one edition of a tournament.
type TournamentKey struct {
	ID      string
	EndDate time.Time
}

// Equal reports whether both keys name the same tournament edition.
func (k TournamentKey) Equal(o TournamentKey) bool {
	return k.ID == o.ID && k.EndDate.Equal(o.EndDate)
}

// RankJob is one window ranking to be computed by the worker pool. Matches is
// owned by the job and must not be shared with other jobs.
type RankJob struct {
	ID        string
	Seq       int // position in the submitting batch
	Reference time.Time
	Lookback  time.Duration
	Matches   []Match
}

// NewRankJob creates a job with a fresh random id.
func NewRankJob(reference time.Time, lookback time.Duration, matches []Match) RankJob {
	return RankJob{
		ID:        uuid.NewString(),
		Reference: reference,
		Lookback:  lookback,
		Matches:   matches,
	}
}
