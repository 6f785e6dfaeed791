// Package graph builds the loss multigraph consumed by the ranking solver.
//
// Players are enumerated in the order they are first encountered. That order
// is the only tie-break used downstream, so it must never come from map
// iteration.
package graph

import (
	"fmt"

	"github.com/ryanbouguerra/wbw-rank/internal/domain/model"
)

// WinLoss is the loss multigraph of one match selection.
//
// losses[i] lists the index of every player who beat player i, one entry per
// lost match. An empty list marks a player who never lost in the selection.
type WinLoss struct {
	players []model.Player
	index   map[model.Player]int
	losses  [][]int
}

// New returns an empty graph.
func New() *WinLoss {
	return &WinLoss{index: make(map[model.Player]int)}
}

// Build constructs the graph from a selection. The selection is read only.
func Build(matches []model.Match) (*WinLoss, error) {
	g := New()
	for i, m := range matches {
		if err := g.AddMatch(m); err != nil {
			return nil, fmt.Errorf("match %d: %w", i, err)
		}
	}
	return g, nil
}

// AddMatch registers both parties and records one loss for the non-winner.
func (g *WinLoss) AddMatch(m model.Match) error {
	loser, ok := m.Loser()
	if !ok {
		return fmt.Errorf("%w: %q (%s vs %s, winner %q)",
			ErrMissingWinner, m.TournamentID, m.PlayerA, m.PlayerB, m.Winner)
	}
	g.AddPlayer(m.PlayerA)
	g.AddPlayer(m.PlayerB)
	g.AddResult(m.Winner, loser)
	return nil
}

// AddPlayer registers p if it is new and returns its enumeration index.
func (g *WinLoss) AddPlayer(p model.Player) int {
	if i, ok := g.index[p]; ok {
		return i
	}
	i := len(g.players)
	g.index[p] = i
	g.players = append(g.players, p)
	g.losses = append(g.losses, nil)
	return i
}

// AddResult appends winner to the loss list of loser. New players are
// registered winner first.
func (g *WinLoss) AddResult(winner, loser model.Player) {
	w := g.AddPlayer(winner)
	l := g.AddPlayer(loser)
	g.losses[l] = append(g.losses[l], w)
}

// Len returns the number of players.
func (g *WinLoss) Len() int { return len(g.players) }

// Player returns the player at enumeration index i.
func (g *WinLoss) Player(i int) model.Player { return g.players[i] }

// Players returns a copy of the players in enumeration order.
func (g *WinLoss) Players() []model.Player {
	out := make([]model.Player, len(g.players))
	copy(out, g.players)
	return out
}

// Index returns the enumeration index of p.
func (g *WinLoss) Index(p model.Player) (int, bool) {
	i, ok := g.index[p]
	return i, ok
}

// DefeatersOf returns the enumeration indices of the players who beat player
// i, one per loss. The returned slice must not be modified.
func (g *WinLoss) DefeatersOf(i int) []int { return g.losses[i] }

// Losses returns the players who beat p, one entry per loss, in match order.
func (g *WinLoss) Losses(p model.Player) []model.Player {
	i, ok := g.index[p]
	if !ok {
		return nil
	}
	out := make([]model.Player, len(g.losses[i]))
	for k, d := range g.losses[i] {
		out[k] = g.players[d]
	}
	return out
}

// IsSink reports whether player i never lost in the selection.
func (g *WinLoss) IsSink(i int) bool { return len(g.losses[i]) == 0 }
