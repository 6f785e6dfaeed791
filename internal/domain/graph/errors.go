package graph

import "errors"

// Sentinel error kinds for graph construction.
var (
	ErrMissingWinner = errors.New("match winner missing or not a party to the match")
)
