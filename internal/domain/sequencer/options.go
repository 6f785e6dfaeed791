package sequencer

import (
	"time"

	"github.com/ryanbouguerra/wbw-rank/pkg/logger"
)

// Option applies a configuration option to the Sequencer.
type Option func(*Sequencer)

// WithRanker sets the ranker used at every tournament boundary.
func WithRanker(r MatchRanker) Option {
	return func(s *Sequencer) {
		if r != nil {
			s.ranker = r
		}
	}
}

// WithLookback sets the trailing window used after the bootstrap ranking.
func WithLookback(d time.Duration) Option {
	return func(s *Sequencer) {
		s.lookback = d
	}
}

// WithBootstrapYear sets the calendar year ranked for the first snapshot.
func WithBootstrapYear(year int) Option {
	return func(s *Sequencer) {
		s.bootstrapYear = year
	}
}

// WithAnchor selects which start date ends each trailing window.
func WithAnchor(a Anchor) Option {
	return func(s *Sequencer) {
		s.anchor = a
	}
}

// WithLogger sets a custom logger for the sequencer.
func WithLogger(l logger.Logger) Option {
	return func(s *Sequencer) {
		if l != nil {
			s.logger = l
		}
	}
}
