// Package repository keeps precomputed window rankings.
package repository

import (
	"context"
	"time"

	"github.com/ryanbouguerra/wbw-rank/internal/domain/types"
)

// Record is the outcome of one window ranking job. Snapshot is empty when the
// ranking did not converge.
type Record struct {
	JobID      string
	Seq        int
	Reference  time.Time
	Lookback   time.Duration
	Snapshot   types.Snapshot
	Iterations int
	Converged  bool
}

// Store provides read/write access to precomputed rankings.
type Store interface {
	// Put stores r, replacing any record with the same job id.
	Put(ctx context.Context, r Record) error

	// Get returns the record of a job.
	// Returns ErrNotFound if the job is unknown.
	Get(ctx context.Context, jobID string) (Record, error)

	// List returns all records ordered by reference date, then Seq, then job id.
	List(ctx context.Context) []Record

	// Count returns the number of stored records.
	Count(ctx context.Context) int
}
