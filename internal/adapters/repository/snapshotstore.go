package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/ryanbouguerra/wbw-rank/pkg/metrics"
)

// SnapshotStore is an in-memory Store guarded by a read/write lock.
type SnapshotStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewSnapshotStore creates an empty store.
func NewSnapshotStore() *SnapshotStore {
	metrics.UpdateRepositoryRecords(0)
	return &SnapshotStore{records: make(map[string]Record)}
}

// Put stores r. The snapshot is copied so later changes by the caller are not
// visible through the store.
func (s *SnapshotStore) Put(_ context.Context, r Record) error { //nolint:gocritic // hugeParam: Record is stored by value
	if r.JobID == "" {
		metrics.RecordErrorByComponent("repository", "invalid_job")
		return ErrInvalidJob
	}
	r.Snapshot = slices.Clone(r.Snapshot)

	s.mu.Lock()
	s.records[r.JobID] = r
	n := len(s.records)
	s.mu.Unlock()

	metrics.UpdateRepositoryRecords(n)
	return nil
}

// Get returns the record of jobID.
func (s *SnapshotStore) Get(_ context.Context, jobID string) (Record, error) {
	s.mu.RLock()
	r, ok := s.records[jobID]
	s.mu.RUnlock()
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	r.Snapshot = slices.Clone(r.Snapshot)
	return r, nil
}

// List returns every record ordered by reference date, then Seq, then job id.
func (s *SnapshotStore) List(_ context.Context) []Record {
	s.mu.RLock()
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		r.Snapshot = slices.Clone(r.Snapshot)
		out = append(out, r)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b Record) int {
		if c := a.Reference.Compare(b.Reference); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Seq, b.Seq); c != 0 {
			return c
		}
		return strings.Compare(a.JobID, b.JobID)
	})
	return out
}

// Count returns the number of stored records.
func (s *SnapshotStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
