// Package memory provides in-process implementations of the interview store
// and the party and job directories. It backs tests and the single-node
// server mode when no database is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/interview-scheduler/internal/interviews"
	"github.com/jonathan/interview-scheduler/internal/scheduling"
)

// Store keeps interviews in a map guarded by a RWMutex. Records are cloned
// on the way in and out so callers never share slices with the store.
type Store struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]scheduling.Interview
}

var _ interviews.Store = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{byID: make(map[uuid.UUID]scheduling.Interview)}
}

// Create inserts a new interview.
func (s *Store) Create(_ context.Context, iv *scheduling.Interview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[iv.ID]; ok {
		return fmt.Errorf("interview %s already exists", iv.ID)
	}
	s.byID[iv.ID] = iv.Clone()
	return nil
}

// Get returns the interview or (nil, nil) when missing.
func (s *Store) Get(_ context.Context, id uuid.UUID) (*scheduling.Interview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	iv, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	out := iv.Clone()
	return &out, nil
}

// Update replaces an existing interview.
func (s *Store) Update(_ context.Context, iv *scheduling.Interview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[iv.ID]; !ok {
		return fmt.Errorf("interview %s does not exist", iv.ID)
	}
	s.byID[iv.ID] = iv.Clone()
	return nil
}

// FindConflicts returns the blocking interviews matching q, earliest first.
func (s *Store) FindConflicts(_ context.Context, q scheduling.ConflictQuery) ([]scheduling.Interview, error) {
	all := s.snapshot()
	out := scheduling.FilterConflicts(all, q)
	scheduling.SortForListing(out, true)
	return out, nil
}

// List returns one page of matching interviews and the total match count.
func (s *Store) List(_ context.Context, q scheduling.ListQuery) ([]scheduling.Interview, int, error) {
	q = q.Normalize()

	var matched []scheduling.Interview
	for _, iv := range s.snapshot() {
		if q.Matches(iv) {
			matched = append(matched, iv)
		}
	}
	scheduling.SortForListing(matched, q.Upcoming)

	total := len(matched)
	from := q.Offset()
	if from >= total {
		return []scheduling.Interview{}, total, nil
	}
	to := from + q.Limit
	if to > total {
		to = total
	}
	return matched[from:to], total, nil
}

// Stats aggregates the party's interviews.
func (s *Store) Stats(_ context.Context, q scheduling.StatsQuery) (*scheduling.Stats, error) {
	st := scheduling.ComputeStats(s.snapshot(), q)
	return &st, nil
}

// Len reports the number of stored interviews, active or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func (s *Store) snapshot() []scheduling.Interview {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]scheduling.Interview, 0, len(s.byID))
	for _, iv := range s.byID {
		out = append(out, iv.Clone())
	}
	return out
}
