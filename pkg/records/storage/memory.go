package storage

import (
	"context"
	"sort"
	"sync"

	"mercator-hq/ladder/pkg/records"
)

// MemoryStore implements records.Store in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*records.Record
	closed  bool
}

var _ records.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Store saves a copy of the record.
func (s *MemoryStore) Store(ctx context.Context, record *records.Record) error {
	if err := ctx.Err(); err != nil {
		return records.NewStorageError("memory", "store", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return records.NewStorageError("memory", "store", errStoreClosed)
	}
	cp := *record
	s.records = append(s.records, &cp)
	return nil
}

// Query returns copies of matching records, newest first unless
// query.Oldest is set.
func (s *MemoryStore) Query(ctx context.Context, query *records.Query) ([]*records.Record, error) {
	if query == nil {
		query = &records.Query{}
	}

	s.mu.RLock()
	matched := make([]*records.Record, 0)
	for _, r := range s.records {
		if matches(r, query) {
			cp := *r
			matched = append(matched, &cp)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.EvaluatedAt.Equal(b.EvaluatedAt) {
			if query.Oldest {
				return a.EvaluatedAt.Before(b.EvaluatedAt)
			}
			return a.EvaluatedAt.After(b.EvaluatedAt)
		}
		if query.Oldest {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})

	if query.Offset > 0 {
		if query.Offset >= len(matched) {
			return []*records.Record{}, nil
		}
		matched = matched[query.Offset:]
	}

	limit := records.DefaultQueryLimit
	if query.Limit > 0 {
		limit = query.Limit
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}

	return matched, nil
}

// Count returns the number of matching records.
func (s *MemoryStore) Count(ctx context.Context, query *records.Query) (int64, error) {
	if query == nil {
		query = &records.Query{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, r := range s.records {
		if matches(r, query) {
			n++
		}
	}
	return n, nil
}

// Delete removes matching records.
func (s *MemoryStore) Delete(ctx context.Context, query *records.Query) (int64, error) {
	if query == nil {
		query = &records.Query{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var deleted int64
	for _, r := range s.records {
		if matches(r, query) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return deleted, nil
}

// Close marks the store closed. Stored records remain queryable.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func matches(r *records.Record, q *records.Query) bool {
	if q.Ladder != "" && r.Ladder != q.Ladder {
		return false
	}
	if q.RuleName != "" && r.RuleName != q.RuleName {
		return false
	}
	if q.Defaulted != nil && r.Defaulted != *q.Defaulted {
		return false
	}
	if q.Since != nil && r.EvaluatedAt.Before(*q.Since) {
		return false
	}
	if q.Until != nil && r.EvaluatedAt.After(*q.Until) {
		return false
	}
	return true
}
