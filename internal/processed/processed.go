// Package processed remembers which project identifiers a session has already
// looked at so each one is judged at most once.
package processed

import (
	"context"
	"sync"
)

// Set records project identifiers.
type Set interface {
	// MarkNew records ids and returns the ones never seen before, in input order.
	MarkNew(ctx context.Context, ids []int64) ([]int64, error)
	Len(ctx context.Context) (int, error)
}

// MemorySet keeps identifiers in process memory for the lifetime of a session.
type MemorySet struct {
	mu   sync.Mutex
	seen map[int64]struct{}
}

func NewMemorySet() *MemorySet {
	return &MemorySet{seen: make(map[int64]struct{})}
}

func (s *MemorySet) MarkNew(_ context.Context, ids []int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.seen[id]; ok {
			continue
		}
		s.seen[id] = struct{}{}
		fresh = append(fresh, id)
	}
	return fresh, nil
}

func (s *MemorySet) Len(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen), nil
}
