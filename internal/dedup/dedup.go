// Package dedup keeps the set of listing IDs that were already delivered or skipped.
package dedup

import (
	"context"
	"fmt"
	"sync"
)

// Store persists seen listing IDs.
type Store interface {
	ListSeen(ctx context.Context) ([]string, error)
	MarkSeen(ctx context.Context, ids ...string) error
}

// Set is an in-memory view of the persisted seen IDs with write-through marking.
// It only grows.
type Set struct {
	store Store

	mu  sync.RWMutex
	ids map[string]struct{}
}

// Load reads every persisted ID into a new Set.
func Load(ctx context.Context, store Store) (*Set, error) {
	ids, err := store.ListSeen(ctx)
	if err != nil {
		return nil, fmt.Errorf("load seen ids: %w", err)
	}
	s := &Set{
		store: store,
		ids:   make(map[string]struct{}, len(ids)),
	}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s, nil
}

// Has reports whether id was already processed.
func (s *Set) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of known IDs.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Mark records id as processed. The ID stays marked in memory even when
// persisting fails, so the running process never offers it again.
func (s *Set) Mark(ctx context.Context, id string) error {
	s.mu.Lock()
	s.ids[id] = struct{}{}
	s.mu.Unlock()

	if err := s.store.MarkSeen(ctx, id); err != nil {
		return fmt.Errorf("persist seen id %s: %w", id, err)
	}
	return nil
}
