package store

import (
	"context"
	"sort"
	"sync"

	"github.com/openpos/register/internal/domain"
)

// MemoryStore implements SnapshotStore and HoldStore with in-memory
// storage. Used in tests and for storage-less development runs; state does
// not survive a process restart.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]*domain.Cart
	holds     map[string]Hold
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string]*domain.Cart),
		holds:     make(map[string]Hold),
	}
}

func (s *MemoryStore) Load(_ context.Context, registerID string) (*domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart, ok := s.snapshots[registerID]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return cart.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, registerID string, cart *domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[registerID] = cart.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, registerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.snapshots[registerID]; !ok {
		return ErrSnapshotNotFound
	}
	delete(s.snapshots, registerID)
	return nil
}

func (s *MemoryStore) SaveHold(_ context.Context, hold Hold) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hold.Cart = hold.Cart.Clone()
	s.holds[hold.ID] = hold
	return nil
}

func (s *MemoryStore) GetHold(_ context.Context, holdID string) (*Hold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hold, ok := s.holds[holdID]
	if !ok {
		return nil, ErrHoldNotFound
	}
	hold.Cart = hold.Cart.Clone()
	return &hold, nil
}

func (s *MemoryStore) ListHolds(_ context.Context) ([]Hold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	holds := make([]Hold, 0, len(s.holds))
	for _, hold := range s.holds {
		hold.Cart = hold.Cart.Clone()
		holds = append(holds, hold)
	}
	sort.Slice(holds, func(i, j int) bool {
		return holds[i].CreatedAt.Before(holds[j].CreatedAt)
	})
	return holds, nil
}

func (s *MemoryStore) DeleteHold(_ context.Context, holdID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.holds[holdID]; !ok {
		return ErrHoldNotFound
	}
	delete(s.holds, holdID)
	return nil
}
