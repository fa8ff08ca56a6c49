package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryDealStore keeps deals in process memory. Used when no DATABASE_URL is configured and in tests.
type MemoryDealStore struct {
	mu    sync.RWMutex
	deals map[uuid.UUID]Deal
	now   func() time.Time
}

var _ DealStore = (*MemoryDealStore)(nil)

func NewMemoryDealStore() *MemoryDealStore {
	return &MemoryDealStore{
		deals: make(map[uuid.UUID]Deal),
		now:   time.Now,
	}
}

func (s *MemoryDealStore) Save(_ context.Context, d *Deal) error {
	if d == nil {
		return fmt.Errorf("deal must not be nil")
	}
	// d is only updated once the save succeeds.
	next := *d
	if err := prepare(&next, s.now().UTC()); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.deals {
		if id != next.ID && existing.Ticker == next.Ticker {
			return ErrDuplicateKey
		}
	}
	if existing, ok := s.deals[next.ID]; ok {
		next.CreatedAt = existing.CreatedAt
	}
	s.deals[next.ID] = next
	*d = next
	return nil
}

func (s *MemoryDealStore) Get(_ context.Context, id uuid.UUID) (*Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.deals[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (s *MemoryDealStore) GetByTicker(_ context.Context, ticker string) (*Deal, error) {
	ticker = NormalizeTicker(ticker)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.deals {
		if d.Ticker == ticker {
			d := d
			return &d, nil
		}
	}
	return nil, ErrNotFound
}

// List returns deals ordered by ticker.
func (s *MemoryDealStore) List(_ context.Context) ([]*Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Deal, 0, len(s.deals))
	for _, d := range s.deals {
		d := d
		out = append(out, &d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out, nil
}

func (s *MemoryDealStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.deals[id]; !ok {
		return ErrNotFound
	}
	delete(s.deals, id)
	return nil
}
