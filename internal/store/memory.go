package store

import (
	"context"
	"sync"

	"hearth/internal/player"
)

// MemoryStore is an in-process Store for tests. Documents round-trip through
// the wire codec so tests exercise the same serialization as the sqlite store.
// The failure hooks simulate transport outages.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string][]byte

	// When non-nil, the next matching call returns the error once.
	FailNextLoad error
	FailNextSave error
}

func NewMemory() *MemoryStore {
	return &MemoryStore{docs: map[string][]byte{}}
}

func (s *MemoryStore) Load(ctx context.Context, playerID string) (*player.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailNextLoad; err != nil {
		s.FailNextLoad = nil
		return nil, err
	}
	b, ok := s.docs[playerID]
	if !ok {
		return nil, ErrNotFound
	}
	return player.Decode(b)
}

func (s *MemoryStore) Save(ctx context.Context, playerID string, rec *player.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailNextSave; err != nil {
		s.FailNextSave = nil
		return err
	}
	b, err := player.Encode(rec)
	if err != nil {
		return err
	}
	s.docs[playerID] = b
	return nil
}

func (s *MemoryStore) EarnBalance(ctx context.Context, playerID string, amount int) (*player.Record, error) {
	return s.mutateBalance(playerID, amount, false)
}

func (s *MemoryStore) SpendBalance(ctx context.Context, playerID string, amount int) (*player.Record, error) {
	return s.mutateBalance(playerID, amount, true)
}

func (s *MemoryStore) mutateBalance(playerID string, amount int, spend bool) (*player.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.docs[playerID]
	if !ok {
		return nil, ErrNotFound
	}
	rec, err := player.Decode(b)
	if err != nil {
		return nil, err
	}
	if spend {
		if rec.Balance < amount {
			return nil, ErrInsufficientFunds
		}
		rec.Balance -= amount
	} else {
		rec.Balance += amount
	}
	out, err := player.Encode(rec)
	if err != nil {
		return nil, err
	}
	s.docs[playerID] = out
	return rec, nil
}

func (s *MemoryStore) Close() error { return nil }
