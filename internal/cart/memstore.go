package cart

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemStore is an in-memory cart store, used in tests and as the fallback
// when no database is configured. Keys are tenant-scoped: two
// restaurants never see each other's sessions.
type MemStore struct {
	mu    sync.RWMutex
	carts map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{carts: make(map[string][]byte)}
}

func storeKey(restaurantID uuid.UUID, sessionID string) string {
	return "cart:" + restaurantID.String() + ":" + sessionID
}

func (s *MemStore) Load(_ context.Context, restaurantID uuid.UUID, sessionID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.carts[storeKey(restaurantID, sessionID)]
	if !ok {
		return nil, ErrNoSavedCart
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *MemStore) Save(_ context.Context, restaurantID uuid.UUID, sessionID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.carts[storeKey(restaurantID, sessionID)] = cp
	return nil
}
