package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ErrStale is returned by DiskStore.Get for entries past their
// staleness window; the caller treats it like a miss and refetches.
var ErrStale = errors.New("disk cache entry is stale")

// DiskStore is the persistent second tier behind the memory cache,
// keyed per tenant under its own directory so restaurants never read
// each other's blobs. Its staleness window is independent of the memory
// TTL: a memory-expired entry can still be served from disk while the
// source is unreachable.
type DiskStore struct {
	dir    string
	maxAge time.Duration
	now    func() time.Time
}

type diskEnvelope struct {
	StoredAt time.Time       `json:"stored_at"`
	Payload  json.RawMessage `json:"payload"`
}

// NewDiskStore roots the store at dir; entries older than maxAge are
// reported stale.
func NewDiskStore(dir string, maxAge time.Duration) *DiskStore {
	return &DiskStore{dir: dir, maxAge: maxAge, now: time.Now}
}

func (s *DiskStore) path(restaurantID uuid.UUID, key string) string {
	return filepath.Join(s.dir, restaurantID.String(), key+".json")
}

// Get reads a tenant-scoped entry. os.ErrNotExist signals a miss.
func (s *DiskStore) Get(restaurantID uuid.UUID, key string) ([]byte, error) {
	raw, err := os.ReadFile(s.path(restaurantID, key))
	if err != nil {
		return nil, err
	}
	var env diskEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode cache file: %w", err)
	}
	if s.now().Sub(env.StoredAt) > s.maxAge {
		return nil, ErrStale
	}
	return env.Payload, nil
}

// Set writes a tenant-scoped entry, creating the tenant directory on
// first use.
func (s *DiskStore) Set(restaurantID uuid.UUID, key string, payload []byte) error {
	dir := filepath.Join(s.dir, restaurantID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	env := diskEnvelope{StoredAt: s.now(), Payload: payload}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode cache file: %w", err)
	}
	return os.WriteFile(s.path(restaurantID, key), raw, 0o644)
}

// Delete removes one tenant-scoped entry. A missing file is not an
// error.
func (s *DiskStore) Delete(restaurantID uuid.UUID, key string) error {
	err := os.Remove(s.path(restaurantID, key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// PurgeTenant removes everything cached for one restaurant.
func (s *DiskStore) PurgeTenant(restaurantID uuid.UUID) error {
	return os.RemoveAll(filepath.Join(s.dir, restaurantID.String()))
}
