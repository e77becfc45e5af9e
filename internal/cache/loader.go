package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/komanda-kiosk/api/internal/catalog"
	"golang.org/x/sync/errgroup"
)

// Source fetches a fully resolved menu item (options, choices, attached
// topping categories and toppings) from the backing database.
type Source interface {
	FetchItemDetail(ctx context.Context, restaurantID, itemID uuid.UUID) (catalog.MenuItem, error)
}

// Loader is the read-through composition of memory tier, disk tier, and
// source. Read path: memory hit → return; disk hit and fresh → promote
// to memory, return; otherwise fetch, populate both tiers.
type Loader struct {
	memory *Memory
	disk   *DiskStore
	source Source

	// concurrency cap for batch fetches
	batchLimit int
}

func NewLoader(memory *Memory, disk *DiskStore, source Source) *Loader {
	return &Loader{memory: memory, disk: disk, source: source, batchLimit: 8}
}

func itemKey(id uuid.UUID) string { return "item:" + id.String() }

// Item resolves one menu item through the tiers.
func (l *Loader) Item(ctx context.Context, restaurantID, itemID uuid.UUID) (catalog.MenuItem, error) {
	key := itemKey(itemID)

	if data, ok := l.memory.Get(key); ok {
		var item catalog.MenuItem
		if err := json.Unmarshal(data, &item); err == nil {
			return item, nil
		}
		// Undecodable cached blob: drop it and fall through.
		l.memory.Delete(key)
	}

	if l.disk != nil {
		data, err := l.disk.Get(restaurantID, key)
		switch {
		case err == nil:
			var item catalog.MenuItem
			if err := json.Unmarshal(data, &item); err == nil {
				l.memory.Set(key, data)
				return item, nil
			}
		case errors.Is(err, os.ErrNotExist), errors.Is(err, ErrStale):
			// miss, fetch below
		default:
			log.Printf("WARN: cache: disk read for %s: %v", key, err)
		}
	}

	item, err := l.source.FetchItemDetail(ctx, restaurantID, itemID)
	if err != nil {
		return catalog.MenuItem{}, fmt.Errorf("fetch item %s: %w", itemID, err)
	}
	l.populate(restaurantID, key, item)
	return item, nil
}

func (l *Loader) populate(restaurantID uuid.UUID, key string, item catalog.MenuItem) {
	data, err := json.Marshal(item)
	if err != nil {
		log.Printf("WARN: cache: encode %s: %v", key, err)
		return
	}
	l.memory.Set(key, data)
	if l.disk != nil {
		if err := l.disk.Set(restaurantID, key, data); err != nil {
			log.Printf("WARN: cache: disk write for %s: %v", key, err)
		}
	}
}

// Invalidate drops one item from both tiers. Called after admin edits
// so kiosks never serve a stale price past the memory TTL.
func (l *Loader) Invalidate(restaurantID, itemID uuid.UUID) {
	key := itemKey(itemID)
	l.memory.Delete(key)
	if l.disk != nil {
		if err := l.disk.Delete(restaurantID, key); err != nil {
			log.Printf("WARN: cache: disk delete for %s: %v", key, err)
		}
	}
}

// BatchResult is the independent outcome for one requested id.
type BatchResult struct {
	Item catalog.MenuItem
	Err  error
}

// Batch resolves many item ids concurrently. Ids resolve independently:
// one missing or failing item never fails the rest of the batch, so the
// kiosk can render everything it got.
func (l *Loader) Batch(ctx context.Context, restaurantID uuid.UUID, itemIDs []uuid.UUID) map[uuid.UUID]BatchResult {
	results := make(map[uuid.UUID]BatchResult, len(itemIDs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.batchLimit)

	seen := make(map[uuid.UUID]bool, len(itemIDs))
	for _, id := range itemIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		g.Go(func() error {
			item, err := l.Item(gctx, restaurantID, id)
			mu.Lock()
			results[id] = BatchResult{Item: item, Err: err}
			mu.Unlock()
			return nil // per-id failures stay per-id
		})
	}

	_ = g.Wait()
	return results
}
