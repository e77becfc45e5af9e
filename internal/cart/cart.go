// Package cart holds the ordered collection of composed line items for
// one kiosk session and keeps their prices correct across mutations.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/komanda-kiosk/api/internal/catalog"
	"github.com/komanda-kiosk/api/internal/pricing"
	"github.com/komanda-kiosk/api/internal/selection"
	"github.com/shopspring/decimal"
)

var (
	ErrItemNotFound = errors.New("cart item not found")
	ErrEmptyCart    = errors.New("cart is empty")
)

// ValidationError is returned by AddItem when the selection violates the
// item's constraints. It carries the typed violations so the caller can
// render per-field messages instead of one opaque failure.
type ValidationError struct {
	Violations []selection.Violation
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("selection violates %d constraint(s)", len(e.Violations))
}

// Item is one composed cart line. Item holds a snapshot of the menu item
// taken at add time: menu edits after that never reprice the line.
// UnitPrice is recomputed on every selection mutation.
type Item struct {
	ID                  uuid.UUID            `json:"id"`
	MenuItem            catalog.MenuItem     `json:"menu_item"`
	Quantity            int32                `json:"quantity"`
	Selection           *selection.Selection `json:"selection"`
	SpecialInstructions string               `json:"special_instructions,omitempty"`
	UnitPrice           decimal.Decimal      `json:"unit_price"`
}

// LineTotal is the item's extended price.
func (i Item) LineTotal() decimal.Decimal {
	return pricing.LineTotal(i.UnitPrice, i.Quantity)
}

// Store persists a session's cart under a tenant-scoped key. Every
// mutation writes through; construction hydrates from the store.
type Store interface {
	Load(ctx context.Context, restaurantID uuid.UUID, sessionID string) ([]byte, error)
	Save(ctx context.Context, restaurantID uuid.UUID, sessionID string, data []byte) error
}

// ErrNoSavedCart is returned by Store.Load when no cart exists yet.
var ErrNoSavedCart = errors.New("no saved cart")

// Manager owns the cart for one (restaurant, session) pair. Items are
// kept in insertion order. All mutations are serialized by a mutex and
// each one persists the new state before returning.
type Manager struct {
	mu           sync.Mutex
	restaurantID uuid.UUID
	sessionID    string
	items        []Item
	store        Store
}

// NewManager creates a cart manager, hydrating any previously saved
// state for the same restaurant and session.
func NewManager(ctx context.Context, store Store, restaurantID uuid.UUID, sessionID string) (*Manager, error) {
	m := &Manager{
		restaurantID: restaurantID,
		sessionID:    sessionID,
		store:        store,
	}
	data, err := store.Load(ctx, restaurantID, sessionID)
	if err != nil {
		if errors.Is(err, ErrNoSavedCart) {
			return m, nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &m.items); err != nil {
			return nil, fmt.Errorf("decode cart: %w", err)
		}
	}
	return m, nil
}

// Items returns a copy of the cart lines in display (insertion) order.
func (m *Manager) Items() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Item, len(m.items))
	copy(out, m.items)
	return out
}

// Subtotal is the sum of every line total.
func (m *Manager) Subtotal() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := decimal.Zero
	for _, it := range m.items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

// AddItem validates the selection, computes the unit price (freezing any
// active promotion into it) and appends a new line with a fresh id.
func (m *Manager) AddItem(ctx context.Context, item catalog.MenuItem, quantity int32, sel *selection.Selection, instructions string) (*Item, error) {
	if quantity < 1 {
		quantity = 1
	}
	if sel == nil {
		sel = &selection.Selection{}
	}
	if res := selection.Validate(item, sel); !res.Valid {
		return nil, &ValidationError{Violations: res.Violations}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	line := Item{
		ID:                  uuid.New(),
		MenuItem:            item,
		Quantity:            quantity,
		Selection:           sel,
		SpecialInstructions: instructions,
		UnitPrice:           pricing.UnitPrice(item, sel),
	}
	m.items = append(m.items, line)
	if err := m.persist(ctx); err != nil {
		// The store never saw the line; drop it so memory matches.
		m.items = m.items[:len(m.items)-1]
		return nil, err
	}
	return &line, nil
}

// UpdateQuantity sets a line's quantity. A quantity <= 0 removes the
// line. The unit price is untouched: quantity never affects it.
func (m *Manager) UpdateQuantity(ctx context.Context, itemID uuid.UUID, quantity int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.index(itemID)
	if idx < 0 {
		return ErrItemNotFound
	}
	if quantity <= 0 {
		m.items = append(m.items[:idx], m.items[idx+1:]...)
	} else {
		m.items[idx].Quantity = quantity
	}
	return m.persist(ctx)
}

// UpdateToppingQuantity changes a topping's quantity on an existing line
// and always reprices the line from its snapshot afterwards. A quantity
// <= 0 removes the topping from the selection entirely.
func (m *Manager) UpdateToppingQuantity(ctx context.Context, itemID, categoryID, toppingID uuid.UUID, quantity int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.index(itemID)
	if idx < 0 {
		return ErrItemNotFound
	}
	line := &m.items[idx]
	if line.Selection == nil {
		line.Selection = &selection.Selection{}
	}
	if err := line.Selection.SetToppingQuantity(line.MenuItem, categoryID, toppingID, quantity); err != nil {
		return err
	}
	line.UnitPrice = pricing.UnitPrice(line.MenuItem, line.Selection)
	return m.persist(ctx)
}

// RemoveToppingFromItem drops a topping from a line's selection and
// reprices the line.
func (m *Manager) RemoveToppingFromItem(ctx context.Context, itemID, categoryID, toppingID uuid.UUID) error {
	return m.UpdateToppingQuantity(ctx, itemID, categoryID, toppingID, 0)
}

// RemoveItem deletes a line from the cart.
func (m *Manager) RemoveItem(ctx context.Context, itemID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.index(itemID)
	if idx < 0 {
		return ErrItemNotFound
	}
	m.items = append(m.items[:idx], m.items[idx+1:]...)
	return m.persist(ctx)
}

// Clear empties the cart. The empty state is persisted too, so a reload
// after clearing does not resurrect old items.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = nil
	return m.persist(ctx)
}

// index returns the position of an item id, -1 when absent.
// Caller must hold the mutex.
func (m *Manager) index(itemID uuid.UUID) int {
	for i := range m.items {
		if m.items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// persist writes the current state through to the store.
// Caller must hold the mutex.
func (m *Manager) persist(ctx context.Context) error {
	data, err := json.Marshal(m.items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := m.store.Save(ctx, m.restaurantID, m.sessionID, data); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
