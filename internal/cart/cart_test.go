package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/komanda-kiosk/api/internal/catalog"
	"github.com/komanda-kiosk/api/internal/selection"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func burgerFixture() (catalog.MenuItem, map[string]uuid.UUID) {
	ids := map[string]uuid.UUID{
		"size":    uuid.New(),
		"regular": uuid.New(),
		"large":   uuid.New(),
		"extras":  uuid.New(),
		"cheese":  uuid.New(),
		"bacon":   uuid.New(),
	}
	item := catalog.MenuItem{
		ID:      uuid.New(),
		Name:    catalog.Localized{FR: "Burger"},
		Price:   dec("8.00"),
		InStock: true,
		Options: []catalog.Option{
			{
				ID:       ids["size"],
				Name:     catalog.Localized{FR: "Taille"},
				Required: true,
				Choices: []catalog.OptionChoice{
					{ID: ids["regular"], Name: catalog.Localized{FR: "Normale"}},
					{ID: ids["large"], Name: catalog.Localized{FR: "Grande"}, PriceDelta: decPtr("1.50")},
				},
			},
		},
		ToppingCategories: []catalog.ToppingCategory{
			{
				ID:                       ids["extras"],
				Name:                     catalog.Localized{FR: "Extras"},
				MaxSelections:            2,
				AllowMultipleSameTopping: true,
				Toppings: []catalog.Topping{
					{ID: ids["cheese"], Name: catalog.Localized{FR: "Fromage"}, Price: dec("0.50"), InStock: true},
					{ID: ids["bacon"], Name: catalog.Localized{FR: "Bacon"}, Price: dec("1.00"), InStock: true},
				},
			},
		},
	}
	return item, ids
}

func fullSelection(t *testing.T, item catalog.MenuItem, ids map[string]uuid.UUID) *selection.Selection {
	t.Helper()
	var sel selection.Selection
	if err := sel.ToggleChoice(item, ids["size"], ids["large"]); err != nil {
		t.Fatal(err)
	}
	if err := sel.SetToppingQuantity(item, ids["extras"], ids["cheese"], 2); err != nil {
		t.Fatal(err)
	}
	if err := sel.SetToppingQuantity(item, ids["extras"], ids["bacon"], 1); err != nil {
		t.Fatal(err)
	}
	return &sel
}

func newTestManager(t *testing.T) (*Manager, *MemStore, uuid.UUID) {
	t.Helper()
	store := NewMemStore()
	rid := uuid.New()
	m, err := NewManager(context.Background(), store, rid, "session-1")
	if err != nil {
		t.Fatal(err)
	}
	return m, store, rid
}

func TestAddItemComputesUnitPrice(t *testing.T) {
	m, _, _ := newTestManager(t)
	item, ids := burgerFixture()

	line, err := m.AddItem(context.Background(), item, 3, fullSelection(t, item, ids), "sans oignon")
	if err != nil {
		t.Fatal(err)
	}
	if !line.UnitPrice.Equal(dec("11.50")) {
		t.Errorf("unit price = %s, want 11.50", line.UnitPrice)
	}
	if !line.LineTotal().Equal(dec("34.50")) {
		t.Errorf("line total = %s, want 34.50", line.LineTotal())
	}
	if line.ID == uuid.Nil {
		t.Error("cart item must get a fresh opaque id")
	}
}

// failingStore loads nothing and refuses every save.
type failingStore struct{}

func (failingStore) Load(context.Context, uuid.UUID, string) ([]byte, error) {
	return nil, ErrNoSavedCart
}

func (failingStore) Save(context.Context, uuid.UUID, string, []byte) error {
	return errors.New("store unavailable")
}

func TestAddItemRollsBackOnPersistFailure(t *testing.T) {
	m, err := NewManager(context.Background(), failingStore{}, uuid.New(), "session-1")
	if err != nil {
		t.Fatal(err)
	}
	item, ids := burgerFixture()

	if _, err := m.AddItem(context.Background(), item, 1, fullSelection(t, item, ids), ""); err == nil {
		t.Fatal("expected persist failure to surface")
	}
	if len(m.Items()) != 0 {
		t.Error("unsaved line must not stay in memory")
	}
}

func TestAddItemRejectsInvalidSelection(t *testing.T) {
	m, _, _ := newTestManager(t)
	item, _ := burgerFixture()

	// Required size option left unselected.
	_, err := m.AddItem(context.Background(), item, 1, &selection.Selection{}, "")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(verr.Violations) == 0 {
		t.Error("validation error carries no violations")
	}
	if len(m.Items()) != 0 {
		t.Error("invalid item must not be appended")
	}
}

func TestUpdateQuantity(t *testing.T) {
	m, _, _ := newTestManager(t)
	item, ids := burgerFixture()
	line, err := m.AddItem(context.Background(), item, 1, fullSelection(t, item, ids), "")
	if err != nil {
		t.Fatal(err)
	}

	if err := m.UpdateQuantity(context.Background(), line.ID, 5); err != nil {
		t.Fatal(err)
	}
	got := m.Items()[0]
	if got.Quantity != 5 {
		t.Errorf("quantity = %d, want 5", got.Quantity)
	}
	if !got.UnitPrice.Equal(line.UnitPrice) {
		t.Errorf("quantity change altered unit price: %s", got.UnitPrice)
	}

	// Zero quantity removes the line.
	if err := m.UpdateQuantity(context.Background(), line.ID, 0); err != nil {
		t.Fatal(err)
	}
	if len(m.Items()) != 0 {
		t.Error("quantity 0 should remove the item")
	}
}

func TestUpdateToppingQuantityReprices(t *testing.T) {
	m, _, _ := newTestManager(t)
	item, ids := burgerFixture()
	line, err := m.AddItem(context.Background(), item, 1, fullSelection(t, item, ids), "")
	if err != nil {
		t.Fatal(err)
	}

	// Cheese 2→3 adds exactly one cheese price.
	if err := m.UpdateToppingQuantity(context.Background(), line.ID, ids["extras"], ids["cheese"], 3); err != nil {
		t.Fatal(err)
	}
	if got := m.Items()[0].UnitPrice; !got.Equal(dec("12.00")) {
		t.Errorf("unit price after qty bump = %s, want 12.00", got)
	}

	// Removing the topping entirely drops its contribution and its id.
	if err := m.UpdateToppingQuantity(context.Background(), line.ID, ids["extras"], ids["cheese"], 0); err != nil {
		t.Fatal(err)
	}
	got := m.Items()[0]
	if !got.UnitPrice.Equal(dec("10.50")) {
		t.Errorf("unit price after removal = %s, want 10.50", got.UnitPrice)
	}
	if entry := got.Selection.CategoryEntry(ids["extras"]); entry != nil {
		for _, id := range entry.ToppingIDs {
			if id == ids["cheese"] {
				t.Error("removed topping id still present in selection")
			}
		}
	}
}

func TestCartPersistenceRoundTrip(t *testing.T) {
	store := NewMemStore()
	rid := uuid.New()
	ctx := context.Background()

	m, err := NewManager(ctx, store, rid, "kiosk-7")
	if err != nil {
		t.Fatal(err)
	}
	item, ids := burgerFixture()
	if _, err := m.AddItem(ctx, item, 3, fullSelection(t, item, ids), "bien cuit"); err != nil {
		t.Fatal(err)
	}

	// A new manager over the same store and keys sees the identical cart.
	reloaded, err := NewManager(ctx, store, rid, "kiosk-7")
	if err != nil {
		t.Fatal(err)
	}
	orig, got := m.Items(), reloaded.Items()
	if len(got) != len(orig) {
		t.Fatalf("reloaded %d items, want %d", len(got), len(orig))
	}
	if got[0].ID != orig[0].ID {
		t.Error("item id changed across reload")
	}
	if !got[0].UnitPrice.Equal(orig[0].UnitPrice) {
		t.Errorf("unit price changed across reload: %s vs %s", got[0].UnitPrice, orig[0].UnitPrice)
	}
	if got[0].Quantity != orig[0].Quantity || got[0].SpecialInstructions != orig[0].SpecialInstructions {
		t.Error("item fields changed across reload")
	}
	if got[0].Selection.CategoryEntry(ids["extras"]).Quantity(ids["cheese"]) != 2 {
		t.Error("topping quantities changed across reload")
	}
}

func TestTenantIsolation(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	item, ids := burgerFixture()

	a, _ := NewManager(ctx, store, uuid.New(), "kiosk-1")
	if _, err := a.AddItem(ctx, item, 1, fullSelection(t, item, ids), ""); err != nil {
		t.Fatal(err)
	}

	// Same session id under a different restaurant: empty cart.
	b, err := NewManager(ctx, store, uuid.New(), "kiosk-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Items()) != 0 {
		t.Error("cart leaked across tenants")
	}
}

func TestClearPersistsEmptyState(t *testing.T) {
	store := NewMemStore()
	rid := uuid.New()
	ctx := context.Background()
	item, ids := burgerFixture()

	m, _ := NewManager(ctx, store, rid, "kiosk-2")
	if _, err := m.AddItem(ctx, item, 1, fullSelection(t, item, ids), ""); err != nil {
		t.Fatal(err)
	}
	if err := m.Clear(ctx); err != nil {
		t.Fatal(err)
	}

	reloaded, _ := NewManager(ctx, store, rid, "kiosk-2")
	if len(reloaded.Items()) != 0 {
		t.Error("cleared cart came back after reload")
	}
}

func TestSnapshotFreezesPrice(t *testing.T) {
	m, _, _ := newTestManager(t)
	item, ids := burgerFixture()
	line, err := m.AddItem(context.Background(), item, 1, fullSelection(t, item, ids), "")
	if err != nil {
		t.Fatal(err)
	}

	// Editing the source item after adding must not change the cart line.
	item.Price = dec("99.00")
	if got := m.Items()[0].UnitPrice; !got.Equal(line.UnitPrice) {
		t.Errorf("menu edit retroactively changed cart price: %s", got)
	}
}
