package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/komanda-kiosk/api/internal/handler"
	"github.com/komanda-kiosk/api/internal/store"
)

// --- Mock store ---

type mockToppingAdminStore struct {
	items      map[uuid.UUID]store.MenuItem
	categories map[uuid.UUID]store.ToppingCategory
	toppings   map[uuid.UUID]store.Topping
	links      map[uuid.UUID][]uuid.UUID
}

func newMockToppingAdminStore() *mockToppingAdminStore {
	return &mockToppingAdminStore{
		items:      make(map[uuid.UUID]store.MenuItem),
		categories: make(map[uuid.UUID]store.ToppingCategory),
		toppings:   make(map[uuid.UUID]store.Topping),
		links:      make(map[uuid.UUID][]uuid.UUID),
	}
}

func (m *mockToppingAdminStore) addItem(restaurantID uuid.UUID) store.MenuItem {
	i := store.MenuItem{ID: uuid.New(), RestaurantID: restaurantID, NameFr: "Kebab", IsActive: true}
	m.items[i.ID] = i
	return i
}

func (m *mockToppingAdminStore) GetMenuItem(_ context.Context, arg store.GetMenuItemParams) (store.MenuItem, error) {
	i, ok := m.items[arg.ID]
	if !ok || i.RestaurantID != arg.RestaurantID || !i.IsActive {
		return store.MenuItem{}, pgx.ErrNoRows
	}
	return i, nil
}

func (m *mockToppingAdminStore) ListToppingCategories(_ context.Context, restaurantID uuid.UUID) ([]store.ToppingCategory, error) {
	var result []store.ToppingCategory
	for _, c := range m.categories {
		if c.RestaurantID == restaurantID && c.IsActive {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *mockToppingAdminStore) GetToppingCategory(_ context.Context, arg store.GetToppingCategoryParams) (store.ToppingCategory, error) {
	c, ok := m.categories[arg.ID]
	if !ok || c.RestaurantID != arg.RestaurantID || !c.IsActive {
		return store.ToppingCategory{}, pgx.ErrNoRows
	}
	return c, nil
}

func (m *mockToppingAdminStore) CreateToppingCategory(_ context.Context, arg store.CreateToppingCategoryParams) (store.ToppingCategory, error) {
	c := store.ToppingCategory{
		ID:                       uuid.New(),
		RestaurantID:             arg.RestaurantID,
		NameFr:                   arg.NameFr,
		NameEn:                   arg.NameEn,
		NameTr:                   arg.NameTr,
		MinSelections:            arg.MinSelections,
		MaxSelections:            arg.MaxSelections,
		AllowMultipleSameTopping: arg.AllowMultipleSameTopping,
		ShowIfSelectionType:      arg.ShowIfSelectionType,
		ShowIfSelectionID:        arg.ShowIfSelectionID,
		DisplayOrder:             arg.DisplayOrder,
		IsActive:                 true,
	}
	m.categories[c.ID] = c
	return c, nil
}

func (m *mockToppingAdminStore) UpdateToppingCategory(_ context.Context, arg store.UpdateToppingCategoryParams) (store.ToppingCategory, error) {
	c, ok := m.categories[arg.ID]
	if !ok || c.RestaurantID != arg.RestaurantID || !c.IsActive {
		return store.ToppingCategory{}, pgx.ErrNoRows
	}
	c.NameFr = arg.NameFr
	c.MinSelections = arg.MinSelections
	c.MaxSelections = arg.MaxSelections
	m.categories[c.ID] = c
	return c, nil
}

func (m *mockToppingAdminStore) SoftDeleteToppingCategory(_ context.Context, arg store.SoftDeleteToppingCategoryParams) (uuid.UUID, error) {
	c, ok := m.categories[arg.ID]
	if !ok || c.RestaurantID != arg.RestaurantID || !c.IsActive {
		return uuid.Nil, pgx.ErrNoRows
	}
	c.IsActive = false
	m.categories[c.ID] = c
	return c.ID, nil
}

func (m *mockToppingAdminStore) ListToppingsByCategory(_ context.Context, toppingCategoryID uuid.UUID) ([]store.Topping, error) {
	var result []store.Topping
	for _, t := range m.toppings {
		if t.ToppingCategoryID == toppingCategoryID && t.IsActive {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *mockToppingAdminStore) GetTopping(_ context.Context, id uuid.UUID) (store.Topping, error) {
	t, ok := m.toppings[id]
	if !ok || !t.IsActive {
		return store.Topping{}, pgx.ErrNoRows
	}
	return t, nil
}

func (m *mockToppingAdminStore) CreateTopping(_ context.Context, arg store.CreateToppingParams) (store.Topping, error) {
	t := store.Topping{
		ID:                uuid.New(),
		ToppingCategoryID: arg.ToppingCategoryID,
		NameFr:            arg.NameFr,
		NameEn:            arg.NameEn,
		NameTr:            arg.NameTr,
		Price:             arg.Price,
		TaxPercentage:     arg.TaxPercentage,
		InStock:           arg.InStock,
		DisplayOrder:      arg.DisplayOrder,
		IsActive:          true,
	}
	m.toppings[t.ID] = t
	return t, nil
}

func (m *mockToppingAdminStore) UpdateTopping(_ context.Context, arg store.UpdateToppingParams) (store.Topping, error) {
	t, ok := m.toppings[arg.ID]
	if !ok || !t.IsActive {
		return store.Topping{}, pgx.ErrNoRows
	}
	t.NameFr = arg.NameFr
	t.Price = arg.Price
	t.InStock = arg.InStock
	m.toppings[t.ID] = t
	return t, nil
}

func (m *mockToppingAdminStore) SoftDeleteTopping(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	t, ok := m.toppings[id]
	if !ok || !t.IsActive {
		return uuid.Nil, pgx.ErrNoRows
	}
	t.IsActive = false
	m.toppings[t.ID] = t
	return t.ID, nil
}

func (m *mockToppingAdminStore) LinkMenuItemToppingCategory(_ context.Context, arg store.LinkMenuItemToppingCategoryParams) error {
	for _, id := range m.links[arg.MenuItemID] {
		if id == arg.ToppingCategoryID {
			return nil
		}
	}
	m.links[arg.MenuItemID] = append(m.links[arg.MenuItemID], arg.ToppingCategoryID)
	return nil
}

func (m *mockToppingAdminStore) UnlinkMenuItemToppingCategory(_ context.Context, arg store.UnlinkMenuItemToppingCategoryParams) error {
	linked := m.links[arg.MenuItemID]
	for i, id := range linked {
		if id == arg.ToppingCategoryID {
			m.links[arg.MenuItemID] = append(linked[:i], linked[i+1:]...)
			return nil
		}
	}
	return nil
}

func setupToppingAdminRouter(s *mockToppingAdminStore, inv *mockInvalidator) *chi.Mux {
	h := handler.NewToppingAdminHandler(s, inv)
	r := chi.NewRouter()
	r.Route("/restaurants/{rid}", h.RegisterRoutes)
	return r
}

// --- Tests ---

func TestToppingAdmin_CreateCategory(t *testing.T) {
	rid := uuid.New()
	router := setupToppingAdminRouter(newMockToppingAdminStore(), &mockInvalidator{})

	body := map[string]interface{}{
		"name":           map[string]string{"fr": "Crudités"},
		"max_selections": 3,
	}
	rr := doRequest(t, router, "POST", "/restaurants/"+rid.String()+"/topping-categories", body, nil)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeObject(t, rr)
	if resp["name_fr"] != "Crudités" {
		t.Errorf("expected name_fr Crudités, got %v", resp["name_fr"])
	}
	if resp["max_selections"] != float64(3) {
		t.Errorf("expected max_selections 3, got %v", resp["max_selections"])
	}
}

func TestToppingAdmin_CreateCategoryRejectsInvertedBounds(t *testing.T) {
	rid := uuid.New()
	router := setupToppingAdminRouter(newMockToppingAdminStore(), &mockInvalidator{})

	body := map[string]interface{}{
		"name":           map[string]string{"fr": "Crudités"},
		"min_selections": 3,
		"max_selections": 1,
	}
	rr := doRequest(t, router, "POST", "/restaurants/"+rid.String()+"/topping-categories", body, nil)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestToppingAdmin_CreateCategoryRejectsHalfShowIf(t *testing.T) {
	rid := uuid.New()
	router := setupToppingAdminRouter(newMockToppingAdminStore(), &mockInvalidator{})

	body := map[string]interface{}{
		"name":                   map[string]string{"fr": "Suppléments"},
		"show_if_selection_type": "topping",
	}
	rr := doRequest(t, router, "POST", "/restaurants/"+rid.String()+"/topping-categories", body, nil)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestToppingAdmin_CreateCategoryRejectsUnknownShowIfType(t *testing.T) {
	rid := uuid.New()
	router := setupToppingAdminRouter(newMockToppingAdminStore(), &mockInvalidator{})

	body := map[string]interface{}{
		"name":                   map[string]string{"fr": "Suppléments"},
		"show_if_selection_type": "weather",
		"show_if_selection_id":   uuid.New(),
	}
	rr := doRequest(t, router, "POST", "/restaurants/"+rid.String()+"/topping-categories", body, nil)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestToppingAdmin_CreateTopping(t *testing.T) {
	rid := uuid.New()
	s := newMockToppingAdminStore()
	router := setupToppingAdminRouter(s, &mockInvalidator{})
	category, _ := s.CreateToppingCategory(context.Background(), store.CreateToppingCategoryParams{
		RestaurantID: rid,
		NameFr:       "Crudités",
	})

	body := map[string]interface{}{
		"name":  map[string]string{"fr": "Salade"},
		"price": "0.50",
	}
	rr := doRequest(t, router, "POST", "/restaurants/"+rid.String()+"/topping-categories/"+category.ID.String()+"/toppings", body, nil)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeObject(t, rr)
	if resp["price"] != "0.50" {
		t.Errorf("expected price 0.50, got %v", resp["price"])
	}
	if resp["in_stock"] != true {
		t.Error("expected in_stock to default to true")
	}
}

func TestToppingAdmin_CreateToppingRejectsNegativePrice(t *testing.T) {
	rid := uuid.New()
	s := newMockToppingAdminStore()
	router := setupToppingAdminRouter(s, &mockInvalidator{})
	category, _ := s.CreateToppingCategory(context.Background(), store.CreateToppingCategoryParams{
		RestaurantID: rid,
		NameFr:       "Crudités",
	})

	body := map[string]interface{}{
		"name":  map[string]string{"fr": "Salade"},
		"price": "-0.50",
	}
	rr := doRequest(t, router, "POST", "/restaurants/"+rid.String()+"/topping-categories/"+category.ID.String()+"/toppings", body, nil)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestToppingAdmin_UpdateToppingInForeignCategory(t *testing.T) {
	rid := uuid.New()
	s := newMockToppingAdminStore()
	router := setupToppingAdminRouter(s, &mockInvalidator{})
	category, _ := s.CreateToppingCategory(context.Background(), store.CreateToppingCategoryParams{
		RestaurantID: rid,
		NameFr:       "Crudités",
	})
	otherCategory, _ := s.CreateToppingCategory(context.Background(), store.CreateToppingCategoryParams{
		RestaurantID: rid,
		NameFr:       "Suppléments",
	})
	topping, _ := s.CreateTopping(context.Background(), store.CreateToppingParams{
		ToppingCategoryID: otherCategory.ID,
		NameFr:            "Fromage",
		InStock:           true,
	})

	body := map[string]interface{}{
		"name":  map[string]string{"fr": "Cheddar"},
		"price": "1.00",
	}
	rr := doRequest(t, router, "PUT", "/restaurants/"+rid.String()+"/topping-categories/"+category.ID.String()+"/toppings/"+topping.ID.String(), body, nil)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestToppingAdmin_LinkCategoryToItem(t *testing.T) {
	rid := uuid.New()
	s := newMockToppingAdminStore()
	inv := &mockInvalidator{}
	router := setupToppingAdminRouter(s, inv)
	item := s.addItem(rid)
	category, _ := s.CreateToppingCategory(context.Background(), store.CreateToppingCategoryParams{
		RestaurantID: rid,
		NameFr:       "Crudités",
	})

	body := map[string]interface{}{"display_order": 1}
	path := "/restaurants/" + rid.String() + "/items/" + item.ID.String() + "/topping-categories/" + category.ID.String()
	rr := doRequest(t, router, "PUT", path, body, nil)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(s.links[item.ID]) != 1 || s.links[item.ID][0] != category.ID {
		t.Errorf("expected link to %s, got %v", category.ID, s.links[item.ID])
	}
	if len(inv.invalidated) != 1 || inv.invalidated[0] != item.ID {
		t.Errorf("expected cache invalidation for %s, got %v", item.ID, inv.invalidated)
	}

	rr = doRequest(t, router, "DELETE", path, nil, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on unlink, got %d", rr.Code)
	}
	if len(s.links[item.ID]) != 0 {
		t.Errorf("expected link removed, got %v", s.links[item.ID])
	}
}

func TestToppingAdmin_LinkForeignCategory(t *testing.T) {
	rid := uuid.New()
	s := newMockToppingAdminStore()
	router := setupToppingAdminRouter(s, &mockInvalidator{})
	item := s.addItem(rid)
	category, _ := s.CreateToppingCategory(context.Background(), store.CreateToppingCategoryParams{
		RestaurantID: uuid.New(),
		NameFr:       "Crudités",
	})

	body := map[string]interface{}{"display_order": 1}
	rr := doRequest(t, router, "PUT", "/restaurants/"+rid.String()+"/items/"+item.ID.String()+"/topping-categories/"+category.ID.String(), body, nil)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
