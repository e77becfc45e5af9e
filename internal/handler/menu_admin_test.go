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

type mockMenuAdminStore struct {
	categories map[uuid.UUID]store.MenuCategory
	items      map[uuid.UUID]store.MenuItem
}

func newMockMenuAdminStore() *mockMenuAdminStore {
	return &mockMenuAdminStore{
		categories: make(map[uuid.UUID]store.MenuCategory),
		items:      make(map[uuid.UUID]store.MenuItem),
	}
}

func (m *mockMenuAdminStore) ListMenuCategories(_ context.Context, restaurantID uuid.UUID) ([]store.MenuCategory, error) {
	var result []store.MenuCategory
	for _, c := range m.categories {
		if c.RestaurantID == restaurantID && c.IsActive {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *mockMenuAdminStore) CreateMenuCategory(_ context.Context, arg store.CreateMenuCategoryParams) (store.MenuCategory, error) {
	c := store.MenuCategory{
		ID:           uuid.New(),
		RestaurantID: arg.RestaurantID,
		NameFr:       arg.NameFr,
		NameEn:       arg.NameEn,
		NameTr:       arg.NameTr,
		DisplayOrder: arg.DisplayOrder,
		IsActive:     true,
	}
	m.categories[c.ID] = c
	return c, nil
}

func (m *mockMenuAdminStore) UpdateMenuCategory(_ context.Context, arg store.UpdateMenuCategoryParams) (store.MenuCategory, error) {
	c, ok := m.categories[arg.ID]
	if !ok || c.RestaurantID != arg.RestaurantID || !c.IsActive {
		return store.MenuCategory{}, pgx.ErrNoRows
	}
	c.NameFr = arg.NameFr
	c.NameEn = arg.NameEn
	c.NameTr = arg.NameTr
	c.DisplayOrder = arg.DisplayOrder
	m.categories[c.ID] = c
	return c, nil
}

func (m *mockMenuAdminStore) SoftDeleteMenuCategory(_ context.Context, arg store.SoftDeleteMenuCategoryParams) (uuid.UUID, error) {
	c, ok := m.categories[arg.ID]
	if !ok || c.RestaurantID != arg.RestaurantID || !c.IsActive {
		return uuid.Nil, pgx.ErrNoRows
	}
	c.IsActive = false
	m.categories[c.ID] = c
	return c.ID, nil
}

func (m *mockMenuAdminStore) ListMenuItemsByRestaurant(_ context.Context, restaurantID uuid.UUID) ([]store.MenuItem, error) {
	var result []store.MenuItem
	for _, i := range m.items {
		if i.RestaurantID == restaurantID && i.IsActive {
			result = append(result, i)
		}
	}
	return result, nil
}

func (m *mockMenuAdminStore) GetMenuItem(_ context.Context, arg store.GetMenuItemParams) (store.MenuItem, error) {
	i, ok := m.items[arg.ID]
	if !ok || i.RestaurantID != arg.RestaurantID || !i.IsActive {
		return store.MenuItem{}, pgx.ErrNoRows
	}
	return i, nil
}

func (m *mockMenuAdminStore) CreateMenuItem(_ context.Context, arg store.CreateMenuItemParams) (store.MenuItem, error) {
	i := store.MenuItem{
		ID:             uuid.New(),
		RestaurantID:   arg.RestaurantID,
		CategoryID:     arg.CategoryID,
		NameFr:         arg.NameFr,
		NameEn:         arg.NameEn,
		NameTr:         arg.NameTr,
		DescriptionFr:  arg.DescriptionFr,
		Price:          arg.Price,
		PromotionPrice: arg.PromotionPrice,
		TaxPercentage:  arg.TaxPercentage,
		ImageUrl:       arg.ImageUrl,
		AvailableFrom:  arg.AvailableFrom,
		AvailableUntil: arg.AvailableUntil,
		InStock:        arg.InStock,
		DisplayOrder:   arg.DisplayOrder,
		IsActive:       true,
	}
	m.items[i.ID] = i
	return i, nil
}

func (m *mockMenuAdminStore) UpdateMenuItem(_ context.Context, arg store.UpdateMenuItemParams) (store.MenuItem, error) {
	i, ok := m.items[arg.ID]
	if !ok || i.RestaurantID != arg.RestaurantID || !i.IsActive {
		return store.MenuItem{}, pgx.ErrNoRows
	}
	i.NameFr = arg.NameFr
	i.Price = arg.Price
	i.InStock = arg.InStock
	m.items[i.ID] = i
	return i, nil
}

func (m *mockMenuAdminStore) SoftDeleteMenuItem(_ context.Context, arg store.SoftDeleteMenuItemParams) (uuid.UUID, error) {
	i, ok := m.items[arg.ID]
	if !ok || i.RestaurantID != arg.RestaurantID || !i.IsActive {
		return uuid.Nil, pgx.ErrNoRows
	}
	i.IsActive = false
	m.items[i.ID] = i
	return i.ID, nil
}

type mockInvalidator struct {
	invalidated []uuid.UUID
}

func (m *mockInvalidator) Invalidate(_ uuid.UUID, itemID uuid.UUID) {
	m.invalidated = append(m.invalidated, itemID)
}

func setupMenuAdminRouter(s *mockMenuAdminStore, inv *mockInvalidator) *chi.Mux {
	h := handler.NewMenuAdminHandler(s, inv)
	r := chi.NewRouter()
	r.Route("/restaurants/{rid}/menu", h.RegisterRoutes)
	return r
}

// --- Tests ---

func TestMenuAdmin_CreateCategory(t *testing.T) {
	rid := uuid.New()
	router := setupMenuAdminRouter(newMockMenuAdminStore(), &mockInvalidator{})

	body := map[string]interface{}{
		"name":          map[string]string{"fr": "Entrées", "en": "Starters"},
		"display_order": 1,
	}
	rr := doRequest(t, router, "POST", "/restaurants/"+rid.String()+"/menu/categories", body, nil)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeObject(t, rr)
	if resp["name_fr"] != "Entrées" {
		t.Errorf("expected name_fr Entrées, got %v", resp["name_fr"])
	}
	if resp["name_en"] != "Starters" {
		t.Errorf("expected name_en Starters, got %v", resp["name_en"])
	}
}

func TestMenuAdmin_CreateCategoryRequiresFrenchName(t *testing.T) {
	rid := uuid.New()
	router := setupMenuAdminRouter(newMockMenuAdminStore(), &mockInvalidator{})

	body := map[string]interface{}{
		"name": map[string]string{"en": "Starters"},
	}
	rr := doRequest(t, router, "POST", "/restaurants/"+rid.String()+"/menu/categories", body, nil)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestMenuAdmin_UpdateCategoryWrongRestaurant(t *testing.T) {
	s := newMockMenuAdminStore()
	router := setupMenuAdminRouter(s, &mockInvalidator{})

	c, _ := s.CreateMenuCategory(context.Background(), store.CreateMenuCategoryParams{
		RestaurantID: uuid.New(),
		NameFr:       "Plats",
	})

	body := map[string]interface{}{"name": map[string]string{"fr": "Desserts"}}
	rr := doRequest(t, router, "PUT", "/restaurants/"+uuid.New().String()+"/menu/categories/"+c.ID.String(), body, nil)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestMenuAdmin_CreateItem(t *testing.T) {
	rid := uuid.New()
	s := newMockMenuAdminStore()
	router := setupMenuAdminRouter(s, &mockInvalidator{})

	body := map[string]interface{}{
		"category_id": uuid.New(),
		"name":        map[string]string{"fr": "Burger"},
		"price":       "8.50",
	}
	rr := doRequest(t, router, "POST", "/restaurants/"+rid.String()+"/menu/items", body, nil)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeObject(t, rr)
	if resp["price"] != "8.50" {
		t.Errorf("expected price 8.50, got %v", resp["price"])
	}
	if resp["in_stock"] != true {
		t.Error("expected in_stock to default to true")
	}
}

func TestMenuAdmin_CreateItemRejectsNegativePrice(t *testing.T) {
	rid := uuid.New()
	router := setupMenuAdminRouter(newMockMenuAdminStore(), &mockInvalidator{})

	body := map[string]interface{}{
		"category_id": uuid.New(),
		"name":        map[string]string{"fr": "Burger"},
		"price":       "-1.00",
	}
	rr := doRequest(t, router, "POST", "/restaurants/"+rid.String()+"/menu/items", body, nil)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestMenuAdmin_CreateItemRejectsHalfWindow(t *testing.T) {
	rid := uuid.New()
	router := setupMenuAdminRouter(newMockMenuAdminStore(), &mockInvalidator{})

	body := map[string]interface{}{
		"category_id":    uuid.New(),
		"name":           map[string]string{"fr": "Burger"},
		"price":          "8.50",
		"available_from": "11:00",
	}
	rr := doRequest(t, router, "POST", "/restaurants/"+rid.String()+"/menu/items", body, nil)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestMenuAdmin_UpdateItemInvalidatesCache(t *testing.T) {
	rid := uuid.New()
	s := newMockMenuAdminStore()
	inv := &mockInvalidator{}
	router := setupMenuAdminRouter(s, inv)

	item, _ := s.CreateMenuItem(context.Background(), store.CreateMenuItemParams{
		RestaurantID: rid,
		CategoryID:   uuid.New(),
		NameFr:       "Burger",
		Price:        num(t, "8.50"),
		InStock:      true,
	})

	body := map[string]interface{}{
		"category_id": item.CategoryID,
		"name":        map[string]string{"fr": "Burger Deluxe"},
		"price":       "9.50",
	}
	rr := doRequest(t, router, "PUT", "/restaurants/"+rid.String()+"/menu/items/"+item.ID.String(), body, nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(inv.invalidated) != 1 || inv.invalidated[0] != item.ID {
		t.Errorf("expected cache invalidation for item %s, got %v", item.ID, inv.invalidated)
	}
}

func TestMenuAdmin_DeleteItem(t *testing.T) {
	rid := uuid.New()
	s := newMockMenuAdminStore()
	router := setupMenuAdminRouter(s, &mockInvalidator{})

	item, _ := s.CreateMenuItem(context.Background(), store.CreateMenuItemParams{
		RestaurantID: rid,
		CategoryID:   uuid.New(),
		NameFr:       "Burger",
		Price:        num(t, "8.50"),
	})

	rr := doRequest(t, router, "DELETE", "/restaurants/"+rid.String()+"/menu/items/"+item.ID.String(), nil, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}

	rr = doRequest(t, router, "DELETE", "/restaurants/"+rid.String()+"/menu/items/"+item.ID.String(), nil, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", rr.Code)
	}
}
