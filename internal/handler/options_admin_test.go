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

type mockOptionAdminStore struct {
	items   map[uuid.UUID]store.MenuItem
	options map[uuid.UUID]store.MenuItemOption
	choices map[uuid.UUID]store.OptionChoice
}

func newMockOptionAdminStore() *mockOptionAdminStore {
	return &mockOptionAdminStore{
		items:   make(map[uuid.UUID]store.MenuItem),
		options: make(map[uuid.UUID]store.MenuItemOption),
		choices: make(map[uuid.UUID]store.OptionChoice),
	}
}

func (m *mockOptionAdminStore) addItem(restaurantID uuid.UUID) store.MenuItem {
	i := store.MenuItem{ID: uuid.New(), RestaurantID: restaurantID, NameFr: "Kebab", IsActive: true}
	m.items[i.ID] = i
	return i
}

func (m *mockOptionAdminStore) GetMenuItem(_ context.Context, arg store.GetMenuItemParams) (store.MenuItem, error) {
	i, ok := m.items[arg.ID]
	if !ok || i.RestaurantID != arg.RestaurantID || !i.IsActive {
		return store.MenuItem{}, pgx.ErrNoRows
	}
	return i, nil
}

func (m *mockOptionAdminStore) ListOptionsByMenuItem(_ context.Context, menuItemID uuid.UUID) ([]store.MenuItemOption, error) {
	var result []store.MenuItemOption
	for _, o := range m.options {
		if o.MenuItemID == menuItemID && o.IsActive {
			result = append(result, o)
		}
	}
	return result, nil
}

func (m *mockOptionAdminStore) GetMenuItemOption(_ context.Context, id uuid.UUID) (store.MenuItemOption, error) {
	o, ok := m.options[id]
	if !ok || !o.IsActive {
		return store.MenuItemOption{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *mockOptionAdminStore) CreateMenuItemOption(_ context.Context, arg store.CreateMenuItemOptionParams) (store.MenuItemOption, error) {
	o := store.MenuItemOption{
		ID:           uuid.New(),
		MenuItemID:   arg.MenuItemID,
		NameFr:       arg.NameFr,
		NameEn:       arg.NameEn,
		NameTr:       arg.NameTr,
		Required:     arg.Required,
		Multiple:     arg.Multiple,
		DisplayOrder: arg.DisplayOrder,
		IsActive:     true,
	}
	m.options[o.ID] = o
	return o, nil
}

func (m *mockOptionAdminStore) UpdateMenuItemOption(_ context.Context, arg store.UpdateMenuItemOptionParams) (store.MenuItemOption, error) {
	o, ok := m.options[arg.ID]
	if !ok || !o.IsActive {
		return store.MenuItemOption{}, pgx.ErrNoRows
	}
	o.NameFr = arg.NameFr
	o.Required = arg.Required
	o.Multiple = arg.Multiple
	o.DisplayOrder = arg.DisplayOrder
	m.options[o.ID] = o
	return o, nil
}

func (m *mockOptionAdminStore) SoftDeleteMenuItemOption(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	o, ok := m.options[id]
	if !ok || !o.IsActive {
		return uuid.Nil, pgx.ErrNoRows
	}
	o.IsActive = false
	m.options[o.ID] = o
	return o.ID, nil
}

func (m *mockOptionAdminStore) ListChoicesByOption(_ context.Context, optionID uuid.UUID) ([]store.OptionChoice, error) {
	var result []store.OptionChoice
	for _, c := range m.choices {
		if c.OptionID == optionID && c.IsActive {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *mockOptionAdminStore) CreateOptionChoice(_ context.Context, arg store.CreateOptionChoiceParams) (store.OptionChoice, error) {
	c := store.OptionChoice{
		ID:           uuid.New(),
		OptionID:     arg.OptionID,
		NameFr:       arg.NameFr,
		NameEn:       arg.NameEn,
		NameTr:       arg.NameTr,
		PriceDelta:   arg.PriceDelta,
		DisplayOrder: arg.DisplayOrder,
		IsActive:     true,
	}
	m.choices[c.ID] = c
	return c, nil
}

func (m *mockOptionAdminStore) UpdateOptionChoice(_ context.Context, arg store.UpdateOptionChoiceParams) (store.OptionChoice, error) {
	c, ok := m.choices[arg.ID]
	if !ok || !c.IsActive {
		return store.OptionChoice{}, pgx.ErrNoRows
	}
	c.NameFr = arg.NameFr
	c.PriceDelta = arg.PriceDelta
	c.DisplayOrder = arg.DisplayOrder
	m.choices[c.ID] = c
	return c, nil
}

func (m *mockOptionAdminStore) SoftDeleteOptionChoice(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	c, ok := m.choices[id]
	if !ok || !c.IsActive {
		return uuid.Nil, pgx.ErrNoRows
	}
	c.IsActive = false
	m.choices[c.ID] = c
	return c.ID, nil
}

func setupOptionAdminRouter(s *mockOptionAdminStore, inv *mockInvalidator) *chi.Mux {
	h := handler.NewOptionAdminHandler(s, inv)
	r := chi.NewRouter()
	r.Route("/restaurants/{rid}", h.RegisterRoutes)
	return r
}

// --- Tests ---

func TestOptionAdmin_CreateOption(t *testing.T) {
	rid := uuid.New()
	s := newMockOptionAdminStore()
	inv := &mockInvalidator{}
	router := setupOptionAdminRouter(s, inv)
	item := s.addItem(rid)

	body := map[string]interface{}{
		"name":     map[string]string{"fr": "Sauce"},
		"required": true,
	}
	rr := doRequest(t, router, "POST", "/restaurants/"+rid.String()+"/items/"+item.ID.String()+"/options", body, nil)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeObject(t, rr)
	if resp["name_fr"] != "Sauce" {
		t.Errorf("expected name_fr Sauce, got %v", resp["name_fr"])
	}
	if resp["required"] != true {
		t.Error("expected required true")
	}
	if len(inv.invalidated) != 1 || inv.invalidated[0] != item.ID {
		t.Errorf("expected cache invalidation for %s, got %v", item.ID, inv.invalidated)
	}
}

func TestOptionAdmin_CreateOptionWrongRestaurant(t *testing.T) {
	s := newMockOptionAdminStore()
	router := setupOptionAdminRouter(s, &mockInvalidator{})
	item := s.addItem(uuid.New())

	body := map[string]interface{}{"name": map[string]string{"fr": "Sauce"}}
	rr := doRequest(t, router, "POST", "/restaurants/"+uuid.New().String()+"/items/"+item.ID.String()+"/options", body, nil)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestOptionAdmin_CreateChoiceWithNegativeDelta(t *testing.T) {
	rid := uuid.New()
	s := newMockOptionAdminStore()
	router := setupOptionAdminRouter(s, &mockInvalidator{})
	item := s.addItem(rid)
	option, _ := s.CreateMenuItemOption(context.Background(), store.CreateMenuItemOptionParams{
		MenuItemID: item.ID,
		NameFr:     "Taille",
	})

	body := map[string]interface{}{
		"name":        map[string]string{"fr": "Petite"},
		"price_delta": "-1.00",
	}
	rr := doRequest(t, router, "POST", "/restaurants/"+rid.String()+"/items/"+item.ID.String()+"/options/"+option.ID.String()+"/choices", body, nil)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeObject(t, rr)
	if resp["price_delta"] != "-1.00" {
		t.Errorf("expected price_delta -1.00, got %v", resp["price_delta"])
	}
}

func TestOptionAdmin_ChoiceOnForeignOption(t *testing.T) {
	rid := uuid.New()
	s := newMockOptionAdminStore()
	router := setupOptionAdminRouter(s, &mockInvalidator{})
	item := s.addItem(rid)
	otherItem := s.addItem(rid)
	option, _ := s.CreateMenuItemOption(context.Background(), store.CreateMenuItemOptionParams{
		MenuItemID: otherItem.ID,
		NameFr:     "Sauce",
	})

	body := map[string]interface{}{"name": map[string]string{"fr": "Blanche"}}
	rr := doRequest(t, router, "POST", "/restaurants/"+rid.String()+"/items/"+item.ID.String()+"/options/"+option.ID.String()+"/choices", body, nil)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestOptionAdmin_ListOptionsWithChoices(t *testing.T) {
	rid := uuid.New()
	s := newMockOptionAdminStore()
	router := setupOptionAdminRouter(s, &mockInvalidator{})
	item := s.addItem(rid)
	option, _ := s.CreateMenuItemOption(context.Background(), store.CreateMenuItemOptionParams{
		MenuItemID: item.ID,
		NameFr:     "Sauce",
		Required:   true,
	})
	s.CreateOptionChoice(context.Background(), store.CreateOptionChoiceParams{
		OptionID: option.ID,
		NameFr:   "Blanche",
	})

	rr := doRequest(t, router, "GET", "/restaurants/"+rid.String()+"/items/"+item.ID.String()+"/options", nil, nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	list := decodeList(t, rr)
	if len(list) != 1 {
		t.Fatalf("expected 1 option, got %d", len(list))
	}
	choices, ok := list[0]["choices"].([]interface{})
	if !ok || len(choices) != 1 {
		t.Fatalf("expected 1 choice, got %v", list[0]["choices"])
	}
}

func TestOptionAdmin_DeleteOption(t *testing.T) {
	rid := uuid.New()
	s := newMockOptionAdminStore()
	inv := &mockInvalidator{}
	router := setupOptionAdminRouter(s, inv)
	item := s.addItem(rid)
	option, _ := s.CreateMenuItemOption(context.Background(), store.CreateMenuItemOptionParams{
		MenuItemID: item.ID,
		NameFr:     "Sauce",
	})

	path := "/restaurants/" + rid.String() + "/items/" + item.ID.String() + "/options/" + option.ID.String()
	rr := doRequest(t, router, "DELETE", path, nil, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, router, "DELETE", path, nil, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rr.Code)
	}
}
