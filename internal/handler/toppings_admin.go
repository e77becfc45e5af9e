package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/komanda-kiosk/api/internal/enum"
	"github.com/komanda-kiosk/api/internal/store"
)

// ToppingAdminStore defines the database operations needed by ToppingAdminHandler.
// Satisfied by *store.Queries; narrow interface for testability.
type ToppingAdminStore interface {
	ListToppingCategories(ctx context.Context, restaurantID uuid.UUID) ([]store.ToppingCategory, error)
	GetToppingCategory(ctx context.Context, arg store.GetToppingCategoryParams) (store.ToppingCategory, error)
	CreateToppingCategory(ctx context.Context, arg store.CreateToppingCategoryParams) (store.ToppingCategory, error)
	UpdateToppingCategory(ctx context.Context, arg store.UpdateToppingCategoryParams) (store.ToppingCategory, error)
	SoftDeleteToppingCategory(ctx context.Context, arg store.SoftDeleteToppingCategoryParams) (uuid.UUID, error)

	ListToppingsByCategory(ctx context.Context, toppingCategoryID uuid.UUID) ([]store.Topping, error)
	GetTopping(ctx context.Context, id uuid.UUID) (store.Topping, error)
	CreateTopping(ctx context.Context, arg store.CreateToppingParams) (store.Topping, error)
	UpdateTopping(ctx context.Context, arg store.UpdateToppingParams) (store.Topping, error)
	SoftDeleteTopping(ctx context.Context, id uuid.UUID) (uuid.UUID, error)

	GetMenuItem(ctx context.Context, arg store.GetMenuItemParams) (store.MenuItem, error)
	LinkMenuItemToppingCategory(ctx context.Context, arg store.LinkMenuItemToppingCategoryParams) error
	UnlinkMenuItemToppingCategory(ctx context.Context, arg store.UnlinkMenuItemToppingCategoryParams) error
}

type ToppingAdminHandler struct {
	store ToppingAdminStore
	cache Invalidator
}

func NewToppingAdminHandler(s ToppingAdminStore, cache Invalidator) *ToppingAdminHandler {
	return &ToppingAdminHandler{store: s, cache: cache}
}

func (h *ToppingAdminHandler) RegisterRoutes(r chi.Router) {
	r.Route("/topping-categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Post("/", h.CreateCategory)
		r.Put("/{id}", h.UpdateCategory)
		r.Delete("/{id}", h.DeleteCategory)
		r.Get("/{id}/toppings", h.ListToppings)
		r.Post("/{id}/toppings", h.CreateTopping)
		r.Put("/{id}/toppings/{toppingID}", h.UpdateTopping)
		r.Delete("/{id}/toppings/{toppingID}", h.DeleteTopping)
	})
	r.Put("/items/{itemID}/topping-categories/{id}", h.LinkCategory)
	r.Delete("/items/{itemID}/topping-categories/{id}", h.UnlinkCategory)
}

type toppingCategoryRequest struct {
	Name                     localizedRequest `json:"name"`
	MinSelections            int32            `json:"min_selections"`
	MaxSelections            int32            `json:"max_selections"`
	AllowMultipleSameTopping bool             `json:"allow_multiple_same_topping"`
	ShowIfSelectionType      string           `json:"show_if_selection_type,omitempty"`
	ShowIfSelectionID        *uuid.UUID       `json:"show_if_selection_id,omitempty"`
	DisplayOrder             int32            `json:"display_order"`
}

type toppingCategoryResponse struct {
	ID                       uuid.UUID  `json:"id"`
	NameFR                   string     `json:"name_fr"`
	NameEN                   string     `json:"name_en,omitempty"`
	NameTR                   string     `json:"name_tr,omitempty"`
	MinSelections            int32      `json:"min_selections"`
	MaxSelections            int32      `json:"max_selections"`
	AllowMultipleSameTopping bool       `json:"allow_multiple_same_topping"`
	ShowIfSelectionType      string     `json:"show_if_selection_type,omitempty"`
	ShowIfSelectionID        *uuid.UUID `json:"show_if_selection_id,omitempty"`
	DisplayOrder             int32      `json:"display_order"`
}

func toToppingCategoryResponse(c store.ToppingCategory) toppingCategoryResponse {
	resp := toppingCategoryResponse{
		ID:                       c.ID,
		NameFR:                   c.NameFr,
		NameEN:                   textString(c.NameEn),
		NameTR:                   textString(c.NameTr),
		MinSelections:            c.MinSelections,
		MaxSelections:            c.MaxSelections,
		AllowMultipleSameTopping: c.AllowMultipleSameTopping,
		ShowIfSelectionType:      textString(c.ShowIfSelectionType),
		DisplayOrder:             c.DisplayOrder,
	}
	if c.ShowIfSelectionID.Valid {
		id := uuid.UUID(c.ShowIfSelectionID.Bytes)
		resp.ShowIfSelectionID = &id
	}
	return resp
}

// validateShowIf enforces that the visibility condition is either fully
// present or fully absent.
func validateShowIf(req toppingCategoryRequest) error {
	if req.ShowIfSelectionType == "" && req.ShowIfSelectionID == nil {
		return nil
	}
	if req.ShowIfSelectionType == "" || req.ShowIfSelectionID == nil {
		return errors.New("show_if_selection_type and show_if_selection_id must be set together")
	}
	if req.ShowIfSelectionType != enum.ShowIfOptionChoice && req.ShowIfSelectionType != enum.ShowIfTopping {
		return errors.New("unknown show_if_selection_type")
	}
	return nil
}

func showIfID(req toppingCategoryRequest) pgtype.UUID {
	if req.ShowIfSelectionID == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *req.ShowIfSelectionID, Valid: true}
}

func (h *ToppingAdminHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	categories, err := h.store.ListToppingCategories(r.Context(), rid)
	if err != nil {
		log.Printf("ERROR: failed to list topping categories: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list topping categories"})
		return
	}

	resp := make([]toppingCategoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, toToppingCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ToppingAdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	var req toppingCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name.FR == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name.fr is required"})
		return
	}
	if req.MinSelections < 0 || (req.MaxSelections > 0 && req.MaxSelections < req.MinSelections) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid selection bounds"})
		return
	}
	if err := validateShowIf(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	category, err := h.store.CreateToppingCategory(r.Context(), store.CreateToppingCategoryParams{
		RestaurantID:             rid,
		NameFr:                   req.Name.FR,
		NameEn:                   optText(req.Name.EN),
		NameTr:                   optText(req.Name.TR),
		MinSelections:            req.MinSelections,
		MaxSelections:            req.MaxSelections,
		AllowMultipleSameTopping: req.AllowMultipleSameTopping,
		ShowIfSelectionType:      optText(req.ShowIfSelectionType),
		ShowIfSelectionID:        showIfID(req),
		DisplayOrder:             req.DisplayOrder,
	})
	if err != nil {
		log.Printf("ERROR: failed to create topping category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create topping category"})
		return
	}

	writeJSON(w, http.StatusCreated, toToppingCategoryResponse(category))
}

func (h *ToppingAdminHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid topping category ID"})
		return
	}

	var req toppingCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name.FR == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name.fr is required"})
		return
	}
	if req.MinSelections < 0 || (req.MaxSelections > 0 && req.MaxSelections < req.MinSelections) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid selection bounds"})
		return
	}
	if err := validateShowIf(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	category, err := h.store.UpdateToppingCategory(r.Context(), store.UpdateToppingCategoryParams{
		ID:                       id,
		RestaurantID:             rid,
		NameFr:                   req.Name.FR,
		NameEn:                   optText(req.Name.EN),
		NameTr:                   optText(req.Name.TR),
		MinSelections:            req.MinSelections,
		MaxSelections:            req.MaxSelections,
		AllowMultipleSameTopping: req.AllowMultipleSameTopping,
		ShowIfSelectionType:      optText(req.ShowIfSelectionType),
		ShowIfSelectionID:        showIfID(req),
		DisplayOrder:             req.DisplayOrder,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "topping category not found"})
			return
		}
		log.Printf("ERROR: failed to update topping category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update topping category"})
		return
	}

	writeJSON(w, http.StatusOK, toToppingCategoryResponse(category))
}

func (h *ToppingAdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid topping category ID"})
		return
	}

	if _, err := h.store.SoftDeleteToppingCategory(r.Context(), store.SoftDeleteToppingCategoryParams{ID: id, RestaurantID: rid}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "topping category not found"})
			return
		}
		log.Printf("ERROR: failed to delete topping category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete topping category"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type toppingRequest struct {
	Name          localizedRequest `json:"name"`
	Price         string           `json:"price"`
	TaxPercentage string           `json:"tax_percentage,omitempty"`
	InStock       *bool            `json:"in_stock,omitempty"`
	DisplayOrder  int32            `json:"display_order"`
}

type toppingResponse struct {
	ID            uuid.UUID `json:"id"`
	NameFR        string    `json:"name_fr"`
	NameEN        string    `json:"name_en,omitempty"`
	NameTR        string    `json:"name_tr,omitempty"`
	Price         string    `json:"price"`
	TaxPercentage string    `json:"tax_percentage,omitempty"`
	InStock       bool      `json:"in_stock"`
	DisplayOrder  int32     `json:"display_order"`
}

func toToppingResponse(t store.Topping) toppingResponse {
	resp := toppingResponse{
		ID:           t.ID,
		NameFR:       t.NameFr,
		NameEN:       textString(t.NameEn),
		NameTR:       textString(t.NameTr),
		Price:        numericToString(t.Price),
		InStock:      t.InStock,
		DisplayOrder: t.DisplayOrder,
	}
	if t.TaxPercentage.Valid {
		resp.TaxPercentage = numericToString(t.TaxPercentage)
	}
	return resp
}

// ownedCategory verifies the topping category belongs to the request's
// restaurant. A false return means the response has been written.
func (h *ToppingAdminHandler) ownedCategory(w http.ResponseWriter, r *http.Request) (uuid.UUID, store.ToppingCategory, bool) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return uuid.Nil, store.ToppingCategory{}, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid topping category ID"})
		return uuid.Nil, store.ToppingCategory{}, false
	}

	category, err := h.store.GetToppingCategory(r.Context(), store.GetToppingCategoryParams{ID: id, RestaurantID: rid})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "topping category not found"})
			return uuid.Nil, store.ToppingCategory{}, false
		}
		log.Printf("ERROR: failed to get topping category %s: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get topping category"})
		return uuid.Nil, store.ToppingCategory{}, false
	}
	return rid, category, true
}

func (h *ToppingAdminHandler) ListToppings(w http.ResponseWriter, r *http.Request) {
	_, category, ok := h.ownedCategory(w, r)
	if !ok {
		return
	}

	toppings, err := h.store.ListToppingsByCategory(r.Context(), category.ID)
	if err != nil {
		log.Printf("ERROR: failed to list toppings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list toppings"})
		return
	}

	resp := make([]toppingResponse, 0, len(toppings))
	for _, t := range toppings {
		resp = append(resp, toToppingResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ToppingAdminHandler) toppingParams(w http.ResponseWriter, req toppingRequest) (store.CreateToppingParams, bool) {
	if req.Name.FR == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name.fr is required"})
		return store.CreateToppingParams{}, false
	}
	price, err := parsePrice(req.Price)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return store.CreateToppingParams{}, false
	}
	var tax pgtype.Numeric
	if req.TaxPercentage != "" {
		tax, err = parsePrice(req.TaxPercentage)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tax_percentage"})
			return store.CreateToppingParams{}, false
		}
	}
	inStock := true
	if req.InStock != nil {
		inStock = *req.InStock
	}
	return store.CreateToppingParams{
		NameFr:        req.Name.FR,
		NameEn:        optText(req.Name.EN),
		NameTr:        optText(req.Name.TR),
		Price:         price,
		TaxPercentage: tax,
		InStock:       inStock,
		DisplayOrder:  req.DisplayOrder,
	}, true
}

func (h *ToppingAdminHandler) CreateTopping(w http.ResponseWriter, r *http.Request) {
	_, category, ok := h.ownedCategory(w, r)
	if !ok {
		return
	}

	var req toppingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	params, ok := h.toppingParams(w, req)
	if !ok {
		return
	}
	params.ToppingCategoryID = category.ID

	topping, err := h.store.CreateTopping(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: failed to create topping: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create topping"})
		return
	}

	writeJSON(w, http.StatusCreated, toToppingResponse(topping))
}

func (h *ToppingAdminHandler) UpdateTopping(w http.ResponseWriter, r *http.Request) {
	_, category, ok := h.ownedCategory(w, r)
	if !ok {
		return
	}
	toppingID, err := uuid.Parse(chi.URLParam(r, "toppingID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid topping ID"})
		return
	}

	existing, err := h.store.GetTopping(r.Context(), toppingID)
	if err != nil || existing.ToppingCategoryID != category.ID {
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			log.Printf("ERROR: failed to get topping %s: %v", toppingID, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get topping"})
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "topping not found"})
		return
	}

	var req toppingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	params, ok := h.toppingParams(w, req)
	if !ok {
		return
	}

	topping, err := h.store.UpdateTopping(r.Context(), store.UpdateToppingParams{
		ID:            toppingID,
		NameFr:        params.NameFr,
		NameEn:        params.NameEn,
		NameTr:        params.NameTr,
		Price:         params.Price,
		TaxPercentage: params.TaxPercentage,
		InStock:       params.InStock,
		DisplayOrder:  params.DisplayOrder,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "topping not found"})
			return
		}
		log.Printf("ERROR: failed to update topping: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update topping"})
		return
	}

	writeJSON(w, http.StatusOK, toToppingResponse(topping))
}

func (h *ToppingAdminHandler) DeleteTopping(w http.ResponseWriter, r *http.Request) {
	_, category, ok := h.ownedCategory(w, r)
	if !ok {
		return
	}
	toppingID, err := uuid.Parse(chi.URLParam(r, "toppingID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid topping ID"})
		return
	}

	existing, err := h.store.GetTopping(r.Context(), toppingID)
	if err != nil || existing.ToppingCategoryID != category.ID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "topping not found"})
		return
	}

	if _, err := h.store.SoftDeleteTopping(r.Context(), toppingID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "topping not found"})
			return
		}
		log.Printf("ERROR: failed to delete topping: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete topping"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type linkCategoryRequest struct {
	DisplayOrder int32 `json:"display_order"`
}

// LinkCategory attaches a topping category to a menu item. Linking an
// already attached category updates its display order.
func (h *ToppingAdminHandler) LinkCategory(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}
	categoryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid topping category ID"})
		return
	}

	var req linkCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	// Both sides must belong to this restaurant.
	if _, err := h.store.GetMenuItem(r.Context(), store.GetMenuItemParams{ID: itemID, RestaurantID: rid}); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
		return
	}
	if _, err := h.store.GetToppingCategory(r.Context(), store.GetToppingCategoryParams{ID: categoryID, RestaurantID: rid}); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "topping category not found"})
		return
	}

	if err := h.store.LinkMenuItemToppingCategory(r.Context(), store.LinkMenuItemToppingCategoryParams{
		MenuItemID:        itemID,
		ToppingCategoryID: categoryID,
		DisplayOrder:      req.DisplayOrder,
	}); err != nil {
		log.Printf("ERROR: failed to link topping category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to link topping category"})
		return
	}

	h.cache.Invalidate(rid, itemID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ToppingAdminHandler) UnlinkCategory(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}
	categoryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid topping category ID"})
		return
	}

	if _, err := h.store.GetMenuItem(r.Context(), store.GetMenuItemParams{ID: itemID, RestaurantID: rid}); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
		return
	}

	if err := h.store.UnlinkMenuItemToppingCategory(r.Context(), store.UnlinkMenuItemToppingCategoryParams{
		MenuItemID:        itemID,
		ToppingCategoryID: categoryID,
	}); err != nil {
		log.Printf("ERROR: failed to unlink topping category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to unlink topping category"})
		return
	}

	h.cache.Invalidate(rid, itemID)
	w.WriteHeader(http.StatusNoContent)
}
