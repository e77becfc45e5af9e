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

	"github.com/komanda-kiosk/api/internal/store"
)

// MenuAdminStore defines the database operations needed by MenuAdminHandler.
// Satisfied by *store.Queries; narrow interface for testability.
type MenuAdminStore interface {
	ListMenuCategories(ctx context.Context, restaurantID uuid.UUID) ([]store.MenuCategory, error)
	CreateMenuCategory(ctx context.Context, arg store.CreateMenuCategoryParams) (store.MenuCategory, error)
	UpdateMenuCategory(ctx context.Context, arg store.UpdateMenuCategoryParams) (store.MenuCategory, error)
	SoftDeleteMenuCategory(ctx context.Context, arg store.SoftDeleteMenuCategoryParams) (uuid.UUID, error)

	ListMenuItemsByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]store.MenuItem, error)
	GetMenuItem(ctx context.Context, arg store.GetMenuItemParams) (store.MenuItem, error)
	CreateMenuItem(ctx context.Context, arg store.CreateMenuItemParams) (store.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg store.UpdateMenuItemParams) (store.MenuItem, error)
	SoftDeleteMenuItem(ctx context.Context, arg store.SoftDeleteMenuItemParams) (uuid.UUID, error)
}

// Invalidator drops cached item detail after an admin edit.
// Satisfied by *cache.Loader.
type Invalidator interface {
	Invalidate(restaurantID, itemID uuid.UUID)
}

type MenuAdminHandler struct {
	store MenuAdminStore
	cache Invalidator
}

func NewMenuAdminHandler(s MenuAdminStore, cache Invalidator) *MenuAdminHandler {
	return &MenuAdminHandler{store: s, cache: cache}
}

func (h *MenuAdminHandler) RegisterRoutes(r chi.Router) {
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Post("/", h.CreateCategory)
		r.Put("/{id}", h.UpdateCategory)
		r.Delete("/{id}", h.DeleteCategory)
	})
	r.Route("/items", func(r chi.Router) {
		r.Get("/", h.ListItems)
		r.Post("/", h.CreateItem)
		r.Put("/{id}", h.UpdateItem)
		r.Delete("/{id}", h.DeleteItem)
	})
}

type categoryRequest struct {
	Name         localizedRequest `json:"name"`
	DisplayOrder int32            `json:"display_order"`
}

type categoryResponse struct {
	ID           uuid.UUID `json:"id"`
	NameFR       string    `json:"name_fr"`
	NameEN       string    `json:"name_en,omitempty"`
	NameTR       string    `json:"name_tr,omitempty"`
	DisplayOrder int32     `json:"display_order"`
}

func toCategoryResponse(c store.MenuCategory) categoryResponse {
	return categoryResponse{
		ID:           c.ID,
		NameFR:       c.NameFr,
		NameEN:       textString(c.NameEn),
		NameTR:       textString(c.NameTr),
		DisplayOrder: c.DisplayOrder,
	}
}

func (h *MenuAdminHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	categories, err := h.store.ListMenuCategories(r.Context(), rid)
	if err != nil {
		log.Printf("ERROR: failed to list categories: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list categories"})
		return
	}

	resp := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, toCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *MenuAdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name.FR == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name.fr is required"})
		return
	}

	category, err := h.store.CreateMenuCategory(r.Context(), store.CreateMenuCategoryParams{
		RestaurantID: rid,
		NameFr:       req.Name.FR,
		NameEn:       optText(req.Name.EN),
		NameTr:       optText(req.Name.TR),
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		log.Printf("ERROR: failed to create category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create category"})
		return
	}

	writeJSON(w, http.StatusCreated, toCategoryResponse(category))
}

func (h *MenuAdminHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category ID"})
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name.FR == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name.fr is required"})
		return
	}

	category, err := h.store.UpdateMenuCategory(r.Context(), store.UpdateMenuCategoryParams{
		ID:           id,
		RestaurantID: rid,
		NameFr:       req.Name.FR,
		NameEn:       optText(req.Name.EN),
		NameTr:       optText(req.Name.TR),
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
			return
		}
		log.Printf("ERROR: failed to update category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update category"})
		return
	}

	writeJSON(w, http.StatusOK, toCategoryResponse(category))
}

func (h *MenuAdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category ID"})
		return
	}

	if _, err := h.store.SoftDeleteMenuCategory(r.Context(), store.SoftDeleteMenuCategoryParams{ID: id, RestaurantID: rid}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
			return
		}
		log.Printf("ERROR: failed to delete category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete category"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type menuItemRequest struct {
	CategoryID     uuid.UUID        `json:"category_id"`
	Name           localizedRequest `json:"name"`
	Description    localizedRequest `json:"description"`
	Price          string           `json:"price"`
	PromotionPrice string           `json:"promotion_price,omitempty"`
	TaxPercentage  string           `json:"tax_percentage,omitempty"`
	ImageURL       string           `json:"image_url,omitempty"`
	AvailableFrom  string           `json:"available_from,omitempty"`
	AvailableUntil string           `json:"available_until,omitempty"`
	InStock        *bool            `json:"in_stock,omitempty"`
	DisplayOrder   int32            `json:"display_order"`
}

type menuItemResponse struct {
	ID             uuid.UUID `json:"id"`
	CategoryID     uuid.UUID `json:"category_id"`
	NameFR         string    `json:"name_fr"`
	NameEN         string    `json:"name_en,omitempty"`
	NameTR         string    `json:"name_tr,omitempty"`
	DescriptionFR  string    `json:"description_fr,omitempty"`
	DescriptionEN  string    `json:"description_en,omitempty"`
	DescriptionTR  string    `json:"description_tr,omitempty"`
	Price          string    `json:"price"`
	PromotionPrice string    `json:"promotion_price,omitempty"`
	TaxPercentage  string    `json:"tax_percentage,omitempty"`
	ImageURL       string    `json:"image_url,omitempty"`
	AvailableFrom  string    `json:"available_from,omitempty"`
	AvailableUntil string    `json:"available_until,omitempty"`
	InStock        bool      `json:"in_stock"`
	DisplayOrder   int32     `json:"display_order"`
}

func toMenuItemResponse(i store.MenuItem) menuItemResponse {
	resp := menuItemResponse{
		ID:             i.ID,
		CategoryID:     i.CategoryID,
		NameFR:         i.NameFr,
		NameEN:         textString(i.NameEn),
		NameTR:         textString(i.NameTr),
		DescriptionFR:  textString(i.DescriptionFr),
		DescriptionEN:  textString(i.DescriptionEn),
		DescriptionTR:  textString(i.DescriptionTr),
		Price:          numericToString(i.Price),
		ImageURL:       textString(i.ImageUrl),
		AvailableFrom:  textString(i.AvailableFrom),
		AvailableUntil: textString(i.AvailableUntil),
		InStock:        i.InStock,
		DisplayOrder:   i.DisplayOrder,
	}
	if i.PromotionPrice.Valid {
		resp.PromotionPrice = numericToString(i.PromotionPrice)
	}
	if i.TaxPercentage.Valid {
		resp.TaxPercentage = numericToString(i.TaxPercentage)
	}
	return resp
}

// itemParams validates the request body and converts it to store params.
func (h *MenuAdminHandler) itemParams(w http.ResponseWriter, req menuItemRequest) (store.CreateMenuItemParams, bool) {
	if req.CategoryID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category_id is required"})
		return store.CreateMenuItemParams{}, false
	}
	if req.Name.FR == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name.fr is required"})
		return store.CreateMenuItemParams{}, false
	}

	price, err := parsePrice(req.Price)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return store.CreateMenuItemParams{}, false
	}

	var promo pgtype.Numeric
	if req.PromotionPrice != "" {
		promo, err = parsePrice(req.PromotionPrice)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid promotion_price"})
			return store.CreateMenuItemParams{}, false
		}
	}

	var tax pgtype.Numeric
	if req.TaxPercentage != "" {
		tax, err = parsePrice(req.TaxPercentage)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tax_percentage"})
			return store.CreateMenuItemParams{}, false
		}
	}

	if (req.AvailableFrom == "") != (req.AvailableUntil == "") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "available_from and available_until must be set together"})
		return store.CreateMenuItemParams{}, false
	}

	inStock := true
	if req.InStock != nil {
		inStock = *req.InStock
	}

	return store.CreateMenuItemParams{
		CategoryID:     req.CategoryID,
		NameFr:         req.Name.FR,
		NameEn:         optText(req.Name.EN),
		NameTr:         optText(req.Name.TR),
		DescriptionFr:  optText(req.Description.FR),
		DescriptionEn:  optText(req.Description.EN),
		DescriptionTr:  optText(req.Description.TR),
		Price:          price,
		PromotionPrice: promo,
		TaxPercentage:  tax,
		ImageUrl:       optText(req.ImageURL),
		AvailableFrom:  optText(req.AvailableFrom),
		AvailableUntil: optText(req.AvailableUntil),
		InStock:        inStock,
		DisplayOrder:   req.DisplayOrder,
	}, true
}

func (h *MenuAdminHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	items, err := h.store.ListMenuItemsByRestaurant(r.Context(), rid)
	if err != nil {
		log.Printf("ERROR: failed to list items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list items"})
		return
	}

	resp := make([]menuItemResponse, 0, len(items))
	for _, i := range items {
		resp = append(resp, toMenuItemResponse(i))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *MenuAdminHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, ok := h.itemParams(w, req)
	if !ok {
		return
	}
	params.RestaurantID = rid

	item, err := h.store.CreateMenuItem(r.Context(), params)
	if err != nil {
		if isForeignKeyViolation(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category does not exist"})
			return
		}
		log.Printf("ERROR: failed to create item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create item"})
		return
	}

	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

func (h *MenuAdminHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, ok := h.itemParams(w, req)
	if !ok {
		return
	}

	item, err := h.store.UpdateMenuItem(r.Context(), store.UpdateMenuItemParams{
		ID:             id,
		RestaurantID:   rid,
		CategoryID:     params.CategoryID,
		NameFr:         params.NameFr,
		NameEn:         params.NameEn,
		NameTr:         params.NameTr,
		DescriptionFr:  params.DescriptionFr,
		DescriptionEn:  params.DescriptionEn,
		DescriptionTr:  params.DescriptionTr,
		Price:          params.Price,
		PromotionPrice: params.PromotionPrice,
		TaxPercentage:  params.TaxPercentage,
		ImageUrl:       params.ImageUrl,
		AvailableFrom:  params.AvailableFrom,
		AvailableUntil: params.AvailableUntil,
		InStock:        params.InStock,
		DisplayOrder:   params.DisplayOrder,
	})
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
		case isForeignKeyViolation(err):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category does not exist"})
		default:
			log.Printf("ERROR: failed to update item: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update item"})
		}
		return
	}

	h.cache.Invalidate(rid, id)
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

func (h *MenuAdminHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	if _, err := h.store.SoftDeleteMenuItem(r.Context(), store.SoftDeleteMenuItemParams{ID: id, RestaurantID: rid}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: failed to delete item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete item"})
		return
	}

	h.cache.Invalidate(rid, id)
	w.WriteHeader(http.StatusNoContent)
}
