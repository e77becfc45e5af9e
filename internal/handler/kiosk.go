package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/komanda-kiosk/api/internal/cache"
	"github.com/komanda-kiosk/api/internal/catalog"
	"github.com/komanda-kiosk/api/internal/service"
)

// Menu defines the catalog reads needed by KioskHandler.
// Satisfied by *service.CatalogService.
type Menu interface {
	Categories(ctx context.Context, restaurantID uuid.UUID) ([]service.Category, error)
	Items(ctx context.Context, restaurantID, categoryID uuid.UUID) ([]catalog.MenuItem, error)
}

// ItemLoader resolves full item detail through the cache layer.
// Satisfied by *cache.Loader.
type ItemLoader interface {
	Item(ctx context.Context, restaurantID, itemID uuid.UUID) (catalog.MenuItem, error)
	Batch(ctx context.Context, restaurantID uuid.UUID, itemIDs []uuid.UUID) map[uuid.UUID]cache.BatchResult
}

// ImagePrefetcher warms item image URLs ahead of display.
// Satisfied by *cache.Prefetcher.
type ImagePrefetcher interface {
	Enqueue(url string)
}

// KioskHandler serves the public, unauthenticated menu for the kiosk UI.
type KioskHandler struct {
	menu     Menu
	loader   ItemLoader
	prefetch ImagePrefetcher
}

// NewKioskHandler creates a KioskHandler. prefetch may be nil, in which
// case no image warming happens.
func NewKioskHandler(menu Menu, loader ItemLoader, prefetch ImagePrefetcher) *KioskHandler {
	return &KioskHandler{menu: menu, loader: loader, prefetch: prefetch}
}

func (h *KioskHandler) enqueueImages(items []catalog.MenuItem) {
	if h.prefetch == nil {
		return
	}
	for _, item := range items {
		if item.ImageURL != "" {
			h.prefetch.Enqueue(item.ImageURL)
		}
	}
}

func (h *KioskHandler) RegisterRoutes(r chi.Router) {
	r.Get("/categories", h.ListCategories)
	r.Get("/categories/{cid}/items", h.ListItems)
	r.Get("/items/{id}", h.GetItem)
	r.Post("/items/batch", h.BatchItems)
}

func (h *KioskHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	categories, err := h.menu.Categories(r.Context(), rid)
	if err != nil {
		log.Printf("ERROR: failed to list categories: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list categories"})
		return
	}

	writeJSON(w, http.StatusOK, categories)
}

func (h *KioskHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	cid, err := uuid.Parse(chi.URLParam(r, "cid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category ID"})
		return
	}

	items, err := h.menu.Items(r.Context(), rid, cid)
	if err != nil {
		log.Printf("ERROR: failed to list items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list items"})
		return
	}

	h.enqueueImages(items)
	writeJSON(w, http.StatusOK, items)
}

func (h *KioskHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	item, err := h.loader.Item(r.Context(), rid, itemID)
	if err != nil {
		if errors.Is(err, service.ErrItemNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: failed to load item %s: %v", itemID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load item"})
		return
	}

	writeJSON(w, http.StatusOK, item)
}

type batchItemsRequest struct {
	ItemIDs []uuid.UUID `json:"item_ids"`
}

type batchItemsResponse struct {
	Items  []catalog.MenuItem `json:"items"`
	Missed []uuid.UUID        `json:"missed,omitempty"`
}

// BatchItems resolves many item details in one round trip. Ids that fail
// to resolve are reported in "missed" without failing the rest.
func (h *KioskHandler) BatchItems(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	var req batchItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.ItemIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "item_ids is required"})
		return
	}
	if len(req.ItemIDs) > 100 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "too many item ids"})
		return
	}

	results := h.loader.Batch(r.Context(), rid, req.ItemIDs)

	resp := batchItemsResponse{Items: make([]catalog.MenuItem, 0, len(req.ItemIDs))}
	for _, id := range req.ItemIDs {
		res, ok := results[id]
		if !ok || res.Err != nil {
			resp.Missed = append(resp.Missed, id)
			continue
		}
		resp.Items = append(resp.Items, res.Item)
	}

	h.enqueueImages(resp.Items)
	writeJSON(w, http.StatusOK, resp)
}
