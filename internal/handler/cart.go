package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/komanda-kiosk/api/internal/cart"
	"github.com/komanda-kiosk/api/internal/security"
	"github.com/komanda-kiosk/api/internal/selection"
	"github.com/komanda-kiosk/api/internal/service"
)

// sessionHeader carries the kiosk's anonymous session identifier. The
// kiosk UI generates it once per device session and sends it on every
// cart request.
const sessionHeader = "X-Kiosk-Session"

// CartHandler serves the public cart endpoints. A cart.Manager is built
// per request from the saved session so concurrent kiosks never share
// in-memory state.
type CartHandler struct {
	store  cart.Store
	loader ItemLoader
}

func NewCartHandler(store cart.Store, loader ItemLoader) *CartHandler {
	return &CartHandler{store: store, loader: loader}
}

func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.GetCart)
	r.Delete("/", h.ClearCart)
	r.Post("/items", h.AddItem)
	r.Patch("/items/{itemID}", h.UpdateQuantity)
	r.Delete("/items/{itemID}", h.RemoveItem)
	r.Patch("/items/{itemID}/toppings", h.UpdateToppingQuantity)
	r.Delete("/items/{itemID}/toppings/{tcid}/{tid}", h.RemoveTopping)
}

type cartItemResponse struct {
	ID                  uuid.UUID            `json:"id"`
	MenuItemID          uuid.UUID            `json:"menu_item_id"`
	Name                string               `json:"name"`
	Quantity            int32                `json:"quantity"`
	UnitPrice           decimal.Decimal      `json:"unit_price"`
	LineTotal           decimal.Decimal      `json:"line_total"`
	Selection           *selection.Selection `json:"selection,omitempty"`
	SpecialInstructions string               `json:"special_instructions,omitempty"`
}

type cartResponse struct {
	Items    []cartItemResponse `json:"items"`
	Subtotal decimal.Decimal    `json:"subtotal"`
}

func toCartResponse(m *cart.Manager) cartResponse {
	items := m.Items()
	resp := cartResponse{
		Items:    make([]cartItemResponse, 0, len(items)),
		Subtotal: m.Subtotal(),
	}
	for _, it := range items {
		resp.Items = append(resp.Items, cartItemResponse{
			ID:                  it.ID,
			MenuItemID:          it.MenuItem.ID,
			Name:                it.MenuItem.Name.FR,
			Quantity:            it.Quantity,
			UnitPrice:           it.UnitPrice,
			LineTotal:           it.LineTotal(),
			Selection:           it.Selection,
			SpecialInstructions: it.SpecialInstructions,
		})
	}
	return resp
}

// manager loads (or starts) the cart for the request's session. A nil
// return means the response has already been written.
func (h *CartHandler) manager(w http.ResponseWriter, r *http.Request) *cart.Manager {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return nil
	}
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" || len(sessionID) > 128 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing or invalid session header"})
		return nil
	}

	m, err := cart.NewManager(r.Context(), h.store, rid, sessionID)
	if err != nil {
		log.Printf("ERROR: failed to load cart session: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load cart"})
		return nil
	}
	return m
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	m := h.manager(w, r)
	if m == nil {
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(m))
}

type addItemRequest struct {
	MenuItemID          uuid.UUID            `json:"menu_item_id"`
	Quantity            int32                `json:"quantity"`
	Selection           *selection.Selection `json:"selection,omitempty"`
	SpecialInstructions string               `json:"special_instructions,omitempty"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	m := h.manager(w, r)
	if m == nil {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.MenuItemID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "menu_item_id is required"})
		return
	}
	if req.Quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must be positive"})
		return
	}

	rid, _ := restaurantID(r)
	item, err := h.loader.Item(r.Context(), rid, req.MenuItemID)
	if err != nil {
		if errors.Is(err, service.ErrItemNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: failed to load item %s: %v", req.MenuItemID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load item"})
		return
	}

	instructions, err := security.SanitizeInstructions(req.SpecialInstructions)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid special_instructions"})
		return
	}

	if _, err := m.AddItem(r.Context(), item, req.Quantity, req.Selection, instructions); err != nil {
		var vErr *cart.ValidationError
		if errors.As(err, &vErr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"error":      "invalid selection",
				"violations": vErr.Violations,
			})
			return
		}
		log.Printf("ERROR: failed to add cart item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to add item"})
		return
	}

	writeJSON(w, http.StatusCreated, toCartResponse(m))
}

type updateQuantityRequest struct {
	Quantity int32 `json:"quantity"`
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	m := h.manager(w, r)
	if m == nil {
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := m.UpdateQuantity(r.Context(), itemID, req.Quantity); err != nil {
		if errors.Is(err, cart.ErrItemNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not in cart"})
			return
		}
		log.Printf("ERROR: failed to update cart quantity: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update quantity"})
		return
	}

	writeJSON(w, http.StatusOK, toCartResponse(m))
}

type updateToppingRequest struct {
	CategoryID uuid.UUID `json:"category_id"`
	ToppingID  uuid.UUID `json:"topping_id"`
	Quantity   int32     `json:"quantity"`
}

func (h *CartHandler) UpdateToppingQuantity(w http.ResponseWriter, r *http.Request) {
	m := h.manager(w, r)
	if m == nil {
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var req updateToppingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.CategoryID == uuid.Nil || req.ToppingID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category_id and topping_id are required"})
		return
	}

	if err := m.UpdateToppingQuantity(r.Context(), itemID, req.CategoryID, req.ToppingID, req.Quantity); err != nil {
		h.writeCartError(w, err, "failed to update topping")
		return
	}

	writeJSON(w, http.StatusOK, toCartResponse(m))
}

func (h *CartHandler) RemoveTopping(w http.ResponseWriter, r *http.Request) {
	m := h.manager(w, r)
	if m == nil {
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}
	tcid, err := uuid.Parse(chi.URLParam(r, "tcid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid topping category ID"})
		return
	}
	tid, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid topping ID"})
		return
	}

	if err := m.RemoveToppingFromItem(r.Context(), itemID, tcid, tid); err != nil {
		h.writeCartError(w, err, "failed to remove topping")
		return
	}

	writeJSON(w, http.StatusOK, toCartResponse(m))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	m := h.manager(w, r)
	if m == nil {
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	if err := m.RemoveItem(r.Context(), itemID); err != nil {
		if errors.Is(err, cart.ErrItemNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not in cart"})
			return
		}
		log.Printf("ERROR: failed to remove cart item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to remove item"})
		return
	}

	writeJSON(w, http.StatusOK, toCartResponse(m))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	m := h.manager(w, r)
	if m == nil {
		return
	}
	if err := m.Clear(r.Context()); err != nil {
		log.Printf("ERROR: failed to clear cart: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to clear cart"})
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(m))
}

func (h *CartHandler) writeCartError(w http.ResponseWriter, err error, fallback string) {
	var vErr *cart.ValidationError
	switch {
	case errors.Is(err, cart.ErrItemNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not in cart"})
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":      "invalid selection",
			"violations": vErr.Violations,
		})
	default:
		log.Printf("ERROR: %s: %v", fallback, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": fallback})
	}
}
