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
	"github.com/shopspring/decimal"

	"github.com/komanda-kiosk/api/internal/store"
)

// OptionAdminStore defines the database operations needed by OptionAdminHandler.
// Satisfied by *store.Queries; narrow interface for testability.
type OptionAdminStore interface {
	GetMenuItem(ctx context.Context, arg store.GetMenuItemParams) (store.MenuItem, error)
	ListOptionsByMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]store.MenuItemOption, error)
	GetMenuItemOption(ctx context.Context, id uuid.UUID) (store.MenuItemOption, error)
	CreateMenuItemOption(ctx context.Context, arg store.CreateMenuItemOptionParams) (store.MenuItemOption, error)
	UpdateMenuItemOption(ctx context.Context, arg store.UpdateMenuItemOptionParams) (store.MenuItemOption, error)
	SoftDeleteMenuItemOption(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	ListChoicesByOption(ctx context.Context, optionID uuid.UUID) ([]store.OptionChoice, error)
	CreateOptionChoice(ctx context.Context, arg store.CreateOptionChoiceParams) (store.OptionChoice, error)
	UpdateOptionChoice(ctx context.Context, arg store.UpdateOptionChoiceParams) (store.OptionChoice, error)
	SoftDeleteOptionChoice(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// OptionAdminHandler manages the options and choices attached to a menu
// item. All routes are nested under the owning item so tenancy is
// checked once against the item.
type OptionAdminHandler struct {
	store OptionAdminStore
	cache Invalidator
}

func NewOptionAdminHandler(s OptionAdminStore, cache Invalidator) *OptionAdminHandler {
	return &OptionAdminHandler{store: s, cache: cache}
}

func (h *OptionAdminHandler) RegisterRoutes(r chi.Router) {
	r.Route("/items/{itemID}/options", func(r chi.Router) {
		r.Get("/", h.ListOptions)
		r.Post("/", h.CreateOption)
		r.Put("/{optionID}", h.UpdateOption)
		r.Delete("/{optionID}", h.DeleteOption)
		r.Post("/{optionID}/choices", h.CreateChoice)
		r.Put("/{optionID}/choices/{choiceID}", h.UpdateChoice)
		r.Delete("/{optionID}/choices/{choiceID}", h.DeleteChoice)
	})
}

type optionRequest struct {
	Name         localizedRequest `json:"name"`
	Required     bool             `json:"required"`
	Multiple     bool             `json:"multiple"`
	DisplayOrder int32            `json:"display_order"`
}

type choiceRequest struct {
	Name         localizedRequest `json:"name"`
	PriceDelta   string           `json:"price_delta,omitempty"`
	DisplayOrder int32            `json:"display_order"`
}

type optionResponse struct {
	ID           uuid.UUID `json:"id"`
	NameFR       string    `json:"name_fr"`
	NameEN       string    `json:"name_en,omitempty"`
	NameTR       string    `json:"name_tr,omitempty"`
	Required     bool      `json:"required"`
	Multiple     bool      `json:"multiple"`
	DisplayOrder int32     `json:"display_order"`
}

type choiceResponse struct {
	ID           uuid.UUID `json:"id"`
	NameFR       string    `json:"name_fr"`
	NameEN       string    `json:"name_en,omitempty"`
	NameTR       string    `json:"name_tr,omitempty"`
	PriceDelta   string    `json:"price_delta,omitempty"`
	DisplayOrder int32     `json:"display_order"`
}

func toOptionResponse(o store.MenuItemOption) optionResponse {
	return optionResponse{
		ID:           o.ID,
		NameFR:       o.NameFr,
		NameEN:       textString(o.NameEn),
		NameTR:       textString(o.NameTr),
		Required:     o.Required,
		Multiple:     o.Multiple,
		DisplayOrder: o.DisplayOrder,
	}
}

func toChoiceResponse(c store.OptionChoice) choiceResponse {
	resp := choiceResponse{
		ID:           c.ID,
		NameFR:       c.NameFr,
		NameEN:       textString(c.NameEn),
		NameTR:       textString(c.NameTr),
		DisplayOrder: c.DisplayOrder,
	}
	if c.PriceDelta.Valid {
		resp.PriceDelta = numericToString(c.PriceDelta)
	}
	return resp
}

// parseDelta parses a choice price delta. Unlike item prices, deltas may
// be negative.
func parseDelta(s string) (pgtype.Numeric, error) {
	if s == "" {
		return pgtype.Numeric{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return pgtype.Numeric{}, err
	}
	var n pgtype.Numeric
	if err := n.Scan(d.String()); err != nil {
		return pgtype.Numeric{}, err
	}
	return n, nil
}

// ownedItem verifies the item belongs to the request's restaurant. A
// false return means the response has already been written.
func (h *OptionAdminHandler) ownedItem(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return uuid.Nil, uuid.Nil, false
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return uuid.Nil, uuid.Nil, false
	}

	if _, err := h.store.GetMenuItem(r.Context(), store.GetMenuItemParams{ID: itemID, RestaurantID: rid}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return uuid.Nil, uuid.Nil, false
		}
		log.Printf("ERROR: failed to get item %s: %v", itemID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get item"})
		return uuid.Nil, uuid.Nil, false
	}
	return rid, itemID, true
}

// ownedOption verifies the option belongs to the route's item.
func (h *OptionAdminHandler) ownedOption(w http.ResponseWriter, r *http.Request, itemID uuid.UUID) (store.MenuItemOption, bool) {
	optionID, err := uuid.Parse(chi.URLParam(r, "optionID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid option ID"})
		return store.MenuItemOption{}, false
	}

	option, err := h.store.GetMenuItemOption(r.Context(), optionID)
	if err != nil || option.MenuItemID != itemID {
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			log.Printf("ERROR: failed to get option %s: %v", optionID, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get option"})
			return store.MenuItemOption{}, false
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "option not found"})
		return store.MenuItemOption{}, false
	}
	return option, true
}

func (h *OptionAdminHandler) ListOptions(w http.ResponseWriter, r *http.Request) {
	_, itemID, ok := h.ownedItem(w, r)
	if !ok {
		return
	}

	options, err := h.store.ListOptionsByMenuItem(r.Context(), itemID)
	if err != nil {
		log.Printf("ERROR: failed to list options: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list options"})
		return
	}

	type optionWithChoices struct {
		optionResponse
		Choices []choiceResponse `json:"choices"`
	}
	resp := make([]optionWithChoices, 0, len(options))
	for _, o := range options {
		choices, err := h.store.ListChoicesByOption(r.Context(), o.ID)
		if err != nil {
			log.Printf("ERROR: failed to list choices for option %s: %v", o.ID, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list options"})
			return
		}
		entry := optionWithChoices{optionResponse: toOptionResponse(o), Choices: make([]choiceResponse, 0, len(choices))}
		for _, c := range choices {
			entry.Choices = append(entry.Choices, toChoiceResponse(c))
		}
		resp = append(resp, entry)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *OptionAdminHandler) CreateOption(w http.ResponseWriter, r *http.Request) {
	rid, itemID, ok := h.ownedItem(w, r)
	if !ok {
		return
	}

	var req optionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name.FR == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name.fr is required"})
		return
	}

	option, err := h.store.CreateMenuItemOption(r.Context(), store.CreateMenuItemOptionParams{
		MenuItemID:   itemID,
		NameFr:       req.Name.FR,
		NameEn:       optText(req.Name.EN),
		NameTr:       optText(req.Name.TR),
		Required:     req.Required,
		Multiple:     req.Multiple,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		log.Printf("ERROR: failed to create option: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create option"})
		return
	}

	h.cache.Invalidate(rid, itemID)
	writeJSON(w, http.StatusCreated, toOptionResponse(option))
}

func (h *OptionAdminHandler) UpdateOption(w http.ResponseWriter, r *http.Request) {
	rid, itemID, ok := h.ownedItem(w, r)
	if !ok {
		return
	}
	existing, ok := h.ownedOption(w, r, itemID)
	if !ok {
		return
	}

	var req optionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name.FR == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name.fr is required"})
		return
	}

	option, err := h.store.UpdateMenuItemOption(r.Context(), store.UpdateMenuItemOptionParams{
		ID:           existing.ID,
		NameFr:       req.Name.FR,
		NameEn:       optText(req.Name.EN),
		NameTr:       optText(req.Name.TR),
		Required:     req.Required,
		Multiple:     req.Multiple,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "option not found"})
			return
		}
		log.Printf("ERROR: failed to update option: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update option"})
		return
	}

	h.cache.Invalidate(rid, itemID)
	writeJSON(w, http.StatusOK, toOptionResponse(option))
}

func (h *OptionAdminHandler) DeleteOption(w http.ResponseWriter, r *http.Request) {
	rid, itemID, ok := h.ownedItem(w, r)
	if !ok {
		return
	}
	existing, ok := h.ownedOption(w, r, itemID)
	if !ok {
		return
	}

	if _, err := h.store.SoftDeleteMenuItemOption(r.Context(), existing.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "option not found"})
			return
		}
		log.Printf("ERROR: failed to delete option: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete option"})
		return
	}

	h.cache.Invalidate(rid, itemID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *OptionAdminHandler) CreateChoice(w http.ResponseWriter, r *http.Request) {
	rid, itemID, ok := h.ownedItem(w, r)
	if !ok {
		return
	}
	option, ok := h.ownedOption(w, r, itemID)
	if !ok {
		return
	}

	var req choiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name.FR == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name.fr is required"})
		return
	}
	delta, err := parseDelta(req.PriceDelta)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price_delta"})
		return
	}

	choice, err := h.store.CreateOptionChoice(r.Context(), store.CreateOptionChoiceParams{
		OptionID:     option.ID,
		NameFr:       req.Name.FR,
		NameEn:       optText(req.Name.EN),
		NameTr:       optText(req.Name.TR),
		PriceDelta:   delta,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		log.Printf("ERROR: failed to create choice: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create choice"})
		return
	}

	h.cache.Invalidate(rid, itemID)
	writeJSON(w, http.StatusCreated, toChoiceResponse(choice))
}

func (h *OptionAdminHandler) UpdateChoice(w http.ResponseWriter, r *http.Request) {
	rid, itemID, ok := h.ownedItem(w, r)
	if !ok {
		return
	}
	if _, ok := h.ownedOption(w, r, itemID); !ok {
		return
	}
	choiceID, err := uuid.Parse(chi.URLParam(r, "choiceID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid choice ID"})
		return
	}

	var req choiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name.FR == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name.fr is required"})
		return
	}
	delta, err := parseDelta(req.PriceDelta)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price_delta"})
		return
	}

	choice, err := h.store.UpdateOptionChoice(r.Context(), store.UpdateOptionChoiceParams{
		ID:           choiceID,
		NameFr:       req.Name.FR,
		NameEn:       optText(req.Name.EN),
		NameTr:       optText(req.Name.TR),
		PriceDelta:   delta,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "choice not found"})
			return
		}
		log.Printf("ERROR: failed to update choice: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update choice"})
		return
	}

	h.cache.Invalidate(rid, itemID)
	writeJSON(w, http.StatusOK, toChoiceResponse(choice))
}

func (h *OptionAdminHandler) DeleteChoice(w http.ResponseWriter, r *http.Request) {
	rid, itemID, ok := h.ownedItem(w, r)
	if !ok {
		return
	}
	if _, ok := h.ownedOption(w, r, itemID); !ok {
		return
	}
	choiceID, err := uuid.Parse(chi.URLParam(r, "choiceID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid choice ID"})
		return
	}

	if _, err := h.store.SoftDeleteOptionChoice(r.Context(), choiceID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "choice not found"})
			return
		}
		log.Printf("ERROR: failed to delete choice: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete choice"})
		return
	}

	h.cache.Invalidate(rid, itemID)
	w.WriteHeader(http.StatusNoContent)
}
