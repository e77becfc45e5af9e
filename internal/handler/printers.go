package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/komanda-kiosk/api/internal/enum"
	"github.com/komanda-kiosk/api/internal/middleware"
	"github.com/komanda-kiosk/api/internal/printer"
	"github.com/komanda-kiosk/api/internal/receipt"
	"github.com/komanda-kiosk/api/internal/secrets"
	"github.com/komanda-kiosk/api/internal/store"
)

// PrinterStore defines the database operations needed by PrinterHandler.
// Satisfied by *store.Queries; narrow interface for testability.
type PrinterStore interface {
	ListPrintConfigs(ctx context.Context, restaurantID uuid.UUID) ([]store.PrintConfig, error)
	GetPrintConfig(ctx context.Context, arg store.GetPrintConfigParams) (store.PrintConfig, error)
	CreatePrintConfig(ctx context.Context, arg store.CreatePrintConfigParams) (store.PrintConfig, error)
	UpdatePrintConfig(ctx context.Context, arg store.UpdatePrintConfigParams) (store.PrintConfig, error)
	SoftDeletePrintConfig(ctx context.Context, arg store.SoftDeletePrintConfigParams) (uuid.UUID, error)
	GetRestaurant(ctx context.Context, id uuid.UUID) (store.Restaurant, error)
	CreateAuditLog(ctx context.Context, arg store.CreateAuditLogParams) (store.SecurityAuditLog, error)
	ListAuditLog(ctx context.Context, arg store.ListAuditLogParams) ([]store.SecurityAuditLog, error)
}

// Printer dispatches a composed receipt to every configured printer.
// Satisfied by *printer.Dispatcher.
type Printer interface {
	Dispatch(ctx context.Context, restaurantID uuid.UUID, doc receipt.Document) printer.Summary
}

// PrinterHandler manages printer configurations. API keys are sealed
// before they touch the database and never travel back out.
type PrinterHandler struct {
	store      PrinterStore
	box        *secrets.Box
	dispatcher Printer
}

func NewPrinterHandler(s PrinterStore, box *secrets.Box, dispatcher Printer) *PrinterHandler {
	return &PrinterHandler{store: s, box: box, dispatcher: dispatcher}
}

func (h *PrinterHandler) RegisterRoutes(r chi.Router) {
	r.Route("/printers", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Post("/test", h.TestPrint)
	})
	r.Get("/audit-log", h.ListAuditLog)
}

type printConfigRequest struct {
	Name        string `json:"name"`
	Transport   string `json:"transport"`
	PrinterID   string `json:"printer_id,omitempty"`
	EndpointURL string `json:"endpoint_url,omitempty"`
	APIKey      string `json:"api_key,omitempty"`
	PaperWidth  int32  `json:"paper_width,omitempty"`
}

type printConfigResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Transport   string    `json:"transport"`
	PrinterID   string    `json:"printer_id,omitempty"`
	EndpointURL string    `json:"endpoint_url,omitempty"`
	HasAPIKey   bool      `json:"has_api_key"`
	PaperWidth  int32     `json:"paper_width"`
}

func toPrintConfigResponse(c store.PrintConfig) printConfigResponse {
	return printConfigResponse{
		ID:          c.ID,
		Name:        c.Name,
		Transport:   c.Transport,
		PrinterID:   textString(c.PrinterID),
		EndpointURL: textString(c.EndpointUrl),
		HasAPIKey:   c.ApiKeyEncrypted.Valid,
		PaperWidth:  c.PaperWidth,
	}
}

func validTransport(t string) bool {
	switch t {
	case enum.PrintTransportPrintNode, enum.PrintTransportQZTray, enum.PrintTransportBrowser:
		return true
	}
	return false
}

// configParams validates the request and seals the API key. A false
// return means the response has been written.
func (h *PrinterHandler) configParams(w http.ResponseWriter, req printConfigRequest) (store.CreatePrintConfigParams, bool) {
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return store.CreatePrintConfigParams{}, false
	}
	if !validTransport(req.Transport) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown transport"})
		return store.CreatePrintConfigParams{}, false
	}
	if req.Transport != enum.PrintTransportBrowser && req.PrinterID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "printer_id is required for this transport"})
		return store.CreatePrintConfigParams{}, false
	}
	if req.Transport == enum.PrintTransportQZTray && req.EndpointURL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "endpoint_url is required for QZ_TRAY"})
		return store.CreatePrintConfigParams{}, false
	}

	var sealed pgtype.Text
	if req.APIKey != "" {
		s, err := h.box.Seal(req.APIKey)
		if err != nil {
			log.Printf("ERROR: failed to seal printer API key: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to store API key"})
			return store.CreatePrintConfigParams{}, false
		}
		sealed = pgtype.Text{String: s, Valid: true}
	}

	paperWidth := req.PaperWidth
	if paperWidth == 0 {
		paperWidth = 42
	}

	return store.CreatePrintConfigParams{
		Name:            req.Name,
		Transport:       req.Transport,
		PrinterID:       optText(req.PrinterID),
		EndpointUrl:     optText(req.EndpointURL),
		ApiKeyEncrypted: sealed,
		PaperWidth:      paperWidth,
	}, true
}

func (h *PrinterHandler) audit(ctx context.Context, restaurantID uuid.UUID, action, detail string) {
	actor := pgtype.UUID{}
	if claims := middleware.ClaimsFromContext(ctx); claims != nil {
		actor = pgtype.UUID{Bytes: claims.UserID, Valid: true}
	}
	if _, err := h.store.CreateAuditLog(ctx, store.CreateAuditLogParams{
		RestaurantID: restaurantID,
		ActorID:      actor,
		Action:       action,
		Detail:       detail,
	}); err != nil {
		log.Printf("ERROR: failed to write audit log: %v", err)
	}
}

func (h *PrinterHandler) List(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	configs, err := h.store.ListPrintConfigs(r.Context(), rid)
	if err != nil {
		log.Printf("ERROR: failed to list print configs: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list printers"})
		return
	}

	resp := make([]printConfigResponse, 0, len(configs))
	for _, c := range configs {
		resp = append(resp, toPrintConfigResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PrinterHandler) Create(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	var req printConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, ok := h.configParams(w, req)
	if !ok {
		return
	}
	params.RestaurantID = rid

	config, err := h.store.CreatePrintConfig(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: failed to create print config: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create printer"})
		return
	}

	h.audit(r.Context(), rid, "printer_config_created", config.Name)
	writeJSON(w, http.StatusCreated, toPrintConfigResponse(config))
}

func (h *PrinterHandler) Update(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid printer ID"})
		return
	}

	var req printConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, ok := h.configParams(w, req)
	if !ok {
		return
	}

	// An omitted api_key keeps the stored one.
	if !params.ApiKeyEncrypted.Valid {
		existing, err := h.store.GetPrintConfig(r.Context(), store.GetPrintConfigParams{ID: id, RestaurantID: rid})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "printer not found"})
				return
			}
			log.Printf("ERROR: failed to get print config: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update printer"})
			return
		}
		params.ApiKeyEncrypted = existing.ApiKeyEncrypted
	}

	config, err := h.store.UpdatePrintConfig(r.Context(), store.UpdatePrintConfigParams{
		ID:              id,
		RestaurantID:    rid,
		Name:            params.Name,
		Transport:       params.Transport,
		PrinterID:       params.PrinterID,
		EndpointUrl:     params.EndpointUrl,
		ApiKeyEncrypted: params.ApiKeyEncrypted,
		PaperWidth:      params.PaperWidth,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "printer not found"})
			return
		}
		log.Printf("ERROR: failed to update print config: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update printer"})
		return
	}

	h.audit(r.Context(), rid, "printer_config_updated", config.Name)
	writeJSON(w, http.StatusOK, toPrintConfigResponse(config))
}

func (h *PrinterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid printer ID"})
		return
	}

	if _, err := h.store.SoftDeletePrintConfig(r.Context(), store.SoftDeletePrintConfigParams{ID: id, RestaurantID: rid}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "printer not found"})
			return
		}
		log.Printf("ERROR: failed to delete print config: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete printer"})
		return
	}

	h.audit(r.Context(), rid, "printer_config_deleted", id.String())
	w.WriteHeader(http.StatusNoContent)
}

// TestPrint sends a sample receipt through every active printer so staff
// can verify wiring without placing an order.
func (h *PrinterHandler) TestPrint(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	rest, err := h.store.GetRestaurant(r.Context(), rid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "restaurant not found"})
			return
		}
		log.Printf("ERROR: failed to get restaurant: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to run test print"})
		return
	}

	doc := testDocument(rest)
	summary := h.dispatcher.Dispatch(r.Context(), rid, doc)

	h.audit(r.Context(), rid, "printer_test_print", "")
	writeJSON(w, http.StatusOK, summary)
}

func testDocument(rest store.Restaurant) receipt.Document {
	labels := receipt.LabelsFor(rest.DefaultLanguage)
	unit := decimal.New(0, 0)
	return receipt.Document{
		Restaurant: receipt.Restaurant{
			Name:         rest.Name,
			Address:      textString(rest.Address),
			Phone:        textString(rest.Phone),
			CurrencyCode: rest.CurrencyCode,
		},
		Meta: receipt.Meta{
			OrderNumber: "TEST-000",
			OrderType:   enum.OrderTypeTakeaway,
			Language:    rest.DefaultLanguage,
			PlacedAt:    time.Now(),
		},
		Labels:   labels,
		Currency: receipt.CurrencySymbol(rest.CurrencyCode),
		Lines: []receipt.Line{
			{Quantity: 1, Name: "TEST", UnitPrice: unit, Total: unit},
		},
		Subtotal: unit,
		Tax:      unit,
		Total:    unit,
	}
}

type auditLogResponse struct {
	ID        uuid.UUID  `json:"id"`
	ActorID   *uuid.UUID `json:"actor_id,omitempty"`
	Action    string     `json:"action"`
	Detail    string     `json:"detail,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (h *PrinterHandler) ListAuditLog(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	entries, err := h.store.ListAuditLog(r.Context(), store.ListAuditLogParams{RestaurantID: rid, Limit: 100})
	if err != nil {
		log.Printf("ERROR: failed to list audit log: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list audit log"})
		return
	}

	resp := make([]auditLogResponse, 0, len(entries))
	for _, e := range entries {
		entry := auditLogResponse{
			ID:        e.ID,
			Action:    e.Action,
			Detail:    e.Detail,
			CreatedAt: e.CreatedAt.Time,
		}
		if e.ActorID.Valid {
			id := uuid.UUID(e.ActorID.Bytes)
			entry.ActorID = &id
		}
		resp = append(resp, entry)
	}
	writeJSON(w, http.StatusOK, resp)
}
