package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/komanda-kiosk/api/internal/cart"
	"github.com/komanda-kiosk/api/internal/enum"
	"github.com/komanda-kiosk/api/internal/receipt"
	"github.com/komanda-kiosk/api/internal/security"
	"github.com/komanda-kiosk/api/internal/service"
	"github.com/komanda-kiosk/api/internal/store"
)

// Orders defines the order operations needed by OrderHandler.
// Satisfied by *service.OrderService.
type Orders interface {
	Checkout(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error)
	Order(ctx context.Context, restaurantID, orderID uuid.UUID) (store.Order, store.Payment, error)
	Receipt(ctx context.Context, restaurantID, orderID uuid.UUID) (receipt.Document, error)
	UpdateOrderStatus(ctx context.Context, restaurantID, orderID uuid.UUID, status string) (store.Order, error)
	UpdatePaymentStatus(ctx context.Context, restaurantID, orderID uuid.UUID, status string) (store.Payment, error)
}

// OrderHandler serves checkout and order tracking for the kiosk, plus
// the status transitions used by staff.
type OrderHandler struct {
	orders    Orders
	cartStore cart.Store
}

func NewOrderHandler(orders Orders, cartStore cart.Store) *OrderHandler {
	return &OrderHandler{orders: orders, cartStore: cartStore}
}

// RegisterKioskRoutes mounts the public order endpoints.
func (h *OrderHandler) RegisterKioskRoutes(r chi.Router) {
	r.Post("/checkout", h.Checkout)
	r.Get("/orders/{id}", h.GetOrder)
	r.Get("/orders/{id}/receipt", h.GetReceipt)
}

// RegisterStaffRoutes mounts the authenticated order endpoints.
func (h *OrderHandler) RegisterStaffRoutes(r chi.Router) {
	r.Get("/{id}", h.GetOrder)
	r.Get("/{id}/receipt", h.GetReceipt)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Patch("/{id}/payment", h.UpdatePayment)
}

type checkoutRequest struct {
	OrderType     string `json:"order_type"`
	TableNumber   string `json:"table_number,omitempty"`
	PaymentMethod string `json:"payment_method"`
	Language      string `json:"language,omitempty"`
}

type orderResponse struct {
	ID          uuid.UUID `json:"id"`
	OrderNumber string    `json:"order_number"`
	OrderType   string    `json:"order_type"`
	TableNumber string    `json:"table_number,omitempty"`
	Status      string    `json:"status"`
	Language    string    `json:"language"`
	Subtotal    string    `json:"subtotal"`
	TaxAmount   string    `json:"tax_amount"`
	TotalAmount string    `json:"total_amount"`
	PlacedAt    time.Time `json:"placed_at"`
}

type paymentResponse struct {
	ID     uuid.UUID `json:"id"`
	Method string    `json:"method"`
	Status string    `json:"status"`
	Amount string    `json:"amount"`
}

type printResultResponse struct {
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Total      int `json:"total"`
}

type checkoutResponse struct {
	Order       orderResponse       `json:"order"`
	Payment     paymentResponse     `json:"payment"`
	ReceiptText string              `json:"receipt_text"`
	Print       printResultResponse `json:"print"`
}

func toOrderResponse(o store.Order) orderResponse {
	return orderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		OrderType:   o.OrderType,
		TableNumber: textString(o.TableNumber),
		Status:      o.Status,
		Language:    o.Language,
		Subtotal:    numericToString(o.Subtotal),
		TaxAmount:   numericToString(o.TaxAmount),
		TotalAmount: numericToString(o.TotalAmount),
		PlacedAt:    o.PlacedAt.Time,
	}
}

func toPaymentResponse(p store.Payment) paymentResponse {
	return paymentResponse{
		ID:     p.ID,
		Method: p.Method,
		Status: p.Status,
		Amount: numericToString(p.Amount),
	}
}

// Checkout turns the session's saved cart into a committed order. The
// cart is cleared only after the order commits.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" || len(sessionID) > 128 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing or invalid session header"})
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.OrderType == enum.OrderTypeDineIn && req.TableNumber == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "table_number is required for dine-in orders"})
		return
	}

	tableNumber, err := security.SanitizeInstructions(req.TableNumber)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table_number"})
		return
	}

	m, err := cart.NewManager(r.Context(), h.cartStore, rid, sessionID)
	if err != nil {
		log.Printf("ERROR: failed to load cart session: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load cart"})
		return
	}

	result, err := h.orders.Checkout(r.Context(), service.CheckoutRequest{
		RestaurantID:  rid,
		OrderType:     req.OrderType,
		TableNumber:   tableNumber,
		PaymentMethod: req.PaymentMethod,
		Language:      req.Language,
		Items:         m.Items(),
	})
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}

	if err := m.Clear(r.Context()); err != nil {
		// The order is committed; a stale cart is recoverable.
		log.Printf("ERROR: failed to clear cart after checkout: %v", err)
	}

	writeJSON(w, http.StatusCreated, checkoutResponse{
		Order:       toOrderResponse(result.Order),
		Payment:     toPaymentResponse(result.Payment),
		ReceiptText: receipt.RenderText(result.Receipt),
		Print: printResultResponse{
			Successful: result.Print.Successful,
			Failed:     result.Print.Failed,
			Total:      result.Print.Total,
		},
	})
}

func (h *OrderHandler) writeCheckoutError(w http.ResponseWriter, err error) {
	var vErr *cart.ValidationError
	switch {
	case errors.Is(err, service.ErrEmptyCart):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cart is empty"})
	case errors.Is(err, service.ErrInvalidOrderType):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order type"})
	case errors.Is(err, service.ErrInvalidPaymentMethod):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment method"})
	case errors.Is(err, service.ErrInvalidQuantity):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid quantity"})
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":      "invalid selection",
			"violations": vErr.Violations,
		})
	default:
		log.Printf("ERROR: checkout failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "checkout failed"})
	}
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, payment, err := h.orders.Order(r.Context(), rid, orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: failed to get order %s: %v", orderID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get order"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"order":   toOrderResponse(order),
		"payment": toPaymentResponse(payment),
	})
}

// GetReceipt renders the committed order's receipt. The format query
// parameter selects the renderer; all three carry the same content.
func (h *OrderHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	format := strings.ToUpper(r.URL.Query().Get("format"))
	if format == "" {
		format = enum.ReceiptFormatText
	}

	doc, err := h.orders.Receipt(r.Context(), rid, orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: failed to build receipt for order %s: %v", orderID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to build receipt"})
		return
	}

	switch format {
	case enum.ReceiptFormatText:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(receipt.RenderText(doc)))
	case enum.ReceiptFormatHTML:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(receipt.RenderHTML(doc)))
	case enum.ReceiptFormatESCPOS:
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(receipt.RenderESCPOS(doc))
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown receipt format"})
	}
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.orders.UpdateOrderStatus(r.Context(), rid, orderID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStatus):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		default:
			log.Printf("ERROR: failed to update order status: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update status"})
		}
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	payment, err := h.orders.UpdatePaymentStatus(r.Context(), rid, orderID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStatus):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		default:
			log.Printf("ERROR: failed to update payment status: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update payment"})
		}
		return
	}

	writeJSON(w, http.StatusOK, toPaymentResponse(payment))
}
