package handler_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/komanda-kiosk/api/internal/cart"
	"github.com/komanda-kiosk/api/internal/enum"
	"github.com/komanda-kiosk/api/internal/handler"
	"github.com/komanda-kiosk/api/internal/printer"
	"github.com/komanda-kiosk/api/internal/receipt"
	"github.com/komanda-kiosk/api/internal/service"
	"github.com/komanda-kiosk/api/internal/store"
)

type mockOrders struct {
	checkoutFn            func(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error)
	orderFn               func(ctx context.Context, restaurantID, orderID uuid.UUID) (store.Order, store.Payment, error)
	receiptFn             func(ctx context.Context, restaurantID, orderID uuid.UUID) (receipt.Document, error)
	updateOrderStatusFn   func(ctx context.Context, restaurantID, orderID uuid.UUID, status string) (store.Order, error)
	updatePaymentStatusFn func(ctx context.Context, restaurantID, orderID uuid.UUID, status string) (store.Payment, error)
}

func (m *mockOrders) Checkout(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error) {
	return m.checkoutFn(ctx, req)
}

func (m *mockOrders) Order(ctx context.Context, restaurantID, orderID uuid.UUID) (store.Order, store.Payment, error) {
	return m.orderFn(ctx, restaurantID, orderID)
}

func (m *mockOrders) Receipt(ctx context.Context, restaurantID, orderID uuid.UUID) (receipt.Document, error) {
	return m.receiptFn(ctx, restaurantID, orderID)
}

func (m *mockOrders) UpdateOrderStatus(ctx context.Context, restaurantID, orderID uuid.UUID, status string) (store.Order, error) {
	return m.updateOrderStatusFn(ctx, restaurantID, orderID, status)
}

func (m *mockOrders) UpdatePaymentStatus(ctx context.Context, restaurantID, orderID uuid.UUID, status string) (store.Payment, error) {
	return m.updatePaymentStatusFn(ctx, restaurantID, orderID, status)
}

func num(t *testing.T, s string) pgtype.Numeric {
	t.Helper()
	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		t.Fatalf("scan numeric %q: %v", s, err)
	}
	return n
}

func testOrder(t *testing.T, rid uuid.UUID) store.Order {
	return store.Order{
		ID:           uuid.New(),
		RestaurantID: rid,
		OrderNumber:  "KSK-001",
		OrderType:    enum.OrderTypeTakeaway,
		Status:       enum.OrderStatusNew,
		Language:     "fr",
		Subtotal:     num(t, "21.00"),
		TaxAmount:    num(t, "2.10"),
		TotalAmount:  num(t, "23.10"),
	}
}

func testPayment(t *testing.T, orderID uuid.UUID) store.Payment {
	return store.Payment{
		ID:      uuid.New(),
		OrderID: orderID,
		Method:  enum.PaymentMethodCash,
		Status:  enum.PaymentStatusPending,
		Amount:  num(t, "23.10"),
	}
}

func testReceiptDoc() receipt.Document {
	total := decimal.RequireFromString("23.10")
	return receipt.Document{
		Restaurant: receipt.Restaurant{Name: "Chez Test", CurrencyCode: "EUR"},
		Meta:       receipt.Meta{OrderNumber: "KSK-001", OrderType: enum.OrderTypeTakeaway, Language: "fr"},
		Labels:     receipt.LabelsFor("fr"),
		Currency:   receipt.CurrencySymbol("EUR"),
		Lines: []receipt.Line{
			{Quantity: 2, Name: "Burger", UnitPrice: decimal.RequireFromString("10.50"), Total: decimal.RequireFromString("21.00")},
		},
		Subtotal: decimal.RequireFromString("21.00"),
		Tax:      decimal.RequireFromString("2.10"),
		Total:    total,
	}
}

func setupOrderRouter(orders *mockOrders, cartStore cart.Store) *chi.Mux {
	h := handler.NewOrderHandler(orders, cartStore)
	r := chi.NewRouter()
	r.Route("/restaurants/{rid}/kiosk", h.RegisterKioskRoutes)
	r.Route("/restaurants/{rid}/orders", h.RegisterStaffRoutes)
	return r
}

func TestCheckout_Success(t *testing.T) {
	rid := uuid.New()
	cartStore := newMemoryCartStore()
	order := testOrder(t, rid)

	orders := &mockOrders{
		checkoutFn: func(_ context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error) {
			if req.RestaurantID != rid {
				t.Errorf("expected restaurant %s, got %s", rid, req.RestaurantID)
			}
			if req.OrderType != enum.OrderTypeTakeaway {
				t.Errorf("expected TAKEAWAY, got %s", req.OrderType)
			}
			return &service.CheckoutResult{
				Order:   order,
				Payment: testPayment(t, order.ID),
				Receipt: testReceiptDoc(),
				Print:   printer.Summary{Successful: 1, Total: 1},
			}, nil
		},
	}
	router := setupOrderRouter(orders, cartStore)

	body := map[string]string{
		"order_type":     enum.OrderTypeTakeaway,
		"payment_method": enum.PaymentMethodCash,
	}
	rr := doRequest(t, router, "POST", "/restaurants/"+rid.String()+"/kiosk/checkout", body, sessionHeaders())

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeObject(t, rr)
	orderResp := resp["order"].(map[string]interface{})
	if orderResp["order_number"] != "KSK-001" {
		t.Errorf("expected order number KSK-001, got %v", orderResp["order_number"])
	}
	if orderResp["total_amount"] != "23.10" {
		t.Errorf("expected total 23.10, got %v", orderResp["total_amount"])
	}
	if !strings.Contains(resp["receipt_text"].(string), "KSK-001") {
		t.Error("expected receipt text to carry the order number")
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	rid := uuid.New()
	orders := &mockOrders{
		checkoutFn: func(_ context.Context, _ service.CheckoutRequest) (*service.CheckoutResult, error) {
			return nil, service.ErrEmptyCart
		},
	}
	router := setupOrderRouter(orders, newMemoryCartStore())

	body := map[string]string{
		"order_type":     enum.OrderTypeTakeaway,
		"payment_method": enum.PaymentMethodCash,
	}
	rr := doRequest(t, router, "POST", "/restaurants/"+rid.String()+"/kiosk/checkout", body, sessionHeaders())

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCheckout_DineInRequiresTable(t *testing.T) {
	rid := uuid.New()
	router := setupOrderRouter(&mockOrders{}, newMemoryCartStore())

	body := map[string]string{
		"order_type":     enum.OrderTypeDineIn,
		"payment_method": enum.PaymentMethodCash,
	}
	rr := doRequest(t, router, "POST", "/restaurants/"+rid.String()+"/kiosk/checkout", body, sessionHeaders())

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCheckout_RejectsControlCharsInTable(t *testing.T) {
	rid := uuid.New()
	router := setupOrderRouter(&mockOrders{}, newMemoryCartStore())

	body := map[string]string{
		"order_type":     enum.OrderTypeDineIn,
		"table_number":   "12\x07",
		"payment_method": enum.PaymentMethodCash,
	}
	rr := doRequest(t, router, "POST", "/restaurants/"+rid.String()+"/kiosk/checkout", body, sessionHeaders())

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestCheckout_MissingSession(t *testing.T) {
	rid := uuid.New()
	router := setupOrderRouter(&mockOrders{}, newMemoryCartStore())

	body := map[string]string{
		"order_type":     enum.OrderTypeTakeaway,
		"payment_method": enum.PaymentMethodCash,
	}
	rr := doRequest(t, router, "POST", "/restaurants/"+rid.String()+"/kiosk/checkout", body, nil)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	rid := uuid.New()
	orders := &mockOrders{
		orderFn: func(_ context.Context, _, _ uuid.UUID) (store.Order, store.Payment, error) {
			return store.Order{}, store.Payment{}, service.ErrOrderNotFound
		},
	}
	router := setupOrderRouter(orders, newMemoryCartStore())

	rr := doRequest(t, router, "GET", "/restaurants/"+rid.String()+"/kiosk/orders/"+uuid.New().String(), nil, nil)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestGetReceipt_Formats(t *testing.T) {
	rid := uuid.New()
	orders := &mockOrders{
		receiptFn: func(_ context.Context, _, _ uuid.UUID) (receipt.Document, error) {
			return testReceiptDoc(), nil
		},
	}
	router := setupOrderRouter(orders, newMemoryCartStore())
	base := "/restaurants/" + rid.String() + "/kiosk/orders/" + uuid.New().String() + "/receipt"

	rr := doRequest(t, router, "GET", base, nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("text: expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("text: unexpected content type %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "KSK-001") {
		t.Error("text: expected order number in body")
	}

	rr = doRequest(t, router, "GET", base+"?format=html", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("html: expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("html: unexpected content type %q", ct)
	}

	rr = doRequest(t, router, "GET", base+"?format=escpos", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("escpos: expected 200, got %d", rr.Code)
	}
	if body := rr.Body.Bytes(); len(body) == 0 || body[0] != 0x1b {
		t.Error("escpos: expected body to start with ESC init")
	}

	rr = doRequest(t, router, "GET", base+"?format=pdf", nil, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown format: expected 400, got %d", rr.Code)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	rid := uuid.New()
	order := testOrder(t, rid)
	order.Status = enum.OrderStatusPreparing

	orders := &mockOrders{
		updateOrderStatusFn: func(_ context.Context, _, _ uuid.UUID, status string) (store.Order, error) {
			if status != enum.OrderStatusPreparing {
				return store.Order{}, service.ErrInvalidStatus
			}
			return order, nil
		},
	}
	router := setupOrderRouter(orders, newMemoryCartStore())
	path := "/restaurants/" + rid.String() + "/orders/" + order.ID.String() + "/status"

	rr := doRequest(t, router, "PATCH", path, map[string]string{"status": enum.OrderStatusPreparing}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeObject(t, rr)
	if resp["status"] != enum.OrderStatusPreparing {
		t.Errorf("expected status PREPARING, got %v", resp["status"])
	}

	rr = doRequest(t, router, "PATCH", path, map[string]string{"status": "BOGUS"}, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid status: expected 400, got %d", rr.Code)
	}
}

func TestUpdatePaymentStatus(t *testing.T) {
	rid := uuid.New()
	payment := testPayment(t, uuid.New())
	payment.Status = enum.PaymentStatusCompleted

	orders := &mockOrders{
		updatePaymentStatusFn: func(_ context.Context, _, _ uuid.UUID, status string) (store.Payment, error) {
			return payment, nil
		},
	}
	router := setupOrderRouter(orders, newMemoryCartStore())
	path := "/restaurants/" + rid.String() + "/orders/" + payment.OrderID.String() + "/payment"

	rr := doRequest(t, router, "PATCH", path, map[string]string{"status": enum.PaymentStatusCompleted}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeObject(t, rr)
	if resp["status"] != enum.PaymentStatusCompleted {
		t.Errorf("expected status COMPLETED, got %v", resp["status"])
	}
}
