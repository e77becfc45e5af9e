package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/komanda-kiosk/api/internal/cart"
	"github.com/komanda-kiosk/api/internal/enum"
	"github.com/komanda-kiosk/api/internal/printer"
	"github.com/komanda-kiosk/api/internal/receipt"
	"github.com/komanda-kiosk/api/internal/selection"
	"github.com/komanda-kiosk/api/internal/store"
	"github.com/komanda-kiosk/api/internal/ws"
)

const maxOrderNumberRetries = 3

// Errors returned by the order service.
var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidOrderType     = errors.New("invalid order_type")
	ErrInvalidPaymentMethod = errors.New("invalid payment_method")
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrOrderNotFound        = errors.New("order not found")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed inside the checkout
// transaction. Satisfied by *store.Queries (and its WithTx variant).
type OrderStore interface {
	GetNextOrderNumber(ctx context.Context, restaurantID uuid.UUID) (int32, error)
	CreateOrder(ctx context.Context, arg store.CreateOrderParams) (store.Order, error)
	CreateOrderItem(ctx context.Context, arg store.CreateOrderItemParams) (store.OrderItem, error)
	CreateOrderItemTopping(ctx context.Context, arg store.CreateOrderItemToppingParams) (store.OrderItemTopping, error)
	CreatePayment(ctx context.Context, arg store.CreatePaymentParams) (store.Payment, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db store.DBTX) OrderStore

// OrderQueries defines the pool-backed reads and updates the service
// needs outside the checkout transaction. Satisfied by *store.Queries.
type OrderQueries interface {
	GetRestaurant(ctx context.Context, id uuid.UUID) (store.Restaurant, error)
	GetOrder(ctx context.Context, arg store.GetOrderParams) (store.Order, error)
	UpdateOrderStatus(ctx context.Context, arg store.UpdateOrderStatusParams) (store.Order, error)
	GetPaymentByOrder(ctx context.Context, orderID uuid.UUID) (store.Payment, error)
	UpdatePaymentStatus(ctx context.Context, arg store.UpdatePaymentStatusParams) (store.Payment, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]store.OrderItem, error)
	ListOrderItemToppings(ctx context.Context, orderItemID uuid.UUID) ([]store.OrderItemTopping, error)
}

// ReceiptDispatcher fans a composed receipt out to configured printers.
// Satisfied by *printer.Dispatcher.
type ReceiptDispatcher interface {
	Dispatch(ctx context.Context, restaurantID uuid.UUID, doc receipt.Document) printer.Summary
}

// Broadcaster pushes events to the restaurant's realtime room.
// Satisfied by *ws.Hub.
type Broadcaster interface {
	BroadcastToRestaurant(restaurantID uuid.UUID, event ws.Event)
}

// CheckoutRequest is the validated input for placing an order.
type CheckoutRequest struct {
	RestaurantID  uuid.UUID
	OrderType     string
	TableNumber   string
	PaymentMethod string
	Language      string
	Items         []cart.Item
}

// CheckoutResult is the placed order with its receipt and print outcome.
type CheckoutResult struct {
	Order   store.Order
	Payment store.Payment
	Receipt receipt.Document
	Print   printer.Summary
}

// OrderService handles checkout and order lifecycle.
type OrderService struct {
	pool       TxBeginner
	newStore   NewOrderStore
	queries    OrderQueries
	dispatcher ReceiptDispatcher
	hub        Broadcaster
}

// NewOrderService creates an OrderService. dispatcher and hub may be nil
// in tests.
func NewOrderService(pool TxBeginner, newStore NewOrderStore, queries OrderQueries, dispatcher ReceiptDispatcher, hub Broadcaster) *OrderService {
	return &OrderService{
		pool:       pool,
		newStore:   newStore,
		queries:    queries,
		dispatcher: dispatcher,
		hub:        hub,
	}
}

// Checkout validates the cart, creates the order atomically, then
// composes the receipt, dispatches printing and broadcasts events.
// Retries up to maxOrderNumberRetries times on order_number unique
// constraint violations (concurrent checkouts get the same MAX).
func (s *OrderService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if req.OrderType != enum.OrderTypeDineIn && req.OrderType != enum.OrderTypeTakeaway {
		return nil, ErrInvalidOrderType
	}
	if req.PaymentMethod != enum.PaymentMethodCash && req.PaymentMethod != enum.PaymentMethodCard {
		return nil, ErrInvalidPaymentMethod
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}

	// Re-validate every line against its snapshot before touching the DB.
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		res := selection.Validate(item.MenuItem, item.Selection)
		if !res.Valid {
			return nil, fmt.Errorf("item[%d]: %w", i, &cart.ValidationError{Violations: res.Violations})
		}
	}

	rest, err := s.queries.GetRestaurant(ctx, req.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("get restaurant: %w", err)
	}

	lang := req.Language
	if lang == "" {
		lang = rest.DefaultLanguage
	}

	var result *CheckoutResult
	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err = s.checkoutTx(ctx, req, rest, lang)
		if err == nil {
			break
		}
		if isOrderNumberConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	if result == nil {
		return nil, lastErr
	}

	// The order is committed; receipt, printing and events are best effort.
	doc := receipt.Compose(receipt.Restaurant{
		Name:         rest.Name,
		Address:      textToString(rest.Address),
		Phone:        textToString(rest.Phone),
		CurrencyCode: rest.CurrencyCode,
		TaxRate:      numericToDecimal(rest.TaxRate),
	}, req.Items, receipt.Meta{
		OrderNumber: result.Order.OrderNumber,
		TableNumber: req.TableNumber,
		OrderType:   req.OrderType,
		Language:    lang,
		PlacedAt:    result.Order.PlacedAt.Time,
	})
	result.Receipt = doc

	if s.dispatcher != nil {
		result.Print = s.dispatcher.Dispatch(ctx, req.RestaurantID, doc)
	}

	if s.hub != nil {
		s.hub.BroadcastToRestaurant(req.RestaurantID, ws.NewEvent(ws.EventOrderCreated, map[string]any{
			"order_id":     result.Order.ID,
			"order_number": result.Order.OrderNumber,
			"order_type":   result.Order.OrderType,
			"total_amount": numericToDecimal(result.Order.TotalAmount).StringFixed(2),
		}))
		if result.Print.Total > 0 {
			s.hub.BroadcastToRestaurant(req.RestaurantID, ws.NewEvent(ws.EventPrintResult, result.Print))
		}
	}

	return result, nil
}

// isOrderNumberConflict checks if the error is a unique constraint
// violation on the order number (pgconn error code 23505).
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_restaurant_id_order_number_key"
	}
	return false
}

// checkoutTx executes the full order creation in a single transaction.
func (s *OrderService) checkoutTx(ctx context.Context, req CheckoutRequest, rest store.Restaurant, lang string) (*CheckoutResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	st := s.newStore(tx)

	nextNum, err := st.GetNextOrderNumber(ctx, req.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("get next order number: %w", err)
	}
	orderNumber := fmt.Sprintf("KSK-%03d", nextNum)

	// Totals follow the receipt composer: frozen unit prices, tax on top.
	subtotal := decimal.Zero
	for _, item := range req.Items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	taxRate := numericToDecimal(rest.TaxRate)
	tax := subtotal.Mul(taxRate).Div(decimal.NewFromInt(100)).Round(2)
	total := subtotal.Add(tax)

	tableNumber := pgtype.Text{}
	if req.TableNumber != "" {
		tableNumber = pgtype.Text{String: req.TableNumber, Valid: true}
	}

	order, err := st.CreateOrder(ctx, store.CreateOrderParams{
		RestaurantID: req.RestaurantID,
		OrderNumber:  orderNumber,
		OrderType:    req.OrderType,
		TableNumber:  tableNumber,
		Status:       enum.OrderStatusNew,
		Language:     lang,
		Subtotal:     decimalToNumeric(subtotal),
		TaxAmount:    decimalToNumeric(tax),
		TotalAmount:  decimalToNumeric(total),
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	for i, item := range req.Items {
		snapshot, err := json.Marshal(item.Selection)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: marshal selection: %w", i, err)
		}

		instructions := pgtype.Text{}
		if item.SpecialInstructions != "" {
			instructions = pgtype.Text{String: item.SpecialInstructions, Valid: true}
		}

		row, err := st.CreateOrderItem(ctx, store.CreateOrderItemParams{
			OrderID:             order.ID,
			MenuItemID:          item.MenuItem.ID,
			Name:                item.MenuItem.Name.Get(lang),
			Quantity:            item.Quantity,
			UnitPrice:           decimalToNumeric(item.UnitPrice),
			Subtotal:            decimalToNumeric(item.LineTotal()),
			SpecialInstructions: instructions,
			SelectedOptions:     snapshot,
		})
		if err != nil {
			return nil, fmt.Errorf("item[%d]: create order item: %w", i, err)
		}

		if item.Selection == nil {
			continue
		}
		for _, tc := range item.Selection.Toppings {
			cat, ok := item.MenuItem.ToppingCategory(tc.CategoryID)
			if !ok {
				continue
			}
			for _, tid := range tc.ToppingIDs {
				top, ok := cat.Topping(tid)
				if !ok {
					continue
				}
				qty := int32(1)
				if q, ok := tc.Quantities[tid.String()]; ok && q > 0 {
					qty = q
				}
				_, err := st.CreateOrderItemTopping(ctx, store.CreateOrderItemToppingParams{
					OrderItemID: row.ID,
					ToppingID:   tid,
					Name:        top.Name.Get(lang),
					Quantity:    qty,
					UnitPrice:   decimalToNumeric(top.Price),
				})
				if err != nil {
					return nil, fmt.Errorf("item[%d]: create order item topping: %w", i, err)
				}
			}
		}
	}

	payment, err := st.CreatePayment(ctx, store.CreatePaymentParams{
		OrderID: order.ID,
		Method:  req.PaymentMethod,
		Status:  enum.PaymentStatusPending,
		Amount:  decimalToNumeric(total),
	})
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CheckoutResult{Order: order, Payment: payment}, nil
}

// UpdateOrderStatus moves an order through its lifecycle and broadcasts
// the change.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, restaurantID, orderID uuid.UUID, status string) (store.Order, error) {
	switch status {
	case enum.OrderStatusNew, enum.OrderStatusPreparing, enum.OrderStatusReady,
		enum.OrderStatusCompleted, enum.OrderStatusCancelled:
	default:
		return store.Order{}, ErrInvalidStatus
	}

	order, err := s.queries.UpdateOrderStatus(ctx, store.UpdateOrderStatusParams{
		ID:           orderID,
		RestaurantID: restaurantID,
		Status:       status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Order{}, ErrOrderNotFound
		}
		return store.Order{}, fmt.Errorf("update order status: %w", err)
	}

	if s.hub != nil {
		s.hub.BroadcastToRestaurant(restaurantID, ws.NewEvent(ws.EventOrderStatusUpdated, map[string]any{
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
			"status":       order.Status,
		}))
	}
	return order, nil
}

// UpdatePaymentStatus records a payment outcome and broadcasts it.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, restaurantID, orderID uuid.UUID, status string) (store.Payment, error) {
	switch status {
	case enum.PaymentStatusPending, enum.PaymentStatusCompleted, enum.PaymentStatusFailed:
	default:
		return store.Payment{}, ErrInvalidStatus
	}

	// Scope the lookup to the restaurant before touching the payment.
	order, err := s.queries.GetOrder(ctx, store.GetOrderParams{ID: orderID, RestaurantID: restaurantID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Payment{}, ErrOrderNotFound
		}
		return store.Payment{}, fmt.Errorf("get order: %w", err)
	}

	payment, err := s.queries.GetPaymentByOrder(ctx, order.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Payment{}, ErrOrderNotFound
		}
		return store.Payment{}, fmt.Errorf("get payment: %w", err)
	}

	payment, err = s.queries.UpdatePaymentStatus(ctx, store.UpdatePaymentStatusParams{
		ID:     payment.ID,
		Status: status,
	})
	if err != nil {
		return store.Payment{}, fmt.Errorf("update payment status: %w", err)
	}

	if s.hub != nil {
		s.hub.BroadcastToRestaurant(restaurantID, ws.NewEvent(ws.EventPaymentUpdated, map[string]any{
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
			"payment_id":   payment.ID,
			"status":       payment.Status,
		}))
	}
	return payment, nil
}

// Order returns the order with its payment, tenant scoped.
func (s *OrderService) Order(ctx context.Context, restaurantID, orderID uuid.UUID) (store.Order, store.Payment, error) {
	order, err := s.queries.GetOrder(ctx, store.GetOrderParams{ID: orderID, RestaurantID: restaurantID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Order{}, store.Payment{}, ErrOrderNotFound
		}
		return store.Order{}, store.Payment{}, fmt.Errorf("get order: %w", err)
	}
	payment, err := s.queries.GetPaymentByOrder(ctx, order.ID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return store.Order{}, store.Payment{}, fmt.Errorf("get payment: %w", err)
	}
	return order, payment, nil
}

// Receipt rebuilds the receipt document for a committed order from its
// stored rows, so any renderer can be applied after the fact.
func (s *OrderService) Receipt(ctx context.Context, restaurantID, orderID uuid.UUID) (receipt.Document, error) {
	order, err := s.queries.GetOrder(ctx, store.GetOrderParams{ID: orderID, RestaurantID: restaurantID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return receipt.Document{}, ErrOrderNotFound
		}
		return receipt.Document{}, fmt.Errorf("get order: %w", err)
	}

	rest, err := s.queries.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return receipt.Document{}, fmt.Errorf("get restaurant: %w", err)
	}

	doc := receipt.Document{
		Restaurant: receipt.Restaurant{
			Name:         rest.Name,
			Address:      textToString(rest.Address),
			Phone:        textToString(rest.Phone),
			CurrencyCode: rest.CurrencyCode,
			TaxRate:      numericToDecimal(rest.TaxRate),
		},
		Meta: receipt.Meta{
			OrderNumber: order.OrderNumber,
			TableNumber: textToString(order.TableNumber),
			OrderType:   order.OrderType,
			Language:    order.Language,
			PlacedAt:    order.PlacedAt.Time,
		},
		Labels:   receipt.LabelsFor(order.Language),
		Currency: receipt.CurrencySymbol(rest.CurrencyCode),
		Subtotal: numericToDecimal(order.Subtotal),
		Tax:      numericToDecimal(order.TaxAmount),
		Total:    numericToDecimal(order.TotalAmount),
	}

	items, err := s.queries.ListOrderItems(ctx, orderID)
	if err != nil {
		return receipt.Document{}, fmt.Errorf("list order items: %w", err)
	}
	for _, item := range items {
		line := receipt.Line{
			Quantity:     item.Quantity,
			Name:         item.Name,
			UnitPrice:    numericToDecimal(item.UnitPrice),
			Total:        numericToDecimal(item.Subtotal),
			Instructions: textToString(item.SpecialInstructions),
		}
		tops, err := s.queries.ListOrderItemToppings(ctx, item.ID)
		if err != nil {
			log.Printf("ERROR: list order item toppings: %v", err)
		}
		for _, t := range tops {
			unit := numericToDecimal(t.UnitPrice)
			line.Extras = append(line.Extras, receipt.ExtraLine{
				Label:    t.Name,
				Quantity: t.Quantity,
				Amount:   unit.Mul(decimal.NewFromInt32(t.Quantity)),
			})
		}
		doc.Lines = append(doc.Lines, line)
	}

	return doc, nil
}
