package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getNextOrderNumber = `
SELECT COALESCE(MAX(CAST(SUBSTRING(order_number FROM 5) AS INTEGER)), 0) + 1
FROM orders
WHERE restaurant_id = $1 AND placed_at::date = CURRENT_DATE
`

// GetNextOrderNumber returns the next sequential order number for today.
// Subject to a race under concurrent checkouts; callers retry on the
// unique constraint violation.
func (q *Queries) GetNextOrderNumber(ctx context.Context, restaurantID uuid.UUID) (int32, error) {
	row := q.db.QueryRow(ctx, getNextOrderNumber, restaurantID)
	var n int32
	err := row.Scan(&n)
	return n, err
}

const orderColumns = `id, restaurant_id, order_number, order_type, table_number, status, language, subtotal, tax_amount, total_amount, placed_at, created_at, updated_at`

func scanOrder(row interface {
	Scan(dest ...interface{}) error
}) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.RestaurantID,
		&i.OrderNumber,
		&i.OrderType,
		&i.TableNumber,
		&i.Status,
		&i.Language,
		&i.Subtotal,
		&i.TaxAmount,
		&i.TotalAmount,
		&i.PlacedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

type CreateOrderParams struct {
	RestaurantID uuid.UUID
	OrderNumber  string
	OrderType    string
	TableNumber  pgtype.Text
	Status       string
	Language     string
	Subtotal     pgtype.Numeric
	TaxAmount    pgtype.Numeric
	TotalAmount  pgtype.Numeric
}

const createOrder = `
INSERT INTO orders (restaurant_id, order_number, order_type, table_number, status, language, subtotal, tax_amount, total_amount, placed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
RETURNING ` + orderColumns + `
`

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, createOrder,
		arg.RestaurantID,
		arg.OrderNumber,
		arg.OrderType,
		arg.TableNumber,
		arg.Status,
		arg.Language,
		arg.Subtotal,
		arg.TaxAmount,
		arg.TotalAmount,
	))
}

type GetOrderParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

const getOrder = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1 AND restaurant_id = $2
`

func (q *Queries) GetOrder(ctx context.Context, arg GetOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, arg.ID, arg.RestaurantID))
}

type UpdateOrderStatusParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Status       string
}

const updateOrderStatus = `
UPDATE orders
SET status = $3, updated_at = now()
WHERE id = $1 AND restaurant_id = $2
RETURNING ` + orderColumns + `
`

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.RestaurantID, arg.Status))
}

type CreateOrderItemParams struct {
	OrderID             uuid.UUID
	MenuItemID          uuid.UUID
	Name                string
	Quantity            int32
	UnitPrice           pgtype.Numeric
	Subtotal            pgtype.Numeric
	SpecialInstructions pgtype.Text
	SelectedOptions     []byte
}

const createOrderItem = `
INSERT INTO order_items (order_id, menu_item_id, name, quantity, unit_price, subtotal, special_instructions, selected_options)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, order_id, menu_item_id, name, quantity, unit_price, subtotal, special_instructions, selected_options, created_at
`

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID,
		arg.MenuItemID,
		arg.Name,
		arg.Quantity,
		arg.UnitPrice,
		arg.Subtotal,
		arg.SpecialInstructions,
		arg.SelectedOptions,
	)
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.MenuItemID,
		&i.Name,
		&i.Quantity,
		&i.UnitPrice,
		&i.Subtotal,
		&i.SpecialInstructions,
		&i.SelectedOptions,
		&i.CreatedAt,
	)
	return i, err
}

const listOrderItems = `
SELECT id, order_id, menu_item_id, name, quantity, unit_price, subtotal, special_instructions, selected_options, created_at
FROM order_items
WHERE order_id = $1
ORDER BY created_at
`

func (q *Queries) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItems, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.MenuItemID,
			&i.Name,
			&i.Quantity,
			&i.UnitPrice,
			&i.Subtotal,
			&i.SpecialInstructions,
			&i.SelectedOptions,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type CreateOrderItemToppingParams struct {
	OrderItemID uuid.UUID
	ToppingID   uuid.UUID
	Name        string
	Quantity    int32
	UnitPrice   pgtype.Numeric
}

const createOrderItemTopping = `
INSERT INTO order_item_toppings (order_item_id, topping_id, name, quantity, unit_price)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, order_item_id, topping_id, name, quantity, unit_price, created_at
`

func (q *Queries) CreateOrderItemTopping(ctx context.Context, arg CreateOrderItemToppingParams) (OrderItemTopping, error) {
	row := q.db.QueryRow(ctx, createOrderItemTopping,
		arg.OrderItemID,
		arg.ToppingID,
		arg.Name,
		arg.Quantity,
		arg.UnitPrice,
	)
	var i OrderItemTopping
	err := row.Scan(
		&i.ID,
		&i.OrderItemID,
		&i.ToppingID,
		&i.Name,
		&i.Quantity,
		&i.UnitPrice,
		&i.CreatedAt,
	)
	return i, err
}

const listOrderItemToppings = `
SELECT id, order_item_id, topping_id, name, quantity, unit_price, created_at
FROM order_item_toppings
WHERE order_item_id = $1
ORDER BY created_at
`

func (q *Queries) ListOrderItemToppings(ctx context.Context, orderItemID uuid.UUID) ([]OrderItemTopping, error) {
	rows, err := q.db.Query(ctx, listOrderItemToppings, orderItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItemTopping
	for rows.Next() {
		var i OrderItemTopping
		if err := rows.Scan(
			&i.ID,
			&i.OrderItemID,
			&i.ToppingID,
			&i.Name,
			&i.Quantity,
			&i.UnitPrice,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type CreatePaymentParams struct {
	OrderID uuid.UUID
	Method  string
	Status  string
	Amount  pgtype.Numeric
}

const createPayment = `
INSERT INTO payments (order_id, method, status, amount)
VALUES ($1, $2, $3, $4)
RETURNING id, order_id, method, status, amount, created_at, updated_at
`

func (q *Queries) CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error) {
	row := q.db.QueryRow(ctx, createPayment, arg.OrderID, arg.Method, arg.Status, arg.Amount)
	var i Payment
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.Method,
		&i.Status,
		&i.Amount,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getPaymentByOrder = `
SELECT id, order_id, method, status, amount, created_at, updated_at
FROM payments
WHERE order_id = $1
ORDER BY created_at DESC
LIMIT 1
`

func (q *Queries) GetPaymentByOrder(ctx context.Context, orderID uuid.UUID) (Payment, error) {
	row := q.db.QueryRow(ctx, getPaymentByOrder, orderID)
	var i Payment
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.Method,
		&i.Status,
		&i.Amount,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

type UpdatePaymentStatusParams struct {
	ID     uuid.UUID
	Status string
}

const updatePaymentStatus = `
UPDATE payments
SET status = $2, updated_at = now()
WHERE id = $1
RETURNING id, order_id, method, status, amount, created_at, updated_at
`

func (q *Queries) UpdatePaymentStatus(ctx context.Context, arg UpdatePaymentStatusParams) (Payment, error) {
	row := q.db.QueryRow(ctx, updatePaymentStatus, arg.ID, arg.Status)
	var i Payment
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.Method,
		&i.Status,
		&i.Amount,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
