package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const toppingCategoryColumns = `id, restaurant_id, name_fr, name_en, name_tr, min_selections, max_selections, allow_multiple_same_topping, show_if_selection_type, show_if_selection_id, display_order, is_active, created_at, updated_at`

func scanToppingCategory(row interface {
	Scan(dest ...interface{}) error
}) (ToppingCategory, error) {
	var i ToppingCategory
	err := row.Scan(
		&i.ID,
		&i.RestaurantID,
		&i.NameFr,
		&i.NameEn,
		&i.NameTr,
		&i.MinSelections,
		&i.MaxSelections,
		&i.AllowMultipleSameTopping,
		&i.ShowIfSelectionType,
		&i.ShowIfSelectionID,
		&i.DisplayOrder,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listToppingCategories = `
SELECT ` + toppingCategoryColumns + `
FROM topping_categories
WHERE restaurant_id = $1 AND is_active = true
ORDER BY display_order, name_fr
`

func (q *Queries) ListToppingCategories(ctx context.Context, restaurantID uuid.UUID) ([]ToppingCategory, error) {
	rows, err := q.db.Query(ctx, listToppingCategories, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ToppingCategory
	for rows.Next() {
		i, err := scanToppingCategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listToppingCategoriesByMenuItem = `
SELECT ` + toppingCategoryColumns + `
FROM topping_categories tc
JOIN menu_item_topping_categories mtc ON mtc.topping_category_id = tc.id
WHERE mtc.menu_item_id = $1 AND tc.is_active = true
ORDER BY mtc.display_order, tc.name_fr
`

func (q *Queries) ListToppingCategoriesByMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]ToppingCategory, error) {
	rows, err := q.db.Query(ctx, listToppingCategoriesByMenuItem, menuItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ToppingCategory
	for rows.Next() {
		i, err := scanToppingCategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type GetToppingCategoryParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

const getToppingCategory = `
SELECT ` + toppingCategoryColumns + `
FROM topping_categories
WHERE id = $1 AND restaurant_id = $2 AND is_active = true
`

func (q *Queries) GetToppingCategory(ctx context.Context, arg GetToppingCategoryParams) (ToppingCategory, error) {
	return scanToppingCategory(q.db.QueryRow(ctx, getToppingCategory, arg.ID, arg.RestaurantID))
}

type CreateToppingCategoryParams struct {
	RestaurantID             uuid.UUID
	NameFr                   string
	NameEn                   pgtype.Text
	NameTr                   pgtype.Text
	MinSelections            int32
	MaxSelections            int32
	AllowMultipleSameTopping bool
	ShowIfSelectionType      pgtype.Text
	ShowIfSelectionID        pgtype.UUID
	DisplayOrder             int32
}

const createToppingCategory = `
INSERT INTO topping_categories (restaurant_id, name_fr, name_en, name_tr, min_selections, max_selections, allow_multiple_same_topping, show_if_selection_type, show_if_selection_id, display_order, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, true)
RETURNING ` + toppingCategoryColumns + `
`

func (q *Queries) CreateToppingCategory(ctx context.Context, arg CreateToppingCategoryParams) (ToppingCategory, error) {
	return scanToppingCategory(q.db.QueryRow(ctx, createToppingCategory,
		arg.RestaurantID,
		arg.NameFr,
		arg.NameEn,
		arg.NameTr,
		arg.MinSelections,
		arg.MaxSelections,
		arg.AllowMultipleSameTopping,
		arg.ShowIfSelectionType,
		arg.ShowIfSelectionID,
		arg.DisplayOrder,
	))
}

type UpdateToppingCategoryParams struct {
	ID                       uuid.UUID
	RestaurantID             uuid.UUID
	NameFr                   string
	NameEn                   pgtype.Text
	NameTr                   pgtype.Text
	MinSelections            int32
	MaxSelections            int32
	AllowMultipleSameTopping bool
	ShowIfSelectionType      pgtype.Text
	ShowIfSelectionID        pgtype.UUID
	DisplayOrder             int32
}

const updateToppingCategory = `
UPDATE topping_categories
SET name_fr = $3, name_en = $4, name_tr = $5, min_selections = $6, max_selections = $7, allow_multiple_same_topping = $8, show_if_selection_type = $9, show_if_selection_id = $10, display_order = $11, updated_at = now()
WHERE id = $1 AND restaurant_id = $2 AND is_active = true
RETURNING ` + toppingCategoryColumns + `
`

func (q *Queries) UpdateToppingCategory(ctx context.Context, arg UpdateToppingCategoryParams) (ToppingCategory, error) {
	return scanToppingCategory(q.db.QueryRow(ctx, updateToppingCategory,
		arg.ID,
		arg.RestaurantID,
		arg.NameFr,
		arg.NameEn,
		arg.NameTr,
		arg.MinSelections,
		arg.MaxSelections,
		arg.AllowMultipleSameTopping,
		arg.ShowIfSelectionType,
		arg.ShowIfSelectionID,
		arg.DisplayOrder,
	))
}

type SoftDeleteToppingCategoryParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

const softDeleteToppingCategory = `
UPDATE topping_categories
SET is_active = false, updated_at = now()
WHERE id = $1 AND restaurant_id = $2 AND is_active = true
RETURNING id
`

func (q *Queries) SoftDeleteToppingCategory(ctx context.Context, arg SoftDeleteToppingCategoryParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, softDeleteToppingCategory, arg.ID, arg.RestaurantID)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}

const toppingColumns = `id, topping_category_id, name_fr, name_en, name_tr, price, tax_percentage, in_stock, display_order, is_active, created_at, updated_at`

func scanTopping(row interface {
	Scan(dest ...interface{}) error
}) (Topping, error) {
	var i Topping
	err := row.Scan(
		&i.ID,
		&i.ToppingCategoryID,
		&i.NameFr,
		&i.NameEn,
		&i.NameTr,
		&i.Price,
		&i.TaxPercentage,
		&i.InStock,
		&i.DisplayOrder,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listToppingsByCategory = `
SELECT ` + toppingColumns + `
FROM toppings
WHERE topping_category_id = $1 AND is_active = true
ORDER BY display_order, name_fr
`

func (q *Queries) ListToppingsByCategory(ctx context.Context, toppingCategoryID uuid.UUID) ([]Topping, error) {
	rows, err := q.db.Query(ctx, listToppingsByCategory, toppingCategoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Topping
	for rows.Next() {
		i, err := scanTopping(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getTopping = `
SELECT ` + toppingColumns + `
FROM toppings
WHERE id = $1 AND is_active = true
`

func (q *Queries) GetTopping(ctx context.Context, id uuid.UUID) (Topping, error) {
	return scanTopping(q.db.QueryRow(ctx, getTopping, id))
}

type CreateToppingParams struct {
	ToppingCategoryID uuid.UUID
	NameFr            string
	NameEn            pgtype.Text
	NameTr            pgtype.Text
	Price             pgtype.Numeric
	TaxPercentage     pgtype.Numeric
	InStock           bool
	DisplayOrder      int32
}

const createTopping = `
INSERT INTO toppings (topping_category_id, name_fr, name_en, name_tr, price, tax_percentage, in_stock, display_order, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true)
RETURNING ` + toppingColumns + `
`

func (q *Queries) CreateTopping(ctx context.Context, arg CreateToppingParams) (Topping, error) {
	return scanTopping(q.db.QueryRow(ctx, createTopping,
		arg.ToppingCategoryID,
		arg.NameFr,
		arg.NameEn,
		arg.NameTr,
		arg.Price,
		arg.TaxPercentage,
		arg.InStock,
		arg.DisplayOrder,
	))
}

type UpdateToppingParams struct {
	ID            uuid.UUID
	NameFr        string
	NameEn        pgtype.Text
	NameTr        pgtype.Text
	Price         pgtype.Numeric
	TaxPercentage pgtype.Numeric
	InStock       bool
	DisplayOrder  int32
}

const updateTopping = `
UPDATE toppings
SET name_fr = $2, name_en = $3, name_tr = $4, price = $5, tax_percentage = $6, in_stock = $7, display_order = $8, updated_at = now()
WHERE id = $1 AND is_active = true
RETURNING ` + toppingColumns + `
`

func (q *Queries) UpdateTopping(ctx context.Context, arg UpdateToppingParams) (Topping, error) {
	return scanTopping(q.db.QueryRow(ctx, updateTopping,
		arg.ID,
		arg.NameFr,
		arg.NameEn,
		arg.NameTr,
		arg.Price,
		arg.TaxPercentage,
		arg.InStock,
		arg.DisplayOrder,
	))
}

const softDeleteTopping = `
UPDATE toppings
SET is_active = false, updated_at = now()
WHERE id = $1 AND is_active = true
RETURNING id
`

func (q *Queries) SoftDeleteTopping(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, softDeleteTopping, id)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}

type LinkMenuItemToppingCategoryParams struct {
	MenuItemID        uuid.UUID
	ToppingCategoryID uuid.UUID
	DisplayOrder      int32
}

const linkMenuItemToppingCategory = `
INSERT INTO menu_item_topping_categories (menu_item_id, topping_category_id, display_order)
VALUES ($1, $2, $3)
ON CONFLICT (menu_item_id, topping_category_id) DO UPDATE SET display_order = $3
`

func (q *Queries) LinkMenuItemToppingCategory(ctx context.Context, arg LinkMenuItemToppingCategoryParams) error {
	_, err := q.db.Exec(ctx, linkMenuItemToppingCategory, arg.MenuItemID, arg.ToppingCategoryID, arg.DisplayOrder)
	return err
}

type UnlinkMenuItemToppingCategoryParams struct {
	MenuItemID        uuid.UUID
	ToppingCategoryID uuid.UUID
}

const unlinkMenuItemToppingCategory = `
DELETE FROM menu_item_topping_categories
WHERE menu_item_id = $1 AND topping_category_id = $2
`

func (q *Queries) UnlinkMenuItemToppingCategory(ctx context.Context, arg UnlinkMenuItemToppingCategoryParams) error {
	_, err := q.db.Exec(ctx, unlinkMenuItemToppingCategory, arg.MenuItemID, arg.ToppingCategoryID)
	return err
}
