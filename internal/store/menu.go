package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const listMenuCategories = `
SELECT id, restaurant_id, name_fr, name_en, name_tr, display_order, is_active, created_at, updated_at
FROM menu_categories
WHERE restaurant_id = $1 AND is_active = true
ORDER BY display_order, name_fr
`

func (q *Queries) ListMenuCategories(ctx context.Context, restaurantID uuid.UUID) ([]MenuCategory, error) {
	rows, err := q.db.Query(ctx, listMenuCategories, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuCategory
	for rows.Next() {
		var i MenuCategory
		if err := rows.Scan(
			&i.ID,
			&i.RestaurantID,
			&i.NameFr,
			&i.NameEn,
			&i.NameTr,
			&i.DisplayOrder,
			&i.IsActive,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type GetMenuCategoryParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

const getMenuCategory = `
SELECT id, restaurant_id, name_fr, name_en, name_tr, display_order, is_active, created_at, updated_at
FROM menu_categories
WHERE id = $1 AND restaurant_id = $2 AND is_active = true
`

func (q *Queries) GetMenuCategory(ctx context.Context, arg GetMenuCategoryParams) (MenuCategory, error) {
	row := q.db.QueryRow(ctx, getMenuCategory, arg.ID, arg.RestaurantID)
	var i MenuCategory
	err := row.Scan(
		&i.ID,
		&i.RestaurantID,
		&i.NameFr,
		&i.NameEn,
		&i.NameTr,
		&i.DisplayOrder,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

type CreateMenuCategoryParams struct {
	RestaurantID uuid.UUID
	NameFr       string
	NameEn       pgtype.Text
	NameTr       pgtype.Text
	DisplayOrder int32
}

const createMenuCategory = `
INSERT INTO menu_categories (restaurant_id, name_fr, name_en, name_tr, display_order, is_active)
VALUES ($1, $2, $3, $4, $5, true)
RETURNING id, restaurant_id, name_fr, name_en, name_tr, display_order, is_active, created_at, updated_at
`

func (q *Queries) CreateMenuCategory(ctx context.Context, arg CreateMenuCategoryParams) (MenuCategory, error) {
	row := q.db.QueryRow(ctx, createMenuCategory,
		arg.RestaurantID,
		arg.NameFr,
		arg.NameEn,
		arg.NameTr,
		arg.DisplayOrder,
	)
	var i MenuCategory
	err := row.Scan(
		&i.ID,
		&i.RestaurantID,
		&i.NameFr,
		&i.NameEn,
		&i.NameTr,
		&i.DisplayOrder,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

type UpdateMenuCategoryParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	NameFr       string
	NameEn       pgtype.Text
	NameTr       pgtype.Text
	DisplayOrder int32
}

const updateMenuCategory = `
UPDATE menu_categories
SET name_fr = $3, name_en = $4, name_tr = $5, display_order = $6, updated_at = now()
WHERE id = $1 AND restaurant_id = $2 AND is_active = true
RETURNING id, restaurant_id, name_fr, name_en, name_tr, display_order, is_active, created_at, updated_at
`

func (q *Queries) UpdateMenuCategory(ctx context.Context, arg UpdateMenuCategoryParams) (MenuCategory, error) {
	row := q.db.QueryRow(ctx, updateMenuCategory,
		arg.ID,
		arg.RestaurantID,
		arg.NameFr,
		arg.NameEn,
		arg.NameTr,
		arg.DisplayOrder,
	)
	var i MenuCategory
	err := row.Scan(
		&i.ID,
		&i.RestaurantID,
		&i.NameFr,
		&i.NameEn,
		&i.NameTr,
		&i.DisplayOrder,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

type SoftDeleteMenuCategoryParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

const softDeleteMenuCategory = `
UPDATE menu_categories
SET is_active = false, updated_at = now()
WHERE id = $1 AND restaurant_id = $2 AND is_active = true
RETURNING id
`

func (q *Queries) SoftDeleteMenuCategory(ctx context.Context, arg SoftDeleteMenuCategoryParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, softDeleteMenuCategory, arg.ID, arg.RestaurantID)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}

const menuItemColumns = `id, restaurant_id, category_id, name_fr, name_en, name_tr, description_fr, description_en, description_tr, price, promotion_price, tax_percentage, image_url, available_from, available_until, in_stock, display_order, is_active, created_at, updated_at`

func scanMenuItem(row interface {
	Scan(dest ...interface{}) error
}) (MenuItem, error) {
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.RestaurantID,
		&i.CategoryID,
		&i.NameFr,
		&i.NameEn,
		&i.NameTr,
		&i.DescriptionFr,
		&i.DescriptionEn,
		&i.DescriptionTr,
		&i.Price,
		&i.PromotionPrice,
		&i.TaxPercentage,
		&i.ImageUrl,
		&i.AvailableFrom,
		&i.AvailableUntil,
		&i.InStock,
		&i.DisplayOrder,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listMenuItemsByRestaurant = `
SELECT ` + menuItemColumns + `
FROM menu_items
WHERE restaurant_id = $1 AND is_active = true
ORDER BY display_order, name_fr
`

func (q *Queries) ListMenuItemsByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItemsByRestaurant, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItem
	for rows.Next() {
		i, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type ListMenuItemsByCategoryParams struct {
	CategoryID   uuid.UUID
	RestaurantID uuid.UUID
}

const listMenuItemsByCategory = `
SELECT ` + menuItemColumns + `
FROM menu_items
WHERE category_id = $1 AND restaurant_id = $2 AND is_active = true
ORDER BY display_order, name_fr
`

func (q *Queries) ListMenuItemsByCategory(ctx context.Context, arg ListMenuItemsByCategoryParams) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItemsByCategory, arg.CategoryID, arg.RestaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItem
	for rows.Next() {
		i, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type GetMenuItemParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

const getMenuItem = `
SELECT ` + menuItemColumns + `
FROM menu_items
WHERE id = $1 AND restaurant_id = $2 AND is_active = true
`

func (q *Queries) GetMenuItem(ctx context.Context, arg GetMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, getMenuItem, arg.ID, arg.RestaurantID))
}

type CreateMenuItemParams struct {
	RestaurantID   uuid.UUID
	CategoryID     uuid.UUID
	NameFr         string
	NameEn         pgtype.Text
	NameTr         pgtype.Text
	DescriptionFr  pgtype.Text
	DescriptionEn  pgtype.Text
	DescriptionTr  pgtype.Text
	Price          pgtype.Numeric
	PromotionPrice pgtype.Numeric
	TaxPercentage  pgtype.Numeric
	ImageUrl       pgtype.Text
	AvailableFrom  pgtype.Text
	AvailableUntil pgtype.Text
	InStock        bool
	DisplayOrder   int32
}

const createMenuItem = `
INSERT INTO menu_items (restaurant_id, category_id, name_fr, name_en, name_tr, description_fr, description_en, description_tr, price, promotion_price, tax_percentage, image_url, available_from, available_until, in_stock, display_order, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, true)
RETURNING ` + menuItemColumns + `
`

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, createMenuItem,
		arg.RestaurantID,
		arg.CategoryID,
		arg.NameFr,
		arg.NameEn,
		arg.NameTr,
		arg.DescriptionFr,
		arg.DescriptionEn,
		arg.DescriptionTr,
		arg.Price,
		arg.PromotionPrice,
		arg.TaxPercentage,
		arg.ImageUrl,
		arg.AvailableFrom,
		arg.AvailableUntil,
		arg.InStock,
		arg.DisplayOrder,
	))
}

type UpdateMenuItemParams struct {
	ID             uuid.UUID
	RestaurantID   uuid.UUID
	CategoryID     uuid.UUID
	NameFr         string
	NameEn         pgtype.Text
	NameTr         pgtype.Text
	DescriptionFr  pgtype.Text
	DescriptionEn  pgtype.Text
	DescriptionTr  pgtype.Text
	Price          pgtype.Numeric
	PromotionPrice pgtype.Numeric
	TaxPercentage  pgtype.Numeric
	ImageUrl       pgtype.Text
	AvailableFrom  pgtype.Text
	AvailableUntil pgtype.Text
	InStock        bool
	DisplayOrder   int32
}

const updateMenuItem = `
UPDATE menu_items
SET category_id = $3, name_fr = $4, name_en = $5, name_tr = $6, description_fr = $7, description_en = $8, description_tr = $9, price = $10, promotion_price = $11, tax_percentage = $12, image_url = $13, available_from = $14, available_until = $15, in_stock = $16, display_order = $17, updated_at = now()
WHERE id = $1 AND restaurant_id = $2 AND is_active = true
RETURNING ` + menuItemColumns + `
`

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, updateMenuItem,
		arg.ID,
		arg.RestaurantID,
		arg.CategoryID,
		arg.NameFr,
		arg.NameEn,
		arg.NameTr,
		arg.DescriptionFr,
		arg.DescriptionEn,
		arg.DescriptionTr,
		arg.Price,
		arg.PromotionPrice,
		arg.TaxPercentage,
		arg.ImageUrl,
		arg.AvailableFrom,
		arg.AvailableUntil,
		arg.InStock,
		arg.DisplayOrder,
	))
}

type SoftDeleteMenuItemParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

const softDeleteMenuItem = `
UPDATE menu_items
SET is_active = false, updated_at = now()
WHERE id = $1 AND restaurant_id = $2 AND is_active = true
RETURNING id
`

func (q *Queries) SoftDeleteMenuItem(ctx context.Context, arg SoftDeleteMenuItemParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, softDeleteMenuItem, arg.ID, arg.RestaurantID)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}
