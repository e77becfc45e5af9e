package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const listOptionsByMenuItem = `
SELECT id, menu_item_id, name_fr, name_en, name_tr, required, multiple, display_order, is_active, created_at, updated_at
FROM menu_item_options
WHERE menu_item_id = $1 AND is_active = true
ORDER BY display_order, name_fr
`

func (q *Queries) ListOptionsByMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]MenuItemOption, error) {
	rows, err := q.db.Query(ctx, listOptionsByMenuItem, menuItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItemOption
	for rows.Next() {
		var i MenuItemOption
		if err := rows.Scan(
			&i.ID,
			&i.MenuItemID,
			&i.NameFr,
			&i.NameEn,
			&i.NameTr,
			&i.Required,
			&i.Multiple,
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

const getMenuItemOption = `
SELECT id, menu_item_id, name_fr, name_en, name_tr, required, multiple, display_order, is_active, created_at, updated_at
FROM menu_item_options
WHERE id = $1 AND is_active = true
`

func (q *Queries) GetMenuItemOption(ctx context.Context, id uuid.UUID) (MenuItemOption, error) {
	row := q.db.QueryRow(ctx, getMenuItemOption, id)
	var i MenuItemOption
	err := row.Scan(
		&i.ID,
		&i.MenuItemID,
		&i.NameFr,
		&i.NameEn,
		&i.NameTr,
		&i.Required,
		&i.Multiple,
		&i.DisplayOrder,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

type CreateMenuItemOptionParams struct {
	MenuItemID   uuid.UUID
	NameFr       string
	NameEn       pgtype.Text
	NameTr       pgtype.Text
	Required     bool
	Multiple     bool
	DisplayOrder int32
}

const createMenuItemOption = `
INSERT INTO menu_item_options (menu_item_id, name_fr, name_en, name_tr, required, multiple, display_order, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, true)
RETURNING id, menu_item_id, name_fr, name_en, name_tr, required, multiple, display_order, is_active, created_at, updated_at
`

func (q *Queries) CreateMenuItemOption(ctx context.Context, arg CreateMenuItemOptionParams) (MenuItemOption, error) {
	row := q.db.QueryRow(ctx, createMenuItemOption,
		arg.MenuItemID,
		arg.NameFr,
		arg.NameEn,
		arg.NameTr,
		arg.Required,
		arg.Multiple,
		arg.DisplayOrder,
	)
	var i MenuItemOption
	err := row.Scan(
		&i.ID,
		&i.MenuItemID,
		&i.NameFr,
		&i.NameEn,
		&i.NameTr,
		&i.Required,
		&i.Multiple,
		&i.DisplayOrder,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

type UpdateMenuItemOptionParams struct {
	ID           uuid.UUID
	NameFr       string
	NameEn       pgtype.Text
	NameTr       pgtype.Text
	Required     bool
	Multiple     bool
	DisplayOrder int32
}

const updateMenuItemOption = `
UPDATE menu_item_options
SET name_fr = $2, name_en = $3, name_tr = $4, required = $5, multiple = $6, display_order = $7, updated_at = now()
WHERE id = $1 AND is_active = true
RETURNING id, menu_item_id, name_fr, name_en, name_tr, required, multiple, display_order, is_active, created_at, updated_at
`

func (q *Queries) UpdateMenuItemOption(ctx context.Context, arg UpdateMenuItemOptionParams) (MenuItemOption, error) {
	row := q.db.QueryRow(ctx, updateMenuItemOption,
		arg.ID,
		arg.NameFr,
		arg.NameEn,
		arg.NameTr,
		arg.Required,
		arg.Multiple,
		arg.DisplayOrder,
	)
	var i MenuItemOption
	err := row.Scan(
		&i.ID,
		&i.MenuItemID,
		&i.NameFr,
		&i.NameEn,
		&i.NameTr,
		&i.Required,
		&i.Multiple,
		&i.DisplayOrder,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const softDeleteMenuItemOption = `
UPDATE menu_item_options
SET is_active = false, updated_at = now()
WHERE id = $1 AND is_active = true
RETURNING id
`

func (q *Queries) SoftDeleteMenuItemOption(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, softDeleteMenuItemOption, id)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}

const listChoicesByOption = `
SELECT id, option_id, name_fr, name_en, name_tr, price_delta, display_order, is_active, created_at, updated_at
FROM option_choices
WHERE option_id = $1 AND is_active = true
ORDER BY display_order, name_fr
`

func (q *Queries) ListChoicesByOption(ctx context.Context, optionID uuid.UUID) ([]OptionChoice, error) {
	rows, err := q.db.Query(ctx, listChoicesByOption, optionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OptionChoice
	for rows.Next() {
		var i OptionChoice
		if err := rows.Scan(
			&i.ID,
			&i.OptionID,
			&i.NameFr,
			&i.NameEn,
			&i.NameTr,
			&i.PriceDelta,
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

type CreateOptionChoiceParams struct {
	OptionID     uuid.UUID
	NameFr       string
	NameEn       pgtype.Text
	NameTr       pgtype.Text
	PriceDelta   pgtype.Numeric
	DisplayOrder int32
}

const createOptionChoice = `
INSERT INTO option_choices (option_id, name_fr, name_en, name_tr, price_delta, display_order, is_active)
VALUES ($1, $2, $3, $4, $5, $6, true)
RETURNING id, option_id, name_fr, name_en, name_tr, price_delta, display_order, is_active, created_at, updated_at
`

func (q *Queries) CreateOptionChoice(ctx context.Context, arg CreateOptionChoiceParams) (OptionChoice, error) {
	row := q.db.QueryRow(ctx, createOptionChoice,
		arg.OptionID,
		arg.NameFr,
		arg.NameEn,
		arg.NameTr,
		arg.PriceDelta,
		arg.DisplayOrder,
	)
	var i OptionChoice
	err := row.Scan(
		&i.ID,
		&i.OptionID,
		&i.NameFr,
		&i.NameEn,
		&i.NameTr,
		&i.PriceDelta,
		&i.DisplayOrder,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

type UpdateOptionChoiceParams struct {
	ID           uuid.UUID
	NameFr       string
	NameEn       pgtype.Text
	NameTr       pgtype.Text
	PriceDelta   pgtype.Numeric
	DisplayOrder int32
}

const updateOptionChoice = `
UPDATE option_choices
SET name_fr = $2, name_en = $3, name_tr = $4, price_delta = $5, display_order = $6, updated_at = now()
WHERE id = $1 AND is_active = true
RETURNING id, option_id, name_fr, name_en, name_tr, price_delta, display_order, is_active, created_at, updated_at
`

func (q *Queries) UpdateOptionChoice(ctx context.Context, arg UpdateOptionChoiceParams) (OptionChoice, error) {
	row := q.db.QueryRow(ctx, updateOptionChoice,
		arg.ID,
		arg.NameFr,
		arg.NameEn,
		arg.NameTr,
		arg.PriceDelta,
		arg.DisplayOrder,
	)
	var i OptionChoice
	err := row.Scan(
		&i.ID,
		&i.OptionID,
		&i.NameFr,
		&i.NameEn,
		&i.NameTr,
		&i.PriceDelta,
		&i.DisplayOrder,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const softDeleteOptionChoice = `
UPDATE option_choices
SET is_active = false, updated_at = now()
WHERE id = $1 AND is_active = true
RETURNING id
`

func (q *Queries) SoftDeleteOptionChoice(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, softDeleteOptionChoice, id)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}
