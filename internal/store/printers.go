package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const printConfigColumns = `id, restaurant_id, name, transport, printer_id, endpoint_url, api_key_encrypted, paper_width, is_active, created_at, updated_at`

func scanPrintConfig(row interface {
	Scan(dest ...interface{}) error
}) (PrintConfig, error) {
	var i PrintConfig
	err := row.Scan(
		&i.ID,
		&i.RestaurantID,
		&i.Name,
		&i.Transport,
		&i.PrinterID,
		&i.EndpointUrl,
		&i.ApiKeyEncrypted,
		&i.PaperWidth,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listPrintConfigs = `
SELECT ` + printConfigColumns + `
FROM restaurant_print_config
WHERE restaurant_id = $1 AND is_active = true
ORDER BY name
`

func (q *Queries) ListPrintConfigs(ctx context.Context, restaurantID uuid.UUID) ([]PrintConfig, error) {
	rows, err := q.db.Query(ctx, listPrintConfigs, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PrintConfig
	for rows.Next() {
		i, err := scanPrintConfig(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type GetPrintConfigParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

const getPrintConfig = `
SELECT ` + printConfigColumns + `
FROM restaurant_print_config
WHERE id = $1 AND restaurant_id = $2 AND is_active = true
`

func (q *Queries) GetPrintConfig(ctx context.Context, arg GetPrintConfigParams) (PrintConfig, error) {
	return scanPrintConfig(q.db.QueryRow(ctx, getPrintConfig, arg.ID, arg.RestaurantID))
}

type CreatePrintConfigParams struct {
	RestaurantID    uuid.UUID
	Name            string
	Transport       string
	PrinterID       pgtype.Text
	EndpointUrl     pgtype.Text
	ApiKeyEncrypted pgtype.Text
	PaperWidth      int32
}

const createPrintConfig = `
INSERT INTO restaurant_print_config (restaurant_id, name, transport, printer_id, endpoint_url, api_key_encrypted, paper_width, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, true)
RETURNING ` + printConfigColumns + `
`

func (q *Queries) CreatePrintConfig(ctx context.Context, arg CreatePrintConfigParams) (PrintConfig, error) {
	return scanPrintConfig(q.db.QueryRow(ctx, createPrintConfig,
		arg.RestaurantID,
		arg.Name,
		arg.Transport,
		arg.PrinterID,
		arg.EndpointUrl,
		arg.ApiKeyEncrypted,
		arg.PaperWidth,
	))
}

type UpdatePrintConfigParams struct {
	ID              uuid.UUID
	RestaurantID    uuid.UUID
	Name            string
	Transport       string
	PrinterID       pgtype.Text
	EndpointUrl     pgtype.Text
	ApiKeyEncrypted pgtype.Text
	PaperWidth      int32
}

const updatePrintConfig = `
UPDATE restaurant_print_config
SET name = $3, transport = $4, printer_id = $5, endpoint_url = $6, api_key_encrypted = $7, paper_width = $8, updated_at = now()
WHERE id = $1 AND restaurant_id = $2 AND is_active = true
RETURNING ` + printConfigColumns + `
`

func (q *Queries) UpdatePrintConfig(ctx context.Context, arg UpdatePrintConfigParams) (PrintConfig, error) {
	return scanPrintConfig(q.db.QueryRow(ctx, updatePrintConfig,
		arg.ID,
		arg.RestaurantID,
		arg.Name,
		arg.Transport,
		arg.PrinterID,
		arg.EndpointUrl,
		arg.ApiKeyEncrypted,
		arg.PaperWidth,
	))
}

type SoftDeletePrintConfigParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

const softDeletePrintConfig = `
UPDATE restaurant_print_config
SET is_active = false, updated_at = now()
WHERE id = $1 AND restaurant_id = $2 AND is_active = true
RETURNING id
`

func (q *Queries) SoftDeletePrintConfig(ctx context.Context, arg SoftDeletePrintConfigParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, softDeletePrintConfig, arg.ID, arg.RestaurantID)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}
