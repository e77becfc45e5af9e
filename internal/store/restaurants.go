package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getRestaurant = `
SELECT id, name, address, phone, currency_code, tax_rate, default_language, is_active, created_at, updated_at
FROM restaurants
WHERE id = $1 AND is_active = true
`

func (q *Queries) GetRestaurant(ctx context.Context, id uuid.UUID) (Restaurant, error) {
	row := q.db.QueryRow(ctx, getRestaurant, id)
	var i Restaurant
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Address,
		&i.Phone,
		&i.CurrencyCode,
		&i.TaxRate,
		&i.DefaultLanguage,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

type UpdateRestaurantParams struct {
	ID              uuid.UUID
	Name            string
	Address         pgtype.Text
	Phone           pgtype.Text
	CurrencyCode    string
	TaxRate         pgtype.Numeric
	DefaultLanguage string
}

const updateRestaurant = `
UPDATE restaurants
SET name = $2, address = $3, phone = $4, currency_code = $5, tax_rate = $6, default_language = $7, updated_at = now()
WHERE id = $1 AND is_active = true
RETURNING id, name, address, phone, currency_code, tax_rate, default_language, is_active, created_at, updated_at
`

func (q *Queries) UpdateRestaurant(ctx context.Context, arg UpdateRestaurantParams) (Restaurant, error) {
	row := q.db.QueryRow(ctx, updateRestaurant,
		arg.ID,
		arg.Name,
		arg.Address,
		arg.Phone,
		arg.CurrencyCode,
		arg.TaxRate,
		arg.DefaultLanguage,
	)
	var i Restaurant
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Address,
		&i.Phone,
		&i.CurrencyCode,
		&i.TaxRate,
		&i.DefaultLanguage,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getUserByEmail = `
SELECT id, restaurant_id, email, hashed_password, full_name, role, is_active, created_at, updated_at
FROM users
WHERE email = $1 AND is_active = true
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByEmail, email)
	var i User
	err := row.Scan(
		&i.ID,
		&i.RestaurantID,
		&i.Email,
		&i.HashedPassword,
		&i.FullName,
		&i.Role,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getUser = `
SELECT id, restaurant_id, email, hashed_password, full_name, role, is_active, created_at, updated_at
FROM users
WHERE id = $1 AND is_active = true
`

func (q *Queries) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRow(ctx, getUser, id)
	var i User
	err := row.Scan(
		&i.ID,
		&i.RestaurantID,
		&i.Email,
		&i.HashedPassword,
		&i.FullName,
		&i.Role,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
