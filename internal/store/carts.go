package store

import (
	"context"

	"github.com/google/uuid"
)

type GetCartSessionParams struct {
	RestaurantID uuid.UUID
	SessionID    string
}

const getCartSession = `
SELECT restaurant_id, session_id, payload, updated_at
FROM cart_sessions
WHERE restaurant_id = $1 AND session_id = $2
`

func (q *Queries) GetCartSession(ctx context.Context, arg GetCartSessionParams) (CartSession, error) {
	row := q.db.QueryRow(ctx, getCartSession, arg.RestaurantID, arg.SessionID)
	var i CartSession
	err := row.Scan(
		&i.RestaurantID,
		&i.SessionID,
		&i.Payload,
		&i.UpdatedAt,
	)
	return i, err
}

type UpsertCartSessionParams struct {
	RestaurantID uuid.UUID
	SessionID    string
	Payload      []byte
}

const upsertCartSession = `
INSERT INTO cart_sessions (restaurant_id, session_id, payload, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (restaurant_id, session_id) DO UPDATE SET payload = $3, updated_at = now()
`

func (q *Queries) UpsertCartSession(ctx context.Context, arg UpsertCartSessionParams) error {
	_, err := q.db.Exec(ctx, upsertCartSession, arg.RestaurantID, arg.SessionID, arg.Payload)
	return err
}

type DeleteCartSessionParams struct {
	RestaurantID uuid.UUID
	SessionID    string
}

const deleteCartSession = `
DELETE FROM cart_sessions
WHERE restaurant_id = $1 AND session_id = $2
`

func (q *Queries) DeleteCartSession(ctx context.Context, arg DeleteCartSessionParams) error {
	_, err := q.db.Exec(ctx, deleteCartSession, arg.RestaurantID, arg.SessionID)
	return err
}

const purgeStaleCartSessions = `
DELETE FROM cart_sessions
WHERE updated_at < now() - $1::interval
`

func (q *Queries) PurgeStaleCartSessions(ctx context.Context, olderThan string) (int64, error) {
	tag, err := q.db.Exec(ctx, purgeStaleCartSessions, olderThan)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
