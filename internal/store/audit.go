package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type CreateAuditLogParams struct {
	RestaurantID uuid.UUID
	ActorID      pgtype.UUID
	Action       string
	Detail       string
}

const createAuditLog = `
INSERT INTO security_audit_log (restaurant_id, actor_id, action, detail)
VALUES ($1, $2, $3, $4)
RETURNING id, restaurant_id, actor_id, action, detail, created_at
`

func (q *Queries) CreateAuditLog(ctx context.Context, arg CreateAuditLogParams) (SecurityAuditLog, error) {
	row := q.db.QueryRow(ctx, createAuditLog, arg.RestaurantID, arg.ActorID, arg.Action, arg.Detail)
	var i SecurityAuditLog
	err := row.Scan(
		&i.ID,
		&i.RestaurantID,
		&i.ActorID,
		&i.Action,
		&i.Detail,
		&i.CreatedAt,
	)
	return i, err
}

type ListAuditLogParams struct {
	RestaurantID uuid.UUID
	Limit        int32
}

const listAuditLog = `
SELECT id, restaurant_id, actor_id, action, detail, created_at
FROM security_audit_log
WHERE restaurant_id = $1
ORDER BY created_at DESC
LIMIT $2
`

func (q *Queries) ListAuditLog(ctx context.Context, arg ListAuditLogParams) ([]SecurityAuditLog, error) {
	rows, err := q.db.Query(ctx, listAuditLog, arg.RestaurantID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SecurityAuditLog
	for rows.Next() {
		var i SecurityAuditLog
		if err := rows.Scan(
			&i.ID,
			&i.RestaurantID,
			&i.ActorID,
			&i.Action,
			&i.Detail,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
