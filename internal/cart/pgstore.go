package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/komanda-kiosk/api/internal/store"
)

// SessionQueries defines the DB methods the persistent cart store needs.
// Satisfied by *store.Queries.
type SessionQueries interface {
	GetCartSession(ctx context.Context, arg store.GetCartSessionParams) (store.CartSession, error)
	UpsertCartSession(ctx context.Context, arg store.UpsertCartSessionParams) error
}

// PGStore persists cart snapshots in the cart_sessions table so a kiosk
// session survives server restarts.
type PGStore struct {
	q SessionQueries
}

// NewPGStore creates a PGStore over the given queries.
func NewPGStore(q SessionQueries) *PGStore {
	return &PGStore{q: q}
}

func (s *PGStore) Load(ctx context.Context, restaurantID uuid.UUID, sessionID string) ([]byte, error) {
	cs, err := s.q.GetCartSession(ctx, store.GetCartSessionParams{
		RestaurantID: restaurantID,
		SessionID:    sessionID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoSavedCart
		}
		return nil, err
	}
	return cs.Payload, nil
}

func (s *PGStore) Save(ctx context.Context, restaurantID uuid.UUID, sessionID string, data []byte) error {
	return s.q.UpsertCartSession(ctx, store.UpsertCartSessionParams{
		RestaurantID: restaurantID,
		SessionID:    sessionID,
		Payload:      data,
	})
}
