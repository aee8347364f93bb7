package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dagfinn/faktura/internal/domain"
)

// ActivityStore implements domain.ActivityStore using PostgreSQL.
type ActivityStore struct {
	pool *pgxpool.Pool
}

// Compile-time check to ensure ActivityStore implements domain.ActivityStore.
var _ domain.ActivityStore = (*ActivityStore)(nil)

// NewActivityStore creates a new ActivityStore instance.
func NewActivityStore(pool *pgxpool.Pool) *ActivityStore {
	return &ActivityStore{pool: pool}
}

// CreateActivity appends one audit row.
func (s *ActivityStore) CreateActivity(ctx context.Context, a *domain.Activity) error {
	metadata, err := json.Marshal(orEmpty(a.Metadata))
	if err != nil {
		return domain.Internal(err, "activity.create", "failed to encode metadata")
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO activities (id, user_id, invoice_id, type, text, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.UserID, a.InvoiceID, string(a.Type), a.Text, metadata, a.CreatedAt,
	)
	if err != nil {
		return domain.Internal(err, "activity.create", "failed to insert activity")
	}

	return nil
}
