package repository

import (
	"context"
	"database/sql"

	"evlogger/internal/models"
)

// ErrorRepository is the append-only audit sink for classified failures.
type ErrorRepository struct {
	db *sql.DB
}

// NewErrorRepository returns repository.
func NewErrorRepository(db *sql.DB) *ErrorRepository {
	return &ErrorRepository{db: db}
}

// Insert appends an error record.
func (r *ErrorRepository) Insert(ctx context.Context, record *models.ErrorRecord) error {
	const query = `
		INSERT INTO errors (occurred_at, unix_timestamp, kind, detail)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query,
		record.OccurredAt,
		record.OccurredAt.Unix(),
		record.Kind,
		record.Detail,
	)
	return err
}
