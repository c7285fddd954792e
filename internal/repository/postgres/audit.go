package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venuebook/venuebook/internal/domain"
)

// AuditRepo appends to the user_activity_log table. Rows are never updated
// or deleted here; retention is an operational concern.
type AuditRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *AuditRepo) With(db DB) *AuditRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *AuditRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Record inserts an audit entry. Callers run this on the same transaction
// handle as the mutation it describes; a failed audit write therefore fails
// the mutation instead of being dropped.
func (r *AuditRepo) Record(
	ctx context.Context,
	userID uuid.UUID,
	action string,
	details []byte,
) error {
	const op = "postgres.AuditRepo.Record"

	db := r.handle()

	if _, err := db.Exec(ctx,
		`INSERT INTO user_activity_log(user_id, action, details)
		 VALUES ($1, $2, $3)`,
		userID, action, details,
	); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

func (r *AuditRepo) ListRecent(ctx context.Context, limit, offset int) ([]domain.ActivityLogEntry, error) {
	const op = "postgres.AuditRepo.ListRecent"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, user_id, action, details, created_at
		 FROM user_activity_log
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.ActivityLogEntry
	for rows.Next() {
		var e domain.ActivityLogEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}
