package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OutboxRecord is a domain event staged in the same transaction as the
// mutation that produced it. A background publisher drains the table; broker
// failures never roll back ledger writes.
type OutboxRecord struct {
	ID        uuid.UUID
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

type OutboxRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *OutboxRepo) With(db DB) *OutboxRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *OutboxRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *OutboxRepo) Insert(ctx context.Context, eventType string, payload []byte) error {
	const op = "postgres.OutboxRepo.Insert"

	db := r.handle()

	if _, err := db.Exec(ctx,
		`INSERT INTO outbox(id, event_type, payload, status)
		 VALUES ($1, $2, $3, 'new')`,
		uuid.New(), eventType, payload,
	); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// FetchUnpublished returns up to limit unpublished records, oldest first.
// Nothing is claimed: rows stay 'new' until MarkPublished, so a second
// drainer (or a crash between publish and mark) re-delivers. Delivery is
// at-least-once; consumers deduplicate on the message id, which carries the
// record id.
func (r *OutboxRepo) FetchUnpublished(ctx context.Context, limit int) ([]OutboxRecord, error) {
	const op = "postgres.OutboxRepo.FetchUnpublished"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, event_type, payload, created_at
		 FROM outbox
		 WHERE status = 'new'
		 ORDER BY created_at ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []OutboxRecord
	for rows.Next() {
		var rec OutboxRecord
		if err := rows.Scan(&rec.ID, &rec.EventType, &rec.Payload, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (r *OutboxRepo) MarkPublished(ctx context.Context, id uuid.UUID) error {
	const op = "postgres.OutboxRepo.MarkPublished"

	db := r.handle()

	if _, err := db.Exec(ctx,
		`UPDATE outbox
		 SET status = 'published', published_at = now()
		 WHERE id = $1`,
		id,
	); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}
