package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venuebook/venuebook/internal/domain"
	"github.com/venuebook/venuebook/internal/repository"
)

type InvitationRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *InvitationRepo) With(db DB) *InvitationRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *InvitationRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Insert creates a pending invitation. A pending invitation already exists
// for the email surfaces as repository.ErrConflict (partial unique index on
// email where status = 'pending').
func (r *InvitationRepo) Insert(ctx context.Context, inv *domain.Invitation) error {
	const op = "postgres.InvitationRepo.Insert"

	db := r.handle()

	err := db.QueryRow(ctx,
		`INSERT INTO user_invitations(email, full_name, role, invited_by, status)
		 VALUES ($1, $2, $3, $4, 'pending')
		 RETURNING id, created_at`,
		inv.Email, inv.FullName, inv.Role, inv.InvitedBy,
	).Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	inv.Status = domain.InvitationPending

	return nil
}

func (r *InvitationRepo) Get(ctx context.Context, id int64) (*domain.Invitation, error) {
	const op = "postgres.InvitationRepo.Get"

	db := r.handle()

	var inv domain.Invitation
	err := db.QueryRow(ctx,
		`SELECT id, email, full_name, role, invited_by, status, created_at
		 FROM user_invitations
		 WHERE id = $1`,
		id,
	).Scan(
		&inv.ID,
		&inv.Email,
		&inv.FullName,
		&inv.Role,
		&inv.InvitedBy,
		&inv.Status,
		&inv.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &inv, nil
}

func (r *InvitationRepo) ListPending(ctx context.Context, limit, offset int) ([]domain.Invitation, error) {
	const op = "postgres.InvitationRepo.ListPending"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, email, full_name, role, invited_by, status, created_at
		 FROM user_invitations
		 WHERE status = 'pending'
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Invitation
	for rows.Next() {
		var inv domain.Invitation
		if err := rows.Scan(
			&inv.ID,
			&inv.Email,
			&inv.FullName,
			&inv.Role,
			&inv.InvitedBy,
			&inv.Status,
			&inv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (r *InvitationRepo) SetStatus(
	ctx context.Context,
	id int64,
	status domain.InvitationStatus,
) error {
	const op = "postgres.InvitationRepo.SetStatus"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE user_invitations SET status = $2 WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}
