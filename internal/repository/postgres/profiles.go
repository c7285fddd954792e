package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venuebook/venuebook/internal/domain"
	"github.com/venuebook/venuebook/internal/repository"
)

type ProfileRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *ProfileRepo) With(db DB) *ProfileRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *ProfileRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const profileColumns = `id, email, full_name, role, is_active, city, created_at, updated_at`

func scanProfile(row interface{ Scan(dest ...any) error }, p *domain.Profile) error {
	return row.Scan(
		&p.ID,
		&p.Email,
		&p.FullName,
		&p.Role,
		&p.Active,
		&p.City,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

// Get retrieves a profile by its ID.
//
// Returns:
//   - error: repository.ErrNotFound if the profile is not found.
func (r *ProfileRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	const op = "postgres.ProfileRepo.Get"

	db := r.handle()

	var p domain.Profile
	err := scanProfile(db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`,
		id,
	), &p)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &p, nil
}

func (r *ProfileRepo) Create(ctx context.Context, p *domain.Profile) error {
	const op = "postgres.ProfileRepo.Create"

	db := r.handle()

	err := db.QueryRow(ctx,
		`INSERT INTO profiles(id, email, full_name, role, is_active, city)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		p.ID, p.Email, p.FullName, p.Role, p.Active, p.City,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

func (r *ProfileRepo) List(ctx context.Context, limit, offset int) ([]domain.Profile, error) {
	const op = "postgres.ProfileRepo.List"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT `+profileColumns+`
		 FROM profiles
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Profile
	for rows.Next() {
		var p domain.Profile
		if err := scanProfile(rows, &p); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (r *ProfileRepo) SetRole(ctx context.Context, id uuid.UUID, role domain.Role) (*domain.Profile, error) {
	const op = "postgres.ProfileRepo.SetRole"

	db := r.handle()

	var p domain.Profile
	err := scanProfile(db.QueryRow(ctx,
		`UPDATE profiles SET role = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING `+profileColumns,
		id, role,
	), &p)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &p, nil
}

func (r *ProfileRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) (*domain.Profile, error) {
	const op = "postgres.ProfileRepo.SetActive"

	db := r.handle()

	var p domain.Profile
	err := scanProfile(db.QueryRow(ctx,
		`UPDATE profiles SET is_active = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING `+profileColumns,
		id, active,
	), &p)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &p, nil
}

func (r *ProfileRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "postgres.ProfileRepo.Delete"

	db := r.handle()

	tag, err := db.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}
