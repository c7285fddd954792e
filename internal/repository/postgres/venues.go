package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venuebook/venuebook/internal/domain"
	"github.com/venuebook/venuebook/internal/repository"
)

type VenueRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *VenueRepo) With(db DB) *VenueRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *VenueRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const venueColumns = `id, name, type, city, capacity, price_cents, description,
	amenities, status, owner_id, opens_at_min, closes_at_min, created_at, updated_at`

func scanVenue(row interface{ Scan(dest ...any) error }, v *domain.Venue) error {
	return row.Scan(
		&v.ID,
		&v.Name,
		&v.Type,
		&v.City,
		&v.Capacity,
		&v.PriceCents,
		&v.Description,
		&v.Amenities,
		&v.Status,
		&v.OwnerID,
		&v.OpensAtMin,
		&v.ClosesAtMin,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
}

// Get retrieves a venue by its ID.
//
// Returns:
//   - *domain.Venue: the venue when found.
//   - error: repository.ErrNotFound if the venue is not found.
func (r *VenueRepo) Get(ctx context.Context, id int64) (*domain.Venue, error) {
	const op = "postgres.VenueRepo.Get"

	db := r.handle()

	var v domain.Venue
	err := scanVenue(db.QueryRow(ctx,
		`SELECT `+venueColumns+` FROM venues WHERE id = $1`,
		id,
	), &v)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &v, nil
}

// GetForUpdate locks the venue row for the duration of the enclosing
// transaction. The booking check-then-insert sequence takes this lock so
// concurrent creates for the same venue serialize; creates on different
// venues do not contend.
func (r *VenueRepo) GetForUpdate(ctx context.Context, id int64) (*domain.Venue, error) {
	const op = "postgres.VenueRepo.GetForUpdate"

	db := r.handle()

	var v domain.Venue
	err := scanVenue(db.QueryRow(ctx,
		`SELECT `+venueColumns+` FROM venues WHERE id = $1 FOR UPDATE`,
		id,
	), &v)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &v, nil
}

// List returns venues matching the filter, newest first. Text queries match
// name and description case-insensitively; city and type match exactly.
func (r *VenueRepo) List(
	ctx context.Context,
	filter domain.VenueFilter,
	limit, offset int,
) ([]domain.Venue, error) {
	const op = "postgres.VenueRepo.List"

	db := r.handle()

	var (
		where []string
		args  []any
	)

	if filter.City != "" {
		args = append(args, filter.City)
		where = append(where, fmt.Sprintf("city = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.TextQuery != "" {
		args = append(args, "%"+escapeLike(filter.TextQuery)+"%")
		where = append(where, fmt.Sprintf(
			"(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args),
		))
	}

	query := `SELECT ` + venueColumns + ` FROM venues`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}

	args = append(args, limit, offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Venue
	for rows.Next() {
		var v domain.Venue
		if err := scanVenue(rows, &v); err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// escapeLike neutralizes LIKE metacharacters so a user-supplied search term
// matches literally instead of acting as a pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *VenueRepo) Create(ctx context.Context, v *domain.Venue) (int64, error) {
	const op = "postgres.VenueRepo.Create"

	db := r.handle()

	var id int64
	if err := db.QueryRow(ctx,
		`INSERT INTO venues(
			name, type, city, capacity, price_cents, description,
			amenities, status, owner_id, opens_at_min, closes_at_min
		 )
       	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
     	 RETURNING id`,
		v.Name, v.Type, v.City, v.Capacity, v.PriceCents, v.Description,
		v.Amenities, v.Status, v.OwnerID, v.OpensAtMin, v.ClosesAtMin,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

// Update applies non-nil patch fields and returns the updated venue.
//
// Returns:
//   - error: repository.ErrNotFound if the venue is not found.
func (r *VenueRepo) Update(
	ctx context.Context,
	id int64,
	patch domain.VenuePatch,
) (*domain.Venue, error) {
	const op = "postgres.VenueRepo.Update"

	db := r.handle()

	var v domain.Venue
	err := scanVenue(db.QueryRow(ctx,
		`UPDATE venues SET
			name          = COALESCE($2, name),
			type          = COALESCE($3, type),
			city          = COALESCE($4, city),
			capacity      = COALESCE($5, capacity),
			price_cents   = COALESCE($6, price_cents),
			description   = COALESCE($7, description),
			amenities     = COALESCE($8, amenities),
			opens_at_min  = COALESCE($9, opens_at_min),
			closes_at_min = COALESCE($10, closes_at_min),
			updated_at    = now()
		 WHERE id = $1
		 RETURNING `+venueColumns,
		id,
		patch.Name, patch.Type, patch.City, patch.Capacity, patch.PriceCents,
		patch.Description, patch.Amenities, patch.OpensAtMin, patch.ClosesAtMin,
	), &v)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &v, nil
}

// SetStatus moves the venue into a lifecycle status. Existing bookings are
// left untouched; cancelling them is a separate, explicit operation.
func (r *VenueRepo) SetStatus(ctx context.Context, id int64, status domain.VenueStatus) error {
	const op = "postgres.VenueRepo.SetStatus"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE venues SET status = $2, updated_at = now() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}
