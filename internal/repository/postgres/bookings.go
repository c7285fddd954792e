package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venuebook/venuebook/internal/domain"
)

type BookingRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *BookingRepo) With(db DB) *BookingRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *BookingRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const bookingColumns = `id, venue_id, requester_id, starts_at, ends_at, participants,
	total_price_cents, status, payment_status, late_cancellation, created_at, updated_at`

func scanBooking(row interface{ Scan(dest ...any) error }, b *domain.Booking) error {
	return row.Scan(
		&b.ID,
		&b.VenueID,
		&b.RequesterID,
		&b.Range.Start,
		&b.Range.End,
		&b.Participants,
		&b.TotalPriceCents,
		&b.Status,
		&b.PaymentStatus,
		&b.LateCancellation,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
}

// HasOverlap reports whether any pending or confirmed booking on the venue
// overlaps the half-open range. Run inside the create transaction after the
// venue row lock so the answer reflects the latest committed writes.
func (r *BookingRepo) HasOverlap(
	ctx context.Context,
	venueID int64,
	rng domain.TimeRange,
) (bool, error) {
	const op = "postgres.BookingRepo.HasOverlap"

	db := r.handle()

	var exists bool
	err := db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE venue_id = $1
			  AND status IN ('pending', 'confirmed')
			  AND starts_at < $3
			  AND $2 < ends_at
		 )`,
		venueID, rng.Start, rng.End,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return exists, nil
}

// Insert appends a booking record. The bookings table carries an exclusion
// constraint on (venue_id, tstzrange(starts_at, ends_at)) for pending and
// confirmed rows, so an overlap that slips past HasOverlap still surfaces as
// repository.ErrConflict rather than a silent double booking.
func (r *BookingRepo) Insert(ctx context.Context, b *domain.Booking) error {
	const op = "postgres.BookingRepo.Insert"

	db := r.handle()

	err := db.QueryRow(ctx,
		`INSERT INTO bookings(
			id, venue_id, requester_id, starts_at, ends_at, participants,
			total_price_cents, status, payment_status
		 )
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at, updated_at`,
		b.ID, b.VenueID, b.RequesterID, b.Range.Start, b.Range.End,
		b.Participants, b.TotalPriceCents, b.Status, b.PaymentStatus,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// Get retrieves a booking by its ID.
//
// Returns:
//   - error: repository.ErrNotFound if the booking is not found.
func (r *BookingRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.Get"

	db := r.handle()

	var b domain.Booking
	err := scanBooking(db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`,
		id,
	), &b)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &b, nil
}

// GetForUpdate locks the booking row for the enclosing transaction so
// concurrent transitions on the same booking serialize.
func (r *BookingRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.GetForUpdate"

	db := r.handle()

	var b domain.Booking
	err := scanBooking(db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`,
		id,
	), &b)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &b, nil
}

func (r *BookingRepo) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.BookingStatus,
	lateCancellation bool,
) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.UpdateStatus"

	db := r.handle()

	var b domain.Booking
	err := scanBooking(db.QueryRow(ctx,
		`UPDATE bookings
		 SET status = $2, late_cancellation = late_cancellation OR $3, updated_at = now()
		 WHERE id = $1
		 RETURNING `+bookingColumns,
		id, status, lateCancellation,
	), &b)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &b, nil
}

func (r *BookingRepo) SetPaymentStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.PaymentStatus,
) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.SetPaymentStatus"

	db := r.handle()

	var b domain.Booking
	err := scanBooking(db.QueryRow(ctx,
		`UPDATE bookings
		 SET payment_status = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING `+bookingColumns,
		id, status,
	), &b)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &b, nil
}

// ListForUser returns the user's bookings, most recent start first.
func (r *BookingRepo) ListForUser(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]domain.Booking, error) {
	const op = "postgres.BookingRepo.ListForUser"

	return r.list(ctx, op,
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE requester_id = $1
		 ORDER BY starts_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
}

// ListForVenue returns the venue's bookings in operational order, earliest
// start first.
func (r *BookingRepo) ListForVenue(
	ctx context.Context,
	venueID int64,
	limit, offset int,
) ([]domain.Booking, error) {
	const op = "postgres.BookingRepo.ListForVenue"

	return r.list(ctx, op,
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE venue_id = $1
		 ORDER BY starts_at ASC
		 LIMIT $2 OFFSET $3`,
		venueID, limit, offset,
	)
}

func (r *BookingRepo) ListAll(ctx context.Context, limit, offset int) ([]domain.Booking, error) {
	const op = "postgres.BookingRepo.ListAll"

	return r.list(ctx, op,
		`SELECT `+bookingColumns+`
		 FROM bookings
		 ORDER BY starts_at ASC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
}

func (r *BookingRepo) list(
	ctx context.Context,
	op string,
	query string,
	args ...any,
) ([]domain.Booking, error) {
	db := r.handle()

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// OccupiedRanges returns the time ranges of pending and confirmed bookings
// that intersect the window, ordered by start.
func (r *BookingRepo) OccupiedRanges(
	ctx context.Context,
	venueID int64,
	window domain.TimeRange,
) ([]domain.TimeRange, error) {
	const op = "postgres.BookingRepo.OccupiedRanges"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT starts_at, ends_at
		 FROM bookings
		 WHERE venue_id = $1
		   AND status IN ('pending', 'confirmed')
		   AND starts_at < $3
		   AND $2 < ends_at
		 ORDER BY starts_at`,
		venueID, window.Start, window.End,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.TimeRange
	for rows.Next() {
		var tr domain.TimeRange
		if err := rows.Scan(&tr.Start, &tr.End); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// CompleteElapsed flips confirmed bookings whose end time has passed to
// completed. Run periodically by the completion sweeper.
func (r *BookingRepo) CompleteElapsed(ctx context.Context) (int64, error) {
	const op = "postgres.BookingRepo.CompleteElapsed"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE bookings
		 SET status = 'completed', updated_at = now()
		 WHERE status = 'confirmed' AND ends_at <= now()`,
	)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return tag.RowsAffected(), nil
}
