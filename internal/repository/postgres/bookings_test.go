package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/venuebook/venuebook/internal/domain"
	"github.com/venuebook/venuebook/internal/repository"
	postgresrepo "github.com/venuebook/venuebook/internal/repository/postgres"
	"github.com/venuebook/venuebook/internal/uow"
)

const schema = `
	CREATE EXTENSION IF NOT EXISTS btree_gist;

	CREATE TABLE venues (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		city TEXT NOT NULL,
		capacity INT NOT NULL,
		price_cents INT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		amenities TEXT[] NOT NULL DEFAULT '{}',
		status TEXT NOT NULL DEFAULT 'active',
		owner_id UUID,
		opens_at_min INT NOT NULL DEFAULT 0,
		closes_at_min INT NOT NULL DEFAULT 1440,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE bookings (
		id UUID PRIMARY KEY,
		venue_id BIGINT NOT NULL REFERENCES venues(id),
		requester_id UUID NOT NULL,
		starts_at TIMESTAMPTZ NOT NULL,
		ends_at TIMESTAMPTZ NOT NULL,
		participants INT NOT NULL,
		total_price_cents INT NOT NULL,
		status TEXT NOT NULL,
		payment_status TEXT NOT NULL DEFAULT 'unpaid',
		late_cancellation BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		EXCLUDE USING gist (
			venue_id WITH =,
			tstzrange(starts_at, ends_at) WITH &&
		) WHERE (status IN ('pending', 'confirmed'))
	);
`

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()

	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: "postgres:16-alpine",
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "venuebook",
			},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	host, err := pgContainer.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatal(err)
	}

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/venuebook?sslmode=disable", host, port.Port())

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, schema); err != nil {
		t.Fatal(err)
	}

	return pool
}

func createVenue(t *testing.T, store *postgresrepo.Store, capacity int) int64 {
	t.Helper()

	id, err := store.Venues().Create(context.Background(), &domain.Venue{
		Name:        "Hall A",
		Type:        "conference",
		City:        "Riga",
		Capacity:    capacity,
		PriceCents:  5000,
		Status:      domain.VenueActive,
		OpensAtMin:  8 * 60,
		ClosesAtMin: 22 * 60,
	})
	if err != nil {
		t.Fatal(err)
	}

	return id
}

func TestBookingRepo_InsertAndGet(t *testing.T) {
	pool := startPostgres(t)
	store := postgresrepo.NewStore(pool)
	ctx := context.Background()

	venueID := createVenue(t, store, 20)

	start := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	b := &domain.Booking{
		ID:              uuid.New(),
		VenueID:         venueID,
		RequesterID:     uuid.New(),
		Range:           domain.TimeRange{Start: start, End: start.Add(2 * time.Hour)},
		Participants:    10,
		TotalPriceCents: 10000,
		Status:          domain.BookingPending,
		PaymentStatus:   domain.PaymentUnpaid,
	}

	if err := store.Bookings().Insert(ctx, b); err != nil {
		t.Fatal(err)
	}
	if b.CreatedAt.IsZero() {
		t.Error("expected created_at to be populated on insert")
	}

	got, err := store.Bookings().Get(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.VenueID != venueID || got.TotalPriceCents != 10000 || got.Status != domain.BookingPending {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !got.Range.Start.Equal(b.Range.Start) || !got.Range.End.Equal(b.Range.End) {
		t.Errorf("range mismatch: got [%v, %v)", got.Range.Start, got.Range.End)
	}
}

func TestBookingRepo_AdjacentRangesDoNotConflict(t *testing.T) {
	pool := startPostgres(t)
	store := postgresrepo.NewStore(pool)
	ctx := context.Background()

	venueID := createVenue(t, store, 20)

	start := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	first := domain.TimeRange{Start: start, End: start.Add(time.Hour)}
	second := domain.TimeRange{Start: first.End, End: first.End.Add(time.Hour)}

	for _, rng := range []domain.TimeRange{first, second} {
		err := store.Bookings().Insert(ctx, &domain.Booking{
			ID:              uuid.New(),
			VenueID:         venueID,
			RequesterID:     uuid.New(),
			Range:           rng,
			Participants:    5,
			TotalPriceCents: 5000,
			Status:          domain.BookingConfirmed,
			PaymentStatus:   domain.PaymentPaid,
		})
		if err != nil {
			t.Fatalf("adjacent booking rejected: %v", err)
		}
	}

	occupied, err := store.Bookings().HasOverlap(ctx, venueID, domain.TimeRange{
		Start: second.End,
		End:   second.End.Add(time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}
	if occupied {
		t.Error("slot after the last booking should be free")
	}
}

func TestBookingRepo_ExclusionConstraintBacksUpOverlapCheck(t *testing.T) {
	pool := startPostgres(t)
	store := postgresrepo.NewStore(pool)
	ctx := context.Background()

	venueID := createVenue(t, store, 20)

	start := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	rng := domain.TimeRange{Start: start, End: start.Add(2 * time.Hour)}

	insert := func(r domain.TimeRange) error {
		return store.Bookings().Insert(ctx, &domain.Booking{
			ID:              uuid.New(),
			VenueID:         venueID,
			RequesterID:     uuid.New(),
			Range:           r,
			Participants:    5,
			TotalPriceCents: 10000,
			Status:          domain.BookingPending,
			PaymentStatus:   domain.PaymentUnpaid,
		})
	}

	if err := insert(rng); err != nil {
		t.Fatal(err)
	}

	err := insert(domain.TimeRange{Start: rng.Start.Add(time.Hour), End: rng.End.Add(time.Hour)})
	if !errors.Is(err, repository.ErrConflict) {
		t.Errorf("expected conflict for overlapping insert, got %v", err)
	}
}

// Replays the create critical section from N goroutines against one slot.
// The venue row lock serializes the check-then-insert, so exactly one
// goroutine wins and the rest observe the overlap.
func TestBookingRepo_ConcurrentCreateSingleWinner(t *testing.T) {
	pool := startPostgres(t)
	store := postgresrepo.NewStore(pool)
	u := uow.NewUoW(store)
	ctx := context.Background()

	venueID := createVenue(t, store, 20)

	start := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	rng := domain.TimeRange{Start: start, End: start.Add(time.Hour)}

	const workers = 8

	results := make(chan error, workers)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- u.DoWithRetry(ctx, 5, func(
				ctx context.Context,
				tx postgresrepo.DB,
				after func(uow.AfterCommit),
			) error {
				if _, err := store.Venues().With(tx).GetForUpdate(ctx, venueID); err != nil {
					return err
				}

				occupied, err := store.Bookings().With(tx).HasOverlap(ctx, venueID, rng)
				if err != nil {
					return err
				}
				if occupied {
					return repository.ErrConflict
				}

				return store.Bookings().With(tx).Insert(ctx, &domain.Booking{
					ID:              uuid.New(),
					VenueID:         venueID,
					RequesterID:     uuid.New(),
					Range:           rng,
					Participants:    5,
					TotalPriceCents: 5000,
					Status:          domain.BookingPending,
					PaymentStatus:   domain.PaymentUnpaid,
				})
			})
		}()
	}

	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, repository.ErrConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if wins != 1 || conflicts != workers-1 {
		t.Errorf("expected 1 winner and %d conflicts, got %d winners and %d conflicts",
			workers-1, wins, conflicts)
	}
}

func TestBookingRepo_StatusLifecycle(t *testing.T) {
	pool := startPostgres(t)
	store := postgresrepo.NewStore(pool)
	ctx := context.Background()

	venueID := createVenue(t, store, 20)

	elapsed := time.Now().Add(-2 * time.Hour).Truncate(time.Hour)
	b := &domain.Booking{
		ID:              uuid.New(),
		VenueID:         venueID,
		RequesterID:     uuid.New(),
		Range:           domain.TimeRange{Start: elapsed, End: elapsed.Add(time.Hour)},
		Participants:    5,
		TotalPriceCents: 5000,
		Status:          domain.BookingPending,
		PaymentStatus:   domain.PaymentUnpaid,
	}
	if err := store.Bookings().Insert(ctx, b); err != nil {
		t.Fatal(err)
	}

	updated, err := store.Bookings().UpdateStatus(ctx, b.ID, domain.BookingConfirmed, false)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != domain.BookingConfirmed {
		t.Fatalf("expected confirmed, got %s", updated.Status)
	}

	n, err := store.Bookings().CompleteElapsed(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 booking swept to completed, got %d", n)
	}

	got, err := store.Bookings().Get(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.BookingCompleted {
		t.Errorf("expected completed after sweep, got %s", got.Status)
	}
}
