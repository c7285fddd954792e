package booking_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/venuebook/venuebook/internal/domain"
	"github.com/venuebook/venuebook/internal/policy"
	redisx "github.com/venuebook/venuebook/internal/redis"
	postgresrepo "github.com/venuebook/venuebook/internal/repository/postgres"
	redisrepo "github.com/venuebook/venuebook/internal/repository/redis"
	"github.com/venuebook/venuebook/internal/service/booking"
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

	CREATE TABLE outbox (
		id UUID PRIMARY KEY,
		event_type TEXT NOT NULL,
		payload JSONB NOT NULL,
		status TEXT NOT NULL DEFAULT 'new',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		published_at TIMESTAMPTZ
	);

	CREATE TABLE user_activity_log (
		id BIGSERIAL PRIMARY KEY,
		user_id UUID NOT NULL,
		action TEXT NOT NULL,
		details JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
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

func startRedis(t *testing.T) *goredis.Client {
	t.Helper()

	ctx := context.Background()

	rdContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = rdContainer.Terminate(ctx) })

	host, err := rdContainer.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := rdContainer.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatal(err)
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr: fmt.Sprintf("%s:%s", host, port.Port()),
	})
	t.Cleanup(func() { _ = rdb.Close() })

	return rdb
}

// newService wires a real Service against throwaway postgres and redis
// containers. The limiter is present but sized so tests never trip it.
func newService(t *testing.T, cfg booking.Config) (*booking.Service, *postgresrepo.Store) {
	t.Helper()

	pool := startPostgres(t)
	rdb := startRedis(t)

	store := postgresrepo.NewStore(pool)
	svc := booking.New(
		store,
		redisrepo.New(rdb),
		redisx.NewVenuesPubSub(rdb),
		redisrepo.NewSlidingWindowLimiter(rdb, "rl-test", 1000, time.Minute),
		cfg,
	)

	return svc, store
}

func createVenue(t *testing.T, store *postgresrepo.Store, capacity, opensAtMin, closesAtMin int) int64 {
	t.Helper()

	id, err := store.Venues().Create(context.Background(), &domain.Venue{
		Name:        "Hall A",
		Type:        "conference",
		City:        "Riga",
		Capacity:    capacity,
		PriceCents:  5000,
		Status:      domain.VenueActive,
		OpensAtMin:  opensAtMin,
		ClosesAtMin: closesAtMin,
	})
	if err != nil {
		t.Fatal(err)
	}

	return id
}

// futureRange pins the start to a fixed UTC hour some days ahead so ranges
// never straddle midnight no matter when the test runs.
func futureRange(days, startHour int, length time.Duration) domain.TimeRange {
	day := time.Now().UTC().AddDate(0, 0, days)
	start := time.Date(day.Year(), day.Month(), day.Day(), startHour, 0, 0, 0, time.UTC)
	return domain.TimeRange{Start: start, End: start.Add(length)}
}

func TestService_Create_PersistsLedgerRow(t *testing.T) {
	svc, store := newService(t, booking.Config{})
	ctx := context.Background()

	venueID := createVenue(t, store, 20, 0, 24*60)
	requester := policy.Actor{ID: uuid.New(), Role: domain.RoleUser}

	b, err := svc.Create(ctx, requester, venueID, futureRange(2, 10, 2*time.Hour), 10, "")
	if err != nil {
		t.Fatal(err)
	}
	if b.Status != domain.BookingPending {
		t.Errorf("expected pending, got %s", b.Status)
	}
	if b.TotalPriceCents != 10000 {
		t.Errorf("expected price frozen at 10000, got %d", b.TotalPriceCents)
	}

	got, err := store.Bookings().Get(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.RequesterID != requester.ID || got.Participants != 10 {
		t.Errorf("persisted row mismatch: %+v", got)
	}
}

func TestService_Create_CapacityExceeded(t *testing.T) {
	svc, store := newService(t, booking.Config{})
	ctx := context.Background()

	venueID := createVenue(t, store, 4, 0, 24*60)
	requester := policy.Actor{ID: uuid.New(), Role: domain.RoleUser}

	_, err := svc.Create(ctx, requester, venueID, futureRange(2, 10, time.Hour), 5, "")
	if !errors.Is(err, booking.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}

	rows, err := store.Bookings().ListForVenue(ctx, venueID, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("rejected create must leave no record, found %d", len(rows))
	}
}

func TestService_Create_OutsideOpeningHours(t *testing.T) {
	svc, store := newService(t, booking.Config{})
	ctx := context.Background()

	venueID := createVenue(t, store, 20, 8*60, 22*60)
	requester := policy.Actor{ID: uuid.New(), Role: domain.RoleUser}

	// 23:00, past the 22:00 close.
	_, err := svc.Create(ctx, requester, venueID, futureRange(2, 23, 30*time.Minute), 5, "")
	if !errors.Is(err, booking.ErrOutsideHours) {
		t.Fatalf("expected ErrOutsideHours, got %v", err)
	}
}

func TestService_Create_OverlapConflict(t *testing.T) {
	svc, store := newService(t, booking.Config{})
	ctx := context.Background()

	venueID := createVenue(t, store, 20, 0, 24*60)
	requester := policy.Actor{ID: uuid.New(), Role: domain.RoleUser}

	rng := futureRange(2, 10, 2*time.Hour)

	if _, err := svc.Create(ctx, requester, venueID, rng, 5, ""); err != nil {
		t.Fatal(err)
	}

	shifted := domain.TimeRange{Start: rng.Start.Add(time.Hour), End: rng.End.Add(time.Hour)}
	_, err := svc.Create(ctx, requester, venueID, shifted, 5, "")
	if !errors.Is(err, booking.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestService_Transition_IdempotentRepeat(t *testing.T) {
	svc, store := newService(t, booking.Config{})
	ctx := context.Background()

	venueID := createVenue(t, store, 20, 0, 24*60)
	requester := policy.Actor{ID: uuid.New(), Role: domain.RoleUser}

	b, err := svc.Create(ctx, requester, venueID, futureRange(3, 10, time.Hour), 5, "")
	if err != nil {
		t.Fatal(err)
	}

	first, err := svc.Transition(ctx, requester, b.ID, domain.BookingCancelled)
	if err != nil {
		t.Fatal(err)
	}
	if first.Status != domain.BookingCancelled {
		t.Fatalf("expected cancelled, got %s", first.Status)
	}

	// Repeating the terminal transition is a no-op, not an error.
	second, err := svc.Transition(ctx, requester, b.ID, domain.BookingCancelled)
	if err != nil {
		t.Fatalf("repeated cancel must be a no-op, got %v", err)
	}
	if second.Status != domain.BookingCancelled {
		t.Errorf("expected cancelled after repeat, got %s", second.Status)
	}
}

func TestService_Transition_IllegalFromCancelled(t *testing.T) {
	svc, store := newService(t, booking.Config{})
	ctx := context.Background()

	venueID := createVenue(t, store, 20, 0, 24*60)
	requester := policy.Actor{ID: uuid.New(), Role: domain.RoleUser}
	manager := policy.Actor{ID: uuid.New(), Role: domain.RoleVenueManager, VenueIDs: []int64{venueID}}

	b, err := svc.Create(ctx, requester, venueID, futureRange(3, 10, time.Hour), 5, "")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Transition(ctx, requester, b.ID, domain.BookingCancelled); err != nil {
		t.Fatal(err)
	}

	_, err = svc.Transition(ctx, manager, b.ID, domain.BookingConfirmed)
	if !errors.Is(err, booking.ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}
}

func TestService_Transition_LateCancellationFlag(t *testing.T) {
	// A week-long cutoff puts a booking two days out inside the window, so
	// cancelling it counts as late regardless of wall clock.
	svc, store := newService(t, booking.Config{CancellationCutoff: 7 * 24 * time.Hour})
	ctx := context.Background()

	venueID := createVenue(t, store, 20, 0, 24*60)
	requester := policy.Actor{ID: uuid.New(), Role: domain.RoleUser}

	b, err := svc.Create(ctx, requester, venueID, futureRange(2, 10, time.Hour), 5, "")
	if err != nil {
		t.Fatal(err)
	}

	cancelled, err := svc.Transition(ctx, requester, b.ID, domain.BookingCancelled)
	if err != nil {
		t.Fatal(err)
	}
	if !cancelled.LateCancellation {
		t.Error("expected late_cancellation to be set for an inside-cutoff cancel")
	}

	got, err := store.Bookings().Get(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.LateCancellation {
		t.Error("late_cancellation flag not persisted")
	}
}

func TestService_Transition_NotLateOutsideCutoff(t *testing.T) {
	svc, store := newService(t, booking.Config{})
	ctx := context.Background()

	venueID := createVenue(t, store, 20, 0, 24*60)
	requester := policy.Actor{ID: uuid.New(), Role: domain.RoleUser}

	// Three days out, beyond the default 24h cutoff.
	b, err := svc.Create(ctx, requester, venueID, futureRange(3, 10, time.Hour), 5, "")
	if err != nil {
		t.Fatal(err)
	}

	cancelled, err := svc.Transition(ctx, requester, b.ID, domain.BookingCancelled)
	if err != nil {
		t.Fatal(err)
	}
	if cancelled.LateCancellation {
		t.Error("cancel three days out must not be flagged late")
	}
}
