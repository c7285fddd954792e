package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/venuebook/venuebook/internal/domain"
	"github.com/venuebook/venuebook/internal/observability"
	"github.com/venuebook/venuebook/internal/policy"
	redisx "github.com/venuebook/venuebook/internal/redis"
	"github.com/venuebook/venuebook/internal/repository"
	postgresrepo "github.com/venuebook/venuebook/internal/repository/postgres"
	redisrepo "github.com/venuebook/venuebook/internal/repository/redis"
	"github.com/venuebook/venuebook/internal/uow"
)

// txRetries bounds reruns of the create/transition transaction on
// serialization failures before surfacing the error to the caller.
const txRetries = 3

type Config struct {
	CancellationCutoff time.Duration
}

// Service is the booking ledger: the single writer of booking records. Every
// accepted write holds the per-venue row lock for the check-then-insert
// sequence, so two concurrent creates for overlapping ranges on one venue
// resolve to exactly one success and one conflict.
type Service struct {
	store   *postgresrepo.Store
	cache   *redisrepo.Cache
	pubsub  *redisx.VenuesPubSub
	limiter *redisrepo.SlidingWindowLimiter
	uow     *uow.UoW
	cfg     Config
	now     func() time.Time
}

func New(
	store *postgresrepo.Store,
	cache *redisrepo.Cache,
	pubsub *redisx.VenuesPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	cfg Config,
) *Service {
	if cfg.CancellationCutoff <= 0 {
		cfg.CancellationCutoff = domain.CancellationCutoff
	}

	return &Service{
		store:   store,
		cache:   cache,
		pubsub:  pubsub,
		limiter: limiter,
		uow:     uow.NewUoW(store),
		cfg:     cfg,
		now:     time.Now,
	}
}

// Create appends a booking for the actor.
//
// Returns:
//   - error: booking.ErrInvalidRange if the range is malformed or in the past.
//   - error: booking.ErrOutsideHours if the range leaves the opening window.
//   - error: booking.ErrVenueNotFound / ErrVenueUnavailable per venue state.
//   - error: booking.ErrCapacityExceeded if participants exceed capacity.
//   - error: booking.ErrConflict if the slot overlaps an existing booking.
func (s *Service) Create(
	ctx context.Context,
	actor policy.Actor,
	venueID int64,
	rng domain.TimeRange,
	participants int,
	rlKey string,
) (*domain.Booking, error) {
	const op = "service.booking.Create"

	if !policy.Can(actor, policy.BookingCreate, policy.Target{VenueID: venueID, OwnerID: actor.ID}) {
		return nil, fmt.Errorf("%s:%w", op, ErrForbidden)
	}

	if err := rng.Validate(s.now()); err != nil {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidRange)
	}

	if participants < 1 {
		return nil, fmt.Errorf("%s:%w", op, ErrCapacityExceeded)
	}

	if s.limiter != nil && rlKey != "" {
		ok, _, _, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		if !ok {
			observability.RateLimitExceeded.Inc()
			return nil, fmt.Errorf("%s:%w", op, ErrRateLimited)
		}
	}

	var created *domain.Booking

	err := s.uow.DoWithRetry(ctx, txRetries, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		// Per-venue critical section: the row lock serializes every
		// check-then-insert for this venue while other venues proceed.
		venue, err := s.store.Venues().With(tx).GetForUpdate(ctx, venueID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrVenueNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		if venue.Status != domain.VenueActive {
			return fmt.Errorf("%s:%w", op, ErrVenueUnavailable)
		}

		if participants > venue.Capacity {
			return fmt.Errorf("%s:%w", op, ErrCapacityExceeded)
		}

		if !rng.WithinOpeningHours(venue.OpensAtMin, venue.ClosesAtMin) {
			return fmt.Errorf("%s:%w", op, ErrOutsideHours)
		}

		occupied, err := s.store.Bookings().With(tx).HasOverlap(ctx, venueID, rng)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}
		if occupied {
			return fmt.Errorf("%s:%w", op, ErrConflict)
		}

		b := &domain.Booking{
			ID:              uuid.New(),
			VenueID:         venueID,
			RequesterID:     actor.ID,
			Range:           rng,
			Participants:    participants,
			TotalPriceCents: domain.BookingPrice(rng, venue.PriceCents),
			Status:          domain.BookingPending,
			PaymentStatus:   domain.PaymentUnpaid,
		}

		if err := s.store.Bookings().With(tx).Insert(ctx, b); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s:%w", op, ErrConflict)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := s.audit(ctx, tx, actor.ID, "booking.create", map[string]any{
			"booking_id": b.ID,
			"venue_id":   venueID,
			"starts_at":  rng.Start,
			"ends_at":    rng.End,
		}); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := s.emit(ctx, tx, "booking.created", b); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		created = b

		after(func(ctx context.Context) {
			observability.BookingsCreated.Inc()
			_ = s.cache.InvalidateVenue(ctx, venueID)
			_ = s.pubsub.PublishVenueChanged(ctx, venueID)
		})

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			observability.BookingConflicts.Inc()
		}
		return nil, err
	}

	return created, nil
}

// Transition moves a booking to target per the status table. Repeating a
// transition into the booking's current terminal status is an idempotent
// no-op returning the record unchanged.
//
// Returns:
//   - error: booking.ErrBookingNotFound if the booking does not exist.
//   - error: booking.ErrForbidden if the actor lacks the capability.
//   - error: booking.ErrIllegalTransition if the status table forbids it.
func (s *Service) Transition(
	ctx context.Context,
	actor policy.Actor,
	bookingID uuid.UUID,
	target domain.BookingStatus,
) (*domain.Booking, error) {
	const op = "service.booking.Transition"

	var result *domain.Booking

	err := s.uow.DoWithRetry(ctx, txRetries, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		b, err := s.store.Bookings().With(tx).GetForUpdate(ctx, bookingID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrBookingNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		venue, err := s.store.Venues().With(tx).Get(ctx, b.VenueID)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if !s.mayTransition(actor, b, venue, target) {
			return fmt.Errorf("%s:%w", op, ErrForbidden)
		}

		if b.Status == target {
			// Idempotent repeat of a terminal transition.
			result = b
			return nil
		}

		if !domain.CanTransition(b.Status, target) {
			return fmt.Errorf("%s:%w", op, ErrIllegalTransition)
		}

		late := target == domain.BookingCancelled &&
			s.now().After(b.Range.Start.Add(-s.cfg.CancellationCutoff))

		updated, err := s.store.Bookings().With(tx).UpdateStatus(ctx, bookingID, target, late)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := s.audit(ctx, tx, actor.ID, "booking."+string(target), map[string]any{
			"booking_id":        bookingID,
			"venue_id":          b.VenueID,
			"from":              b.Status,
			"late_cancellation": late,
		}); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if target == domain.BookingCancelled {
			if err := s.emit(ctx, tx, "booking.cancelled", updated); err != nil {
				return fmt.Errorf("%s:%w", op, err)
			}
		}

		result = updated

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateVenue(ctx, b.VenueID)
			_ = s.pubsub.PublishVenueChanged(ctx, b.VenueID)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// SetPaymentStatus records the payment flag supplied by the external
// processor. A paid pending booking confirms automatically.
func (s *Service) SetPaymentStatus(
	ctx context.Context,
	actor policy.Actor,
	bookingID uuid.UUID,
	status domain.PaymentStatus,
) (*domain.Booking, error) {
	const op = "service.booking.SetPaymentStatus"

	if !policy.Can(actor, policy.PaymentRecord, policy.Target{}) {
		return nil, fmt.Errorf("%s:%w", op, ErrForbidden)
	}

	var result *domain.Booking

	err := s.uow.DoWithRetry(ctx, txRetries, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		b, err := s.store.Bookings().With(tx).GetForUpdate(ctx, bookingID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrBookingNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		updated, err := s.store.Bookings().With(tx).SetPaymentStatus(ctx, bookingID, status)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if status == domain.PaymentPaid && updated.Status == domain.BookingPending {
			updated, err = s.store.Bookings().With(tx).UpdateStatus(
				ctx, bookingID, domain.BookingConfirmed, false,
			)
			if err != nil {
				return fmt.Errorf("%s:%w", op, err)
			}
		}

		if err := s.audit(ctx, tx, b.RequesterID, "booking.payment", map[string]any{
			"booking_id":     bookingID,
			"payment_status": status,
		}); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		result = updated

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateVenue(ctx, b.VenueID)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ListForUser returns a user's bookings, most recent start first. Users see
// only their own; listing another user's bookings needs booking.list_all.
func (s *Service) ListForUser(
	ctx context.Context,
	actor policy.Actor,
	userID uuid.UUID,
	limit, offset int,
) ([]domain.Booking, error) {
	const op = "service.booking.ListForUser"

	if actor.ID != userID && !policy.Can(actor, policy.BookingListAll, policy.Target{}) {
		return nil, fmt.Errorf("%s:%w", op, ErrForbidden)
	}

	out, err := s.store.Bookings().ListForUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// ListForVenue returns a venue's bookings in operational order, earliest
// first, for actors that manage the venue.
func (s *Service) ListForVenue(
	ctx context.Context,
	actor policy.Actor,
	venueID int64,
	limit, offset int,
) ([]domain.Booking, error) {
	const op = "service.booking.ListForVenue"

	venue, err := s.store.Venues().Get(ctx, venueID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrVenueNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	target := policy.Target{VenueID: venueID, VenueCity: venue.City}
	if !policy.Can(actor, policy.BookingConfirm, target) &&
		!policy.Can(actor, policy.BookingListAll, policy.Target{}) {
		return nil, fmt.Errorf("%s:%w", op, ErrForbidden)
	}

	out, err := s.store.Bookings().ListForVenue(ctx, venueID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (s *Service) ListAll(
	ctx context.Context,
	actor policy.Actor,
	limit, offset int,
) ([]domain.Booking, error) {
	const op = "service.booking.ListAll"

	if !policy.Can(actor, policy.BookingListAll, policy.Target{}) {
		return nil, fmt.Errorf("%s:%w", op, ErrForbidden)
	}

	out, err := s.store.Bookings().ListAll(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (s *Service) Get(
	ctx context.Context,
	actor policy.Actor,
	bookingID uuid.UUID,
) (*domain.Booking, error) {
	const op = "service.booking.Get"

	b, err := s.store.Bookings().Get(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrBookingNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if b.RequesterID != actor.ID && !policy.Can(actor, policy.BookingListAll, policy.Target{}) {
		venue, err := s.store.Venues().Get(ctx, b.VenueID)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		if !policy.Can(actor, policy.BookingConfirm, policy.Target{VenueID: b.VenueID, VenueCity: venue.City}) {
			return nil, fmt.Errorf("%s:%w", op, ErrForbidden)
		}
	}

	return b, nil
}

// CompleteElapsed flips confirmed bookings past their end time to completed.
// Run by the background sweeper.
func (s *Service) CompleteElapsed(ctx context.Context) (int64, error) {
	const op = "service.booking.CompleteElapsed"

	n, err := s.store.Bookings().CompleteElapsed(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	if n > 0 {
		observability.BookingsCompleted.Add(float64(n))
	}

	return n, nil
}

// mayTransition maps the requested transition to a capability and evaluates
// it against the actor.
func (s *Service) mayTransition(
	actor policy.Actor,
	b *domain.Booking,
	venue *domain.Venue,
	target domain.BookingStatus,
) bool {
	venueTarget := policy.Target{VenueID: b.VenueID, VenueCity: venue.City}

	switch target {
	case domain.BookingCancelled:
		if b.RequesterID == actor.ID {
			return policy.Can(actor, policy.BookingCancelOwn, policy.Target{OwnerID: b.RequesterID})
		}
		return policy.Can(actor, policy.BookingCancelAny, venueTarget)
	case domain.BookingConfirmed, domain.BookingCompleted:
		return policy.Can(actor, policy.BookingConfirm, venueTarget)
	default:
		return false
	}
}

func (s *Service) audit(
	ctx context.Context,
	tx postgresrepo.DB,
	userID uuid.UUID,
	action string,
	details map[string]any,
) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return err
	}

	return s.store.Audit().With(tx).Record(ctx, userID, action, payload)
}

func (s *Service) emit(ctx context.Context, tx postgresrepo.DB, eventType string, b *domain.Booking) error {
	payload, err := json.Marshal(map[string]any{
		"booking_id":   b.ID,
		"venue_id":     b.VenueID,
		"requester_id": b.RequesterID,
		"starts_at":    b.Range.Start,
		"ends_at":      b.Range.End,
		"status":       b.Status,
	})
	if err != nil {
		return err
	}

	return s.store.Outbox().With(tx).Insert(ctx, eventType, payload)
}
