// Package availability answers "is this slot free?" from live ledger state.
// It is a derived view: nothing here writes, and the create path re-checks
// under its own lock, so a stale read can never cause a double booking.
package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/venuebook/venuebook/internal/domain"
	redisx "github.com/venuebook/venuebook/internal/redis"
	"github.com/venuebook/venuebook/internal/repository"
	postgresrepo "github.com/venuebook/venuebook/internal/repository/postgres"
	redisrepo "github.com/venuebook/venuebook/internal/repository/redis"
)

const slotsCacheTTL = 15 * time.Second

type Config struct {
	SlotGranularity time.Duration
}

type Service struct {
	store *postgresrepo.Store
	cache *redisrepo.Cache
	cfg   Config
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.SlotGranularity <= 0 {
		cfg.SlotGranularity = time.Hour
	}

	return &Service{
		store: store,
		cache: cache,
		cfg:   cfg,
	}
}

// IsFree reports whether the range has no overlapping pending or confirmed
// booking. "Slot free" is a boolean answer, not an error condition.
func (s *Service) IsFree(
	ctx context.Context,
	venueID int64,
	rng domain.TimeRange,
) (bool, error) {
	const op = "service.availability.IsFree"

	if !rng.End.After(rng.Start) {
		return false, fmt.Errorf("%s:%w", op, ErrInvalidRange)
	}

	if _, err := s.store.Venues().Get(ctx, venueID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, fmt.Errorf("%s:%w", op, ErrVenueNotFound)
		}
		return false, fmt.Errorf("%s:%w", op, err)
	}

	occupied, err := s.store.Bookings().HasOverlap(ctx, venueID, rng)
	if err != nil {
		return false, fmt.Errorf("%s:%w", op, err)
	}

	return !occupied, nil
}

// ListFreeSlots enumerates bookable slots for a day: the venue's opening
// hours cut into granularity-sized windows, minus occupied ranges from the
// ledger. Briefly cached per venue and day for dashboard polling.
func (s *Service) ListFreeSlots(
	ctx context.Context,
	venueID int64,
	day time.Time,
) ([]domain.TimeRange, error) {
	const op = "service.availability.ListFreeSlots"

	venue, err := s.store.Venues().Get(ctx, venueID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrVenueNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	key := redisx.KeyVenueSlots(venueID, day.Format("2006-01-02"))

	slots, err := redisrepo.GetOrSetJSON(ctx, s.cache, key, slotsCacheTTL,
		func(ctx context.Context) ([]domain.TimeRange, error) {
			midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
			window := domain.TimeRange{Start: midnight, End: midnight.AddDate(0, 0, 1)}

			occupied, err := s.store.Bookings().OccupiedRanges(ctx, venueID, window)
			if err != nil {
				return nil, err
			}

			return domain.FreeSlots(
				day,
				venue.OpensAtMin,
				venue.ClosesAtMin,
				s.cfg.SlotGranularity,
				occupied,
			), nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return slots, nil
}
