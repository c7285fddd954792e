package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/venuebook/venuebook/internal/domain"
	"github.com/venuebook/venuebook/internal/policy"
	redisx "github.com/venuebook/venuebook/internal/redis"
	"github.com/venuebook/venuebook/internal/repository"
	postgresrepo "github.com/venuebook/venuebook/internal/repository/postgres"
	redisrepo "github.com/venuebook/venuebook/internal/repository/redis"
	"github.com/venuebook/venuebook/internal/uow"
)

const (
	venueCacheTTL = 60 * time.Second
	listCacheTTL  = 15 * time.Second
)

// Service is the venue catalog: read-mostly, and the single writer of venue
// records.
type Service struct {
	store  *postgresrepo.Store
	cache  *redisrepo.Cache
	pubsub *redisx.VenuesPubSub
	uow    *uow.UoW
}

func New(
	store *postgresrepo.Store,
	cache *redisrepo.Cache,
	pubsub *redisx.VenuesPubSub,
) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		pubsub: pubsub,
		uow:    uow.NewUoW(store),
	}
}

// Get retrieves a venue, served from cache when warm.
//
// Returns:
//   - error: catalog.ErrVenueNotFound if the venue is not found.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Venue, error) {
	const op = "service.catalog.Get"

	v, err := redisrepo.GetOrSetJSON(ctx, s.cache, redisx.KeyVenue(id), venueCacheTTL,
		func(ctx context.Context) (*domain.Venue, error) {
			return s.store.Venues().Get(ctx, id)
		},
	)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrVenueNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return v, nil
}

// List returns venues matching the filter. An unset status means the public
// default, active only; callers that want inactive or maintenance venues ask
// for them explicitly. Catalogs are small, so results are materialized, not
// streamed; short cache keyed by the filter hash.
func (s *Service) List(
	ctx context.Context,
	filter domain.VenueFilter,
	limit, offset int,
) ([]domain.Venue, error) {
	const op = "service.catalog.List"

	filter = normalizeFilter(filter)

	key := redisx.KeyVenueList(filterHash(filter, limit, offset))

	out, err := redisrepo.GetOrSetJSON(ctx, s.cache, key, listCacheTTL,
		func(ctx context.Context) ([]domain.Venue, error) {
			return s.store.Venues().List(ctx, filter, limit, offset)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// Create adds a venue to the catalog.
//
// Returns:
//   - error: catalog.ErrForbidden if the actor may not create venues.
//   - error: catalog.ErrValidation if attributes violate invariants.
func (s *Service) Create(ctx context.Context, actor policy.Actor, v domain.Venue) (*domain.Venue, error) {
	const op = "service.catalog.Create"

	if !policy.Can(actor, policy.VenueCreate, policy.Target{VenueCity: v.City}) {
		return nil, fmt.Errorf("%s:%w", op, ErrForbidden)
	}

	if err := validate(&v); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if v.Status == "" {
		v.Status = domain.VenueActive
	}

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		id, err := s.store.Venues().With(tx).Create(ctx, &v)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		v.ID = id

		return s.audit(ctx, tx, actor.ID, "venue.create", map[string]any{
			"venue_id": id,
			"name":     v.Name,
			"city":     v.City,
		})
	})
	if err != nil {
		return nil, err
	}

	return &v, nil
}

// Update patches a venue's attributes.
//
// Returns:
//   - error: catalog.ErrVenueNotFound / ErrForbidden / ErrValidation.
func (s *Service) Update(
	ctx context.Context,
	actor policy.Actor,
	id int64,
	patch domain.VenuePatch,
) (*domain.Venue, error) {
	const op = "service.catalog.Update"

	if err := validatePatch(patch); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	var updated *domain.Venue

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		current, err := s.store.Venues().With(tx).Get(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrVenueNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		if !policy.Can(actor, policy.VenueUpdate, policy.Target{VenueID: id, VenueCity: current.City}) {
			return fmt.Errorf("%s:%w", op, ErrForbidden)
		}

		updated, err = s.store.Venues().With(tx).Update(ctx, id, patch)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := s.audit(ctx, tx, actor.ID, "venue.update", map[string]any{
			"venue_id": id,
		}); err != nil {
			return err
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateVenue(ctx, id)
			_ = s.pubsub.PublishVenueChanged(ctx, id)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// SetStatus moves a venue between active, inactive and maintenance.
// Existing bookings are never cancelled here; that stays an explicit
// manager decision.
func (s *Service) SetStatus(
	ctx context.Context,
	actor policy.Actor,
	id int64,
	status domain.VenueStatus,
) error {
	const op = "service.catalog.SetStatus"

	switch status {
	case domain.VenueActive, domain.VenueInactive, domain.VenueMaintenance:
	default:
		return fmt.Errorf("%s:%w", op, ErrValidation)
	}

	return s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		current, err := s.store.Venues().With(tx).Get(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrVenueNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		if !policy.Can(actor, policy.VenueSetStatus, policy.Target{VenueID: id, VenueCity: current.City}) {
			return fmt.Errorf("%s:%w", op, ErrForbidden)
		}

		if err := s.store.Venues().With(tx).SetStatus(ctx, id, status); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := s.audit(ctx, tx, actor.ID, "venue.set_status", map[string]any{
			"venue_id": id,
			"status":   status,
		}); err != nil {
			return err
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateVenue(ctx, id)
			_ = s.pubsub.PublishVenueChanged(ctx, id)
		})

		return nil
	})
}

func normalizeFilter(f domain.VenueFilter) domain.VenueFilter {
	if f.Status == "" {
		f.Status = domain.VenueActive
	}
	return f
}

func validate(v *domain.Venue) error {
	if v.Name == "" || v.City == "" || v.Type == "" {
		return ErrValidation
	}
	if v.Capacity < 1 {
		return ErrValidation
	}
	if v.PriceCents < 0 {
		return ErrValidation
	}
	if v.OpensAtMin < 0 || v.ClosesAtMin > 24*60 || v.OpensAtMin >= v.ClosesAtMin {
		return ErrValidation
	}

	return nil
}

func validatePatch(p domain.VenuePatch) error {
	if p.Capacity != nil && *p.Capacity < 1 {
		return ErrValidation
	}
	if p.PriceCents != nil && *p.PriceCents < 0 {
		return ErrValidation
	}

	return nil
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

func filterHash(f domain.VenueFilter, limit, offset int) string {
	b, _ := json.Marshal(struct {
		domain.VenueFilter
		Limit  int
		Offset int
	}{f, limit, offset})

	sum := sha256.Sum256(b)

	return hex.EncodeToString(sum[:8])
}
