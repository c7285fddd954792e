package service

import (
	redisx "github.com/venuebook/venuebook/internal/redis"
	postgres "github.com/venuebook/venuebook/internal/repository/postgres"
	redis "github.com/venuebook/venuebook/internal/repository/redis"
	"github.com/venuebook/venuebook/internal/service/accounts"
	"github.com/venuebook/venuebook/internal/service/availability"
	"github.com/venuebook/venuebook/internal/service/booking"
	"github.com/venuebook/venuebook/internal/service/catalog"
)

type Services struct {
	Booking      *booking.Service
	Catalog      *catalog.Service
	Availability *availability.Service
	Accounts     *accounts.Service
}

type Config struct {
	Booking      booking.Config
	Availability availability.Config
}

func NewServices(
	store *postgres.Store,
	cache *redis.Cache,
	pubsub *redisx.VenuesPubSub,
	limiter *redis.SlidingWindowLimiter,
	cfg Config,
) *Services {
	return &Services{
		Booking:      booking.New(store, cache, pubsub, limiter, cfg.Booking),
		Catalog:      catalog.New(store, cache, pubsub),
		Availability: availability.New(store, cache, cfg.Availability),
		Accounts:     accounts.New(store),
	}
}
