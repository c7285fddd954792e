// Package outbox drains staged domain events to the broker. Events are
// written in the same transaction as the mutation that produced them, so
// a broker outage delays delivery but never loses an event.
package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/venuebook/venuebook/internal/observability"
	"github.com/venuebook/venuebook/internal/rabbit"
	postgresrepo "github.com/venuebook/venuebook/internal/repository/postgres"
)

const (
	pollInterval = 5 * time.Second
	batchSize    = 50
)

type Publisher struct {
	store  *postgresrepo.Store
	broker *rabbit.Publisher
	logger *slog.Logger
}

func NewPublisher(store *postgresrepo.Store, broker *rabbit.Publisher, logger *slog.Logger) *Publisher {
	return &Publisher{
		store:  store,
		broker: broker,
		logger: logger,
	}
}

// Run polls until the context is cancelled. Publish failures leave the
// record in place for the next tick; delivery is at-least-once.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.drain(ctx)
		}
	}
}

func (p *Publisher) drain(ctx context.Context) {
	records, err := p.store.Outbox().FetchUnpublished(ctx, batchSize)
	if err != nil {
		p.logger.Error("outbox fetch failed", "error", err)
		return
	}

	if len(records) == 0 {
		observability.OutboxLag.Set(0)
		return
	}

	observability.OutboxLag.Set(time.Since(records[0].CreatedAt).Seconds())

	for _, rec := range records {
		if err := p.broker.Publish(ctx, rec.EventType, rec.ID.String(), rec.Payload); err != nil {
			p.logger.Error("outbox publish failed",
				"event_type", rec.EventType,
				"record_id", rec.ID,
				"error", err,
			)
			return
		}

		if err := p.store.Outbox().MarkPublished(ctx, rec.ID); err != nil {
			p.logger.Error("outbox mark published failed", "record_id", rec.ID, "error", err)
			return
		}
	}
}
