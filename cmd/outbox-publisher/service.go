package main

import (
	"context"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/config"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/logger"
)

type outboxStore interface {
	FetchUnpublished(limit int) ([]models.OutboxEvent, error)
	MarkPublished(id uuid.UUID) error
	MarkFailed(id uuid.UUID, err error) error
	MoveToDLQ(event models.OutboxEvent, lastErr string) error
}

type eventPublisher interface {
	Publish(ctx context.Context, event models.OutboxEvent) error
}

// pubsubPublisher adapts the Pub/Sub topic publisher to the event-level
// interface the relay works against.
type pubsubPublisher struct {
	publisher *pubsub.Publisher
}

func (p *pubsubPublisher) Publish(ctx context.Context, event models.OutboxEvent) error {
	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
		},
	})
	_, err := result.Get(ctx)
	return err
}

// relay drains the outbox table into Pub/Sub. Events that exhaust their
// attempts land in the dead-letter table instead of blocking the stream.
type relay struct {
	logg      *logger.Logger
	store     outboxStore
	publisher eventPublisher
	cfg       config.OutboxConfig
}

func newRelay(logg *logger.Logger, store outboxStore, publisher eventPublisher, cfg config.OutboxConfig) (*relay, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if store == nil {
		return nil, fmt.Errorf("outbox store required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.PollIntervalMS <= 0 {
		cfg.PollIntervalMS = 500
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	return &relay{logg: logg, store: store, publisher: publisher, cfg: cfg}, nil
}

// Run polls until the context is canceled.
func (r *relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(r.cfg.PollIntervalMS) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logg.Info(ctx, "outbox publisher context canceled")
			return ctx.Err()
		case <-ticker.C:
			if err := r.drainBatch(ctx); err != nil {
				r.logg.Error(ctx, "outbox batch failed", err)
			}
		}
	}
}

func (r *relay) drainBatch(ctx context.Context) error {
	events, err := r.store.FetchUnpublished(r.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("fetch unpublished: %w", err)
	}
	for _, event := range events {
		r.dispatch(ctx, event)
	}
	return nil
}

func (r *relay) dispatch(ctx context.Context, event models.OutboxEvent) {
	eventCtx := r.logg.WithFields(ctx, map[string]any{
		"event_id":   event.ID.String(),
		"event_type": string(event.EventType),
	})

	if event.AttemptCount >= r.cfg.MaxAttempts {
		lastErr := "max publish attempts exceeded"
		if event.LastError != nil {
			lastErr = *event.LastError
		}
		if err := r.store.MoveToDLQ(event, lastErr); err != nil {
			r.logg.Error(eventCtx, "failed to move event to dead letter table", err)
			return
		}
		r.logg.Warn(eventCtx, "event moved to dead letter table")
		return
	}

	if err := r.publisher.Publish(ctx, event); err != nil {
		if markErr := r.store.MarkFailed(event.ID, err); markErr != nil {
			r.logg.Error(eventCtx, "failed to record publish failure", markErr)
		}
		r.logg.Error(eventCtx, "event publish failed", err)
		return
	}

	if err := r.store.MarkPublished(event.ID); err != nil {
		// The event will be re-fetched and re-published; consumers must
		// dedupe on event id.
		r.logg.Error(eventCtx, "failed to mark event published", err)
		return
	}
	r.logg.Info(eventCtx, "event published")
}
