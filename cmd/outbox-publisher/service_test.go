package main

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/config"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/logger"
)

type fakeStore struct {
	events    []models.OutboxEvent
	fetchErr  error
	published []uuid.UUID
	failed    []uuid.UUID
	dlq       []uuid.UUID
}

func (f *fakeStore) FetchUnpublished(limit int) ([]models.OutboxEvent, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if len(f.events) > limit {
		return f.events[:limit], nil
	}
	return f.events, nil
}

func (f *fakeStore) MarkPublished(id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeStore) MarkFailed(id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeStore) MoveToDLQ(event models.OutboxEvent, _ string) error {
	f.dlq = append(f.dlq, event.ID)
	return nil
}

type fakePublisher struct {
	err       error
	published []uuid.UUID
}

func (f *fakePublisher) Publish(_ context.Context, event models.OutboxEvent) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, event.ID)
	return nil
}

func testRelay(t *testing.T, store *fakeStore, publisher *fakePublisher) *relay {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "outbox-test", Level: zerolog.Disabled})
	r, err := newRelay(logg, store, publisher, config.OutboxConfig{BatchSize: 10, MaxAttempts: 3})
	require.NoError(t, err)
	return r
}

func TestDrainBatchPublishesAndMarks(t *testing.T) {
	event := models.OutboxEvent{ID: uuid.New(), Payload: []byte(`{}`)}
	store := &fakeStore{events: []models.OutboxEvent{event}}
	publisher := &fakePublisher{}

	require.NoError(t, testRelay(t, store, publisher).drainBatch(context.Background()))

	require.Equal(t, []uuid.UUID{event.ID}, publisher.published)
	require.Equal(t, []uuid.UUID{event.ID}, store.published)
}

func TestDrainBatchRecordsPublishFailure(t *testing.T) {
	event := models.OutboxEvent{ID: uuid.New(), Payload: []byte(`{}`)}
	store := &fakeStore{events: []models.OutboxEvent{event}}
	publisher := &fakePublisher{err: errors.New("broker down")}

	require.NoError(t, testRelay(t, store, publisher).drainBatch(context.Background()))

	require.Equal(t, []uuid.UUID{event.ID}, store.failed)
	require.Empty(t, store.published, "failed event must not be marked published")
}

func TestDrainBatchMovesExhaustedEventToDLQ(t *testing.T) {
	lastErr := "broker down"
	event := models.OutboxEvent{ID: uuid.New(), Payload: []byte(`{}`), AttemptCount: 3, LastError: &lastErr}
	store := &fakeStore{events: []models.OutboxEvent{event}}
	publisher := &fakePublisher{}

	require.NoError(t, testRelay(t, store, publisher).drainBatch(context.Background()))

	require.Equal(t, []uuid.UUID{event.ID}, store.dlq)
	require.Empty(t, publisher.published, "exhausted event must not be re-published")
}

func TestDrainBatchSurfacesFetchError(t *testing.T) {
	store := &fakeStore{fetchErr: errors.New("db gone")}

	err := testRelay(t, store, &fakePublisher{}).drainBatch(context.Background())
	require.Error(t, err)
}
