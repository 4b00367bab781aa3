package stripe

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	stripeapi "github.com/stripe/stripe-go/v84"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/payments"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/logger"
)

type fakePayments struct {
	succeeded []string
	failed    []string
	notFound  bool
}

func (f *fakePayments) CreateIntent(ctx context.Context, providerID uuid.UUID, input payments.CreateIntentInput) (*payments.IntentResult, error) {
	return nil, nil
}

func (f *fakePayments) VerifyIntent(ctx context.Context, paymentID uuid.UUID) (*models.PaymentRecord, error) {
	return nil, nil
}

func (f *fakePayments) MarkIntentSucceeded(ctx context.Context, intentID string) (*models.PaymentRecord, error) {
	if f.notFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found for intent")
	}
	f.succeeded = append(f.succeeded, intentID)
	return &models.PaymentRecord{ID: uuid.New(), Status: enums.PaymentStatusSucceeded}, nil
}

func (f *fakePayments) MarkIntentFailed(ctx context.Context, intentID, reason string) (*models.PaymentRecord, error) {
	f.failed = append(f.failed, intentID)
	return &models.PaymentRecord{ID: uuid.New(), Status: enums.PaymentStatusFailed}, nil
}

func (f *fakePayments) RecordPOSPayment(ctx context.Context, providerID uuid.UUID, input payments.POSPaymentInput) (*models.PaymentRecord, error) {
	return nil, nil
}

func (f *fakePayments) Get(ctx context.Context, paymentID uuid.UUID) (*models.PaymentRecord, error) {
	return nil, nil
}

func (f *fakePayments) List(ctx context.Context, providerID uuid.UUID, limit int) ([]models.PaymentRecord, error) {
	return nil, nil
}

type fakeStore struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{seen: map[string]bool{}}
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) { return "", nil }

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "mcc:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) error { return nil }

type fakeFinalizer struct {
	intents []string
}

func (f *fakeFinalizer) FinalizeFromPayment(ctx context.Context, intentID string) error {
	f.intents = append(f.intents, intentID)
	return nil
}

func intentEvent(t *testing.T, eventID, eventType, intentID string) stripeapi.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"id": intentID})
	if err != nil {
		t.Fatalf("marshal intent: %v", err)
	}
	return stripeapi.Event{
		ID:   eventID,
		Type: stripeapi.EventType(eventType),
		Data: &stripeapi.EventData{Raw: raw},
	}
}

func newTestHandler(t *testing.T, pay payments.Service, finalizer checkoutFinalizer) *Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "webhook-test", Level: zerolog.Disabled})
	h, err := NewHandler("whsec_test", pay, finalizer, newFakeStore(), logg)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return h
}

func TestProcessSucceededEventFinalizesCheckout(t *testing.T) {
	pay := &fakePayments{}
	finalizer := &fakeFinalizer{}
	h := newTestHandler(t, pay, finalizer)

	err := h.process(context.Background(), intentEvent(t, "evt_1", "payment_intent.succeeded", "pi_1"))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(pay.succeeded) != 1 || pay.succeeded[0] != "pi_1" {
		t.Fatalf("payment not marked succeeded: %+v", pay.succeeded)
	}
	if len(finalizer.intents) != 1 {
		t.Fatalf("checkout not finalized: %+v", finalizer.intents)
	}
}

func TestProcessDeduplicatesReplays(t *testing.T) {
	pay := &fakePayments{}
	h := newTestHandler(t, pay, nil)

	event := intentEvent(t, "evt_replay", "payment_intent.succeeded", "pi_2")
	if err := h.process(context.Background(), event); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := h.process(context.Background(), event); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(pay.succeeded) != 1 {
		t.Fatalf("replay processed twice: %+v", pay.succeeded)
	}
}

func TestProcessIgnoresForeignIntents(t *testing.T) {
	pay := &fakePayments{notFound: true}
	h := newTestHandler(t, pay, nil)

	err := h.process(context.Background(), intentEvent(t, "evt_foreign", "payment_intent.succeeded", "pi_other"))
	if err != nil {
		t.Fatalf("foreign intent should be acknowledged, got %v", err)
	}
}

func TestProcessIgnoresUnhandledTypes(t *testing.T) {
	pay := &fakePayments{}
	h := newTestHandler(t, pay, nil)

	err := h.process(context.Background(), intentEvent(t, "evt_other", "charge.refunded", "pi_3"))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(pay.succeeded) != 0 && len(pay.failed) != 0 {
		t.Fatal("unhandled type should be a no-op")
	}
}
