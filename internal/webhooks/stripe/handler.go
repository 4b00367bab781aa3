package stripe

import (
	"context"
	"encoding/json"
	"time"

	stripeapi "github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/payments"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/logger"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/redis"
)

// processedTTL keeps Stripe event IDs long enough to cover their retry window.
const processedTTL = 72 * time.Hour

// checkoutFinalizer is notified when a checkout-linked payment settles so the
// session can advance to succeeded without waiting for a poll.
type checkoutFinalizer interface {
	FinalizeFromPayment(ctx context.Context, intentID string) error
}

// Handler verifies, deduplicates, and dispatches Stripe webhook events.
type Handler struct {
	signingSecret string
	payments      payments.Service
	checkout      checkoutFinalizer
	idempotency   redis.IdempotencyStore
	logg          *logger.Logger
}

// NewHandler wires the webhook pipeline. checkout may be nil when the portal
// runs without the walk-in wizard.
func NewHandler(signingSecret string, pay payments.Service, checkout checkoutFinalizer, store redis.IdempotencyStore, logg *logger.Logger) (*Handler, error) {
	if signingSecret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "webhook signing secret required")
	}
	if pay == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payments service required")
	}
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "idempotency store required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &Handler{
		signingSecret: signingSecret,
		payments:      pay,
		checkout:      checkout,
		idempotency:   store,
		logg:          logg,
	}, nil
}

// HandlePayload verifies the signature and processes the event. Replays and
// unhandled event types are acknowledged without side effects.
func (h *Handler) HandlePayload(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, h.signingSecret)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid webhook signature")
	}
	return h.process(ctx, event)
}

func (h *Handler) process(ctx context.Context, event stripeapi.Event) error {
	key := h.idempotency.IdempotencyKey("stripe", event.ID)
	fresh, err := h.idempotency.SetNX(ctx, key, "1", processedTTL)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check webhook replay")
	}
	if !fresh {
		h.logg.Info(h.logg.WithFields(ctx, map[string]any{"event_id": event.ID}), "webhook replay ignored")
		return nil
	}

	ctx = h.logg.WithFields(ctx, map[string]any{
		"event_id":   event.ID,
		"event_type": string(event.Type),
	})

	switch event.Type {
	case "payment_intent.succeeded":
		return h.handleIntentSucceeded(ctx, event)
	case "payment_intent.payment_failed":
		return h.handleIntentFailed(ctx, event)
	default:
		h.logg.Info(ctx, "webhook event type ignored")
		return nil
	}
}

func (h *Handler) handleIntentSucceeded(ctx context.Context, event stripeapi.Event) error {
	var intent stripeapi.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent")
	}

	if _, err := h.payments.MarkIntentSucceeded(ctx, intent.ID); err != nil {
		// The intent may belong to another system sharing the Stripe account.
		if domainErr := pkgerrors.As(err); domainErr != nil && domainErr.Code() == pkgerrors.CodeNotFound {
			h.logg.Warn(ctx, "intent has no local payment record")
			return nil
		}
		return err
	}

	if h.checkout != nil {
		if err := h.checkout.FinalizeFromPayment(ctx, intent.ID); err != nil {
			h.logg.Error(ctx, "finalize checkout from webhook", err)
		}
	}
	h.logg.Info(ctx, "payment intent settled")
	return nil
}

func (h *Handler) handleIntentFailed(ctx context.Context, event stripeapi.Event) error {
	var intent stripeapi.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent")
	}

	reason := "payment failed"
	if intent.LastPaymentError != nil && intent.LastPaymentError.Msg != "" {
		reason = intent.LastPaymentError.Msg
	}
	if _, err := h.payments.MarkIntentFailed(ctx, intent.ID, reason); err != nil {
		if domainErr := pkgerrors.As(err); domainErr != nil && domainErr.Code() == pkgerrors.CodeNotFound {
			return nil
		}
		return err
	}
	return nil
}
