package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/api/responses"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/logger"
)

const maxWebhookBodyBytes = 1 << 20

// StripeHandler verifies and processes a raw webhook payload.
type StripeHandler interface {
	HandlePayload(ctx context.Context, payload []byte, signature string) error
}

// StripeWebhook handles payment intent lifecycle events.
func StripeWebhook(handler StripeHandler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if handler == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook handler unavailable"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		signature := r.Header.Get("Stripe-Signature")
		if signature == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "stripe signature missing"))
			return
		}

		if err := handler.HandlePayload(ctx, payload, signature); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"received": true})
	}
}
