package payments

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
)

// IntentClient is the slice of the Stripe API this package uses.
type IntentClient interface {
	CreateIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	GetIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
}

type stripeIntentClient struct{}

// NewStripeIntentClient returns the production Stripe-backed intent client.
// The global API key must already be set by the stripe package.
func NewStripeIntentClient() IntentClient {
	return &stripeIntentClient{}
}

func (stripeIntentClient) CreateIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	params.Context = ctx
	return paymentintent.New(params)
}

func (stripeIntentClient) GetIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	return paymentintent.Get(id, params)
}
