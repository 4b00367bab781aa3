package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/logger"
)

// Service owns payment records across Stripe intents, POS transactions, and
// counter cash.
type Service interface {
	CreateIntent(ctx context.Context, providerID uuid.UUID, input CreateIntentInput) (*IntentResult, error)
	VerifyIntent(ctx context.Context, paymentID uuid.UUID) (*models.PaymentRecord, error)
	MarkIntentSucceeded(ctx context.Context, intentID string) (*models.PaymentRecord, error)
	MarkIntentFailed(ctx context.Context, intentID, reason string) (*models.PaymentRecord, error)
	RecordPOSPayment(ctx context.Context, providerID uuid.UUID, input POSPaymentInput) (*models.PaymentRecord, error)
	Get(ctx context.Context, paymentID uuid.UUID) (*models.PaymentRecord, error)
	List(ctx context.Context, providerID uuid.UUID, limit int) ([]models.PaymentRecord, error)
}

type service struct {
	repo    Repository
	intents IntentClient
	logg    *logger.Logger
}

// CreateIntentInput funds a checkout or escrow amount through Stripe.
type CreateIntentInput struct {
	Amount    decimal.Decimal `json:"amount" validate:"required"`
	Currency  string          `json:"currency"`
	SessionID *uuid.UUID      `json:"session_id,omitempty"`
	JobID     *uuid.UUID      `json:"job_id,omitempty"`
	Statement string          `json:"statement,omitempty"`
}

// IntentResult pairs the stored record with the client secret the terminal
// or payment element needs.
type IntentResult struct {
	Payment      models.PaymentRecord `json:"payment"`
	ClientSecret string               `json:"client_secret"`
}

// POSPaymentInput records a payment settled on an external terminal.
type POSPaymentInput struct {
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	Vendor        enums.POSVendor `json:"vendor" validate:"required"`
	TransactionID string          `json:"transaction_id" validate:"required"`
	SessionID     *uuid.UUID      `json:"session_id,omitempty"`
	JobID         *uuid.UUID      `json:"job_id,omitempty"`
}

// NewService wires payment dependencies.
func NewService(repo Repository, intents IntentClient, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payments repository required")
	}
	if intents == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stripe intent client required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{repo: repo, intents: intents, logg: logg}, nil
}

func (s *service) CreateIntent(ctx context.Context, providerID uuid.UUID, input CreateIntentInput) (*IntentResult, error) {
	if providerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	currency := input.Currency
	if currency == "" {
		currency = "usd"
	}

	cents := input.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(cents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if input.Statement != "" {
		params.StatementDescriptorSuffix = stripe.String(input.Statement)
	}
	params.AddMetadata("provider_id", providerID.String())
	if input.SessionID != nil {
		params.AddMetadata("session_id", input.SessionID.String())
	}
	if input.JobID != nil {
		params.AddMetadata("job_id", input.JobID.String())
	}

	intent, err := s.intents.CreateIntent(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}

	record := models.PaymentRecord{
		ID:                    uuid.New(),
		ProviderID:            providerID,
		SessionID:             input.SessionID,
		JobID:                 input.JobID,
		Amount:                input.Amount,
		Currency:              currency,
		Status:                enums.PaymentStatusRequiresPayment,
		StripePaymentIntentID: &intent.ID,
	}
	if err := s.repo.Create(ctx, &record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save payment record")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"payment_id": record.ID.String(),
		"intent_id":  intent.ID,
	}), "payment intent created")

	return &IntentResult{Payment: record, ClientSecret: intent.ClientSecret}, nil
}

// VerifyIntent refetches the intent from Stripe and syncs the local record.
// It is the poll-side complement of the webhook: checkout calls it when the
// front desk claims the card went through.
func (s *service) VerifyIntent(ctx context.Context, paymentID uuid.UUID) (*models.PaymentRecord, error) {
	record, err := s.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if record.StripePaymentIntentID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment has no stripe intent")
	}
	if record.Status == enums.PaymentStatusSucceeded {
		return record, nil
	}

	intent, err := s.intents.GetIntent(ctx, *record.StripePaymentIntentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch payment intent")
	}

	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded:
		now := time.Now().UTC()
		record.Status = enums.PaymentStatusSucceeded
		record.SucceededAt = &now
	case stripe.PaymentIntentStatusProcessing:
		record.Status = enums.PaymentStatusProcessing
	case stripe.PaymentIntentStatusCanceled:
		record.Status = enums.PaymentStatusFailed
		reason := "intent canceled"
		record.FailureReason = &reason
	default:
		record.Status = enums.PaymentStatusRequiresPayment
	}

	if err := s.repo.Save(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save payment record")
	}
	return record, nil
}

func (s *service) MarkIntentSucceeded(ctx context.Context, intentID string) (*models.PaymentRecord, error) {
	record, err := s.findByIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if record.Status == enums.PaymentStatusSucceeded {
		return record, nil
	}

	now := time.Now().UTC()
	record.Status = enums.PaymentStatusSucceeded
	record.SucceededAt = &now
	record.FailureReason = nil
	if err := s.repo.Save(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save payment record")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"payment_id": record.ID.String(),
		"intent_id":  intentID,
	}), "payment succeeded")
	return record, nil
}

func (s *service) MarkIntentFailed(ctx context.Context, intentID, reason string) (*models.PaymentRecord, error) {
	record, err := s.findByIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if record.Status == enums.PaymentStatusSucceeded {
		// A success already recorded wins over a late failure event.
		return record, nil
	}

	record.Status = enums.PaymentStatusFailed
	if reason != "" {
		record.FailureReason = &reason
	}
	if err := s.repo.Save(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save payment record")
	}
	return record, nil
}

func (s *service) RecordPOSPayment(ctx context.Context, providerID uuid.UUID, input POSPaymentInput) (*models.PaymentRecord, error) {
	if providerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !input.Vendor.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown pos vendor")
	}
	if input.TransactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pos transaction id required")
	}

	now := time.Now().UTC()
	vendor := input.Vendor
	txnID := input.TransactionID
	record := models.PaymentRecord{
		ID:               uuid.New(),
		ProviderID:       providerID,
		SessionID:        input.SessionID,
		JobID:            input.JobID,
		Amount:           input.Amount,
		Currency:         "usd",
		Status:           enums.PaymentStatusSucceeded,
		POSVendor:        &vendor,
		POSTransactionID: &txnID,
		SucceededAt:      &now,
	}
	if err := s.repo.Create(ctx, &record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save pos payment")
	}
	return &record, nil
}

func (s *service) Get(ctx context.Context, paymentID uuid.UUID) (*models.PaymentRecord, error) {
	if paymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	record, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	return record, nil
}

func (s *service) List(ctx context.Context, providerID uuid.UUID, limit int) ([]models.PaymentRecord, error) {
	if providerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	records, err := s.repo.ListByProvider(ctx, providerID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return records, nil
}

func (s *service) findByIntent(ctx context.Context, intentID string) (*models.PaymentRecord, error) {
	if intentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "intent id required")
	}
	record, err := s.repo.FindByIntentID(ctx, intentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment by intent")
	}
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found for intent")
	}
	return record, nil
}
