package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/logger"
)

type fakeRepo struct {
	createFn       func(ctx context.Context, record *models.PaymentRecord) error
	saveFn         func(ctx context.Context, record *models.PaymentRecord) error
	findFn         func(ctx context.Context, id uuid.UUID) (*models.PaymentRecord, error)
	findByIntentFn func(ctx context.Context, intentID string) (*models.PaymentRecord, error)
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, record *models.PaymentRecord) error {
	if f.createFn != nil {
		return f.createFn(ctx, record)
	}
	return nil
}

func (f *fakeRepo) Save(ctx context.Context, record *models.PaymentRecord) error {
	if f.saveFn != nil {
		return f.saveFn(ctx, record)
	}
	return nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentRecord, error) {
	if f.findFn != nil {
		return f.findFn(ctx, id)
	}
	return nil, nil
}

func (f *fakeRepo) FindByIntentID(ctx context.Context, intentID string) (*models.PaymentRecord, error) {
	if f.findByIntentFn != nil {
		return f.findByIntentFn(ctx, intentID)
	}
	return nil, nil
}

func (f *fakeRepo) ListByProvider(ctx context.Context, providerID uuid.UUID, limit int) ([]models.PaymentRecord, error) {
	return nil, nil
}

func (f *fakeRepo) CreateReceipt(ctx context.Context, receipt *models.Receipt) error {
	return nil
}

func (f *fakeRepo) FindReceiptByPayment(ctx context.Context, paymentID uuid.UUID) (*models.Receipt, error) {
	return nil, nil
}

type fakeIntents struct {
	createFn func(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	getFn    func(ctx context.Context, id string) (*stripe.PaymentIntent, error)
}

func (f *fakeIntents) CreateIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if f.createFn != nil {
		return f.createFn(ctx, params)
	}
	return &stripe.PaymentIntent{ID: "pi_test", ClientSecret: "pi_test_secret"}, nil
}

func (f *fakeIntents) GetIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return &stripe.PaymentIntent{ID: id, Status: stripe.PaymentIntentStatusSucceeded}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "payments-test", Level: zerolog.Disabled})
}

func TestCreateIntentConvertsAmountToCents(t *testing.T) {
	var gotAmount int64
	intents := &fakeIntents{
		createFn: func(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
			gotAmount = *params.Amount
			return &stripe.PaymentIntent{ID: "pi_1", ClientSecret: "cs_1"}, nil
		},
	}
	svc, err := NewService(&fakeRepo{}, intents, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := svc.CreateIntent(context.Background(), uuid.New(), CreateIntentInput{
		Amount: decimal.RequireFromString("318.00"),
	})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if gotAmount != 31800 {
		t.Fatalf("expected 31800 cents, got %d", gotAmount)
	}
	if result.ClientSecret != "cs_1" {
		t.Fatalf("client secret not returned: %q", result.ClientSecret)
	}
	if result.Payment.Status != enums.PaymentStatusRequiresPayment {
		t.Fatalf("new payment should require payment, got %s", result.Payment.Status)
	}
}

func TestCreateIntentRejectsNonPositiveAmount(t *testing.T) {
	svc, err := NewService(&fakeRepo{}, &fakeIntents{}, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.CreateIntent(context.Background(), uuid.New(), CreateIntentInput{Amount: decimal.Zero})
	var domainErr *pkgerrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVerifyIntentSyncsSucceededStatus(t *testing.T) {
	intentID := "pi_42"
	record := &models.PaymentRecord{
		ID:                    uuid.New(),
		Status:                enums.PaymentStatusRequiresPayment,
		StripePaymentIntentID: &intentID,
	}
	var saved *models.PaymentRecord
	repo := &fakeRepo{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.PaymentRecord, error) {
			return record, nil
		},
		saveFn: func(ctx context.Context, r *models.PaymentRecord) error {
			saved = r
			return nil
		},
	}
	svc, err := NewService(repo, &fakeIntents{}, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	got, err := svc.VerifyIntent(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.Status != enums.PaymentStatusSucceeded || got.SucceededAt == nil {
		t.Fatalf("expected succeeded, got %+v", got)
	}
	if saved == nil {
		t.Fatal("record not persisted")
	}
}

func TestMarkIntentSucceededIsIdempotent(t *testing.T) {
	intentID := "pi_done"
	record := &models.PaymentRecord{
		ID:                    uuid.New(),
		Status:                enums.PaymentStatusSucceeded,
		StripePaymentIntentID: &intentID,
	}
	saves := 0
	repo := &fakeRepo{
		findByIntentFn: func(ctx context.Context, id string) (*models.PaymentRecord, error) {
			return record, nil
		},
		saveFn: func(ctx context.Context, r *models.PaymentRecord) error {
			saves++
			return nil
		},
	}
	svc, err := NewService(repo, &fakeIntents{}, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.MarkIntentSucceeded(context.Background(), intentID); err != nil {
		t.Fatalf("mark succeeded: %v", err)
	}
	if saves != 0 {
		t.Fatalf("already-succeeded payment should not be rewritten, saved %d times", saves)
	}
}

func TestMarkIntentFailedNeverDowngradesSuccess(t *testing.T) {
	intentID := "pi_late_failure"
	record := &models.PaymentRecord{
		ID:                    uuid.New(),
		Status:                enums.PaymentStatusSucceeded,
		StripePaymentIntentID: &intentID,
	}
	repo := &fakeRepo{
		findByIntentFn: func(ctx context.Context, id string) (*models.PaymentRecord, error) {
			return record, nil
		},
	}
	svc, err := NewService(repo, &fakeIntents{}, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	got, err := svc.MarkIntentFailed(context.Background(), intentID, "card declined")
	if err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if got.Status != enums.PaymentStatusSucceeded {
		t.Fatalf("late failure must not downgrade success, got %s", got.Status)
	}
}

func TestRecordPOSPaymentValidatesVendor(t *testing.T) {
	svc, err := NewService(&fakeRepo{}, &fakeIntents{}, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.RecordPOSPayment(context.Background(), uuid.New(), POSPaymentInput{
		Amount:        decimal.NewFromInt(50),
		Vendor:        enums.POSVendor("toast"),
		TransactionID: "txn_1",
	})
	var domainErr *pkgerrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
