package bids

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/pricing"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/outbox"
)

type fakeRepo struct {
	findFn        func(ctx context.Context, jobID, providerID uuid.UUID) (*models.Bid, error)
	saveFn        func(ctx context.Context, bid *models.Bid) error
	listFn        func(ctx context.Context, providerID uuid.UUID, limit int) ([]models.Bid, error)
	amountsFn     func(ctx context.Context, jobID uuid.UUID, since time.Time) ([]decimal.Decimal, error)
	balanceFn     func(ctx context.Context, providerID uuid.UUID) (int, error)
	insertEntryFn func(ctx context.Context, entry *models.BidCreditEntry) error
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) FindByJobAndProvider(ctx context.Context, jobID, providerID uuid.UUID) (*models.Bid, error) {
	if f.findFn != nil {
		return f.findFn(ctx, jobID, providerID)
	}
	return nil, nil
}

func (f *fakeRepo) Save(ctx context.Context, bid *models.Bid) error {
	if f.saveFn != nil {
		return f.saveFn(ctx, bid)
	}
	return nil
}

func (f *fakeRepo) ListByProvider(ctx context.Context, providerID uuid.UUID, limit int) ([]models.Bid, error) {
	if f.listFn != nil {
		return f.listFn(ctx, providerID, limit)
	}
	return nil, nil
}

func (f *fakeRepo) AmountsForJob(ctx context.Context, jobID uuid.UUID, since time.Time) ([]decimal.Decimal, error) {
	if f.amountsFn != nil {
		return f.amountsFn(ctx, jobID, since)
	}
	return nil, nil
}

func (f *fakeRepo) CreditBalance(ctx context.Context, providerID uuid.UUID) (int, error) {
	if f.balanceFn != nil {
		return f.balanceFn(ctx, providerID)
	}
	return 0, nil
}

func (f *fakeRepo) InsertCreditEntry(ctx context.Context, entry *models.BidCreditEntry) error {
	if f.insertEntryFn != nil {
		return f.insertEntryFn(ctx, entry)
	}
	return nil
}

type fakeProviders struct {
	provider *models.Provider
}

func (f *fakeProviders) FindByID(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
	return f.provider, nil
}

type fakeEmitter struct {
	events []outbox.DomainEvent
}

func (f *fakeEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

func submitInput(jobID uuid.UUID) SubmitInput {
	return SubmitInput{
		JobID:         jobID,
		PartsCost:     decimal.NewFromInt(100),
		LaborHours:    decimal.NewFromInt(2),
		LaborRate:     decimal.NewFromInt(75),
		ProfitPercent: decimal.NewFromInt(20),
		State:         "FL",
	}
}

func TestSubmitSpendsOneCredit(t *testing.T) {
	balance := 3
	var entry *models.BidCreditEntry
	repo := &fakeRepo{
		balanceFn: func(ctx context.Context, providerID uuid.UUID) (int, error) {
			return balance, nil
		},
		insertEntryFn: func(ctx context.Context, e *models.BidCreditEntry) error {
			entry = e
			balance += e.Delta
			return nil
		},
	}
	emitter := &fakeEmitter{}
	svc, err := NewService(repo, &fakeProviders{}, emitter, fakeTxRunner{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := svc.Submit(context.Background(), uuid.New(), submitInput(uuid.New()))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if entry == nil || entry.Delta != -1 {
		t.Fatalf("expected a -1 ledger entry, got %+v", entry)
	}
	if result.CreditBalance != 2 {
		t.Fatalf("expected post-spend balance 2, got %d", result.CreditBalance)
	}
	if result.Bid.Amount.StringFixed(2) != "318.00" {
		t.Fatalf("expected recomputed total 318.00, got %s", result.Bid.Amount)
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventBidSubmitted {
		t.Fatalf("expected bid.submitted event, got %+v", emitter.events)
	}
}

func TestSubmitRejectsWithoutCredits(t *testing.T) {
	repo := &fakeRepo{
		balanceFn: func(ctx context.Context, providerID uuid.UUID) (int, error) {
			return 0, nil
		},
	}
	svc, err := NewService(repo, &fakeProviders{}, &fakeEmitter{}, fakeTxRunner{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Submit(context.Background(), uuid.New(), submitInput(uuid.New()))
	var domainErr *pkgerrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestResubmitReplacesWithoutSecondSpend(t *testing.T) {
	jobID := uuid.New()
	providerID := uuid.New()
	existing := &models.Bid{
		ID:         uuid.New(),
		JobID:      jobID,
		ProviderID: providerID,
		Amount:     decimal.NewFromInt(400),
		Status:     enums.BidStatusPending,
	}
	spends := 0
	repo := &fakeRepo{
		findFn: func(ctx context.Context, j, p uuid.UUID) (*models.Bid, error) {
			return existing, nil
		},
		balanceFn: func(ctx context.Context, providerID uuid.UUID) (int, error) {
			return 5, nil
		},
		insertEntryFn: func(ctx context.Context, e *models.BidCreditEntry) error {
			spends++
			return nil
		},
	}
	emitter := &fakeEmitter{}
	svc, err := NewService(repo, &fakeProviders{}, emitter, fakeTxRunner{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := svc.Submit(context.Background(), providerID, submitInput(jobID))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if spends != 0 {
		t.Fatalf("resubmit must not spend a credit, spent %d", spends)
	}
	if result.Bid.ID != existing.ID {
		t.Fatal("resubmit should keep the canonical bid row")
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventBidUpdated {
		t.Fatalf("expected bid.updated event, got %+v", emitter.events)
	}
}

func TestUpdateRejectsAcceptedBid(t *testing.T) {
	repo := &fakeRepo{
		findFn: func(ctx context.Context, jobID, providerID uuid.UUID) (*models.Bid, error) {
			return &models.Bid{ID: uuid.New(), Status: enums.BidStatusAccepted}, nil
		},
	}
	svc, err := NewService(repo, &fakeProviders{}, &fakeEmitter{}, fakeTxRunner{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Update(context.Background(), uuid.New(), UpdateInput(submitInput(uuid.New())))
	var domainErr *pkgerrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestSubmitClassifiesAgainstOtherProvidersOnly(t *testing.T) {
	// Market of 260 and 280 averages 270, so the 318.00 quote sits above
	// market. Were the saved bid counted too, the average would drift to 286
	// and the same quote would read competitive.
	market := []decimal.Decimal{decimal.NewFromInt(260), decimal.NewFromInt(280)}
	repo := &fakeRepo{
		balanceFn: func(ctx context.Context, providerID uuid.UUID) (int, error) {
			return 1, nil
		},
		saveFn: func(ctx context.Context, bid *models.Bid) error {
			market = append(market, bid.Amount)
			return nil
		},
		amountsFn: func(ctx context.Context, jobID uuid.UUID, since time.Time) ([]decimal.Decimal, error) {
			return append([]decimal.Decimal(nil), market...), nil
		},
	}
	svc, err := NewService(repo, &fakeProviders{}, &fakeEmitter{}, fakeTxRunner{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := svc.Submit(context.Background(), uuid.New(), submitInput(uuid.New()))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Classification != ClassificationAboveMarket {
		t.Fatalf("classification skewed by the provider's own bid: %s", result.Classification)
	}
}

func TestCompetitiveStats(t *testing.T) {
	repo := &fakeRepo{
		amountsFn: func(ctx context.Context, jobID uuid.UUID, since time.Time) ([]decimal.Decimal, error) {
			return []decimal.Decimal{
				decimal.NewFromInt(200),
				decimal.NewFromInt(300),
				decimal.NewFromInt(400),
			}, nil
		},
	}
	svc, err := NewService(repo, &fakeProviders{}, &fakeEmitter{}, fakeTxRunner{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	stats, err := svc.CompetitiveStats(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Count != 3 {
		t.Fatalf("expected count 3, got %d", stats.Count)
	}
	if stats.Min.StringFixed(2) != "200.00" || stats.Max.StringFixed(2) != "400.00" {
		t.Fatalf("min/max wrong: %s/%s", stats.Min, stats.Max)
	}
	if stats.Average.StringFixed(2) != "300.00" {
		t.Fatalf("expected average 300.00, got %s", stats.Average)
	}
}

func TestClassifyBoundaries(t *testing.T) {
	average := decimal.NewFromInt(100)
	cases := []struct {
		name   string
		amount string
		want   Classification
	}{
		{"well below", "84.99", ClassificationBelowMarket},
		{"at lower bound", "85.00", ClassificationCompetitive},
		{"at average", "100.00", ClassificationCompetitive},
		{"at upper bound", "115.00", ClassificationCompetitive},
		{"just above", "115.01", ClassificationAboveMarket},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify(decimal.RequireFromString(tc.amount), average, 4)
			if got != tc.want {
				t.Fatalf("classify(%s) = %s, want %s", tc.amount, got, tc.want)
			}
		})
	}
}

func TestClassifyWithoutMarketData(t *testing.T) {
	if got := classify(decimal.NewFromInt(500), decimal.Zero, 0); got != ClassificationCompetitive {
		t.Fatalf("no market data should read competitive, got %s", got)
	}
}

func TestBatchQuoteAppliesOverridesAndDiscount(t *testing.T) {
	provider := &models.Provider{
		ID:               uuid.New(),
		DefaultLaborRate: decimal.NewFromInt(75),
	}
	svc, err := NewService(&fakeRepo{}, &fakeProviders{provider: provider}, &fakeEmitter{}, fakeTxRunner{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	hours := decimal.NewFromInt(4)
	result, err := svc.BatchQuote(context.Background(), provider.ID, BatchInput{
		State: "FL",
		Defaults: pricing.Inputs{
			PartsCost:  decimal.NewFromInt(100),
			LaborHours: decimal.NewFromInt(2),
		},
		Vehicles: []BatchVehicle{
			{Label: "Van 1"},
			{Label: "Van 2", LaborHours: &hours},
		},
		Discount: decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("batch quote: %v", err)
	}
	if len(result.Quotes) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(result.Quotes))
	}
	if !result.Quotes[1].Breakdown.Total.GreaterThan(result.Quotes[0].Breakdown.Total) {
		t.Fatal("override hours should raise the second quote")
	}
	undiscounted := result.Quotes[0].Breakdown.Total.Add(result.Quotes[1].Breakdown.Total)
	if !result.Total.LessThan(undiscounted) {
		t.Fatal("discount not applied to fleet total")
	}
}
