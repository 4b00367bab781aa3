package bids

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/pricing"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/outbox"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/types"
)

// statsLookback bounds how far back competitive stats reach for a job.
const statsLookback = 90 * 24 * time.Hour

// Classification buckets a quote against the market average for the job.
type Classification string

const (
	ClassificationBelowMarket Classification = "below_market"
	ClassificationCompetitive Classification = "competitive"
	ClassificationAboveMarket Classification = "above_market"
)

var (
	belowMarketFactor = decimal.RequireFromString("0.85")
	aboveMarketFactor = decimal.RequireFromString("1.15")
)

// Service covers quoting: submitting and revising bids, market stats, and
// fleet batch quotes.
type Service interface {
	Submit(ctx context.Context, providerID uuid.UUID, input SubmitInput) (*SubmitResult, error)
	Update(ctx context.Context, providerID uuid.UUID, input UpdateInput) (*models.Bid, error)
	ListMine(ctx context.Context, providerID uuid.UUID, limit int) ([]models.Bid, error)
	CompetitiveStats(ctx context.Context, jobID uuid.UUID) (*Stats, error)
	Classify(ctx context.Context, jobID uuid.UUID, amount decimal.Decimal) (Classification, error)
	BatchQuote(ctx context.Context, providerID uuid.UUID, input BatchInput) (*BatchResult, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type providerLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Provider, error)
}

type service struct {
	repo      Repository
	providers providerLoader
	emitter   eventEmitter
	tx        txRunner
	defaults  pricing.Defaults
}

// SubmitInput carries the quote figures for a job. Parts/labor fields feed
// the calculator; the stored amount is always the recomputed total.
type SubmitInput struct {
	JobID         uuid.UUID       `json:"job_id" validate:"required"`
	PartsCost     decimal.Decimal `json:"parts_cost"`
	LaborHours    decimal.Decimal `json:"labor_hours"`
	LaborRate     decimal.Decimal `json:"labor_rate"`
	ProfitPercent decimal.Decimal `json:"profit_percent"`
	TravelFee     decimal.Decimal `json:"travel_fee"`
	TransportFee  decimal.Decimal `json:"transport_fee"`
	Rush          bool            `json:"rush"`
	State         string          `json:"state" validate:"required,len=2"`
	Message       *string         `json:"message,omitempty"`
	EtaDays       *int            `json:"eta_days,omitempty" validate:"omitempty,min=1,max=60"`
}

// UpdateInput revises an existing bid. Revisions never cost a credit.
type UpdateInput struct {
	JobID         uuid.UUID       `json:"job_id" validate:"required"`
	PartsCost     decimal.Decimal `json:"parts_cost"`
	LaborHours    decimal.Decimal `json:"labor_hours"`
	LaborRate     decimal.Decimal `json:"labor_rate"`
	ProfitPercent decimal.Decimal `json:"profit_percent"`
	TravelFee     decimal.Decimal `json:"travel_fee"`
	TransportFee  decimal.Decimal `json:"transport_fee"`
	Rush          bool            `json:"rush"`
	State         string          `json:"state" validate:"required,len=2"`
	Message       *string         `json:"message,omitempty"`
	EtaDays       *int            `json:"eta_days,omitempty" validate:"omitempty,min=1,max=60"`
}

// SubmitResult returns the stored bid together with the post-spend balance.
type SubmitResult struct {
	Bid            models.Bid     `json:"bid"`
	CreditBalance  int            `json:"credit_balance"`
	Classification Classification `json:"classification"`
}

// Stats summarizes recent bids on a job.
type Stats struct {
	Count   int             `json:"count"`
	Min     decimal.Decimal `json:"min"`
	Max     decimal.Decimal `json:"max"`
	Average decimal.Decimal `json:"average"`
}

// BatchInput quotes the same service across a fleet of vehicles.
type BatchInput struct {
	State    string          `json:"state" validate:"required,len=2"`
	Vehicles []BatchVehicle  `json:"vehicles" validate:"required,min=1,dive"`
	Defaults pricing.Inputs  `json:"defaults"`
	Discount decimal.Decimal `json:"discount_percent"`
}

// BatchVehicle is one fleet unit with optional per-vehicle overrides.
type BatchVehicle struct {
	Label      string           `json:"label" validate:"required"`
	PartsCost  *decimal.Decimal `json:"parts_cost,omitempty"`
	LaborHours *decimal.Decimal `json:"labor_hours,omitempty"`
}

// BatchResult is the per-vehicle breakdowns plus the fleet total.
type BatchResult struct {
	Quotes []BatchQuoteLine `json:"quotes"`
	Total  decimal.Decimal  `json:"total"`
}

// BatchQuoteLine pairs a vehicle label with its computed breakdown.
type BatchQuoteLine struct {
	Label     string             `json:"label"`
	Breakdown types.BidBreakdown `json:"breakdown"`
}

// NewService wires bid quoting dependencies.
func NewService(repo Repository, providers providerLoader, emitter eventEmitter, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "bids repository required")
	}
	if providers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "provider loader required")
	}
	if emitter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox emitter required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{
		repo:      repo,
		providers: providers,
		emitter:   emitter,
		tx:        tx,
		defaults:  pricing.StandardDefaults(),
	}, nil
}

// Submit places the provider's canonical bid on a job. The first submission
// spends one bid credit; re-submitting replaces the existing bid without a
// second spend. The spend, the bid write, and the outbox event commit in one
// transaction.
func (s *service) Submit(ctx context.Context, providerID uuid.UUID, input SubmitInput) (*SubmitResult, error) {
	if providerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}
	if input.JobID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "job id required")
	}

	breakdown := pricing.Calculate(pricing.Inputs{
		PartsCost:     input.PartsCost,
		LaborHours:    input.LaborHours,
		LaborRate:     input.LaborRate,
		ProfitPercent: input.ProfitPercent,
		TravelFee:     input.TravelFee,
		TransportFee:  input.TransportFee,
		Rush:          input.Rush,
		State:         input.State,
	}, s.defaults)
	if !breakdown.Total.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bid total must be positive")
	}

	// Classification reads the market before this bid is saved, so the
	// provider's own quote never counts toward the average it is judged by.
	classification, err := s.Classify(ctx, input.JobID, breakdown.Total)
	if err != nil {
		return nil, err
	}

	var result SubmitResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindByJobAndProvider(ctx, input.JobID, providerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load existing bid")
		}

		eventType := enums.EventBidUpdated
		bid := existing
		if bid == nil {
			balance, err := repo.CreditBalance(ctx, providerID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load credit balance")
			}
			if balance < 1 {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient bid credits")
			}
			bid = &models.Bid{
				ID:         uuid.New(),
				JobID:      input.JobID,
				ProviderID: providerID,
				Status:     enums.BidStatusPending,
			}
			eventType = enums.EventBidSubmitted
		}

		bid.Amount = breakdown.Total
		bid.Breakdown = &breakdown
		bid.Message = input.Message
		bid.EtaDays = input.EtaDays

		if err := repo.Save(ctx, bid); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save bid")
		}

		if eventType == enums.EventBidSubmitted {
			entry := models.BidCreditEntry{
				ID:         uuid.New(),
				ProviderID: providerID,
				Delta:      -1,
				Reason:     "bid_submission",
				BidID:      &bid.ID,
			}
			if err := repo.InsertCreditEntry(ctx, &entry); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "spend bid credit")
			}
		}

		balance, err := repo.CreditBalance(ctx, providerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload credit balance")
		}

		if err := s.emitter.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateBid,
			AggregateID:   bid.ID,
			Data: outbox.BidEventData{
				BidID:      bid.ID,
				JobID:      bid.JobID,
				ProviderID: bid.ProviderID,
				Amount:     bid.Amount,
				Status:     string(bid.Status),
			},
		}); err != nil {
			return err
		}

		result.Bid = *bid
		result.CreditBalance = balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Classification = classification
	return &result, nil
}

// Update revises an existing bid in place. It never touches the ledger.
func (s *service) Update(ctx context.Context, providerID uuid.UUID, input UpdateInput) (*models.Bid, error) {
	if providerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}
	if input.JobID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "job id required")
	}

	breakdown := pricing.Calculate(pricing.Inputs{
		PartsCost:     input.PartsCost,
		LaborHours:    input.LaborHours,
		LaborRate:     input.LaborRate,
		ProfitPercent: input.ProfitPercent,
		TravelFee:     input.TravelFee,
		TransportFee:  input.TransportFee,
		Rush:          input.Rush,
		State:         input.State,
	}, s.defaults)
	if !breakdown.Total.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bid total must be positive")
	}

	var updated models.Bid
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		bid, err := repo.FindByJobAndProvider(ctx, input.JobID, providerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bid")
		}
		if bid == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "bid not found")
		}
		if bid.Status != enums.BidStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending bids can be revised")
		}

		bid.Amount = breakdown.Total
		bid.Breakdown = &breakdown
		bid.Message = input.Message
		bid.EtaDays = input.EtaDays

		if err := repo.Save(ctx, bid); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save bid")
		}

		if err := s.emitter.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBidUpdated,
			AggregateType: enums.AggregateBid,
			AggregateID:   bid.ID,
			Data: outbox.BidEventData{
				BidID:      bid.ID,
				JobID:      bid.JobID,
				ProviderID: bid.ProviderID,
				Amount:     bid.Amount,
				Status:     string(bid.Status),
			},
		}); err != nil {
			return err
		}

		updated = *bid
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *service) ListMine(ctx context.Context, providerID uuid.UUID, limit int) ([]models.Bid, error) {
	if providerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	bids, err := s.repo.ListByProvider(ctx, providerID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bids")
	}
	return bids, nil
}

func (s *service) CompetitiveStats(ctx context.Context, jobID uuid.UUID) (*Stats, error) {
	if jobID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "job id required")
	}

	since := time.Now().UTC().Add(-statsLookback)
	amounts, err := s.repo.AmountsForJob(ctx, jobID, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bid amounts")
	}
	if len(amounts) == 0 {
		return &Stats{}, nil
	}

	stats := Stats{Count: len(amounts), Min: amounts[0], Max: amounts[0]}
	sum := decimal.Zero
	for _, amount := range amounts {
		if amount.LessThan(stats.Min) {
			stats.Min = amount
		}
		if amount.GreaterThan(stats.Max) {
			stats.Max = amount
		}
		sum = sum.Add(amount)
	}
	stats.Average = sum.Div(decimal.NewFromInt(int64(stats.Count))).Round(2)
	return &stats, nil
}

// Classify buckets an amount against the job's recent average. With no
// market data every quote reads as competitive.
func (s *service) Classify(ctx context.Context, jobID uuid.UUID, amount decimal.Decimal) (Classification, error) {
	stats, err := s.CompetitiveStats(ctx, jobID)
	if err != nil {
		return "", err
	}
	return classify(amount, stats.Average, stats.Count), nil
}

func classify(amount, average decimal.Decimal, count int) Classification {
	if count == 0 || average.IsZero() {
		return ClassificationCompetitive
	}
	if amount.LessThan(average.Mul(belowMarketFactor)) {
		return ClassificationBelowMarket
	}
	if amount.GreaterThan(average.Mul(aboveMarketFactor)) {
		return ClassificationAboveMarket
	}
	return ClassificationCompetitive
}

// BatchQuote prices one service across a fleet. Per-vehicle overrides win
// over the shared defaults; the optional discount applies to the fleet total.
func (s *service) BatchQuote(ctx context.Context, providerID uuid.UUID, input BatchInput) (*BatchResult, error) {
	if providerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}
	if len(input.Vehicles) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one vehicle required")
	}
	if input.Discount.IsNegative() || input.Discount.GreaterThan(decimal.NewFromInt(100)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount must be between 0 and 100")
	}

	provider, err := s.providers.FindByID(ctx, providerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load provider")
	}
	if provider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "provider not found")
	}

	base := input.Defaults
	base.State = input.State
	if base.LaborRate.IsZero() {
		base.LaborRate = provider.DefaultLaborRate
	}
	if base.ProfitPercent.IsZero() {
		base.ProfitPercent = provider.DefaultProfitPercent
	}

	result := BatchResult{Total: decimal.Zero}
	for _, vehicle := range input.Vehicles {
		in := base
		if vehicle.PartsCost != nil {
			in.PartsCost = *vehicle.PartsCost
		}
		if vehicle.LaborHours != nil {
			in.LaborHours = *vehicle.LaborHours
		}
		breakdown := pricing.Calculate(in, s.defaults)
		result.Quotes = append(result.Quotes, BatchQuoteLine{Label: vehicle.Label, Breakdown: breakdown})
		result.Total = result.Total.Add(breakdown.Total)
	}

	if input.Discount.IsPositive() {
		discount := result.Total.Mul(input.Discount).Div(decimal.NewFromInt(100)).Round(2)
		result.Total = result.Total.Sub(discount)
	}
	return &result, nil
}
