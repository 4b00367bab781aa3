package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
)

// Window bounds a dashboard summary. Short windows bucket by day, the yearly
// one by month.
type Window string

const (
	WindowWeek    Window = "7d"
	WindowMonth   Window = "30d"
	WindowQuarter Window = "90d"
	WindowYear    Window = "365d"
)

func (w Window) duration() (time.Duration, bool) {
	switch w {
	case WindowWeek:
		return 7 * 24 * time.Hour, true
	case WindowMonth:
		return 30 * 24 * time.Hour, true
	case WindowQuarter:
		return 90 * 24 * time.Hour, true
	case WindowYear:
		return 365 * 24 * time.Hour, true
	default:
		return 0, false
	}
}

func (w Window) trunc() string {
	if w == WindowYear {
		return "month"
	}
	return "day"
}

// Summary is the provider dashboard rollup.
type Summary struct {
	Window        Window                    `json:"window"`
	Earnings      []EarningsBucket          `json:"earnings"`
	JobCounts     map[enums.JobStatus]int64 `json:"job_counts"`
	BidsSubmitted int64                     `json:"bids_submitted"`
	BidsWon       int64                     `json:"bids_won"`
	BidWinRate    float64                   `json:"bid_win_rate"`
	AverageTicket decimal.Decimal           `json:"average_ticket"`
}

// Service serves provider-facing aggregates straight from the row store.
type Service interface {
	Summary(ctx context.Context, providerID uuid.UUID, window Window) (*Summary, error)
}

type service struct {
	repo Repository
}

// NewService wires the analytics repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "analytics repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Summary(ctx context.Context, providerID uuid.UUID, window Window) (*Summary, error) {
	if providerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}
	if window == "" {
		window = WindowMonth
	}
	span, ok := window.duration()
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown analytics window").
			WithDetails(map[string]any{"window": window})
	}
	since := time.Now().UTC().Add(-span)
	trunc := window.trunc()

	payments, err := s.repo.PaymentEarnings(ctx, providerID, since, trunc)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate payment earnings")
	}
	pos, err := s.repo.POSEarnings(ctx, providerID, since, trunc)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate pos earnings")
	}

	counts, err := s.repo.JobCounts(ctx, providerID, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count jobs")
	}
	jobCounts := make(map[enums.JobStatus]int64, len(counts))
	for _, row := range counts {
		jobCounts[row.Status] = row.Count
	}

	bids, err := s.repo.BidStats(ctx, providerID, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate bids")
	}
	winRate := 0.0
	if bids.Submitted > 0 {
		winRate = float64(bids.Won) / float64(bids.Submitted)
	}

	ticket, err := s.repo.AverageTicket(ctx, providerID, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "average ticket")
	}

	return &Summary{
		Window:        window,
		Earnings:      mergeEarnings(payments, pos),
		JobCounts:     jobCounts,
		BidsSubmitted: bids.Submitted,
		BidsWon:       bids.Won,
		BidWinRate:    winRate,
		AverageTicket: ticket,
	}, nil
}

// mergeEarnings folds the POS pull into the Stripe buckets so the chart shows
// one revenue line per period.
func mergeEarnings(a, b []EarningsBucket) []EarningsBucket {
	if len(b) == 0 {
		return a
	}
	byPeriod := make(map[string]decimal.Decimal, len(a)+len(b))
	order := make([]string, 0, len(a)+len(b))
	for _, bucket := range a {
		if _, seen := byPeriod[bucket.Period]; !seen {
			order = append(order, bucket.Period)
		}
		byPeriod[bucket.Period] = byPeriod[bucket.Period].Add(bucket.Amount)
	}
	for _, bucket := range b {
		if _, seen := byPeriod[bucket.Period]; !seen {
			order = append(order, bucket.Period)
		}
		byPeriod[bucket.Period] = byPeriod[bucket.Period].Add(bucket.Amount)
	}

	merged := make([]EarningsBucket, 0, len(order))
	for _, period := range order {
		merged = append(merged, EarningsBucket{Period: period, Amount: byPeriod[period]})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Period < merged[j].Period })
	return merged
}
