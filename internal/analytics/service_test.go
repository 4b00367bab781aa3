package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
)

type fakeRepo struct {
	payments  []EarningsBucket
	pos       []EarningsBucket
	counts    []StatusCount
	bids      bidStats
	ticket    decimal.Decimal
	lastTrunc string
}

func (f *fakeRepo) PaymentEarnings(ctx context.Context, providerID uuid.UUID, since time.Time, trunc string) ([]EarningsBucket, error) {
	f.lastTrunc = trunc
	return f.payments, nil
}

func (f *fakeRepo) POSEarnings(ctx context.Context, providerID uuid.UUID, since time.Time, trunc string) ([]EarningsBucket, error) {
	return f.pos, nil
}

func (f *fakeRepo) JobCounts(ctx context.Context, providerID uuid.UUID, since time.Time) ([]StatusCount, error) {
	return f.counts, nil
}

func (f *fakeRepo) BidStats(ctx context.Context, providerID uuid.UUID, since time.Time) (bidStats, error) {
	return f.bids, nil
}

func (f *fakeRepo) AverageTicket(ctx context.Context, providerID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	return f.ticket, nil
}

func TestSummaryMergesPOSIntoEarnings(t *testing.T) {
	repo := &fakeRepo{
		payments: []EarningsBucket{
			{Period: "2026-08-20", Amount: decimal.RequireFromString("300.00")},
			{Period: "2026-08-21", Amount: decimal.RequireFromString("150.00")},
		},
		pos: []EarningsBucket{
			{Period: "2026-08-21", Amount: decimal.RequireFromString("42.00")},
			{Period: "2026-08-22", Amount: decimal.RequireFromString("18.00")},
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	summary, err := svc.Summary(context.Background(), uuid.New(), WindowMonth)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary.Earnings) != 3 {
		t.Fatalf("expected 3 merged buckets, got %d", len(summary.Earnings))
	}
	if summary.Earnings[1].Period != "2026-08-21" || summary.Earnings[1].Amount.StringFixed(2) != "192.00" {
		t.Fatalf("overlapping period not summed: %+v", summary.Earnings[1])
	}
	if summary.Earnings[2].Period != "2026-08-22" {
		t.Fatalf("buckets out of order: %+v", summary.Earnings)
	}
}

func TestSummaryComputesWinRate(t *testing.T) {
	repo := &fakeRepo{
		bids: bidStats{Submitted: 8, Won: 2},
		counts: []StatusCount{
			{Status: enums.JobStatusInProgress, Count: 3},
			{Status: enums.JobStatusCompleted, Count: 5},
		},
		ticket: decimal.RequireFromString("212.40"),
	}
	svc, _ := NewService(repo)

	summary, err := svc.Summary(context.Background(), uuid.New(), WindowQuarter)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.BidWinRate != 0.25 {
		t.Fatalf("win rate wrong: %f", summary.BidWinRate)
	}
	if summary.JobCounts[enums.JobStatusCompleted] != 5 {
		t.Fatalf("job counts wrong: %+v", summary.JobCounts)
	}
	if summary.AverageTicket.StringFixed(2) != "212.40" {
		t.Fatalf("average ticket wrong: %s", summary.AverageTicket)
	}
}

func TestSummaryNoBidsMeansZeroRate(t *testing.T) {
	svc, _ := NewService(&fakeRepo{})
	summary, err := svc.Summary(context.Background(), uuid.New(), "")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Window != WindowMonth {
		t.Fatalf("empty window should default to 30d, got %s", summary.Window)
	}
	if summary.BidWinRate != 0 {
		t.Fatalf("no bids should yield zero rate, got %f", summary.BidWinRate)
	}
}

func TestSummaryYearlyBucketsByMonth(t *testing.T) {
	repo := &fakeRepo{}
	svc, _ := NewService(repo)
	if _, err := svc.Summary(context.Background(), uuid.New(), WindowYear); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if repo.lastTrunc != "month" {
		t.Fatalf("yearly window must truncate by month, got %q", repo.lastTrunc)
	}
}

func TestSummaryRejectsUnknownWindow(t *testing.T) {
	svc, _ := NewService(&fakeRepo{})
	_, err := svc.Summary(context.Background(), uuid.New(), Window("14d"))
	var domainErr *pkgerrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
