package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
)

// EarningsBucket is one period's settled revenue.
type EarningsBucket struct {
	Period string          `json:"period"`
	Amount decimal.Decimal `json:"amount"`
}

// StatusCount is the number of jobs in one lifecycle status.
type StatusCount struct {
	Status enums.JobStatus `json:"status"`
	Count  int64           `json:"count"`
}

type bidStats struct {
	Submitted int64
	Won       int64
}

// Repository runs the aggregate queries behind the dashboard summary.
type Repository interface {
	PaymentEarnings(ctx context.Context, providerID uuid.UUID, since time.Time, trunc string) ([]EarningsBucket, error)
	POSEarnings(ctx context.Context, providerID uuid.UUID, since time.Time, trunc string) ([]EarningsBucket, error)
	JobCounts(ctx context.Context, providerID uuid.UUID, since time.Time) ([]StatusCount, error)
	BidStats(ctx context.Context, providerID uuid.UUID, since time.Time) (bidStats, error)
	AverageTicket(ctx context.Context, providerID uuid.UUID, since time.Time) (decimal.Decimal, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an analytics repository bound to the database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) PaymentEarnings(ctx context.Context, providerID uuid.UUID, since time.Time, trunc string) ([]EarningsBucket, error) {
	var buckets []EarningsBucket
	err := r.db.WithContext(ctx).
		Model(&models.PaymentRecord{}).
		Select("to_char(date_trunc(?, succeeded_at), 'YYYY-MM-DD') AS period, COALESCE(SUM(amount), 0) AS amount", trunc).
		Where("provider_id = ? AND status = ? AND succeeded_at >= ?", providerID, enums.PaymentStatusSucceeded, since).
		Group("period").
		Order("period ASC").
		Scan(&buckets).Error
	return buckets, err
}

func (r *repositoryImpl) POSEarnings(ctx context.Context, providerID uuid.UUID, since time.Time, trunc string) ([]EarningsBucket, error) {
	var buckets []EarningsBucket
	err := r.db.WithContext(ctx).
		Model(&models.POSTransaction{}).
		Select("to_char(date_trunc(?, occurred_at), 'YYYY-MM-DD') AS period, COALESCE(SUM(amount), 0) AS amount", trunc).
		Where("provider_id = ? AND occurred_at >= ?", providerID, since).
		Group("period").
		Order("period ASC").
		Scan(&buckets).Error
	return buckets, err
}

func (r *repositoryImpl) JobCounts(ctx context.Context, providerID uuid.UUID, since time.Time) ([]StatusCount, error) {
	var counts []StatusCount
	err := r.db.WithContext(ctx).
		Model(&models.JobPosting{}).
		Select("status, COUNT(*) AS count").
		Where("assigned_provider_id = ? AND created_at >= ?", providerID, since).
		Group("status").
		Scan(&counts).Error
	return counts, err
}

func (r *repositoryImpl) BidStats(ctx context.Context, providerID uuid.UUID, since time.Time) (bidStats, error) {
	var stats bidStats
	err := r.db.WithContext(ctx).
		Model(&models.Bid{}).
		Select("COUNT(*) AS submitted, COUNT(*) FILTER (WHERE status = ?) AS won", enums.BidStatusAccepted).
		Where("provider_id = ? AND created_at >= ?", providerID, since).
		Scan(&stats).Error
	return stats, err
}

func (r *repositoryImpl) AverageTicket(ctx context.Context, providerID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	var avg *decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&models.PaymentRecord{}).
		Select("AVG(amount)").
		Where("provider_id = ? AND status = ? AND succeeded_at >= ?", providerID, enums.PaymentStatusSucceeded, since).
		Scan(&avg).Error
	if err != nil || avg == nil {
		return decimal.Zero, err
	}
	return avg.Round(2), nil
}
