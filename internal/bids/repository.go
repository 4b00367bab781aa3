package bids

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
)

// Repository exposes persistence helpers for bids.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByJobAndProvider(ctx context.Context, jobID, providerID uuid.UUID) (*models.Bid, error)
	Save(ctx context.Context, bid *models.Bid) error
	ListByProvider(ctx context.Context, providerID uuid.UUID, limit int) ([]models.Bid, error)
	AmountsForJob(ctx context.Context, jobID uuid.UUID, since time.Time) ([]decimal.Decimal, error)
	CreditBalance(ctx context.Context, providerID uuid.UUID) (int, error)
	InsertCreditEntry(ctx context.Context, entry *models.BidCreditEntry) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a bids repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) FindByJobAndProvider(ctx context.Context, jobID, providerID uuid.UUID) (*models.Bid, error) {
	var bid models.Bid
	err := r.db.WithContext(ctx).
		First(&bid, "job_id = ? AND provider_id = ?", jobID, providerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bid, nil
}

func (r *repositoryImpl) Save(ctx context.Context, bid *models.Bid) error {
	return r.db.WithContext(ctx).Save(bid).Error
}

func (r *repositoryImpl) ListByProvider(ctx context.Context, providerID uuid.UUID, limit int) ([]models.Bid, error) {
	var bids []models.Bid
	err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&bids).Error
	return bids, err
}

// AmountsForJob returns the amounts of every bid placed on the job since the
// cutoff, newest first.
func (r *repositoryImpl) AmountsForJob(ctx context.Context, jobID uuid.UUID, since time.Time) ([]decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&models.Bid{}).
		Where("job_id = ? AND created_at >= ?", jobID, since).
		Order("created_at DESC").
		Pluck("amount", &amounts).Error
	return amounts, err
}

// CreditBalance sums the ledger inside the current transaction so a spend
// in the same transaction is visible to the returned balance.
func (r *repositoryImpl) CreditBalance(ctx context.Context, providerID uuid.UUID) (int, error) {
	var balance *int
	err := r.db.WithContext(ctx).
		Model(&models.BidCreditEntry{}).
		Select("SUM(delta)").
		Where("provider_id = ?", providerID).
		Scan(&balance).Error
	if err != nil {
		return 0, err
	}
	if balance == nil {
		return 0, nil
	}
	return *balance, nil
}

func (r *repositoryImpl) InsertCreditEntry(ctx context.Context, entry *models.BidCreditEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
