package providers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
)

// Repository exposes persistence helpers for providers and their credit ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Provider, error)
	Update(ctx context.Context, provider *models.Provider) error
	CreditBalance(ctx context.Context, providerID uuid.UUID) (int, error)
	InsertCreditEntry(ctx context.Context, entry *models.BidCreditEntry) error
	ListOfferings(ctx context.Context, providerID uuid.UUID, activeOnly bool) ([]models.ServiceOffering, error)
	UpsertOffering(ctx context.Context, offering *models.ServiceOffering) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a providers repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
	var provider models.Provider
	err := r.db.WithContext(ctx).First(&provider, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &provider, nil
}

func (r *repositoryImpl) Update(ctx context.Context, provider *models.Provider) error {
	return r.db.WithContext(ctx).Save(provider).Error
}

// CreditBalance sums the ledger so callers always see committed spends.
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

func (r *repositoryImpl) ListOfferings(ctx context.Context, providerID uuid.UUID, activeOnly bool) ([]models.ServiceOffering, error) {
	query := r.db.WithContext(ctx).Where("provider_id = ?", providerID)
	if activeOnly {
		query = query.Where("active = true")
	}
	var offerings []models.ServiceOffering
	err := query.Order("category ASC, name ASC").Find(&offerings).Error
	return offerings, err
}

func (r *repositoryImpl) UpsertOffering(ctx context.Context, offering *models.ServiceOffering) error {
	return r.db.WithContext(ctx).Save(offering).Error
}
