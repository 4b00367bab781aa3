package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
)

// Repository exposes persistence helpers for payments and receipts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, record *models.PaymentRecord) error
	Save(ctx context.Context, record *models.PaymentRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentRecord, error)
	FindByIntentID(ctx context.Context, intentID string) (*models.PaymentRecord, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID, limit int) ([]models.PaymentRecord, error)
	CreateReceipt(ctx context.Context, receipt *models.Receipt) error
	FindReceiptByPayment(ctx context.Context, paymentID uuid.UUID) (*models.Receipt, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a payments repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, record *models.PaymentRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repositoryImpl) Save(ctx context.Context, record *models.PaymentRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *repositoryImpl) FindByIntentID(ctx context.Context, intentID string) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	err := r.db.WithContext(ctx).First(&record, "stripe_payment_intent_id = ?", intentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *repositoryImpl) ListByProvider(ctx context.Context, providerID uuid.UUID, limit int) ([]models.PaymentRecord, error) {
	var records []models.PaymentRecord
	err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

func (r *repositoryImpl) CreateReceipt(ctx context.Context, receipt *models.Receipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

func (r *repositoryImpl) FindReceiptByPayment(ctx context.Context, paymentID uuid.UUID) (*models.Receipt, error) {
	var receipt models.Receipt
	err := r.db.WithContext(ctx).First(&receipt, "payment_id = ?", paymentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &receipt, nil
}
