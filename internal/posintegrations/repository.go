package posintegrations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/pagination"
)

type listTransactionsParams struct {
	ProviderID uuid.UUID
	Vendor     *enums.POSVendor
	Limit      int
	Cursor     *pagination.Cursor
}

// Repository persists vendor connections and the transactions pulled from them.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindConnection(ctx context.Context, providerID uuid.UUID, vendor enums.POSVendor) (*models.POSConnection, error)
	ListConnections(ctx context.Context, providerID uuid.UUID) ([]models.POSConnection, error)
	CreateConnection(ctx context.Context, conn *models.POSConnection) error
	SaveConnection(ctx context.Context, conn *models.POSConnection) error
	UpsertTransactions(ctx context.Context, txns []models.POSTransaction) (int64, error)
	ListTransactions(ctx context.Context, params listTransactionsParams) ([]models.POSTransaction, *pagination.Cursor, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a POS integration repository bound to the database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) FindConnection(ctx context.Context, providerID uuid.UUID, vendor enums.POSVendor) (*models.POSConnection, error) {
	var conn models.POSConnection
	err := r.db.WithContext(ctx).
		First(&conn, "provider_id = ? AND vendor = ?", providerID, vendor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conn, nil
}

func (r *repositoryImpl) ListConnections(ctx context.Context, providerID uuid.UUID) ([]models.POSConnection, error) {
	var conns []models.POSConnection
	err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("vendor ASC").
		Find(&conns).Error
	return conns, err
}

func (r *repositoryImpl) CreateConnection(ctx context.Context, conn *models.POSConnection) error {
	return r.db.WithContext(ctx).Create(conn).Error
}

func (r *repositoryImpl) SaveConnection(ctx context.Context, conn *models.POSConnection) error {
	return r.db.WithContext(ctx).Save(conn).Error
}

// UpsertTransactions inserts pulled sales, skipping rows the sync has already
// seen. The (vendor, external_id) unique index makes replays a no-op.
func (r *repositoryImpl) UpsertTransactions(ctx context.Context, txns []models.POSTransaction) (int64, error) {
	if len(txns) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "vendor"}, {Name: "external_id"}},
			DoNothing: true,
		}).
		Create(&txns)
	return result.RowsAffected, result.Error
}

// ListTransactions pages through pulled sales newest first. The cursor rides
// on (occurred_at, id) since syncs backfill rows out of insertion order.
func (r *repositoryImpl) ListTransactions(ctx context.Context, params listTransactionsParams) ([]models.POSTransaction, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Where("provider_id = ?", params.ProviderID)
	if params.Vendor != nil {
		query = query.Where("vendor = ?", *params.Vendor)
	}
	if params.Cursor != nil {
		query = query.Where("(occurred_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var txns []models.POSTransaction
	if err := query.Order("occurred_at DESC, id DESC").Limit(limit).Find(&txns).Error; err != nil {
		return nil, nil, err
	}

	if len(txns) > normalized {
		next := txns[normalized]
		txns = txns[:normalized]
		return txns, &pagination.Cursor{CreatedAt: next.OccurredAt, ID: next.ID}, nil
	}
	return txns, nil, nil
}
