package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/pagination"
)

// Repository exposes persistence helpers for job postings and the custody
// records that hang off them.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context, params listJobsParams) ([]models.JobPosting, *pagination.Cursor, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.JobPosting, error)
	Save(ctx context.Context, job *models.JobPosting) error
	AdvanceTransfer(ctx context.Context, jobID uuid.UUID, expectedVersion int, to enums.TransferStatus) (bool, error)
	InsertEvidence(ctx context.Context, records []models.EvidenceRecord) error
	ListEvidence(ctx context.Context, jobID uuid.UUID) ([]models.EvidenceRecord, error)
	InsertKeyExchange(ctx context.Context, record *models.KeyExchangeRecord) error
	ListKeyExchanges(ctx context.Context, jobID uuid.UUID) ([]models.KeyExchangeRecord, error)
	FindDestinationByID(ctx context.Context, id uuid.UUID) (*models.DestinationTask, error)
	SaveDestination(ctx context.Context, task *models.DestinationTask) error
	ListDestinations(ctx context.Context, providerID uuid.UUID, includeCompleted bool) ([]models.DestinationTask, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a jobs repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listJobsParams struct {
	ProviderID   uuid.UUID
	AssignedToMe bool
	Status       *enums.JobStatus
	Category     string
	Limit        int
	Cursor       *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) List(ctx context.Context, params listJobsParams) ([]models.JobPosting, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.JobPosting{}).Preload("Vehicle")
	if params.AssignedToMe {
		query = query.Where("assigned_provider_id = ?", params.ProviderID)
	} else {
		query = query.Where("status = ? AND assigned_provider_id IS NULL", enums.JobStatusOpen)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Category != "" {
		query = query.Where("service_category = ?", params.Category)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var jobs []models.JobPosting
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&jobs).Error; err != nil {
		return nil, nil, err
	}

	if len(jobs) > normalized {
		next := jobs[normalized]
		jobs = jobs[:normalized]
		return jobs, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return jobs, nil, nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.JobPosting, error) {
	var job models.JobPosting
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Vehicle").
		Preload("Bids").
		First(&job, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *repositoryImpl) Save(ctx context.Context, job *models.JobPosting) error {
	return r.db.WithContext(ctx).Save(job).Error
}

// AdvanceTransfer is a compare-and-swap on transfer_version. A false return
// with no error means the version the caller read is stale.
func (r *repositoryImpl) AdvanceTransfer(ctx context.Context, jobID uuid.UUID, expectedVersion int, to enums.TransferStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.JobPosting{}).
		Where("id = ? AND transfer_version = ?", jobID, expectedVersion).
		Updates(map[string]any{
			"transfer_status":  to,
			"transfer_version": gorm.Expr("transfer_version + 1"),
			"updated_at":       time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) InsertEvidence(ctx context.Context, records []models.EvidenceRecord) error {
	return r.db.WithContext(ctx).Create(&records).Error
}

func (r *repositoryImpl) ListEvidence(ctx context.Context, jobID uuid.UUID) ([]models.EvidenceRecord, error) {
	var records []models.EvidenceRecord
	err := r.db.WithContext(ctx).
		Preload("Media").
		Where("job_id = ?", jobID).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}

func (r *repositoryImpl) InsertKeyExchange(ctx context.Context, record *models.KeyExchangeRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repositoryImpl) ListKeyExchanges(ctx context.Context, jobID uuid.UUID) ([]models.KeyExchangeRecord, error) {
	var records []models.KeyExchangeRecord
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}

func (r *repositoryImpl) FindDestinationByID(ctx context.Context, id uuid.UUID) (*models.DestinationTask, error) {
	var task models.DestinationTask
	err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

func (r *repositoryImpl) SaveDestination(ctx context.Context, task *models.DestinationTask) error {
	return r.db.WithContext(ctx).Save(task).Error
}

func (r *repositoryImpl) ListDestinations(ctx context.Context, providerID uuid.UUID, includeCompleted bool) ([]models.DestinationTask, error) {
	query := r.db.WithContext(ctx).
		Where("provider_id = ? OR (provider_id IS NULL AND status = ?)", providerID, enums.DestinationRequested)
	if !includeCompleted {
		query = query.Where("status <> ?", enums.DestinationCompleted)
	}
	var tasks []models.DestinationTask
	err := query.Order("created_at DESC").Find(&tasks).Error
	return tasks, err
}
