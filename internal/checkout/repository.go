package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
)

// Repository exposes persistence helpers for checkout sessions and the
// customer/vehicle rows the wizard touches.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateSession(ctx context.Context, session *models.CheckoutSession) error
	SaveSession(ctx context.Context, session *models.CheckoutSession, expectedVersion int) (bool, error)
	FindSessionByID(ctx context.Context, id uuid.UUID) (*models.CheckoutSession, error)
	FindSessionByPaymentID(ctx context.Context, paymentID uuid.UUID) (*models.CheckoutSession, error)
	MarkStaleSessionsAbandoned(ctx context.Context, cutoff time.Time) (int64, error)
	FindCustomerByPhone(ctx context.Context, phone string) (*models.Customer, error)
	FindCustomerByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	CreateCustomer(ctx context.Context, customer *models.Customer) error
	FindVehicleByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	CreateVehicle(ctx context.Context, vehicle *models.Vehicle) error
	ListResumableJobs(ctx context.Context, customerID, providerID uuid.UUID) ([]models.JobPosting, error)
	FindJobByID(ctx context.Context, id uuid.UUID) (*models.JobPosting, error)
	MarkJobEscrowFunded(ctx context.Context, jobID uuid.UUID) error
	CreateReminder(ctx context.Context, reminder *models.MaintenanceReminder) error
	ListDueReminders(ctx context.Context, asOf time.Time) ([]models.MaintenanceReminder, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a checkout repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) CreateSession(ctx context.Context, session *models.CheckoutSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// SaveSession writes the session only if the stored version still matches
// expectedVersion. A false return with a nil error means another terminal
// wrote the session first.
func (r *repositoryImpl) SaveSession(ctx context.Context, session *models.CheckoutSession, expectedVersion int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CheckoutSession{}).
		Where("id = ? AND version = ?", session.ID, expectedVersion).
		Select("*").
		Omit("id", "created_at", "Customer", "Vehicle").
		Updates(session)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repositoryImpl) FindSessionByID(ctx context.Context, id uuid.UUID) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Vehicle").
		First(&session, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *repositoryImpl) FindSessionByPaymentID(ctx context.Context, paymentID uuid.UUID) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	err := r.db.WithContext(ctx).First(&session, "payment_id = ?", paymentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// MarkStaleSessionsAbandoned closes out sessions that sat untouched past the
// cutoff without reaching a terminal step.
func (r *repositoryImpl) MarkStaleSessionsAbandoned(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CheckoutSession{}).
		Where("step <> ? AND abandoned_at IS NULL AND updated_at < ?", enums.CheckoutStepSucceeded, cutoff).
		Updates(map[string]any{
			"abandoned_at": time.Now().UTC(),
			"version":      gorm.Expr("version + 1"),
		})
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) FindCustomerByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Preload("Vehicles").
		First(&customer, "phone = ?", phone).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

func (r *repositoryImpl) FindCustomerByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Preload("Vehicles").
		First(&customer, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

func (r *repositoryImpl) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *repositoryImpl) FindVehicleByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.db.WithContext(ctx).First(&vehicle, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vehicle, nil
}

func (r *repositoryImpl) CreateVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	return r.db.WithContext(ctx).Create(vehicle).Error
}

// ListResumableJobs returns the customer's marketplace jobs assigned to this
// provider whose escrow is still waiting on an in-person payment.
func (r *repositoryImpl) ListResumableJobs(ctx context.Context, customerID, providerID uuid.UUID) ([]models.JobPosting, error) {
	var jobs []models.JobPosting
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND assigned_provider_id = ? AND escrow_status = ?",
			customerID, providerID, enums.EscrowStatusUnfunded).
		Order("created_at DESC").
		Find(&jobs).Error
	return jobs, err
}

func (r *repositoryImpl) FindJobByID(ctx context.Context, id uuid.UUID) (*models.JobPosting, error) {
	var job models.JobPosting
	err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *repositoryImpl) MarkJobEscrowFunded(ctx context.Context, jobID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.JobPosting{}).
		Where("id = ?", jobID).
		UpdateColumn("escrow_status", enums.EscrowStatusFunded).Error
}

func (r *repositoryImpl) CreateReminder(ctx context.Context, reminder *models.MaintenanceReminder) error {
	return r.db.WithContext(ctx).Create(reminder).Error
}

func (r *repositoryImpl) ListDueReminders(ctx context.Context, asOf time.Time) ([]models.MaintenanceReminder, error) {
	var reminders []models.MaintenanceReminder
	err := r.db.WithContext(ctx).
		Where("due_at <= ? AND sent_at IS NULL", asOf).
		Order("due_at ASC").
		Find(&reminders).Error
	return reminders, err
}

func (r *repositoryImpl) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.MaintenanceReminder{}).
		Where("id = ?", id).
		UpdateColumn("sent_at", at).Error
}
