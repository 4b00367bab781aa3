package inspections

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/types"
)

// Service records checklist inspections and serves the fixed templates.
type Service interface {
	GetTemplate(depth enums.InspectionDepth) ([]TemplateItem, error)
	Record(ctx context.Context, providerID uuid.UUID, input RecordInput) (*models.InspectionResult, error)
	ListForVehicle(ctx context.Context, providerID, vehicleID uuid.UUID) ([]models.InspectionResult, error)
}

// Repository exposes persistence helpers for inspection results.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, result *models.InspectionResult) error
	ListByVehicle(ctx context.Context, providerID, vehicleID uuid.UUID) ([]models.InspectionResult, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.InspectionResult, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an inspections repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, result *models.InspectionResult) error {
	return r.db.WithContext(ctx).Create(result).Error
}

func (r *repositoryImpl) ListByVehicle(ctx context.Context, providerID, vehicleID uuid.UUID) ([]models.InspectionResult, error) {
	var results []models.InspectionResult
	err := r.db.WithContext(ctx).
		Where("provider_id = ? AND vehicle_id = ?", providerID, vehicleID).
		Order("created_at DESC").
		Find(&results).Error
	return results, err
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.InspectionResult, error) {
	var result models.InspectionResult
	err := r.db.WithContext(ctx).First(&result, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

type service struct {
	repo Repository
}

// RecordInput is a completed checklist pass. Items must match the depth's
// template keys exactly; missing items default to not_checked.
type RecordInput struct {
	VehicleID uuid.UUID             `json:"vehicle_id" validate:"required"`
	SessionID *uuid.UUID            `json:"session_id,omitempty"`
	JobID     *uuid.UUID            `json:"job_id,omitempty"`
	Depth     enums.InspectionDepth `json:"depth" validate:"required"`
	Items     []RecordedItem        `json:"items" validate:"required,dive"`
	Notes     *string               `json:"notes,omitempty"`
}

// RecordedItem is one answered checklist line.
type RecordedItem struct {
	Key    string                     `json:"key" validate:"required"`
	Status enums.InspectionItemStatus `json:"status" validate:"required"`
	Note   *string                    `json:"note,omitempty"`
}

// NewService wires inspection dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inspections repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetTemplate(depth enums.InspectionDepth) ([]TemplateItem, error) {
	items, ok := Template(depth)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown inspection depth")
	}
	return items, nil
}

// Record validates the submitted items against the template and stores the
// result. Unknown item keys and unknown statuses are rejected outright.
func (s *service) Record(ctx context.Context, providerID uuid.UUID, input RecordInput) (*models.InspectionResult, error) {
	if providerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}
	if input.VehicleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle id required")
	}

	template, ok := Template(input.Depth)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown inspection depth")
	}

	answered := make(map[string]RecordedItem, len(input.Items))
	templateKeys := make(map[string]bool, len(template))
	for _, item := range template {
		templateKeys[item.Key] = true
	}
	for _, item := range input.Items {
		if !templateKeys[item.Key] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown checklist item").
				WithDetails(map[string]any{"key": item.Key})
		}
		if !item.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown item status").
				WithDetails(map[string]any{"key": item.Key, "status": item.Status})
		}
		answered[item.Key] = item
	}

	// Persist in template order so the stored checklist reads the same way
	// the technician worked through it.
	items := make([]types.ChecklistItem, 0, len(template))
	for _, line := range template {
		stored := types.ChecklistItem{
			Key:    line.Key,
			Label:  line.Label,
			Status: enums.InspectionItemNotChecked,
		}
		if item, ok := answered[line.Key]; ok {
			stored.Status = item.Status
			stored.Note = item.Note
		}
		items = append(items, stored)
	}

	result := models.InspectionResult{
		ID:         uuid.New(),
		ProviderID: providerID,
		VehicleID:  input.VehicleID,
		SessionID:  input.SessionID,
		JobID:      input.JobID,
		Depth:      input.Depth,
		Items:      items,
		Notes:      input.Notes,
	}
	if err := s.repo.Create(ctx, &result); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save inspection")
	}
	return &result, nil
}

func (s *service) ListForVehicle(ctx context.Context, providerID, vehicleID uuid.UUID) ([]models.InspectionResult, error) {
	if providerID == uuid.Nil || vehicleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider and vehicle ids required")
	}
	results, err := s.repo.ListByVehicle(ctx, providerID, vehicleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inspections")
	}
	return results, nil
}
