package inspections

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
)

type fakeRepo struct {
	createFn func(ctx context.Context, result *models.InspectionResult) error
	listFn   func(ctx context.Context, providerID, vehicleID uuid.UUID) ([]models.InspectionResult, error)
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, result *models.InspectionResult) error {
	if f.createFn != nil {
		return f.createFn(ctx, result)
	}
	return nil
}

func (f *fakeRepo) ListByVehicle(ctx context.Context, providerID, vehicleID uuid.UUID) ([]models.InspectionResult, error) {
	if f.listFn != nil {
		return f.listFn(ctx, providerID, vehicleID)
	}
	return nil, nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.InspectionResult, error) {
	return nil, nil
}

func TestTemplatesGrowWithDepth(t *testing.T) {
	quick, _ := Template(enums.InspectionDepthQuick)
	multi, _ := Template(enums.InspectionDepthMultiPoint)
	full, _ := Template(enums.InspectionDepthFullDiagnostic)

	if len(quick) == 0 || len(multi) <= len(quick) || len(full) <= len(multi) {
		t.Fatalf("template sizes wrong: quick=%d multi=%d full=%d", len(quick), len(multi), len(full))
	}
	// The deeper templates start with the quick checklist in order.
	for i, item := range quick {
		if full[i].Key != item.Key {
			t.Fatalf("full template diverges from quick at %d: %s vs %s", i, full[i].Key, item.Key)
		}
	}
}

func TestRecordRejectsUnknownItem(t *testing.T) {
	svc, err := NewService(&fakeRepo{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Record(context.Background(), uuid.New(), RecordInput{
		VehicleID: uuid.New(),
		Depth:     enums.InspectionDepthQuick,
		Items: []RecordedItem{
			{Key: "flux_capacitor", Status: enums.InspectionItemOK},
		},
	})
	var domainErr *pkgerrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRecordRejectsUnknownStatus(t *testing.T) {
	svc, err := NewService(&fakeRepo{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Record(context.Background(), uuid.New(), RecordInput{
		VehicleID: uuid.New(),
		Depth:     enums.InspectionDepthQuick,
		Items: []RecordedItem{
			{Key: "tire_condition", Status: enums.InspectionItemStatus("great")},
		},
	})
	var domainErr *pkgerrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRecordFillsMissingItemsAsNotChecked(t *testing.T) {
	var saved *models.InspectionResult
	repo := &fakeRepo{
		createFn: func(ctx context.Context, result *models.InspectionResult) error {
			saved = result
			return nil
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	note := "tread at 3/32"
	_, err = svc.Record(context.Background(), uuid.New(), RecordInput{
		VehicleID: uuid.New(),
		Depth:     enums.InspectionDepthQuick,
		Items: []RecordedItem{
			{Key: "tire_condition", Status: enums.InspectionItemUrgent, Note: &note},
		},
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	template, _ := Template(enums.InspectionDepthQuick)
	if len(saved.Items) != len(template) {
		t.Fatalf("expected %d stored items, got %d", len(template), len(saved.Items))
	}
	notChecked := 0
	for _, item := range saved.Items {
		switch item.Key {
		case "tire_condition":
			if item.Status != enums.InspectionItemUrgent || item.Note == nil {
				t.Fatalf("answered item not preserved: %+v", item)
			}
		default:
			if item.Status != enums.InspectionItemNotChecked {
				t.Fatalf("unanswered item %s should be not_checked, got %s", item.Key, item.Status)
			}
			notChecked++
		}
	}
	if notChecked != len(template)-1 {
		t.Fatalf("expected %d not_checked items, got %d", len(template)-1, notChecked)
	}
}
