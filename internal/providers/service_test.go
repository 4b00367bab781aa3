package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
)

type fakeRepo struct {
	findByIDFn      func(ctx context.Context, id uuid.UUID) (*models.Provider, error)
	updateFn        func(ctx context.Context, provider *models.Provider) error
	balanceFn       func(ctx context.Context, providerID uuid.UUID) (int, error)
	insertCreditFn  func(ctx context.Context, entry *models.BidCreditEntry) error
	listOfferingsFn func(ctx context.Context, providerID uuid.UUID, activeOnly bool) ([]models.ServiceOffering, error)
	upsertFn        func(ctx context.Context, offering *models.ServiceOffering) error
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (f *fakeRepo) Update(ctx context.Context, provider *models.Provider) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, provider)
	}
	return nil
}

func (f *fakeRepo) CreditBalance(ctx context.Context, providerID uuid.UUID) (int, error) {
	if f.balanceFn != nil {
		return f.balanceFn(ctx, providerID)
	}
	return 0, nil
}

func (f *fakeRepo) InsertCreditEntry(ctx context.Context, entry *models.BidCreditEntry) error {
	if f.insertCreditFn != nil {
		return f.insertCreditFn(ctx, entry)
	}
	return nil
}

func (f *fakeRepo) ListOfferings(ctx context.Context, providerID uuid.UUID, activeOnly bool) ([]models.ServiceOffering, error) {
	if f.listOfferingsFn != nil {
		return f.listOfferingsFn(ctx, providerID, activeOnly)
	}
	return nil, nil
}

func (f *fakeRepo) UpsertOffering(ctx context.Context, offering *models.ServiceOffering) error {
	if f.upsertFn != nil {
		return f.upsertFn(ctx, offering)
	}
	return nil
}

func TestGetProfileIncludesLedgerBalance(t *testing.T) {
	providerID := uuid.New()
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
			return &models.Provider{ID: id, BusinessName: "Miami Mobile Mechanics"}, nil
		},
		balanceFn: func(ctx context.Context, id uuid.UUID) (int, error) {
			return 7, nil
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	profile, err := svc.GetProfile(context.Background(), providerID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile.CreditBalance != 7 {
		t.Fatalf("expected balance 7, got %d", profile.CreditBalance)
	}
	if profile.Provider.BusinessName != "Miami Mobile Mechanics" {
		t.Fatalf("unexpected provider %+v", profile.Provider)
	}
}

func TestGetProfileNotFound(t *testing.T) {
	svc, err := NewService(&fakeRepo{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.GetProfile(context.Background(), uuid.New())
	var domainErr *pkgerrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateProfileRejectsNegativeLaborRate(t *testing.T) {
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
			return &models.Provider{ID: id}, nil
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	rate := decimal.NewFromInt(-10)
	_, err = svc.UpdateProfile(context.Background(), uuid.New(), UpdateInput{DefaultLaborRate: &rate})
	var domainErr *pkgerrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateProfileAppliesPartialFields(t *testing.T) {
	var saved *models.Provider
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
			return &models.Provider{ID: id, BusinessName: "Old Name", ServiceRadiusMiles: 25}, nil
		},
		updateFn: func(ctx context.Context, provider *models.Provider) error {
			saved = provider
			return nil
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	name := "  New Name  "
	if _, err := svc.UpdateProfile(context.Background(), uuid.New(), UpdateInput{BusinessName: &name}); err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if saved == nil || saved.BusinessName != "New Name" {
		t.Fatalf("expected trimmed name, got %+v", saved)
	}
	if saved.ServiceRadiusMiles != 25 {
		t.Fatalf("untouched field changed: %d", saved.ServiceRadiusMiles)
	}
}

func TestSaveOfferingDefaultsDuration(t *testing.T) {
	var saved *models.ServiceOffering
	repo := &fakeRepo{
		upsertFn: func(ctx context.Context, offering *models.ServiceOffering) error {
			saved = offering
			return nil
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.SaveOffering(context.Background(), uuid.New(), OfferingInput{
		Name:      "Oil Change",
		Category:  "maintenance",
		BasePrice: decimal.NewFromInt(60),
		Active:    true,
	})
	if err != nil {
		t.Fatalf("save offering: %v", err)
	}
	if saved == nil || saved.DurationMinutes != 60 {
		t.Fatalf("expected default duration, got %+v", saved)
	}
}
