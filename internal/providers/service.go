package providers

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/types"
)

// Service loads and updates provider profiles. The bid credit balance is
// computed from the ledger on every read, never cached client-side.
type Service interface {
	GetProfile(ctx context.Context, providerID uuid.UUID) (*Profile, error)
	UpdateProfile(ctx context.Context, providerID uuid.UUID, input UpdateInput) (*Profile, error)
	ListOfferings(ctx context.Context, providerID uuid.UUID, activeOnly bool) ([]models.ServiceOffering, error)
	SaveOffering(ctx context.Context, providerID uuid.UUID, input OfferingInput) (*models.ServiceOffering, error)
}

type service struct {
	repo Repository
}

// Profile is the provider row plus the computed credit balance.
type Profile struct {
	Provider      models.Provider `json:"provider"`
	CreditBalance int             `json:"credit_balance"`
}

// UpdateInput carries the guarded profile fields. Nil pointers leave the
// stored value untouched.
type UpdateInput struct {
	BusinessName         *string          `json:"business_name,omitempty" validate:"omitempty,min=2,max=120"`
	Phone                *string          `json:"phone,omitempty" validate:"omitempty,e164"`
	Address              *types.Address   `json:"address,omitempty"`
	ServiceCategories    []string         `json:"service_categories,omitempty"`
	DefaultLaborRate     *decimal.Decimal `json:"default_labor_rate,omitempty"`
	DefaultProfitPercent *decimal.Decimal `json:"default_profit_percent,omitempty"`
	DefaultTravelFee     *decimal.Decimal `json:"default_travel_fee,omitempty"`
	ServiceRadiusMiles   *int             `json:"service_radius_miles,omitempty" validate:"omitempty,min=1,max=500"`
}

// OfferingInput creates or updates a walk-in catalog entry.
type OfferingInput struct {
	ID              *uuid.UUID      `json:"id,omitempty"`
	Name            string          `json:"name" validate:"required,min=2,max=120"`
	Category        string          `json:"category" validate:"required"`
	BasePrice       decimal.Decimal `json:"base_price"`
	DurationMinutes int             `json:"duration_minutes" validate:"omitempty,min=5,max=1440"`
	Active          bool            `json:"active"`
}

// NewService wires provider profile dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "providers repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetProfile(ctx context.Context, providerID uuid.UUID) (*Profile, error) {
	if providerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}

	provider, err := s.repo.FindByID(ctx, providerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load provider")
	}
	if provider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "provider not found")
	}

	balance, err := s.repo.CreditBalance(ctx, providerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load credit balance")
	}

	return &Profile{Provider: *provider, CreditBalance: balance}, nil
}

func (s *service) UpdateProfile(ctx context.Context, providerID uuid.UUID, input UpdateInput) (*Profile, error) {
	if providerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}

	provider, err := s.repo.FindByID(ctx, providerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load provider")
	}
	if provider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "provider not found")
	}

	if input.BusinessName != nil {
		name := strings.TrimSpace(*input.BusinessName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "business name cannot be empty")
		}
		provider.BusinessName = name
	}
	if input.Phone != nil {
		provider.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Address != nil {
		provider.Address = input.Address
	}
	if input.ServiceCategories != nil {
		provider.ServiceCategories = input.ServiceCategories
	}
	if input.DefaultLaborRate != nil {
		if input.DefaultLaborRate.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "labor rate cannot be negative")
		}
		provider.DefaultLaborRate = *input.DefaultLaborRate
	}
	if input.DefaultProfitPercent != nil {
		if input.DefaultProfitPercent.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "profit percent cannot be negative")
		}
		provider.DefaultProfitPercent = *input.DefaultProfitPercent
	}
	if input.DefaultTravelFee != nil {
		if input.DefaultTravelFee.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "travel fee cannot be negative")
		}
		provider.DefaultTravelFee = *input.DefaultTravelFee
	}
	if input.ServiceRadiusMiles != nil {
		if *input.ServiceRadiusMiles <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "service radius must be positive")
		}
		provider.ServiceRadiusMiles = *input.ServiceRadiusMiles
	}

	if err := s.repo.Update(ctx, provider); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update provider")
	}

	balance, err := s.repo.CreditBalance(ctx, providerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load credit balance")
	}
	return &Profile{Provider: *provider, CreditBalance: balance}, nil
}

func (s *service) ListOfferings(ctx context.Context, providerID uuid.UUID, activeOnly bool) ([]models.ServiceOffering, error) {
	if providerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}
	offerings, err := s.repo.ListOfferings(ctx, providerID, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offerings")
	}
	return offerings, nil
}

func (s *service) SaveOffering(ctx context.Context, providerID uuid.UUID, input OfferingInput) (*models.ServiceOffering, error) {
	if providerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Category) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offering name and category required")
	}
	if input.BasePrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price cannot be negative")
	}

	offering := models.ServiceOffering{
		ProviderID:      providerID,
		Name:            strings.TrimSpace(input.Name),
		Category:        strings.TrimSpace(input.Category),
		BasePrice:       input.BasePrice,
		DurationMinutes: input.DurationMinutes,
		Active:          input.Active,
	}
	if input.ID != nil {
		offering.ID = *input.ID
	}
	if offering.DurationMinutes <= 0 {
		offering.DurationMinutes = 60
	}

	if err := s.repo.UpsertOffering(ctx, &offering); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save offering")
	}
	return &offering, nil
}
