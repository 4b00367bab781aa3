package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/types"
)

// Provider is the business account the portal serves. Pricing defaults feed
// the bid calculator when the provider leaves a field blank.
type Provider struct {
	ID                   uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessName         string          `gorm:"column:business_name;type:text;not null"`
	Email                string          `gorm:"column:email;type:text;not null;uniqueIndex"`
	Phone                string          `gorm:"column:phone;type:text;not null"`
	Address              *types.Address  `gorm:"column:address;type:jsonb;serializer:json"`
	ServiceCategories    []string        `gorm:"column:service_categories;type:jsonb;serializer:json"`
	DefaultLaborRate     decimal.Decimal `gorm:"column:default_labor_rate;type:numeric(10,2);not null;default:0"`
	DefaultProfitPercent decimal.Decimal `gorm:"column:default_profit_percent;type:numeric(5,2);not null;default:0"`
	DefaultTravelFee     decimal.Decimal `gorm:"column:default_travel_fee;type:numeric(10,2);not null;default:0"`
	ServiceRadiusMiles   int             `gorm:"column:service_radius_miles;not null;default:25"`
	Rating               decimal.Decimal `gorm:"column:rating;type:numeric(3,2);not null;default:0"`
	RatingCount          int             `gorm:"column:rating_count;not null;default:0"`
	Active               bool            `gorm:"column:active;not null;default:true"`
	CreatedAt            time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
