package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ServiceOffering is a line in the provider's walk-in service catalog.
type ServiceOffering struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProviderID      uuid.UUID       `gorm:"column:provider_id;type:uuid;not null;index"`
	Name            string          `gorm:"column:name;type:text;not null"`
	Category        string          `gorm:"column:category;type:text;not null"`
	BasePrice       decimal.Decimal `gorm:"column:base_price;type:numeric(10,2);not null"`
	DurationMinutes int             `gorm:"column:duration_minutes;not null;default:60"`
	Active          bool            `gorm:"column:active;not null;default:true"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
