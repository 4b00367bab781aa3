package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/types"
)

// Customer is a marketplace or walk-in customer keyed by phone number.
type Customer struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Phone     string         `gorm:"column:phone;type:text;not null;uniqueIndex"`
	FirstName string         `gorm:"column:first_name;type:text;not null"`
	LastName  string         `gorm:"column:last_name;type:text;not null"`
	Email     *string        `gorm:"column:email;type:text"`
	Address   *types.Address `gorm:"column:address;type:jsonb;serializer:json"`
	Vehicles  []Vehicle      `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
