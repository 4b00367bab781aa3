package models

import (
	"time"

	"github.com/google/uuid"
)

// Vehicle belongs to a customer and is referenced by jobs and checkouts.
type Vehicle struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index"`
	Year       int       `gorm:"column:year;not null"`
	Make       string    `gorm:"column:make;type:text;not null"`
	Model      string    `gorm:"column:model;type:text;not null"`
	Trim       *string   `gorm:"column:trim;type:text"`
	VIN        *string   `gorm:"column:vin;type:text"`
	Plate      *string   `gorm:"column:plate;type:text"`
	Color      *string   `gorm:"column:color;type:text"`
	Mileage    *int      `gorm:"column:mileage"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
