package models

import (
	"time"

	"github.com/google/uuid"
)

// MaintenanceReminder schedules a follow-up nudge for a customer's vehicle.
type MaintenanceReminder struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProviderID  uuid.UUID  `gorm:"column:provider_id;type:uuid;not null;index"`
	CustomerID  uuid.UUID  `gorm:"column:customer_id;type:uuid;not null"`
	VehicleID   uuid.UUID  `gorm:"column:vehicle_id;type:uuid;not null"`
	ServiceName string     `gorm:"column:service_name;type:text;not null"`
	DueAt       time.Time  `gorm:"column:due_at;not null;index"`
	SentAt      *time.Time `gorm:"column:sent_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}
