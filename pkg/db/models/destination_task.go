package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/types"
)

// DestinationTask is a transport-style job: move a vehicle somewhere and
// bring it back, or drop it off for good.
type DestinationTask struct {
	ID          uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID  uuid.UUID                   `gorm:"column:customer_id;type:uuid;not null;index"`
	VehicleID   uuid.UUID                   `gorm:"column:vehicle_id;type:uuid;not null"`
	ProviderID  *uuid.UUID                  `gorm:"column:provider_id;type:uuid;index"`
	Kind        enums.DestinationKind       `gorm:"column:kind;type:text;not null"`
	Status      enums.DestinationTaskStatus `gorm:"column:status;type:text;not null;default:'requested'"`
	Pickup      types.Address               `gorm:"column:pickup;type:jsonb;serializer:json;not null"`
	Dropoff     types.Address               `gorm:"column:dropoff;type:jsonb;serializer:json;not null"`
	Fee         decimal.Decimal             `gorm:"column:fee;type:numeric(10,2);not null;default:0"`
	ScheduledAt *time.Time                  `gorm:"column:scheduled_at"`
	CompletedAt *time.Time                  `gorm:"column:completed_at"`
	CreatedAt   time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}
