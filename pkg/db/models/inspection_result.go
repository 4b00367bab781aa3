package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/types"
)

// InspectionResult stores a completed checklist for a vehicle, attached to
// either a checkout session or a marketplace job.
type InspectionResult struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProviderID uuid.UUID             `gorm:"column:provider_id;type:uuid;not null;index"`
	VehicleID  uuid.UUID             `gorm:"column:vehicle_id;type:uuid;not null"`
	SessionID  *uuid.UUID            `gorm:"column:session_id;type:uuid"`
	JobID      *uuid.UUID            `gorm:"column:job_id;type:uuid"`
	Depth      enums.InspectionDepth `gorm:"column:depth;type:text;not null"`
	Items      []types.ChecklistItem `gorm:"column:items;type:jsonb;serializer:json;not null"`
	Notes      *string               `gorm:"column:notes;type:text"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
}
