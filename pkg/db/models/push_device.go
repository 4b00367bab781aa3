package models

import (
	"time"

	"github.com/google/uuid"
)

// PushDevice is a registered push token for a provider's device.
type PushDevice struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProviderID uuid.UUID `gorm:"column:provider_id;type:uuid;not null;index"`
	Token      string    `gorm:"column:token;type:text;not null;uniqueIndex"`
	Platform   string    `gorm:"column:platform;type:text;not null"`
	LastSeenAt time.Time `gorm:"column:last_seen_at;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
