package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
)

// Notification stores in-app notification payloads scoped to providers.
type Notification struct {
	ID         uuid.UUID                  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProviderID uuid.UUID                  `gorm:"type:uuid;not null;index"`
	Category   enums.NotificationCategory `gorm:"type:text;not null"`
	Title      string                     `gorm:"type:text;not null"`
	Message    string                     `gorm:"type:text;not null"`
	Link       *string                    `gorm:"type:text"`
	ReadAt     *time.Time                 `gorm:"type:timestamptz"`
	CreatedAt  time.Time                  `gorm:"type:timestamptz;default:now()"`
}
