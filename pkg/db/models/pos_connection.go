package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
)

// POSConnection links a provider to an external point-of-sale account.
type POSConnection struct {
	ID           uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProviderID   uuid.UUID                 `gorm:"column:provider_id;type:uuid;not null;uniqueIndex:idx_pos_provider_vendor"`
	Vendor       enums.POSVendor           `gorm:"column:vendor;type:text;not null;uniqueIndex:idx_pos_provider_vendor"`
	Status       enums.POSConnectionStatus `gorm:"column:status;type:text;not null;default:'disconnected'"`
	MerchantID   *string                   `gorm:"column:merchant_id;type:text"`
	LocationID   *string                   `gorm:"column:location_id;type:text"`
	LastSyncedAt *time.Time                `gorm:"column:last_synced_at"`
	LastError    *string                   `gorm:"column:last_error;type:text"`
	CreatedAt    time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
