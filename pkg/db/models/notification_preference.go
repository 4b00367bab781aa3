package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
)

// NotificationPreference is one (provider, category) toggle row. Missing
// rows mean the category is enabled.
type NotificationPreference struct {
	ID         uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProviderID uuid.UUID                  `gorm:"column:provider_id;type:uuid;not null;uniqueIndex:idx_pref_provider_category"`
	Category   enums.NotificationCategory `gorm:"column:category;type:text;not null;uniqueIndex:idx_pref_provider_category"`
	Enabled    bool                       `gorm:"column:enabled;not null;default:true"`
	PushEnable bool                       `gorm:"column:push_enabled;not null;default:true"`
	UpdatedAt  time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}
