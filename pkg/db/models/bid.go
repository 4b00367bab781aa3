package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/types"
)

// Bid is a provider's quote on a job. The (job_id, provider_id) pair is
// unique: re-submitting replaces the canonical bid rather than adding one.
type Bid struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	JobID      uuid.UUID           `gorm:"column:job_id;type:uuid;not null;uniqueIndex:idx_bids_job_provider"`
	ProviderID uuid.UUID           `gorm:"column:provider_id;type:uuid;not null;uniqueIndex:idx_bids_job_provider"`
	Amount     decimal.Decimal     `gorm:"column:amount;type:numeric(10,2);not null"`
	Breakdown  *types.BidBreakdown `gorm:"column:breakdown;type:jsonb;serializer:json"`
	Message    *string             `gorm:"column:message;type:text"`
	EtaDays    *int                `gorm:"column:eta_days"`
	Status     enums.BidStatus     `gorm:"column:status;type:text;not null;default:'pending'"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
