package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
)

// POSTransaction is a sale pulled from a connected vendor, used by the
// revenue analytics rollups.
type POSTransaction struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProviderID   uuid.UUID       `gorm:"column:provider_id;type:uuid;not null;index"`
	Vendor       enums.POSVendor `gorm:"column:vendor;type:text;not null;uniqueIndex:idx_pos_txn_vendor_external"`
	ExternalID   string          `gorm:"column:external_id;type:text;not null;uniqueIndex:idx_pos_txn_vendor_external"`
	Amount       decimal.Decimal `gorm:"column:amount;type:numeric(10,2);not null"`
	Currency     string          `gorm:"column:currency;type:text;not null;default:'usd'"`
	OccurredAt   time.Time       `gorm:"column:occurred_at;not null;index"`
	RawReference *string         `gorm:"column:raw_reference;type:text"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}
