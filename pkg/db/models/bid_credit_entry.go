package models

import (
	"time"

	"github.com/google/uuid"
)

// BidCreditEntry is one ledger row of the provider's bid credit balance.
// Balance reads sum the ledger so a submit immediately followed by a read
// reflects the spend.
type BidCreditEntry struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProviderID uuid.UUID  `gorm:"column:provider_id;type:uuid;not null;index"`
	Delta      int        `gorm:"column:delta;not null"`
	Reason     string     `gorm:"column:reason;type:text;not null"`
	BidID      *uuid.UUID `gorm:"column:bid_id;type:uuid"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}
