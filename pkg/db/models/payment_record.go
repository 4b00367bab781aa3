package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
)

// PaymentRecord tracks one payment attempt, whether via Stripe, a POS
// terminal, or cash taken at the counter.
type PaymentRecord struct {
	ID                    uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProviderID            uuid.UUID           `gorm:"column:provider_id;type:uuid;not null;index"`
	SessionID             *uuid.UUID          `gorm:"column:session_id;type:uuid"`
	JobID                 *uuid.UUID          `gorm:"column:job_id;type:uuid"`
	Amount                decimal.Decimal     `gorm:"column:amount;type:numeric(10,2);not null"`
	Currency              string              `gorm:"column:currency;type:text;not null;default:'usd'"`
	Status                enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'requires_payment'"`
	StripePaymentIntentID *string             `gorm:"column:stripe_payment_intent_id;type:text;uniqueIndex"`
	POSVendor             *enums.POSVendor    `gorm:"column:pos_vendor;type:text"`
	POSTransactionID      *string             `gorm:"column:pos_transaction_id;type:text"`
	FailureReason         *string             `gorm:"column:failure_reason;type:text"`
	SucceededAt           *time.Time          `gorm:"column:succeeded_at"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
