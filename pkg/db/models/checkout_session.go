package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/types"
)

// CheckoutSession is one walk-in checkout wizard run. Step only moves
// forward through the canonical order; Version is bumped on every write so
// concurrent terminals detect stale updates.
type CheckoutSession struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProviderID      uuid.UUID           `gorm:"column:provider_id;type:uuid;not null;index"`
	Track           enums.CheckoutTrack `gorm:"column:track;type:text;not null;default:'walk_in'"`
	Step            enums.CheckoutStep  `gorm:"column:step;type:text;not null;default:'phone_entry'"`
	Version         int                 `gorm:"column:version;not null;default:1"`
	Phone           *string             `gorm:"column:phone;type:text"`
	PhoneVerifiedAt *time.Time          `gorm:"column:phone_verified_at"`
	CustomerID      *uuid.UUID          `gorm:"column:customer_id;type:uuid"`
	VehicleID       *uuid.UUID          `gorm:"column:vehicle_id;type:uuid"`
	JobID           *uuid.UUID          `gorm:"column:job_id;type:uuid"`
	Lines           []types.ServiceLine `gorm:"column:service_lines;type:jsonb;serializer:json"`
	Subtotal        decimal.Decimal     `gorm:"column:subtotal;type:numeric(10,2);not null;default:0"`
	TaxAmount       decimal.Decimal     `gorm:"column:tax_amount;type:numeric(10,2);not null;default:0"`
	Total           decimal.Decimal     `gorm:"column:total;type:numeric(10,2);not null;default:0"`
	AuthorizedAt    *time.Time          `gorm:"column:authorized_at"`
	AuthorizedBy    *string             `gorm:"column:authorized_by;type:text"`
	WaiverAccepted  bool                `gorm:"column:waiver_accepted;not null;default:false"`
	SignatureMedia  *uuid.UUID          `gorm:"column:signature_media_id;type:uuid"`
	PaymentID       *uuid.UUID          `gorm:"column:payment_id;type:uuid"`
	CompletedAt     *time.Time          `gorm:"column:completed_at"`
	AbandonedAt     *time.Time          `gorm:"column:abandoned_at"`
	Customer        *Customer           `gorm:"foreignKey:CustomerID"`
	Vehicle         *Vehicle            `gorm:"foreignKey:VehicleID"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
