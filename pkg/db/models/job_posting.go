package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/types"
)

// JobPosting is a marketplace service request. TransferVersion guards the
// vehicle custody chain: every advance must present the version it read.
type JobPosting struct {
	ID                 uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID         uuid.UUID            `gorm:"column:customer_id;type:uuid;not null;index"`
	VehicleID          uuid.UUID            `gorm:"column:vehicle_id;type:uuid;not null"`
	Title              string               `gorm:"column:title;type:text;not null"`
	Description        string               `gorm:"column:description;type:text;not null"`
	ServiceCategory    string               `gorm:"column:service_category;type:text;not null"`
	Status             enums.JobStatus      `gorm:"column:status;type:text;not null;default:'open'"`
	EscrowStatus       enums.EscrowStatus   `gorm:"column:escrow_status;type:text;not null;default:'none'"`
	TransferStatus     enums.TransferStatus `gorm:"column:transfer_status;type:text;not null;default:'awaiting_pickup'"`
	TransferVersion    int                  `gorm:"column:transfer_version;not null;default:1"`
	PostalCode         string               `gorm:"column:postal_code;type:text;not null"`
	Address            *types.Address       `gorm:"column:address;type:jsonb;serializer:json"`
	BudgetHint         *decimal.Decimal     `gorm:"column:budget_hint;type:numeric(10,2)"`
	Rush               bool                 `gorm:"column:rush;not null;default:false"`
	ScheduledAt        *time.Time           `gorm:"column:scheduled_at"`
	AcceptedBidID      *uuid.UUID           `gorm:"column:accepted_bid_id;type:uuid"`
	AssignedProviderID *uuid.UUID           `gorm:"column:assigned_provider_id;type:uuid;index"`
	CompletedAt        *time.Time           `gorm:"column:completed_at"`
	Customer           *Customer            `gorm:"foreignKey:CustomerID"`
	Vehicle            *Vehicle             `gorm:"foreignKey:VehicleID"`
	Bids               []Bid                `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
