package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/types"
)

// Receipt records where a completed checkout's receipt was delivered. At
// least one delivery is required before the session can finish.
type Receipt struct {
	ID         uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentID  uuid.UUID               `gorm:"column:payment_id;type:uuid;not null;index"`
	SessionID  *uuid.UUID              `gorm:"column:session_id;type:uuid"`
	Deliveries []types.ReceiptDelivery `gorm:"column:deliveries;type:jsonb;serializer:json;not null"`
	CreatedAt  time.Time               `gorm:"column:created_at;autoCreateTime"`
}
