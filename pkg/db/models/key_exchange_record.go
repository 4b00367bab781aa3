package models

import (
	"time"

	"github.com/google/uuid"
)

// KeyExchangeRecord documents a key handoff at intake or return. Direction
// is "intake" or "return".
type KeyExchangeRecord struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	JobID     uuid.UUID  `gorm:"column:job_id;type:uuid;not null;index"`
	Direction string     `gorm:"column:direction;type:text;not null"`
	PhotoID   *uuid.UUID `gorm:"column:photo_media_id;type:uuid"`
	Notes     *string    `gorm:"column:notes;type:text"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}
