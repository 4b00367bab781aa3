package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
)

// EvidenceRecord links an uploaded photo to a transfer stage of a job.
type EvidenceRecord struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	JobID     uuid.UUID            `gorm:"column:job_id;type:uuid;not null;index"`
	MediaID   uuid.UUID            `gorm:"column:media_id;type:uuid;not null"`
	Stage     enums.TransferStatus `gorm:"column:stage;type:text;not null"`
	Kind      enums.MediaKind      `gorm:"column:kind;type:text;not null"`
	Caption   *string              `gorm:"column:caption;type:text"`
	Media     *Media               `gorm:"foreignKey:MediaID"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
}
