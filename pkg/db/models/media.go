package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
)

// Media is an object uploaded to GCS via a signed URL. UploadedAt is set
// once the client confirms the upload finished.
type Media struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProviderID  uuid.UUID       `gorm:"column:provider_id;type:uuid;not null;index"`
	Kind        enums.MediaKind `gorm:"column:kind;type:text;not null"`
	Bucket      string          `gorm:"column:bucket;type:text;not null"`
	ObjectKey   string          `gorm:"column:object_key;type:text;not null;uniqueIndex"`
	ContentType string          `gorm:"column:content_type;type:text;not null"`
	SizeBytes   int64           `gorm:"column:size_bytes;not null;default:0"`
	UploadedAt  *time.Time      `gorm:"column:uploaded_at"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
