package media

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
)

const maxUploadBytes = 20 * 1024 * 1024

type gcsClient interface {
	SignedURL(bucket, object, contentType string, expires time.Duration) (string, error)
	SignedDownloadURL(bucket, object string, expires time.Duration) (string, error)
}

// Service exposes signed-URL upload and download semantics for evidence
// photos, signatures, and documents.
type Service interface {
	PresignUpload(ctx context.Context, providerID uuid.UUID, input PresignInput) (*PresignOutput, error)
	ConfirmUpload(ctx context.Context, providerID, mediaID uuid.UUID) (*models.Media, error)
	DownloadURL(ctx context.Context, providerID, mediaID uuid.UUID) (string, error)
}

type service struct {
	repo        Repository
	gcs         gcsClient
	bucket      string
	uploadTTL   time.Duration
	downloadTTL time.Duration
}

// NewService constructs a media service backed by the repository and GCS signer.
func NewService(repo Repository, gcs gcsClient, bucket string, uploadTTL, downloadTTL time.Duration) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "media repository required")
	}
	if gcs == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gcs client required")
	}
	if bucket == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gcs bucket required")
	}
	if uploadTTL <= 0 || downloadTTL <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "signed url ttls must be positive")
	}
	return &service{
		repo:        repo,
		gcs:         gcs,
		bucket:      bucket,
		uploadTTL:   uploadTTL,
		downloadTTL: downloadTTL,
	}, nil
}

// PresignInput models the payload required to request an upload URL.
type PresignInput struct {
	Kind      enums.MediaKind `json:"kind" validate:"required"`
	MimeType  string          `json:"mime_type" validate:"required"`
	FileName  string          `json:"file_name" validate:"required"`
	SizeBytes int64           `json:"size_bytes" validate:"required,gt=0"`
}

// PresignOutput contains the data returned to the client after creating a media record.
type PresignOutput struct {
	MediaID      uuid.UUID `json:"media_id"`
	ObjectKey    string    `json:"object_key"`
	SignedPUTURL string    `json:"signed_put_url"`
	ContentType  string    `json:"content_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

var imageMimeTypes = []string{"image/png", "image/jpeg", "image/webp", "image/heic"}

var mimeTypesByKind = map[enums.MediaKind][]string{
	enums.MediaKindEvidencePhoto:    imageMimeTypes,
	enums.MediaKindKeyExchangePhoto: imageMimeTypes,
	enums.MediaKindInspectionPhoto:  imageMimeTypes,
	enums.MediaKindSignature:        {"image/png", "image/svg+xml"},
	enums.MediaKindDocument:         {"application/pdf", "image/png", "image/jpeg"},
}

func (s *service) PresignUpload(ctx context.Context, providerID uuid.UUID, input PresignInput) (*PresignOutput, error) {
	if providerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider identity missing")
	}
	if input.Kind == "" || !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid media kind")
	}

	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file_name is required")
	}
	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size_bytes must be positive")
	}
	if input.SizeBytes > maxUploadBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("size_bytes must be ≤ %d bytes", maxUploadBytes))
	}

	mimeType := strings.TrimSpace(input.MimeType)
	if mimeType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mime_type is required")
	}
	if !isAllowedMime(input.Kind, mimeType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mime_type not allowed for media kind")
	}

	mediaID := uuid.New()
	objectKey := buildObjectKey(input.Kind, mediaID, fileName)

	row := &models.Media{
		ID:          mediaID,
		ProviderID:  providerID,
		Kind:        input.Kind,
		Bucket:      s.bucket,
		ObjectKey:   objectKey,
		ContentType: mimeType,
		SizeBytes:   input.SizeBytes,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist media row")
	}

	expiresAt := time.Now().Add(s.uploadTTL)
	signedURL, err := s.gcs.SignedURL(s.bucket, objectKey, mimeType, s.uploadTTL)
	if err != nil {
		_ = s.repo.Delete(ctx, mediaID)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
	}

	return &PresignOutput{
		MediaID:      mediaID,
		ObjectKey:    objectKey,
		SignedPUTURL: signedURL,
		ContentType:  mimeType,
		ExpiresAt:    expiresAt,
	}, nil
}

// ConfirmUpload marks the object as landed. References to unconfirmed media
// are rejected elsewhere, so the client calls this right after the PUT.
func (s *service) ConfirmUpload(ctx context.Context, providerID, mediaID uuid.UUID) (*models.Media, error) {
	row, err := s.loadOwned(ctx, providerID, mediaID)
	if err != nil {
		return nil, err
	}
	if row.UploadedAt != nil {
		return row, nil
	}

	now := time.Now().UTC()
	row.UploadedAt = &now
	if err := s.repo.Save(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save media row")
	}
	return row, nil
}

func (s *service) DownloadURL(ctx context.Context, providerID, mediaID uuid.UUID) (string, error) {
	row, err := s.loadOwned(ctx, providerID, mediaID)
	if err != nil {
		return "", err
	}
	if row.UploadedAt == nil {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "upload has not been confirmed")
	}

	url, err := s.gcs.SignedDownloadURL(row.Bucket, row.ObjectKey, s.downloadTTL)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign download url")
	}
	return url, nil
}

func (s *service) loadOwned(ctx context.Context, providerID, mediaID uuid.UUID) (*models.Media, error) {
	if providerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider identity missing")
	}
	if mediaID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "media id required")
	}
	row, err := s.repo.FindByID(ctx, mediaID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load media row")
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
	}
	if row.ProviderID != providerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "media belongs to another provider")
	}
	return row, nil
}

func isAllowedMime(kind enums.MediaKind, mimeType string) bool {
	allowed, ok := mimeTypesByKind[kind]
	if !ok {
		return false
	}
	for _, candidate := range allowed {
		if strings.EqualFold(candidate, mimeType) {
			return true
		}
	}
	return false
}

func buildObjectKey(kind enums.MediaKind, id uuid.UUID, fileName string) string {
	cleanName := sanitizeFileName(fileName)
	if cleanName == "" {
		cleanName = id.String()
	}
	return fmt.Sprintf("media/%s/%s/%s", kind, id.String(), cleanName)
}

func sanitizeFileName(name string) string {
	if name == "" {
		return ""
	}
	clean := path.Base(strings.TrimSpace(name))
	if clean == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}
