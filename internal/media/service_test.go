package media

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
)

type fakeRepo struct {
	rows    map[uuid.UUID]*models.Media
	deleted []uuid.UUID
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[uuid.UUID]*models.Media{}}
}

func (f *fakeRepo) Create(ctx context.Context, media *models.Media) error {
	copied := *media
	f.rows[media.ID] = &copied
	return nil
}

func (f *fakeRepo) Save(ctx context.Context, media *models.Media) error {
	copied := *media
	f.rows[media.ID] = &copied
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.rows, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

type fakeGCS struct {
	signErr error
	signed  []string
}

func (f *fakeGCS) SignedURL(bucket, object, contentType string, expires time.Duration) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	f.signed = append(f.signed, object)
	return "https://storage.example.com/" + bucket + "/" + object + "?sig=put", nil
}

func (f *fakeGCS) SignedDownloadURL(bucket, object string, expires time.Duration) (string, error) {
	return "https://storage.example.com/" + bucket + "/" + object + "?sig=get", nil
}

func newTestService(t *testing.T, repo Repository, gcs gcsClient) Service {
	t.Helper()
	svc, err := NewService(repo, gcs, "portal-media", 15*time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestPresignCreatesRowAndSignsURL(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, &fakeGCS{})

	out, err := svc.PresignUpload(context.Background(), uuid.New(), PresignInput{
		Kind:      enums.MediaKindEvidencePhoto,
		MimeType:  "image/jpeg",
		FileName:  "front bumper.jpg",
		SizeBytes: 1024,
	})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.Contains(out.SignedPUTURL, out.ObjectKey) {
		t.Fatalf("signed url should reference the object key: %s", out.SignedPUTURL)
	}
	if strings.Contains(out.ObjectKey, " ") {
		t.Fatalf("object key must not contain spaces: %s", out.ObjectKey)
	}
	if repo.rows[out.MediaID] == nil {
		t.Fatal("media row not persisted")
	}
	if repo.rows[out.MediaID].UploadedAt != nil {
		t.Fatal("fresh rows must be unconfirmed")
	}
}

func TestPresignRejectsMimeOutsideKind(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, &fakeGCS{})

	_, err := svc.PresignUpload(context.Background(), uuid.New(), PresignInput{
		Kind:      enums.MediaKindSignature,
		MimeType:  "application/pdf",
		FileName:  "signature.pdf",
		SizeBytes: 1024,
	})
	var domainErr *pkgerrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPresignRejectsOversizedUpload(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, &fakeGCS{})

	_, err := svc.PresignUpload(context.Background(), uuid.New(), PresignInput{
		Kind:      enums.MediaKindDocument,
		MimeType:  "application/pdf",
		FileName:  "estimate.pdf",
		SizeBytes: maxUploadBytes + 1,
	})
	var domainErr *pkgerrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPresignCleansUpRowWhenSigningFails(t *testing.T) {
	repo := newFakeRepo()
	gcs := &fakeGCS{signErr: errors.New("signing requires service account credentials")}
	svc := newTestService(t, repo, gcs)

	_, err := svc.PresignUpload(context.Background(), uuid.New(), PresignInput{
		Kind:      enums.MediaKindEvidencePhoto,
		MimeType:  "image/png",
		FileName:  "photo.png",
		SizeBytes: 2048,
	})
	if err == nil {
		t.Fatal("expected signing error")
	}
	if len(repo.deleted) != 1 {
		t.Fatal("orphan row must be deleted when signing fails")
	}
}

func TestConfirmUploadIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, &fakeGCS{})
	providerID := uuid.New()

	out, err := svc.PresignUpload(context.Background(), providerID, PresignInput{
		Kind:      enums.MediaKindInspectionPhoto,
		MimeType:  "image/webp",
		FileName:  "tread.webp",
		SizeBytes: 512,
	})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}

	first, err := svc.ConfirmUpload(context.Background(), providerID, out.MediaID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if first.UploadedAt == nil {
		t.Fatal("confirm must stamp uploaded_at")
	}

	second, err := svc.ConfirmUpload(context.Background(), providerID, out.MediaID)
	if err != nil {
		t.Fatalf("reconfirm: %v", err)
	}
	if !second.UploadedAt.Equal(*first.UploadedAt) {
		t.Fatal("reconfirm must not move the timestamp")
	}
}

func TestDownloadRequiresConfirmedUploadAndOwnership(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, &fakeGCS{})
	providerID := uuid.New()

	out, err := svc.PresignUpload(context.Background(), providerID, PresignInput{
		Kind:      enums.MediaKindDocument,
		MimeType:  "application/pdf",
		FileName:  "waiver.pdf",
		SizeBytes: 4096,
	})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}

	_, err = svc.DownloadURL(context.Background(), providerID, out.MediaID)
	var domainErr *pkgerrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unconfirmed media must not be downloadable, got %v", err)
	}

	if _, err := svc.ConfirmUpload(context.Background(), providerID, out.MediaID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	_, err = svc.DownloadURL(context.Background(), uuid.New(), out.MediaID)
	if !errors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("foreign provider must be rejected, got %v", err)
	}

	url, err := svc.DownloadURL(context.Background(), providerID, out.MediaID)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if !strings.Contains(url, "sig=get") {
		t.Fatalf("expected signed GET url, got %s", url)
	}
}
