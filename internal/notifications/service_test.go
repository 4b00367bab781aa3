package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/outbox"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/pagination"
)

type fakeRepo struct {
	listFn            func(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error)
	markReadFn        func(ctx context.Context, providerID, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error)
	markAllReadFn     func(ctx context.Context, providerID uuid.UUID, now time.Time) (int64, error)
	getPreferencesFn  func(ctx context.Context, providerID uuid.UUID) ([]models.NotificationPreference, error)
	upsertPrefFn      func(ctx context.Context, pref *models.NotificationPreference) error
	registerDeviceFn  func(ctx context.Context, device *models.PushDevice) error
	createFn          func(ctx context.Context, notification *models.Notification) error
	listDevicesFn     func(ctx context.Context, providerID uuid.UUID) ([]models.PushDevice, error)
	deleteOlderThanFn func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, n *models.Notification) error {
	if f.createFn != nil {
		return f.createFn(ctx, n)
	}
	return nil
}

func (f *fakeRepo) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	if f.listFn != nil {
		return f.listFn(ctx, params)
	}
	return nil, nil, nil
}

func (f *fakeRepo) MarkRead(ctx context.Context, providerID, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error) {
	if f.markReadFn != nil {
		return f.markReadFn(ctx, providerID, notificationID, now)
	}
	return notificationMarkResult{}, nil
}

func (f *fakeRepo) MarkAllRead(ctx context.Context, providerID uuid.UUID, now time.Time) (int64, error) {
	if f.markAllReadFn != nil {
		return f.markAllReadFn(ctx, providerID, now)
	}
	return 0, nil
}

func (f *fakeRepo) GetPreferences(ctx context.Context, providerID uuid.UUID) ([]models.NotificationPreference, error) {
	if f.getPreferencesFn != nil {
		return f.getPreferencesFn(ctx, providerID)
	}
	return nil, nil
}

func (f *fakeRepo) UpsertPreference(ctx context.Context, pref *models.NotificationPreference) error {
	if f.upsertPrefFn != nil {
		return f.upsertPrefFn(ctx, pref)
	}
	return nil
}

func (f *fakeRepo) RegisterDevice(ctx context.Context, device *models.PushDevice) error {
	if f.registerDeviceFn != nil {
		return f.registerDeviceFn(ctx, device)
	}
	return nil
}

func (f *fakeRepo) ListDevices(ctx context.Context, providerID uuid.UUID) ([]models.PushDevice, error) {
	if f.listDevicesFn != nil {
		return f.listDevicesFn(ctx, providerID)
	}
	return nil, nil
}

func (f *fakeRepo) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if f.deleteOlderThanFn != nil {
		return f.deleteOlderThanFn(ctx, cutoff)
	}
	return 0, nil
}

type fakeEmitter struct {
	events []outbox.DomainEvent
	err    error
}

func (f *fakeEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, &fakeEmitter{}, fakeTxRunner{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestListRequiresProvider(t *testing.T) {
	svc := newTestService(t, &fakeRepo{})
	if _, err := svc.List(context.Background(), ListParams{}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestListEncodesNextCursor(t *testing.T) {
	next := &pagination.Cursor{CreatedAt: time.Now().UTC(), ID: uuid.New()}
	repo := &fakeRepo{
		listFn: func(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
			return []models.Notification{{ID: uuid.New()}}, next, nil
		},
	}
	svc := newTestService(t, repo)

	result, err := svc.List(context.Background(), ListParams{ProviderID: uuid.New()})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Cursor == "" {
		t.Fatal("expected encoded cursor")
	}
	parsed, err := pagination.ParseCursor(result.Cursor)
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if parsed.ID != next.ID {
		t.Fatalf("cursor id mismatch: got %s want %s", parsed.ID, next.ID)
	}
}

func TestMarkReadNotFound(t *testing.T) {
	repo := &fakeRepo{
		markReadFn: func(ctx context.Context, providerID, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error) {
			return notificationMarkResult{Found: false}, nil
		},
	}
	svc := newTestService(t, repo)

	err := svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	var domainErr *pkgerrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPreferencesDefaultEnabled(t *testing.T) {
	providerID := uuid.New()
	repo := &fakeRepo{
		getPreferencesFn: func(ctx context.Context, id uuid.UUID) ([]models.NotificationPreference, error) {
			return []models.NotificationPreference{
				{ProviderID: id, Category: enums.NotificationBidOpportunity, Enabled: false, PushEnable: false},
			}, nil
		},
	}
	svc := newTestService(t, repo)

	views, err := svc.Preferences(context.Background(), providerID)
	if err != nil {
		t.Fatalf("preferences: %v", err)
	}
	if len(views) != len(enums.NotificationCategories()) {
		t.Fatalf("expected %d categories, got %d", len(enums.NotificationCategories()), len(views))
	}
	for _, view := range views {
		if view.Category == enums.NotificationBidOpportunity {
			if view.Enabled {
				t.Fatal("stored toggle should win")
			}
			continue
		}
		if !view.Enabled {
			t.Fatalf("category %s should default to enabled", view.Category)
		}
	}
}

func TestNotifySkipsDisabledCategory(t *testing.T) {
	providerID := uuid.New()
	created := 0
	repo := &fakeRepo{
		getPreferencesFn: func(ctx context.Context, id uuid.UUID) ([]models.NotificationPreference, error) {
			return []models.NotificationPreference{
				{ProviderID: id, Category: enums.NotificationPaymentReceived, Enabled: false},
			}, nil
		},
		createFn: func(ctx context.Context, n *models.Notification) error {
			created++
			return nil
		},
	}
	emitter := &fakeEmitter{}
	svc, err := NewService(repo, emitter, fakeTxRunner{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	err = svc.Notify(context.Background(), NotifyInput{
		ProviderID: providerID,
		Category:   enums.NotificationPaymentReceived,
		Title:      "Payment received",
		Message:    "Checkout #42 settled",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if created != 0 || len(emitter.events) != 0 {
		t.Fatalf("disabled category should be dropped (created=%d events=%d)", created, len(emitter.events))
	}
}

func TestNotifyEmitsOutboxEvent(t *testing.T) {
	repo := &fakeRepo{}
	emitter := &fakeEmitter{}
	svc, err := NewService(repo, emitter, fakeTxRunner{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	err = svc.Notify(context.Background(), NotifyInput{
		ProviderID: uuid.New(),
		Category:   enums.NotificationBidOpportunity,
		Title:      "New job nearby",
		Message:    "Brake job posted in 33101",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(emitter.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(emitter.events))
	}
	if emitter.events[0].EventType != enums.EventNotificationCreated {
		t.Fatalf("unexpected event type %s", emitter.events[0].EventType)
	}
}
