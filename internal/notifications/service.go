package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/outbox"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/pagination"
)

// Service defines notification list/read/preference operations.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, providerID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, providerID uuid.UUID) (int64, error)
	Preferences(ctx context.Context, providerID uuid.UUID) ([]PreferenceView, error)
	UpdatePreference(ctx context.Context, providerID uuid.UUID, input PreferenceInput) error
	RegisterDevice(ctx context.Context, providerID uuid.UUID, input DeviceInput) error
	Notify(ctx context.Context, input NotifyInput) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo    Repository
	emitter eventEmitter
	tx      txRunner
}

// ListParams configures pagination for notifications.
type ListParams struct {
	ProviderID uuid.UUID
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// PreferenceView merges stored toggles with category defaults.
type PreferenceView struct {
	Category    enums.NotificationCategory `json:"category"`
	Enabled     bool                       `json:"enabled"`
	PushEnabled bool                       `json:"push_enabled"`
}

// PreferenceInput is one toggle update.
type PreferenceInput struct {
	Category    enums.NotificationCategory `json:"category" validate:"required"`
	Enabled     bool                       `json:"enabled"`
	PushEnabled bool                       `json:"push_enabled"`
}

// DeviceInput registers a push token.
type DeviceInput struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"required,oneof=ios android web"`
}

// NotifyInput creates an in-app notification and emits its outbox event.
type NotifyInput struct {
	ProviderID uuid.UUID
	Category   enums.NotificationCategory
	Title      string
	Message    string
	Link       *string
}

// NewService wires notifications dependencies.
func NewService(repo Repository, emitter eventEmitter, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if emitter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox emitter required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{repo: repo, emitter: emitter, tx: tx}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.ProviderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}

	query := listNotificationsParams{
		ProviderID: params.ProviderID,
		Limit:      pagination.LimitWithBuffer(params.Limit),
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}

	return &ListResult{
		Items:  rows,
		Cursor: cursor,
	}, nil
}

func (s *service) MarkRead(ctx context.Context, providerID, notificationID uuid.UUID) error {
	if providerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, providerID, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, providerID uuid.UUID) (int64, error) {
	if providerID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}

	count, err := s.repo.MarkAllRead(ctx, providerID, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

func (s *service) Preferences(ctx context.Context, providerID uuid.UUID) ([]PreferenceView, error) {
	if providerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}

	stored, err := s.repo.GetPreferences(ctx, providerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load preferences")
	}

	byCategory := make(map[enums.NotificationCategory]models.NotificationPreference, len(stored))
	for _, pref := range stored {
		byCategory[pref.Category] = pref
	}

	// Missing rows mean the category is enabled.
	views := make([]PreferenceView, 0, len(enums.NotificationCategories()))
	for _, category := range enums.NotificationCategories() {
		view := PreferenceView{Category: category, Enabled: true, PushEnabled: true}
		if pref, ok := byCategory[category]; ok {
			view.Enabled = pref.Enabled
			view.PushEnabled = pref.PushEnable
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *service) UpdatePreference(ctx context.Context, providerID uuid.UUID, input PreferenceInput) error {
	if providerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}
	if !input.Category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown notification category")
	}

	err := s.repo.UpsertPreference(ctx, &models.NotificationPreference{
		ProviderID: providerID,
		Category:   input.Category,
		Enabled:    input.Enabled,
		PushEnable: input.PushEnabled,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update preference")
	}
	return nil
}

func (s *service) RegisterDevice(ctx context.Context, providerID uuid.UUID, input DeviceInput) error {
	if providerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}
	if input.Token == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "device token required")
	}

	err := s.repo.RegisterDevice(ctx, &models.PushDevice{
		ProviderID: providerID,
		Token:      input.Token,
		Platform:   input.Platform,
		LastSeenAt: time.Now().UTC(),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register device")
	}
	return nil
}

// Notify writes the notification row and its outbox event in one transaction.
// Disabled categories are dropped silently.
func (s *service) Notify(ctx context.Context, input NotifyInput) error {
	if input.ProviderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}
	if !input.Category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown notification category")
	}
	if input.Title == "" || input.Message == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title and message required")
	}

	enabled, err := s.categoryEnabled(ctx, input.ProviderID, input.Category)
	if err != nil {
		return err
	}
	if !enabled {
		return nil
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		row := models.Notification{
			ID:         uuid.New(),
			ProviderID: input.ProviderID,
			Category:   input.Category,
			Title:      input.Title,
			Message:    input.Message,
			Link:       input.Link,
		}
		if err := s.repo.WithTx(tx).Create(ctx, &row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
		}
		return s.emitter.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventNotificationCreated,
			AggregateType: enums.AggregateNotification,
			AggregateID:   row.ID,
			Data: outbox.NotificationEventData{
				NotificationID: row.ID,
				ProviderID:     row.ProviderID,
				Category:       string(row.Category),
				Title:          row.Title,
				Message:        row.Message,
			},
		})
	})
}

func (s *service) categoryEnabled(ctx context.Context, providerID uuid.UUID, category enums.NotificationCategory) (bool, error) {
	prefs, err := s.repo.GetPreferences(ctx, providerID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load preferences")
	}
	for _, pref := range prefs {
		if pref.Category == category {
			return pref.Enabled, nil
		}
	}
	return true, nil
}
