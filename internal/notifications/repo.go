package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/pagination"
)

// Repository exposes persistence helpers for notifications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error)
	MarkRead(ctx context.Context, providerID, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error)
	MarkAllRead(ctx context.Context, providerID uuid.UUID, now time.Time) (int64, error)
	GetPreferences(ctx context.Context, providerID uuid.UUID) ([]models.NotificationPreference, error)
	UpsertPreference(ctx context.Context, pref *models.NotificationPreference) error
	RegisterDevice(ctx context.Context, device *models.PushDevice) error
	ListDevices(ctx context.Context, providerID uuid.UUID) ([]models.PushDevice, error)
	DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listNotificationsParams struct {
	ProviderID uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
	UnreadOnly bool
}

type notificationMarkResult struct {
	Updated bool
	Found   bool
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *repositoryImpl) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Notification{}).Where("provider_id = ?", params.ProviderID)
	if params.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&notifications).Error; err != nil {
		return nil, nil, err
	}

	if len(notifications) > normalized {
		next := notifications[normalized]
		notifications = notifications[:normalized]
		return notifications, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return notifications, nil, nil
}

func (r *repositoryImpl) MarkRead(ctx context.Context, providerID, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND provider_id = ? AND read_at IS NULL", notificationID, providerID).
		UpdateColumn("read_at", now)
	if result.Error != nil {
		return notificationMarkResult{}, result.Error
	}

	mark := notificationMarkResult{Updated: result.RowsAffected > 0}
	if result.RowsAffected > 0 {
		mark.Found = true
		return mark, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND provider_id = ?", notificationID, providerID).
		Count(&count).Error; err != nil {
		return notificationMarkResult{}, err
	}
	mark.Found = count > 0
	return mark, nil
}

func (r *repositoryImpl) MarkAllRead(ctx context.Context, providerID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("provider_id = ? AND read_at IS NULL", providerID).
		UpdateColumn("read_at", now)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) GetPreferences(ctx context.Context, providerID uuid.UUID) ([]models.NotificationPreference, error) {
	var prefs []models.NotificationPreference
	err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Find(&prefs).Error
	return prefs, err
}

func (r *repositoryImpl) UpsertPreference(ctx context.Context, pref *models.NotificationPreference) error {
	return r.db.WithContext(ctx).
		Where("provider_id = ? AND category = ?", pref.ProviderID, pref.Category).
		Assign(map[string]any{
			"enabled":      pref.Enabled,
			"push_enabled": pref.PushEnable,
		}).
		FirstOrCreate(&models.NotificationPreference{
			ProviderID: pref.ProviderID,
			Category:   pref.Category,
			Enabled:    pref.Enabled,
			PushEnable: pref.PushEnable,
		}).Error
}

func (r *repositoryImpl) RegisterDevice(ctx context.Context, device *models.PushDevice) error {
	return r.db.WithContext(ctx).
		Where("token = ?", device.Token).
		Assign(map[string]any{
			"provider_id":  device.ProviderID,
			"platform":     device.Platform,
			"last_seen_at": device.LastSeenAt,
		}).
		FirstOrCreate(device).Error
}

func (r *repositoryImpl) ListDevices(ctx context.Context, providerID uuid.UUID) ([]models.PushDevice, error) {
	var devices []models.PushDevice
	err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("last_seen_at DESC").
		Find(&devices).Error
	return devices, err
}

func (r *repositoryImpl) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("read_at IS NOT NULL AND created_at < ?", cutoff).
		Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}
