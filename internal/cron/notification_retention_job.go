package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/logger"
)

const notificationRetentionDays = 30

type notificationRetentionRepo interface {
	DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type notificationRetentionJob struct {
	logg      *logger.Logger
	repo      notificationRetentionRepo
	retention int
	now       func() time.Time
}

// NewNotificationRetentionJob deletes read notifications past the retention
// window. Unread ones are kept until the provider handles them.
func NewNotificationRetentionJob(logg *logger.Logger, repo notificationRetentionRepo, retentionDays int) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if retentionDays <= 0 {
		retentionDays = notificationRetentionDays
	}
	return &notificationRetentionJob{
		logg:      logg,
		repo:      repo,
		retention: retentionDays,
		now:       time.Now,
	}, nil
}

func (j *notificationRetentionJob) Name() string { return "notification-retention" }

func (j *notificationRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	deleted, err := j.repo.DeleteReadOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("notification retention: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	}), "notification retention complete")
	return nil
}
