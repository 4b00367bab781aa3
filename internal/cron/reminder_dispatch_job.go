package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/notifications"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/logger"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/outbox"
)

type reminderRepo interface {
	ListDueReminders(ctx context.Context, asOf time.Time) ([]models.MaintenanceReminder, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error
}

type notifier interface {
	Notify(ctx context.Context, input notifications.NotifyInput) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ReminderDispatchJobParams configure the maintenance-reminder dispatcher.
type ReminderDispatchJobParams struct {
	Logger   *logger.Logger
	Repo     reminderRepo
	Notifier notifier
	Emitter  eventEmitter
	Tx       txRunner
}

type reminderDispatchJob struct {
	logg     *logger.Logger
	repo     reminderRepo
	notifier notifier
	emitter  eventEmitter
	tx       txRunner
	now      func() time.Time
}

// NewReminderDispatchJob nudges providers about maintenance follow-ups that
// have come due.
func NewReminderDispatchJob(params ReminderDispatchJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("reminder repository required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if params.Emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &reminderDispatchJob{
		logg:     params.Logger,
		repo:     params.Repo,
		notifier: params.Notifier,
		emitter:  params.Emitter,
		tx:       params.Tx,
		now:      time.Now,
	}, nil
}

func (j *reminderDispatchJob) Name() string { return "maintenance-reminder-dispatch" }

func (j *reminderDispatchJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	due, err := j.repo.ListDueReminders(ctx, now)
	if err != nil {
		return fmt.Errorf("list due reminders: %w", err)
	}

	var errs []error
	for _, reminder := range due {
		if err := j.dispatch(ctx, reminder, now); err != nil {
			errs = append(errs, fmt.Errorf("reminder %s: %w", reminder.ID, err))
			j.logg.Error(j.logg.WithField(ctx, "reminder_id", reminder.ID.String()), "reminder dispatch failed", err)
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"due":    len(due),
		"failed": len(errs),
	}), "reminder dispatch complete")

	return multierr.Combine(errs...)
}

func (j *reminderDispatchJob) dispatch(ctx context.Context, reminder models.MaintenanceReminder, now time.Time) error {
	err := j.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return j.emitter.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReminderDue,
			AggregateType: enums.AggregateReminder,
			AggregateID:   reminder.ID,
			Data: outbox.ReminderEventData{
				ReminderID:  reminder.ID,
				ProviderID:  reminder.ProviderID,
				CustomerID:  reminder.CustomerID,
				ServiceName: reminder.ServiceName,
			},
		})
	})
	if err != nil {
		return err
	}

	if err := j.notifier.Notify(ctx, notifications.NotifyInput{
		ProviderID: reminder.ProviderID,
		Category:   enums.NotificationAppointmentReminder,
		Title:      "Maintenance reminder due",
		Message:    fmt.Sprintf("%s is due for a customer vehicle", reminder.ServiceName),
	}); err != nil {
		return err
	}

	return j.repo.MarkReminderSent(ctx, reminder.ID, now)
}
