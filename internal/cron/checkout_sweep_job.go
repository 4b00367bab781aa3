package cron

import (
	"context"
	"fmt"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/logger"
)

type staleSessionSweeper interface {
	AbandonStale(ctx context.Context) (int64, error)
}

type checkoutSweepJob struct {
	logg    *logger.Logger
	sweeper staleSessionSweeper
}

// NewCheckoutSweepJob closes out checkout sessions that sat idle past the
// configured window.
func NewCheckoutSweepJob(logg *logger.Logger, sweeper staleSessionSweeper) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if sweeper == nil {
		return nil, fmt.Errorf("checkout service required")
	}
	return &checkoutSweepJob{logg: logg, sweeper: sweeper}, nil
}

func (j *checkoutSweepJob) Name() string { return "checkout-session-sweep" }

func (j *checkoutSweepJob) Run(ctx context.Context) error {
	abandoned, err := j.sweeper.AbandonStale(ctx)
	if err != nil {
		return fmt.Errorf("checkout sweep: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "rows_abandoned", abandoned), "checkout sweep complete")
	return nil
}
