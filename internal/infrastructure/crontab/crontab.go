// Package crontab schedules the expired-card sweeper.
package crontab

import (
	"context"
	"time"

	"github.com/mileusna/crontab"
	"github.com/rs/zerolog"

	"prompthub/services/library-api/internal/domain/prompt"
	"prompthub/services/library-api/internal/infrastructure/metrics"
	"prompthub/services/library-api/internal/utils/platformerrors"
)

// CronJobTimeout bounds each sweep.
const CronJobTimeout = 5 * time.Minute

// Crontab runs the catalog expiry sweeper on a schedule.
type Crontab struct {
	ctab     *crontab.Crontab
	service  *prompt.Service
	schedule string
	log      zerolog.Logger
}

func NewCrontab(service *prompt.Service, schedule string, log zerolog.Logger) *Crontab {
	return &Crontab{
		ctab:     crontab.New(),
		service:  service,
		schedule: schedule,
		log:      log.With().Str("component", "crontab").Logger(),
	}
}

// Run sweeps once at startup, schedules recurring sweeps, and blocks until
// the context is cancelled.
func (c *Crontab) Run(ctx context.Context) error {
	c.sweep(ctx)

	if err := c.ctab.AddJob(c.schedule, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), CronJobTimeout)
		defer cancel()
		c.sweep(jobCtx)
	}); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "failed to schedule purge job")
	}
	c.log.Info().Str("schedule", c.schedule).Msg("expiry sweeper scheduled")

	<-ctx.Done()
	c.ctab.Shutdown()
	return nil
}

func (c *Crontab) sweep(ctx context.Context) {
	purged, err := c.service.PurgeExpired(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("expiry sweep failed")
		return
	}
	if purged > 0 {
		metrics.CardsPurgedTotal.Add(float64(purged))
	}
}
