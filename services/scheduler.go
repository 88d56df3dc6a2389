package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// StartArchiveScheduler backfills missed weeks on startup, then archives the
// finished week every Monday 00:05 UTC. The five-minute offset keeps the
// reference date safely inside the previous week regardless of clock skew.
func StartArchiveScheduler(ctx context.Context, archiver *ArchiverService, log *zap.Logger) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.CronJob("5 0 * * 1", false),
		gocron.NewTask(func() {
			previousWeek := time.Now().UTC().AddDate(0, 0, -1)
			if _, err := archiver.ArchiveWeek(ctx, previousWeek); err != nil {
				log.Error("scheduled weekly archive failed", zap.Error(err))
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	go archiver.ArchivePastWeeks(ctx)

	log.Info("weekly archive scheduler running", zap.String("cron", "5 0 * * 1 (UTC)"))
	return sched, nil
}
