package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// PayloadPurger removes stored payloads older than the cutoff.
type PayloadPurger interface {
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// CleanupScheduler periodically deletes uploaded import payloads that have
// outlived their retention window. Payload files are only a staging area;
// once a job has run (or been abandoned) they hold user PII for no reason.
type CleanupScheduler struct {
	cronEngine *cron.Cron
	purger     PayloadPurger
	retention  time.Duration
	cronSpec   string
	logger     *logrus.Logger
}

func NewCleanupScheduler(purger PayloadPurger, retention time.Duration, cronSpec string, logger *logrus.Logger) *CleanupScheduler {
	return &CleanupScheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		purger:     purger,
		retention:  retention,
		cronSpec:   cronSpec,
		logger:     logger,
	}
}

func (s *CleanupScheduler) Start() {
	s.logger.Info("Starting upload cleanup scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()

		cutoff := time.Now().Add(-s.retention)
		removed, err := s.purger.PurgeOlderThan(ctx, cutoff)
		if err != nil {
			s.logger.Errorf("Upload cleanup sweep failed: %v", err)
			return
		}
		if removed > 0 {
			s.logger.Infof("Upload cleanup sweep removed %d expired payload(s)", removed)
		}
	})
	if err != nil {
		s.logger.Fatalf("FATAL: Could not add upload cleanup cron job: %v", err)
	}

	s.cronEngine.Start()
	s.logger.Info("Upload cleanup scheduler started.")
}

func (s *CleanupScheduler) Stop() {
	s.logger.Info("Stopping upload cleanup scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Upload cleanup scheduler gracefully stopped.")
}
