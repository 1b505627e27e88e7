package digest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the digest job on a cron schedule with a seconds field.
type Scheduler struct {
	cron     *cron.Cron
	job      *Job
	schedule string
	timeout  time.Duration
}

func NewScheduler(job *Job, schedule string, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		job:      job,
		schedule: schedule,
		timeout:  5 * time.Minute,
	}
}

// Start registers the nightly digest and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.runOnce)
	if err != nil {
		return fmt.Errorf("failed to create cron job: %w", err)
	}

	log.Printf("[info] digest scheduler started schedule=%q", s.schedule)
	s.cron.Start()
	return nil
}

// Stop stops scheduling and returns a context that is done once a running
// digest has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.job.RunYesterday(ctx); err != nil {
		log.Printf("[error] digest failed: %v", err)
	}
}
