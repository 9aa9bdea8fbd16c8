// Package scheduler runs periodic maintenance jobs (database integrity
// checks, WAL checkpoints, offsite backups) on cron schedules, adapted
// from the teacher's own scheduler.Scheduler wrapper around
// robfig/cron/v3.
package scheduler

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a named, periodic unit of work.
type Job interface {
	Run() error
	Name() string
}

// Scheduler wraps a seconds-resolution cron.Cron, logging every job's
// outcome.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// New builds an idle Scheduler; call Start to begin firing jobs.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// Start begins firing registered jobs on their schedules.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop waits for in-flight jobs to finish, then returns.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// AddJob registers job on a standard 6-field (seconds-first) cron
// schedule, e.g. "0 0 * * * *" for hourly.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if err := job.Run(); err != nil {
			s.log.Error().Err(err).Str("job", job.Name()).Msg("scheduled job failed")
			return
		}
		s.log.Debug().Str("job", job.Name()).Msg("scheduled job completed")
	})
	return err
}
