package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"modelviewer/internal/queue"
)

type TaskQueue interface {
	Enqueue(ctx context.Context, task queue.Task) error
}

// Scheduler enqueues periodic maintenance tasks for the worker.
type Scheduler struct {
	cron     *cron.Cron
	queue    TaskQueue
	schedule string
	log      zerolog.Logger
}

// NewScheduler takes a six-field cron expression (seconds first) for the
// asset cleanup run.
func NewScheduler(queue TaskQueue, schedule string, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:     c,
		queue:    queue,
		schedule: schedule,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.enqueueCleanup); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info().Str("schedule", s.schedule).Msg("cleanup scheduled")
	return nil
}

// Stop halts the cron loop. The returned context is done once a running job
// has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) enqueueCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.queue.Enqueue(ctx, queue.Task{Type: queue.TaskCleanup}); err != nil {
		s.log.Error().Err(err).Msg("enqueue cleanup failed")
		return
	}
	s.log.Debug().Msg("cleanup enqueued")
}
