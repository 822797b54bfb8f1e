package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/zap"
)

// PollScheduler fires registered functions on a fixed interval. Each key
// maps to one recurring quartz job.
type PollScheduler struct {
	scheduler quartz.Scheduler
	logger    *zap.Logger

	mu      sync.Mutex
	started bool
}

type pollJob struct {
	key string
	fn  func()
}

func (j *pollJob) Execute(_ context.Context) error {
	j.fn()
	return nil
}

func (j *pollJob) Description() string {
	return fmt.Sprintf("poll:%s", j.key)
}

func NewPollScheduler(logger *zap.Logger) *PollScheduler {
	return &PollScheduler{
		scheduler: quartz.NewStdScheduler(),
		logger:    logger.With(zap.String("component", "scheduler")),
	}
}

// Start runs the scheduler until ctx is done or Stop is called.
func (s *PollScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.scheduler.Start(ctx)
	s.started = true
	s.logger.Debug("scheduler started")
}

// Every schedules fn every interval, starting one interval from now. A
// previous schedule for the same key is replaced.
func (s *PollScheduler) Every(key string, interval time.Duration, fn func()) error {
	if interval <= 0 {
		return fmt.Errorf("invalid interval %s for %s", interval, key)
	}
	jobKey := quartz.NewJobKey(key)
	// ignore the error: the job may not exist yet
	_ = s.scheduler.DeleteJob(jobKey)

	detail := quartz.NewJobDetail(&pollJob{key: key, fn: fn}, jobKey)
	if err := s.scheduler.ScheduleJob(detail, quartz.NewSimpleTrigger(interval)); err != nil {
		return fmt.Errorf("schedule %s: %w", key, err)
	}
	s.logger.Debug("poll scheduled", zap.String("key", key), zap.Duration("interval", interval))
	return nil
}

// Cancel removes the schedule registered under key, if any.
func (s *PollScheduler) Cancel(key string) {
	if err := s.scheduler.DeleteJob(quartz.NewJobKey(key)); err != nil {
		s.logger.Debug("poll cancel", zap.String("key", key), zap.Error(err))
	}
}

func (s *PollScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.scheduler.Stop()
	s.started = false
	s.logger.Debug("scheduler stopped")
}
