package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
)

// ErrInvalidInterval is returned when a job is scheduled with a non-positive interval.
var ErrInvalidInterval = errors.New("schedule interval must be positive")

// Scheduler runs a function repeatedly at a fixed interval. The first run
// happens one interval after scheduling, not immediately.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (Handle, error)
}

// Handle cancels a scheduled job. Cancel is idempotent.
type Handle interface {
	Cancel()
}

// GocronScheduler schedules session ticks on a shared gocron scheduler.
type GocronScheduler struct {
	mu        sync.Mutex
	scheduler *gocron.Scheduler
	started   bool
}

// NewGocronScheduler creates a scheduler running in UTC.
func NewGocronScheduler() *GocronScheduler {
	s := gocron.NewScheduler(time.UTC)
	// Jobs are per-session; a tick still running when the next one fires is skipped.
	s.SingletonModeAll()
	return &GocronScheduler{scheduler: s}
}

// Every schedules fn to run every interval, starting the underlying scheduler on first use.
func (s *GocronScheduler) Every(interval time.Duration, fn func()) (Handle, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.scheduler.Every(interval).WaitForSchedule().Do(fn)
	if err != nil {
		return nil, fmt.Errorf("schedule job: %w", err)
	}

	if !s.started {
		s.scheduler.StartAsync()
		s.started = true
	}

	return &gocronHandle{parent: s, job: job}, nil
}

// Len returns the number of scheduled jobs.
func (s *GocronScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduler.Len()
}

// Stop stops the scheduler and all of its jobs.
func (s *GocronScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		s.scheduler.Stop()
		s.started = false
	}
	s.scheduler.Clear()
}

type gocronHandle struct {
	once   sync.Once
	parent *GocronScheduler
	job    *gocron.Job
}

func (h *gocronHandle) Cancel() {
	h.once.Do(func() {
		h.parent.mu.Lock()
		defer h.parent.mu.Unlock()
		h.parent.scheduler.RemoveByReference(h.job)
	})
}
