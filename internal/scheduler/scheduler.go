package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/citygrid/traffic-scan/internal/ingest"
	"github.com/citygrid/traffic-scan/internal/traffic"
)

// Scheduler drives ingest cycles over a fixed set of grid points at a fixed
// interval. There is no jitter, no drift correction and no catch-up on missed
// cycles: best-effort wall-clock scheduling, at least one cycle per interval.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	service    *ingest.Service
	points     []traffic.GridPoint
	interval   time.Duration
	iterations int
}

// New creates a Scheduler. iterations <= 0 means unbounded; an interval <= 0
// makes Run execute exactly one cycle and return.
func New(points []traffic.GridPoint, interval time.Duration, iterations int, service *ingest.Service) *Scheduler {
	return &Scheduler{
		scheduler:  gocron.NewScheduler(time.UTC),
		service:    service,
		points:     points,
		interval:   interval,
		iterations: iterations,
	}
}

// Run blocks until all configured cycles have completed or ctx is cancelled.
// With a non-positive interval it runs a single cycle synchronously. The
// final cycle is not followed by a sleep.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		s.runCycle(ctx, 1)
		return nil
	}

	done := make(chan struct{})
	var finished sync.Once
	count := 0
	job, err := s.scheduler.Every(s.interval).Do(func() {
		// Triggers that queued up behind a long cycle must not run the
		// grid again once the configured cycle count is reached.
		if s.iterations > 0 && count >= s.iterations {
			return
		}
		count++
		s.runCycle(ctx, count)
		if s.iterations > 0 && count >= s.iterations {
			finished.Do(func() { close(done) })
		}
	})
	if err != nil {
		return err
	}
	// One cycle at a time: a cycle that outlasts the interval must not
	// overlap the next one.
	job.SingletonMode()
	if s.iterations > 0 {
		job.LimitRunsTo(s.iterations)
	}

	// gocron fires interval jobs immediately on start, then every interval.
	s.scheduler.StartAsync()
	defer s.scheduler.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Start schedules unbounded periodic cycles and returns; pair with Stop.
// Used by the server binary where the fiber app owns the main goroutine.
func (s *Scheduler) Start() error {
	if len(s.points) == 0 {
		log.Println("scheduler: no grid points configured; nothing to schedule")
		return nil
	}

	count := 0
	job, err := s.scheduler.Every(s.interval).Do(func() {
		count++
		s.runCycle(context.Background(), count)
	})
	if err != nil {
		return err
	}
	job.SingletonMode()

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future cycles. An in-flight cycle
// is not interrupted.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) runCycle(ctx context.Context, n int) {
	if s.iterations > 0 {
		log.Printf("scheduler: ingest cycle %d/%d", n, s.iterations)
	} else {
		log.Printf("scheduler: ingest cycle %d", n)
	}
	report := s.service.RunCycle(ctx, s.points)
	log.Printf("scheduler: cycle complete: %d stored, %d failed of %d points",
		report.Stored, report.Failed, report.Attempted)
}
