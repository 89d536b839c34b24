package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/recovery-service/internal/config"
	"github.com/spec-kit/recovery-service/internal/monitor"
	"github.com/spec-kit/recovery-service/internal/observability"
)

// Job is one periodic monitoring task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(context.Context) error
}

// Scheduler drives the SLA monitoring jobs on their configured intervals.
// Jobs also run once at startup so a restarted service does not wait a
// full interval before its first sweep.
type Scheduler struct {
	jobs    []Job
	logger  *zap.Logger
	metrics *observability.Metrics

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler builds the standard job set from the monitor.
func NewScheduler(m *monitor.SLAMonitor, cfg config.SchedulerConfig, metrics *observability.Metrics, logger *zap.Logger) *Scheduler {
	wrap := func(fn func(context.Context) (monitor.JobSummary, error)) func(context.Context) error {
		return func(ctx context.Context) error {
			_, err := fn(ctx)
			return err
		}
	}
	return &Scheduler{
		logger:  logger,
		metrics: metrics,
		jobs: []Job{
			{Name: "sla_breach_scan", Interval: cfg.BreachScanInterval(), Run: wrap(m.ScanBreaches)},
			{Name: "sla_status_refresh", Interval: cfg.StatusRefreshInterval(), Run: wrap(m.RefreshStatuses)},
			{Name: "sla_escalation", Interval: cfg.EscalationInterval(), Run: wrap(m.EscalateOverdue)},
			{Name: "breach_cleanup", Interval: cfg.CleanupInterval(), Run: wrap(m.CleanupResolvedBreaches)},
			{Name: "daily_report", Interval: cfg.DailyReportInterval(), Run: func(ctx context.Context) error {
				_, err := m.DailyReport(ctx)
				return err
			}},
		},
	}
}

// Start launches one goroutine per job. Idempotent until Stop.
func (s *Scheduler) Start(parent context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	done := make(chan struct{})
	s.done = done

	var wg sync.WaitGroup
	for _, job := range s.jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			s.runLoop(ctx, job)
		}(job)
	}
	go func() {
		wg.Wait()
		close(done)
	}()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.jobs)))
}

func (s *Scheduler) runLoop(ctx context.Context, job Job) {
	s.runOnce(ctx, job)

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, job)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	start := time.Now()
	if err := job.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.metrics.RecordJobRun(job.Name, true)
		s.logger.Error("scheduled job failed",
			zap.String("job", job.Name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return
	}
	s.metrics.RecordJobRun(job.Name, false)
	s.logger.Debug("scheduled job complete",
		zap.String("job", job.Name),
		zap.Duration("elapsed", time.Since(start)))
}

// Trigger runs a named job immediately, outside its schedule.
func (s *Scheduler) Trigger(ctx context.Context, name string) (bool, error) {
	for _, job := range s.jobs {
		if job.Name == name {
			return true, job.Run(ctx)
		}
	}
	return false, nil
}

// JobNames lists the registered jobs.
func (s *Scheduler) JobNames() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.Name
	}
	return names
}

// Stop cancels the jobs and waits for them to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("scheduler stopped")
}
