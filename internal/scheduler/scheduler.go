package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/robfig/cron/v3"
	"github.com/smallbiznis/rentbill/internal/clock"
	"github.com/smallbiznis/rentbill/internal/config"
	invoicedomain "github.com/smallbiznis/rentbill/internal/invoice/domain"
	obsmetrics "github.com/smallbiznis/rentbill/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Billing    *config.BillingConfigHolder
	InvoiceSvc invoicedomain.Service
	Locker     Locker
	Config     Config `optional:"true"`
}

type Scheduler struct {
	log        *zap.Logger
	cfg        Config
	genID      *snowflake.Node
	clock      clock.Clock
	billing    *config.BillingConfigHolder
	invoiceSvc invoicedomain.Service
	locker     Locker

	mu        sync.Mutex
	cron      *cron.Cron
	running   bool
	watchOnce sync.Once
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.Billing == nil || p.InvoiceSvc == nil {
		return nil, ErrInvalidConfig
	}
	locker := p.Locker
	if locker == nil {
		locker = NewLocalLocker(p.Clock)
	}
	return &Scheduler{
		log:        p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:        p.Config.withDefaults(),
		genID:      p.GenID,
		clock:      p.Clock,
		billing:    p.Billing,
		invoiceSvc: p.InvoiceSvc,
		locker:     locker,
	}, nil
}

// Start registers the daily overdue sweep with cron in the billing time zone.
// A billing config reload that changes the schedule, the time zone or the
// enabled flag re-registers the job.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if err := s.scheduleLocked(s.billing.Get()); err != nil {
		return err
	}
	s.running = true
	s.watchOnce.Do(func() {
		s.billing.OnChange(s.onBillingChange)
	})
	return nil
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.running = false
	s.mu.Unlock()

	if c == nil {
		return nil
	}
	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) onBillingChange(prev, next config.BillingConfig) {
	if prev.OverdueSweep.Enabled == next.OverdueSweep.Enabled &&
		prev.OverdueSweep.Schedule == next.OverdueSweep.Schedule &&
		prev.Timezone == next.Timezone {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	if s.cron != nil {
		// A job already in flight finishes on its own.
		s.cron.Stop()
		s.cron = nil
	}
	if err := s.scheduleLocked(next); err != nil {
		s.log.Error("reschedule failed, overdue sweep not scheduled", zap.Error(err))
	}
}

// scheduleLocked builds and starts the cron runner. Callers hold s.mu.
func (s *Scheduler) scheduleLocked(billing config.BillingConfig) error {
	if !billing.OverdueSweep.Enabled || !s.isJobEnabled(JobOverdueSweep) {
		s.log.Info("overdue sweep disabled")
		return nil
	}

	logger := cronLogger{log: s.log.Sugar()}
	c := cron.New(
		cron.WithLocation(billing.Location()),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(billing.OverdueSweep.Schedule, func() {
		if err := s.RunOnce(context.Background()); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule %s: %w", JobOverdueSweep, err)
	}
	c.Start()
	s.cron = c

	s.log.Info("scheduler started",
		zap.String("job", JobOverdueSweep),
		zap.String("schedule", billing.OverdueSweep.Schedule),
		zap.String("timezone", billing.Location().String()),
	)
	return nil
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error
	if s.isJobEnabled(JobOverdueSweep) {
		err = errors.Join(err, s.runJob(parent, JobOverdueSweep, s.cfg.JobTimeout, s.OverdueSweepJob))
	}
	return err
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name)
	if owner {
		s.logJobStart(ctx, run)
	}
	log := s.logger(ctx).With(
		zap.String("job", name),
		zap.String("run_id", run.runID),
	)
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if owner {
		if err != nil && run.errorCount == 0 && !errors.Is(err, obsmetrics.ErrLockNotAcquired) {
			run.IncError()
		}
		s.logJobFinish(ctx, run)
	}
	if err == nil {
		schedMetrics.AddItemsProcessed(name, run.processedCount)
		schedMetrics.AddItemsFailed(name, run.failedCount)
		schedMetrics.SetLastSuccess(name, s.clock.Now())
		return nil
	}

	if errors.Is(err, obsmetrics.ErrLockNotAcquired) {
		schedMetrics.IncJobSkipped(name)
		log.Info("job skipped, lock held by another instance")
		return nil
	}

	// Deadline is a soft timeout; the next run picks up the rest.
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
	}
	schedMetrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

// OverdueSweepJob marks past-due invoices OVERDUE under a cluster-wide lock.
func (s *Scheduler) OverdueSweepJob(ctx context.Context) error {
	run := jobRunFromContext(ctx)
	key := s.cfg.LockPrefix + JobOverdueSweep

	token, ok, err := s.locker.TryLock(ctx, key, s.cfg.LockTTL)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return obsmetrics.ErrLockNotAcquired
	}
	defer func() {
		// Release on a fresh context so a timed-out run still frees the lock.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.locker.Release(releaseCtx, key, token); err != nil {
			s.logger(ctx).Warn("release lock failed", zap.String("key", key), zap.Error(err))
		}
	}()

	result, err := s.invoiceSvc.MarkOverdueInvoices(ctx, s.cfg.Actor)
	run.AddProcessed(result.Marked)
	run.AddFailed(result.Failed)
	return err
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// An empty allow list enables every job.
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}
