package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	SchedulerJobReasonDeadlineExceeded     = "deadline_exceeded"
	SchedulerJobReasonDBLockTimeout        = "db_lock_timeout"
	SchedulerJobReasonSerializationFailure = "serialization_failure"
	SchedulerJobReasonUniqueViolation      = "unique_violation"
	SchedulerJobReasonLockNotAcquired      = "lock_not_acquired"
	SchedulerJobReasonUnknown              = "unknown"
)

// ErrLockNotAcquired is returned by job locks held elsewhere.
var ErrLockNotAcquired = errors.New("lock_not_acquired")

// SchedulerMetrics captures overdue-sweep and other scheduled job health.
type SchedulerMetrics struct {
	jobRuns        *prometheus.CounterVec
	jobDuration    *prometheus.HistogramVec
	jobTimeouts    *prometheus.CounterVec
	jobErrors      *prometheus.CounterVec
	jobSkipped     *prometheus.CounterVec
	itemsProcessed *prometheus.CounterVec
	itemsFailed    *prometheus.CounterVec
	lastSuccess    *prometheus.GaugeVec
}

var (
	schedulerMetricsOnce sync.Once
	schedulerMetrics     *SchedulerMetrics
)

// Scheduler returns the singleton scheduler metrics registry.
func Scheduler() *SchedulerMetrics {
	return SchedulerWithConfig(Config{})
}

// SchedulerWithConfig returns the singleton scheduler metrics registry using config labels.
func SchedulerWithConfig(cfg Config) *SchedulerMetrics {
	schedulerMetricsOnce.Do(func() {
		schedulerMetrics = newSchedulerMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return schedulerMetrics
}

// ResetSchedulerMetricsForTest resets the scheduler metrics singleton for tests.
func ResetSchedulerMetricsForTest() {
	schedulerMetricsOnce = sync.Once{}
	schedulerMetrics = nil
}

func newSchedulerMetrics(registerer prometheus.Registerer, cfg Config) *SchedulerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "rentbill"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	m := &SchedulerMetrics{
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "rentbill_scheduler_job_runs_total",
			Help:        "Scheduler job runs by name.",
			ConstLabels: constLabels,
		}, []string{"job"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "rentbill_scheduler_job_duration_seconds",
			Help:        "Scheduler job latency.",
			Buckets:     []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			ConstLabels: constLabels,
		}, []string{"job"}),
		jobTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "rentbill_scheduler_job_timeouts_total",
			Help:        "Scheduler jobs that hit their deadline.",
			ConstLabels: constLabels,
		}, []string{"job"}),
		jobErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "rentbill_scheduler_job_errors_total",
			Help:        "Scheduler job errors by reason.",
			ConstLabels: constLabels,
		}, []string{"job", "reason"}),
		jobSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "rentbill_scheduler_job_skipped_total",
			Help:        "Scheduler runs skipped because another instance holds the lock.",
			ConstLabels: constLabels,
		}, []string{"job"}),
		itemsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "rentbill_scheduler_items_processed_total",
			Help:        "Items transitioned by scheduler jobs.",
			ConstLabels: constLabels,
		}, []string{"job"}),
		itemsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "rentbill_scheduler_items_failed_total",
			Help:        "Items a scheduler job failed to process and left for the next run.",
			ConstLabels: constLabels,
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "rentbill_scheduler_last_success_timestamp_seconds",
			Help:        "Unix time of the last successful run.",
			ConstLabels: constLabels,
		}, []string{"job"}),
	}

	collectors := []prometheus.Collector{
		m.jobRuns, m.jobDuration, m.jobTimeouts, m.jobErrors,
		m.jobSkipped, m.itemsProcessed, m.itemsFailed, m.lastSuccess,
	}
	for i, c := range collectors {
		if err := registerer.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				collectors[i] = already.ExistingCollector
			}
		}
	}
	m.jobRuns = collectors[0].(*prometheus.CounterVec)
	m.jobDuration = collectors[1].(*prometheus.HistogramVec)
	m.jobTimeouts = collectors[2].(*prometheus.CounterVec)
	m.jobErrors = collectors[3].(*prometheus.CounterVec)
	m.jobSkipped = collectors[4].(*prometheus.CounterVec)
	m.itemsProcessed = collectors[5].(*prometheus.CounterVec)
	m.itemsFailed = collectors[6].(*prometheus.CounterVec)
	m.lastSuccess = collectors[7].(*prometheus.GaugeVec)

	return m
}

func (m *SchedulerMetrics) IncJobRun(job string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) ObserveJobDuration(job string, duration time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

func (m *SchedulerMetrics) IncJobTimeout(job string) {
	if m == nil {
		return
	}
	m.jobTimeouts.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) IncJobError(job string, err error) {
	if m == nil || err == nil {
		return
	}
	m.jobErrors.WithLabelValues(job, ClassifySchedulerJobReason(err)).Inc()
}

func (m *SchedulerMetrics) IncJobSkipped(job string) {
	if m == nil {
		return
	}
	m.jobSkipped.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) AddItemsProcessed(job string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.itemsProcessed.WithLabelValues(job).Add(float64(count))
}

func (m *SchedulerMetrics) AddItemsFailed(job string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.itemsFailed.WithLabelValues(job).Add(float64(count))
}

func (m *SchedulerMetrics) SetLastSuccess(job string, at time.Time) {
	if m == nil {
		return
	}
	m.lastSuccess.WithLabelValues(job).Set(float64(at.Unix()))
}

// ClassifySchedulerJobReason maps scheduler job errors to low-cardinality reasons.
func ClassifySchedulerJobReason(err error) string {
	switch {
	case err == nil:
		return SchedulerJobReasonUnknown
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return SchedulerJobReasonDeadlineExceeded
	case errors.Is(err, ErrLockNotAcquired):
		return SchedulerJobReasonLockNotAcquired
	case hasPGCode(err, "55P03"):
		return SchedulerJobReasonDBLockTimeout
	case hasPGCode(err, "40001"):
		return SchedulerJobReasonSerializationFailure
	case errors.Is(err, gorm.ErrDuplicatedKey), hasPGCode(err, "23505"):
		return SchedulerJobReasonUniqueViolation
	default:
		return SchedulerJobReasonUnknown
	}
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}
