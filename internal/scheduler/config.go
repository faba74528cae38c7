package scheduler

import (
	"strings"
	"time"

	"github.com/smallbiznis/rentbill/internal/config"
)

const JobOverdueSweep = "overdue_sweep"

// Config controls job timeouts and locking. The sweep schedule and time zone
// come from the billing rules file.
type Config struct {
	JobTimeout  time.Duration
	LockTTL     time.Duration
	LockPrefix  string
	Actor       string
	EnabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		JobTimeout: 10 * time.Minute,
		LockTTL:    15 * time.Minute,
		LockPrefix: "rentbill:scheduler:",
		Actor:      "system:scheduler",
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	if strings.TrimSpace(c.LockPrefix) == "" {
		c.LockPrefix = defaults.LockPrefix
	}
	if strings.TrimSpace(c.Actor) == "" {
		c.Actor = defaults.Actor
	}
	return c
}

// ProvideConfig reads SCHEDULER_JOBS as a comma separated allow list.
func ProvideConfig(cfg config.Config) Config {
	out := DefaultConfig()
	for _, job := range strings.Split(cfg.SchedulerJobs, ",") {
		if job = strings.TrimSpace(job); job != "" {
			out.EnabledJobs = append(out.EnabledJobs, job)
		}
	}
	return out
}
