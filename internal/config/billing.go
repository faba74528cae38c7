package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	// Embedded zoneinfo so the default billing zone resolves on hosts without it.
	_ "time/tzdata"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// BillingConfig carries the operator-tunable billing rules.
type BillingConfig struct {
	DueDays             int                `mapstructure:"dueDays"`
	Timezone            string             `mapstructure:"timezone"`
	AllowOverduePayment bool               `mapstructure:"allowOverduePayment"`
	CurrencyLocale      string             `mapstructure:"currencyLocale"`
	CurrencySymbol      string             `mapstructure:"currencySymbol"`
	OverdueSweep        OverdueSweepConfig `mapstructure:"overdueSweep"`
}

type OverdueSweepConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Schedule  string `mapstructure:"schedule"`
	BatchSize int    `mapstructure:"batchSize"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		DueDays:             5,
		Timezone:            "Asia/Ho_Chi_Minh",
		AllowOverduePayment: false,
		CurrencyLocale:      "vi",
		CurrencySymbol:      "₫",
		OverdueSweep: OverdueSweepConfig{
			Enabled:   true,
			Schedule:  "0 1 * * *",
			BatchSize: 100,
		},
	}
}

// Location resolves the billing time zone. Invalid names fall back to UTC.
func (c BillingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig

	mu        sync.Mutex
	listeners []func(prev, next BillingConfig)
}

// NewStaticBillingConfigHolder pins a config without file watching.
func NewStaticBillingConfigHolder(cfg BillingConfig) *BillingConfigHolder {
	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewBillingConfigHolder(log *zap.Logger) (*BillingConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("billing.config")

	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/rentbill/config")
	v.AddConfigPath("/etc/rentbill")
	v.AddConfigPath(".")

	v.SetEnvPrefix("RENTBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setBillingDefaults(v, DefaultBillingConfig())

	watch := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		watch = false
	}

	cfg, err := decodeBillingConfig(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticBillingConfigHolder(cfg)
	if !watch {
		log.Info("billing config file not found, using defaults")
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeBillingConfig(v)
		if err != nil {
			log.Warn("billing config reload rejected", zap.String("file", e.Name), zap.Error(err))
			return
		}
		if err := holder.Set(updated); err != nil {
			log.Warn("billing config reload rejected", zap.String("file", e.Name), zap.Error(err))
			return
		}
		log.Info("billing config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *BillingConfigHolder) Get() BillingConfig {
	return h.current.Load().(BillingConfig)
}

// Set swaps in a validated config and notifies listeners in registration order.
func (h *BillingConfigHolder) Set(cfg BillingConfig) error {
	if err := ValidateBillingConfig(cfg); err != nil {
		return err
	}
	prev := h.current.Swap(cfg).(BillingConfig)

	h.mu.Lock()
	listeners := append([]func(prev, next BillingConfig){}, h.listeners...)
	h.mu.Unlock()
	for _, fn := range listeners {
		fn(prev, cfg)
	}
	return nil
}

// OnChange registers fn to run after every successful Set.
func (h *BillingConfigHolder) OnChange(fn func(prev, next BillingConfig)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

func setBillingDefaults(v *viper.Viper, d BillingConfig) {
	v.SetDefault("billing.dueDays", d.DueDays)
	v.SetDefault("billing.timezone", d.Timezone)
	v.SetDefault("billing.allowOverduePayment", d.AllowOverduePayment)
	v.SetDefault("billing.currencyLocale", d.CurrencyLocale)
	v.SetDefault("billing.currencySymbol", d.CurrencySymbol)
	v.SetDefault("billing.overdueSweep.enabled", d.OverdueSweep.Enabled)
	v.SetDefault("billing.overdueSweep.schedule", d.OverdueSweep.Schedule)
	v.SetDefault("billing.overdueSweep.batchSize", d.OverdueSweep.BatchSize)
}

// decodeBillingConfig starts from the defaults so keys missing from a partial
// file keep their default values.
func decodeBillingConfig(v *viper.Viper) (BillingConfig, error) {
	cfg := DefaultBillingConfig()
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return BillingConfig{}, err
	}
	if err := ValidateBillingConfig(cfg); err != nil {
		return BillingConfig{}, err
	}
	return cfg, nil
}

func ValidateBillingConfig(cfg BillingConfig) error {
	if cfg.DueDays < 0 {
		return errors.New("billing.dueDays cannot be negative")
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("billing.timezone: %w", err)
	}
	if cfg.OverdueSweep.BatchSize <= 0 {
		return errors.New("billing.overdueSweep.batchSize must be positive")
	}
	if _, err := cron.ParseStandard(cfg.OverdueSweep.Schedule); err != nil {
		return fmt.Errorf("billing.overdueSweep.schedule: %w", err)
	}
	return nil
}
