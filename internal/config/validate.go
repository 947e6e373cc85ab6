package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rileyhilliard/hostwatch/internal/errors"
)

const (
	// MinRenderInterval keeps the renderer from spinning on the table lock.
	MinRenderInterval = 100 * time.Millisecond
	// MinLineLength leaves room for the longest well-formed record.
	MinLineLength = 64
)

var (
	validLogLevels  = []string{"debug", "info", "warn", "warning", "error"}
	validLogFormats = []string{"text", "json"}
	validFormats    = []string{FormatTable, FormatJSON, FormatYAML}
	validMetrics    = []string{"cpu", "mem"}
)

// ValidateCollector checks the sections the collector depends on.
func ValidateCollector(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if cfg.Listen.Port < 0 || cfg.Listen.Port > 65535 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Port %d is out of range", cfg.Listen.Port),
			"Use a port between 1 and 65535.")
	}

	if cfg.Collector.MaxHosts <= 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("collector.max_hosts must be positive, got %d", cfg.Collector.MaxHosts),
			"Set collector.max_hosts to the number of agents you expect, e.g. 64.")
	}

	if cfg.Collector.MaxLineLength < MinLineLength {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("collector.max_line_length must be at least %d bytes, got %d", MinLineLength, cfg.Collector.MaxLineLength),
			"The default of 4096 fits any reasonable host id.")
	}

	if cfg.Collector.IdleTimeout < 0 {
		return errors.New(errors.ErrConfig,
			"collector.idle_timeout can't be negative",
			"Use 0 to disable the idle timeout, or a duration like 30s.")
	}

	if cfg.Render.Interval < MinRenderInterval {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("render.interval %s is too short", cfg.Render.Interval),
			fmt.Sprintf("Minimum interval is %s.", MinRenderInterval))
	}

	if !oneOf(cfg.Render.Format, validFormats) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown render format '%s'", cfg.Render.Format),
			"Supported formats: "+strings.Join(validFormats, ", "))
	}

	return validateLog(cfg.Log)
}

// ValidateAgent checks the sections the agent depends on.
func ValidateAgent(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	a := cfg.Agent
	if a.Interval <= 0 {
		return errors.New(errors.ErrConfig,
			"agent.interval must be positive",
			"Try something like 1s or 5s.")
	}
	if a.RetryInterval <= 0 {
		return errors.New(errors.ErrConfig,
			"agent.retry_interval must be positive",
			"Try something like 2s.")
	}
	if a.DialTimeout <= 0 {
		return errors.New(errors.ErrConfig,
			"agent.dial_timeout must be positive",
			"Try something like 5s.")
	}

	if len(a.Metrics) == 0 {
		return errors.New(errors.ErrConfig,
			"agent.metrics is empty",
			"List at least one of: "+strings.Join(validMetrics, ", "))
	}
	for _, m := range a.Metrics {
		if !oneOf(m, validMetrics) {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Unknown metric group '%s'", m),
				"Supported groups: "+strings.Join(validMetrics, ", "))
		}
	}

	return validateLog(cfg.Log)
}

func validateLog(l LogConfig) error {
	if l.Level != "" && !oneOf(strings.ToLower(l.Level), validLogLevels) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown log level '%s'", l.Level),
			"Supported levels: debug, info, warn, error")
	}
	if l.Format != "" && !oneOf(strings.ToLower(l.Format), validLogFormats) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown log format '%s'", l.Format),
			"Supported formats: text, json")
	}
	return nil
}

func oneOf(s string, options []string) bool {
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}
