package config

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateGenerator(); err != nil {
		return err
	}
	if err := c.validateValidation(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateMetrics(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateGenerator() error {
	if len(c.Generator.Platforms) == 0 {
		return errors.New("generator.platforms must name at least one target platform")
	}
	return nil
}

func (c *Config) validateValidation() error {
	if c.Validation.AcceptThreshold < 0 || c.Validation.AcceptThreshold > 1 {
		return errors.New("validation.accept_threshold must be between 0 and 1")
	}
	if c.Validation.DimensionFloor < 0 || c.Validation.DimensionFloor > 1 {
		return errors.New("validation.dimension_floor must be between 0 and 1")
	}
	if c.Validation.DimensionFloor > c.Validation.AcceptThreshold {
		return errors.New("validation.dimension_floor must not exceed validation.accept_threshold")
	}
	return nil
}

func (c *Config) validateRender() error {
	if c.Render.MinClipSeconds <= 0 {
		return errors.New("render.min_clip_seconds must be positive")
	}
	if c.Render.MaxClipSeconds < c.Render.MinClipSeconds {
		return errors.New("render.max_clip_seconds must be at least render.min_clip_seconds")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	return ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
		"workflow.heartbeat_interval":   c.Workflow.HeartbeatInterval,
		"workflow.heartbeat_timeout":    c.Workflow.HeartbeatTimeout,
		"workflow.item_workers":         c.Workflow.ItemWorkers,
		"workflow.platform_workers":     c.Workflow.PlatformWorkers,
	})
}

func (c *Config) validateMetrics() error {
	if !c.Metrics.Enabled {
		return nil
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Metrics.Schedule); err != nil {
		return fmt.Errorf("metrics.schedule: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
