package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTranscriber()
	c.normalizeGenerator()
	c.normalizePublishers()
	c.normalizeMetrics()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WatchDir, err = expandPath(c.Paths.WatchDir); err != nil {
		return fmt.Errorf("paths.watch_dir: %w", err)
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.ArtifactDir, err = expandPath(c.Paths.ArtifactDir); err != nil {
		return fmt.Errorf("paths.artifact_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTranscriber() {
	if c.Transcriber.APIKey == "" {
		if value, ok := os.LookupEnv("CONVEYOR_TRANSCRIBER_API_KEY"); ok {
			c.Transcriber.APIKey = value
		}
	}
	c.Transcriber.BaseURL = strings.TrimSpace(c.Transcriber.BaseURL)
	if c.Transcriber.BaseURL == "" {
		c.Transcriber.BaseURL = defaultTranscriberBaseURL
	}
	if c.Transcriber.Model == "" {
		c.Transcriber.Model = defaultTranscriberModel
	}
	if c.Transcriber.MaxAttempts <= 0 {
		c.Transcriber.MaxAttempts = defaultServiceAttempts
	}
}

func (c *Config) normalizeGenerator() {
	if c.Generator.APIKey == "" {
		if value, ok := os.LookupEnv("CONVEYOR_GENERATOR_API_KEY"); ok {
			c.Generator.APIKey = value
		}
	}
	c.Generator.BaseURL = strings.TrimSpace(c.Generator.BaseURL)
	if c.Generator.BaseURL == "" {
		c.Generator.BaseURL = defaultGeneratorBaseURL
	}
	if c.Generator.Model == "" {
		c.Generator.Model = defaultGeneratorModel
	}
	if c.Generator.MaxAttempts <= 0 {
		c.Generator.MaxAttempts = defaultServiceAttempts
	}
	normalized := make([]string, 0, len(c.Generator.Platforms))
	seen := make(map[string]struct{}, len(c.Generator.Platforms))
	for _, platform := range c.Generator.Platforms {
		platform = strings.ToLower(strings.TrimSpace(platform))
		if platform == "" {
			continue
		}
		if _, ok := seen[platform]; ok {
			continue
		}
		seen[platform] = struct{}{}
		normalized = append(normalized, platform)
	}
	c.Generator.Platforms = normalized
}

func (c *Config) normalizePublishers() {
	if c.Publishers.MaxAttempts <= 0 {
		c.Publishers.MaxAttempts = defaultServiceAttempts
	}
	c.Publishers.WordPress.APIURL = strings.TrimRight(strings.TrimSpace(c.Publishers.WordPress.APIURL), "/")
	c.Publishers.YouTube.APIURL = strings.TrimRight(strings.TrimSpace(c.Publishers.YouTube.APIURL), "/")
	c.Publishers.NaverBlog.APIURL = strings.TrimRight(strings.TrimSpace(c.Publishers.NaverBlog.APIURL), "/")
	if c.Publishers.YouTube.Privacy == "" {
		c.Publishers.YouTube.Privacy = defaultYouTubePrivacy
	}
}

func (c *Config) normalizeMetrics() {
	c.Metrics.Schedule = strings.TrimSpace(c.Metrics.Schedule)
	if c.Metrics.Schedule == "" {
		c.Metrics.Schedule = defaultMetricsSchedule
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
