package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WatchDir    string `toml:"watch_dir"`
	StagingDir  string `toml:"staging_dir"`
	ArtifactDir string `toml:"artifact_dir"`
	LogDir      string `toml:"log_dir"`
}

// Transcriber contains configuration for the external speech-to-text service.
type Transcriber struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	Language       string `toml:"language"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxAttempts    int    `toml:"max_attempts"`
}

// Generator contains configuration for the external content generation service.
type Generator struct {
	BaseURL        string   `toml:"base_url"`
	APIKey         string   `toml:"api_key"`
	Model          string   `toml:"model"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	MaxAttempts    int      `toml:"max_attempts"`
	Platforms      []string `toml:"platforms"`
}

// Validation contains the quality gate thresholds. The thresholds are
// configurable defaults, not fixed constants.
type Validation struct {
	AcceptThreshold float64 `toml:"accept_threshold"`
	DimensionFloor  float64 `toml:"dimension_floor"`
}

// Render contains configuration for short-form clip extraction.
type Render struct {
	MinClipSeconds int    `toml:"min_clip_seconds"`
	MaxClipSeconds int    `toml:"max_clip_seconds"`
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	FFprobeBinary  string `toml:"ffprobe_binary"`
}

// WordPress contains credentials for the WordPress publish adapter.
type WordPress struct {
	Enabled  bool   `toml:"enabled"`
	APIURL   string `toml:"api_url"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// YouTube contains credentials for the YouTube publish adapter.
type YouTube struct {
	Enabled     bool   `toml:"enabled"`
	APIURL      string `toml:"api_url"`
	AccessToken string `toml:"access_token"`
	Privacy     string `toml:"privacy"`
}

// NaverBlog contains credentials for the Naver Blog publish adapter.
type NaverBlog struct {
	Enabled      bool   `toml:"enabled"`
	APIURL       string `toml:"api_url"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	BlogID       string `toml:"blog_id"`
}

// Publishers groups per-platform adapter configuration.
type Publishers struct {
	TimeoutSeconds int       `toml:"timeout_seconds"`
	MaxAttempts    int       `toml:"max_attempts"`
	WordPress      WordPress `toml:"wordpress"`
	YouTube        YouTube   `toml:"youtube"`
	NaverBlog      NaverBlog `toml:"naverblog"`
}

// Metrics contains configuration for post-publication analytics polling.
type Metrics struct {
	Enabled        bool   `toml:"enabled"`
	Schedule       string `toml:"schedule"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Notifications contains push notification settings. An empty topic URL
// disables notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Workflow contains daemon timing and concurrency settings.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
	ItemWorkers        int `toml:"item_workers"`
	PlatformWorkers    int `toml:"platform_workers"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Conveyor.
//
// Configuration sections by subsystem:
//   - Paths: watch/staging/artifact/log directories
//   - Transcriber: speech-to-text service connection
//   - Generator: content generation service connection and target platforms
//   - Validation: quality gate thresholds
//   - Render: clip extraction bounds and media tool binaries
//   - Publishers: per-platform publish adapter credentials
//   - Metrics: analytics polling schedule
//   - Workflow: daemon polling intervals, heartbeats, worker counts
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Transcriber   Transcriber   `toml:"transcriber"`
	Generator     Generator     `toml:"generator"`
	Validation    Validation    `toml:"validation"`
	Render        Render        `toml:"render"`
	Publishers    Publishers    `toml:"publishers"`
	Metrics       Metrics       `toml:"metrics"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/conveyor/config.toml")
}

// SampleConfig returns the embedded sample configuration file contents.
func SampleConfig() string {
	return sampleConfig
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return is
// the resolved path and the third reports whether a file existed there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("conveyor.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.ArtifactDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.WatchDir) != "" {
		// Best-effort: the watch dir may live on external storage.
		_ = os.MkdirAll(c.Paths.WatchDir, 0o755)
	}
	return nil
}

// EnabledPlatforms returns the platform identifiers drafts are generated for.
func (c *Config) EnabledPlatforms() []string {
	out := make([]string, 0, len(c.Generator.Platforms))
	for _, platform := range c.Generator.Platforms {
		platform = strings.ToLower(strings.TrimSpace(platform))
		if platform != "" {
			out = append(out, platform)
		}
	}
	return out
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
