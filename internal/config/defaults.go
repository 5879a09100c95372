package config

const (
	defaultWatchDir           = "~/conveyor/inbox"
	defaultStagingDir         = "~/.local/share/conveyor/staging"
	defaultArtifactDir        = "~/.local/share/conveyor/artifacts"
	defaultLogDir             = "~/.local/share/conveyor/logs"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultTranscriberBaseURL = "https://api.openai.com/v1/audio/transcriptions"
	defaultTranscriberModel   = "whisper-1"
	defaultGeneratorBaseURL   = "https://openrouter.ai/api/v1/chat/completions"
	defaultGeneratorModel     = "google/gemini-3-flash-preview"
	defaultServiceTimeout     = 60
	defaultServiceAttempts    = 3
	defaultAcceptThreshold    = 0.70
	defaultDimensionFloor     = 0.40
	defaultMinClipSeconds     = 10
	defaultMaxClipSeconds     = 60
	defaultMetricsSchedule    = "@every 1h"
	defaultHeartbeatInterval  = 15
	defaultHeartbeatTimeout   = 120
	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 10
	defaultItemWorkers        = 2
	defaultPlatformWorkers    = 3
	defaultYouTubePrivacy     = "private"
	defaultNotifyTimeout      = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WatchDir:    defaultWatchDir,
			StagingDir:  defaultStagingDir,
			ArtifactDir: defaultArtifactDir,
			LogDir:      defaultLogDir,
		},
		Transcriber: Transcriber{
			BaseURL:        defaultTranscriberBaseURL,
			Model:          defaultTranscriberModel,
			Language:       "en",
			TimeoutSeconds: defaultServiceTimeout,
			MaxAttempts:    defaultServiceAttempts,
		},
		Generator: Generator{
			BaseURL:        defaultGeneratorBaseURL,
			Model:          defaultGeneratorModel,
			TimeoutSeconds: defaultServiceTimeout,
			MaxAttempts:    defaultServiceAttempts,
			Platforms:      []string{"wordpress", "youtube", "naverblog"},
		},
		Validation: Validation{
			AcceptThreshold: defaultAcceptThreshold,
			DimensionFloor:  defaultDimensionFloor,
		},
		Render: Render{
			MinClipSeconds: defaultMinClipSeconds,
			MaxClipSeconds: defaultMaxClipSeconds,
			FFmpegBinary:   "ffmpeg",
			FFprobeBinary:  "ffprobe",
		},
		Publishers: Publishers{
			TimeoutSeconds: defaultServiceTimeout,
			MaxAttempts:    defaultServiceAttempts,
			YouTube: YouTube{
				Privacy: defaultYouTubePrivacy,
			},
		},
		Metrics: Metrics{
			Enabled:        true,
			Schedule:       defaultMetricsSchedule,
			TimeoutSeconds: defaultServiceTimeout,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
			ItemWorkers:        defaultItemWorkers,
			PlatformWorkers:    defaultPlatformWorkers,
		},
		Notifications: Notifications{
			TimeoutSeconds: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
