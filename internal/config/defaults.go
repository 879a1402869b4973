package config

const (
	defaultLibraryDir            = "~/photos"
	defaultStagingDir            = "~/.local/share/photoflow/staging"
	defaultLogDir                = "~/.local/share/photoflow/logs"
	defaultDataDir               = "~/.local/share/photoflow/data"
	defaultThumbnailDir          = "~/.local/share/photoflow/thumbnails"
	defaultWorkers               = 4
	defaultTimezone              = "UTC"
	defaultClaimTimeoutMinutes   = 30
	defaultThumbnailMaxEdge      = 320
	defaultThumbnailMaxAttempts  = 3
	defaultRetryDelayMinutes     = 15
	defaultSweepCron             = "@every 10m"
	defaultFrameOffsetCapSeconds = 60
	defaultRemotePageSize        = 100
	defaultRemoteRequestTimeout  = 30
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

func defaultImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic"}
}

func defaultVideoExtensions() []string {
	return []string{".mp4", ".mov", ".m4v", ".avi", ".mkv", ".webm"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
			DataDir:    defaultDataDir,
		},
		Import: Import{
			Workers:             defaultWorkers,
			DefaultTimezone:     defaultTimezone,
			ClaimTimeoutMinutes: defaultClaimTimeoutMinutes,
			ExpandArchives:      true,
			ImageExtensions:     defaultImageExtensions(),
			VideoExtensions:     defaultVideoExtensions(),
		},
		Thumbnails: Thumbnails{
			Dir:                   defaultThumbnailDir,
			MaxEdge:               defaultThumbnailMaxEdge,
			MaxAttempts:           defaultThumbnailMaxAttempts,
			SweepCron:             defaultSweepCron,
			RetryDelayMinutes:     defaultRetryDelayMinutes,
			FrameOffsetCapSeconds: defaultFrameOffsetCapSeconds,
		},
		Remote: Remote{
			PageSize:       defaultRemotePageSize,
			RequestTimeout: defaultRemoteRequestTimeout,
		},
		Tools: Tools{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
