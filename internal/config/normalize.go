package config

import (
	"fmt"
	"strings"
	"time"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeImport()
	if err := c.normalizeThumbnails(); err != nil {
		return err
	}
	c.normalizeRemote()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeImport() {
	if c.Import.Workers <= 0 {
		c.Import.Workers = defaultWorkers
	}
	if strings.TrimSpace(c.Import.DefaultTimezone) == "" {
		c.Import.DefaultTimezone = defaultTimezone
	}
	if c.Import.ClaimTimeoutMinutes <= 0 {
		c.Import.ClaimTimeoutMinutes = defaultClaimTimeoutMinutes
	}
	c.Import.ImageExtensions = normalizeExtensions(c.Import.ImageExtensions, defaultImageExtensions())
	c.Import.VideoExtensions = normalizeExtensions(c.Import.VideoExtensions, defaultVideoExtensions())
}

func (c *Config) normalizeThumbnails() error {
	if strings.TrimSpace(c.Thumbnails.Dir) == "" {
		c.Thumbnails.Dir = defaultThumbnailDir
	}
	var err error
	if c.Thumbnails.Dir, err = expandPath(c.Thumbnails.Dir); err != nil {
		return fmt.Errorf("thumbnails.dir: %w", err)
	}
	if c.Thumbnails.MaxEdge <= 0 {
		c.Thumbnails.MaxEdge = defaultThumbnailMaxEdge
	}
	if c.Thumbnails.MaxAttempts <= 0 {
		c.Thumbnails.MaxAttempts = defaultThumbnailMaxAttempts
	}
	if c.Thumbnails.RetryDelayMinutes <= 0 {
		c.Thumbnails.RetryDelayMinutes = defaultRetryDelayMinutes
	}
	if strings.TrimSpace(c.Thumbnails.SweepCron) == "" {
		c.Thumbnails.SweepCron = defaultSweepCron
	}
	if c.Thumbnails.FrameOffsetCapSeconds <= 0 {
		c.Thumbnails.FrameOffsetCapSeconds = defaultFrameOffsetCapSeconds
	}
	return nil
}

func (c *Config) normalizeRemote() {
	c.Remote.BaseURL = strings.TrimRight(strings.TrimSpace(c.Remote.BaseURL), "/")
	if c.Remote.PageSize <= 0 {
		c.Remote.PageSize = defaultRemotePageSize
	}
	if c.Remote.RequestTimeout <= 0 {
		c.Remote.RequestTimeout = defaultRemoteRequestTimeout
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

// DefaultLocation resolves the configured default timezone, falling back to UTC.
func (c *Config) DefaultLocation() *time.Location {
	loc, err := time.LoadLocation(c.Import.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func normalizeExtensions(values []string, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	out := make([]string, 0, len(values))
	for _, ext := range values {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
