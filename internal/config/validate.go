package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateImport(); err != nil {
		return err
	}
	if err := c.validateThumbnails(); err != nil {
		return err
	}
	if err := c.validateRemote(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		return errors.New("paths.library_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	return nil
}

func (c *Config) validateImport() error {
	if c.Import.Workers < 1 {
		return errors.New("import.workers must be at least 1")
	}
	if _, err := time.LoadLocation(c.Import.DefaultTimezone); err != nil {
		return fmt.Errorf("import.default_timezone: unknown timezone %q", c.Import.DefaultTimezone)
	}
	return nil
}

func (c *Config) validateThumbnails() error {
	if c.Thumbnails.MaxAttempts < 1 {
		return errors.New("thumbnails.max_attempts must be at least 1")
	}
	if c.Thumbnails.MaxEdge < 16 {
		return errors.New("thumbnails.max_edge must be at least 16")
	}
	return nil
}

func (c *Config) validateRemote() error {
	if !c.Remote.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Remote.BaseURL) == "" {
		return errors.New("remote.base_url must be set when remote.enabled is true")
	}
	if strings.TrimSpace(c.Remote.APIToken) == "" {
		return errors.New("remote.api_token must be set when remote.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
