package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOptimize(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	return c.validateLog()
}

func (c *Config) validateOptimize() error {
	if c.Optimize.MaxWidthOrHeight <= 0 {
		return errors.New("optimize.max_width_or_height must be positive")
	}
	if c.Optimize.MaxSizeMB <= 0 {
		return errors.New("optimize.max_size_mb must be positive")
	}
	if c.Optimize.Quality <= 0 || c.Optimize.Quality > 1 {
		return errors.New("optimize.quality must be in (0, 1]")
	}
	if c.Optimize.Workers < 0 {
		return errors.New("optimize.workers must not be negative")
	}
	return nil
}

func (c *Config) validateOutput() error {
	if c.Output.InPlace && c.Upload.Enabled {
		return errors.New("output.in_place cannot be combined with upload.enabled")
	}
	if !c.Output.InPlace && !c.Upload.Enabled && c.Output.Dir == "" {
		return errors.New("output.dir must be set unless output.in_place is true")
	}
	return nil
}

func (c *Config) validateUpload() error {
	if !c.Upload.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Upload.Bucket) == "" {
		return errors.New("upload.bucket must be set when upload.enabled is true (or SQUEEZE_S3_BUCKET)")
	}
	if strings.TrimSpace(c.Upload.AccessKeyID) == "" || strings.TrimSpace(c.Upload.SecretAccessKey) == "" {
		return errors.New("upload credentials must be set when upload.enabled is true (SQUEEZE_S3_ACCESS_KEY_ID / SQUEEZE_S3_SECRET_ACCESS_KEY)")
	}
	return nil
}

func (c *Config) validateLog() error {
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format: unsupported value %q", c.Log.Format)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level: unsupported value %q", c.Log.Level)
	}
	return nil
}
