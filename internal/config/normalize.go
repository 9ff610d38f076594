package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeOutput(); err != nil {
		return err
	}
	c.normalizeUpload()
	return c.normalizeLog()
}

func (c *Config) normalizeOutput() error {
	c.Output.Dir = strings.TrimSpace(c.Output.Dir)
	if c.Output.Dir == "" && !c.Output.InPlace {
		c.Output.Dir = defaultOutputDir
	}
	var err error
	if c.Output.Dir, err = expandPath(c.Output.Dir); err != nil {
		return fmt.Errorf("output.dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeUpload() {
	fromEnv(&c.Upload.Bucket, "SQUEEZE_S3_BUCKET")
	fromEnv(&c.Upload.Prefix, "SQUEEZE_S3_PREFIX")
	fromEnv(&c.Upload.Region, "SQUEEZE_S3_REGION")
	fromEnv(&c.Upload.Endpoint, "SQUEEZE_S3_ENDPOINT")
	fromEnv(&c.Upload.AccessKeyID, "SQUEEZE_S3_ACCESS_KEY_ID")
	fromEnv(&c.Upload.SecretAccessKey, "SQUEEZE_S3_SECRET_ACCESS_KEY")
	if value, ok := os.LookupEnv("SQUEEZE_S3_USE_PATH_STYLE"); ok {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			c.Upload.UsePathStyle = parsed
		}
	}

	c.Upload.Prefix = strings.Trim(strings.TrimSpace(c.Upload.Prefix), "/")
	if strings.TrimSpace(c.Upload.Region) == "" {
		c.Upload.Region = defaultRegion
	}
}

func (c *Config) normalizeLog() error {
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	if c.Log.Format == "" {
		c.Log.Format = defaultLogFormat
	}
	var err error
	if c.Log.File, err = expandPath(strings.TrimSpace(c.Log.File)); err != nil {
		return fmt.Errorf("log.file: %w", err)
	}
	return nil
}

// fromEnv fills an empty field from the environment.
func fromEnv(field *string, key string) {
	if strings.TrimSpace(*field) != "" {
		return
	}
	if value, ok := os.LookupEnv(key); ok {
		*field = strings.TrimSpace(value)
	}
}
