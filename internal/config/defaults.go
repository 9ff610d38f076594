package config

const (
	defaultMaxWidthOrHeight = 1920
	defaultMaxSizeMB        = 1.0
	defaultQuality          = 0.8
	defaultOutputDir        = "optimized"
	defaultRegion           = "us-east-1"
	defaultLogLevel         = "info"
	defaultLogFormat        = "console"
)

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Optimize: Optimize{
			MaxWidthOrHeight: defaultMaxWidthOrHeight,
			MaxSizeMB:        defaultMaxSizeMB,
			Quality:          defaultQuality,
			UseWebP:          true,
		},
		Output: Output{
			Dir: defaultOutputDir,
		},
		Upload: Upload{
			Region: defaultRegion,
		},
		Log: Log{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
