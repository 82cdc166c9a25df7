package config

// LogConfig configures the process logger.  An empty Dir keeps logs on
// stdout only.
type LogConfig struct {
	Level      string
	Format     string // text or json
	Dir        string
	MaxAgeDays int
}

func LoadLogConfig() LogConfig {
	return LogConfig{
		Level:      envStr("LOG_LEVEL", "info"),
		Format:     envStr("LOG_FORMAT", "text"),
		Dir:        envStr("LOG_DIR", ""),
		MaxAgeDays: envInt("LOG_MAX_AGE_DAYS", 7),
	}
}
