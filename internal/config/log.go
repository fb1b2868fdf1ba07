package config

type LogConfig struct {
	Level       string
	Development bool
}

func NewLogConfig() *LogConfig {
	return &LogConfig{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnvAsBool("DEBUG_MODE", false),
	}
}
