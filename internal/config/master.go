package config

type AppConfig struct {
	DebugMode      bool
	HttpConfig     *HttpConfig
	LogConfig      *LogConfig
	RedisConfig    *RedisConfig
	PostgresConfig *PostgresConfig
	JwtConfig      *JwtConfig
	SandboxConfig  *SandboxCfg
	GradingConfig  *GradingCfg
}

func NewSystemConfig() *AppConfig {
	return &AppConfig{
		DebugMode:      getEnvAsBool("DEBUG_MODE", false),
		HttpConfig:     NewHttpConfig(),
		LogConfig:      NewLogConfig(),
		RedisConfig:    NewRedisConfig(),
		PostgresConfig: NewPostgresConfig(),
		JwtConfig:      NewJwtConfig(),
		SandboxConfig:  NewSandboxCfg(),
		GradingConfig:  NewGradingCfg(),
	}
}
