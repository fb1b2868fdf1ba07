package config

import "time"

type HttpConfig struct {
	Port         int
	ServiceName  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func NewHttpConfig() *HttpConfig {
	return &HttpConfig{
		Port:         getEnvAsInt("HTTP_PORT", 8082),
		ServiceName:  getEnv("SERVICE_NAME", "assessment"),
		ReadTimeout:  getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvAsDuration("HTTP_WRITE_TIMEOUT", 90*time.Second),
		IdleTimeout:  getEnvAsDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
	}
}
