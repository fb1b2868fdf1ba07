package config

import "time"

type RedisConfig struct {
	DB       int
	Url      string
	Password string
	// VerdictTTL bounds how long cached case verdicts stay in Redis.
	VerdictTTL time.Duration
	// CatalogTTL is the lifetime of cached challenges, 0 disables the cache.
	CatalogTTL time.Duration
	// LockTTL caps how long a crashed grading run can hold a submission lock.
	LockTTL time.Duration
}

func NewRedisConfig() *RedisConfig {
	return &RedisConfig{
		DB:         getEnvAsInt("REDIS_DB", 0),
		Url:        getEnv("REDIS_ADDR", "localhost:6379"),
		Password:   getEnv("REDIS_PASSWORD", ""),
		VerdictTTL: getEnvAsDuration("REDIS_VERDICT_TTL", 24*time.Hour),
		CatalogTTL: getEnvAsDuration("REDIS_CATALOG_TTL", time.Minute),
		LockTTL:    getEnvAsDuration("REDIS_LOCK_TTL", 5*time.Minute),
	}
}
