package config

import "time"

type GradingCfg struct {
	// Workers is the number of test cases of one submission run at once.
	Workers int
	// Timeout bounds a whole grading run.
	Timeout time.Duration
	// PersistTimeout bounds storage writes made after the run context ended.
	PersistTimeout time.Duration
}

func NewGradingCfg() *GradingCfg {
	workers := getEnvAsInt("GRADING_WORKERS", 4)
	if workers < 1 {
		workers = 1
	}
	return &GradingCfg{
		Workers:        workers,
		Timeout:        getEnvAsDuration("GRADING_TIMEOUT", 60*time.Second),
		PersistTimeout: getEnvAsDuration("GRADING_PERSIST_TIMEOUT", 5*time.Second),
	}
}
