package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Optimization struct {
		// GridSize is used when a job does not set its own resolution.
		GridSize int `env:"OPT_GRID_SIZE" envDefault:"100"`
		// MaxEvaluations caps every job; jobs may only ask for less. 0 is unlimited.
		MaxEvaluations uint `env:"OPT_MAX_EVALUATIONS" envDefault:"10000000"`
		// JobTimeout is the wall-clock budget of a job without its own timeout.
		JobTimeout time.Duration `env:"OPT_JOB_TIMEOUT" envDefault:"5m"`
		// MaxJobs bounds the number of jobs kept in memory.
		MaxJobs int `env:"OPT_MAX_JOBS" envDefault:"1000"`
	}
	Reprojection struct {
		// Workers bounds the parallel tasks per reprojection; 0 uses GOMAXPROCS.
		Workers int `env:"REPROJECT_WORKERS" envDefault:"0"`
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	// Parse environment variables
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Set default logging level based on environment
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
		if cfg.Environment == "development" {
			cfg.Logging.Level = "debug"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings the optimizers cannot run with.
func (c *Config) Validate() error {
	if c.Optimization.GridSize < 2 {
		return fmt.Errorf("OPT_GRID_SIZE must be at least 2, got %d", c.Optimization.GridSize)
	}
	if c.Optimization.JobTimeout <= 0 {
		return fmt.Errorf("OPT_JOB_TIMEOUT must be positive, got %s", c.Optimization.JobTimeout)
	}
	if c.Optimization.MaxJobs < 1 {
		return fmt.Errorf("OPT_MAX_JOBS must be positive, got %d", c.Optimization.MaxJobs)
	}
	return nil
}
