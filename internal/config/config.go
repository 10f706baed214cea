package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config carries process-level settings, loaded from the environment.
type Config struct {
	ServiceName     string        `envconfig:"SERVICE_NAME" default:"storepos"`
	Env             string        `envconfig:"ENV" default:"dev"`
	ListenAddr      string        `envconfig:"LISTEN_ADDR" default:":8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
