package config

import (
	"errors"
	"time"
)

type QueueConfig struct {
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	Url            string        `mapstructure:"url"`
	Exchange       string        `mapstructure:"exchange"`
	PublishTimeout time.Duration `mapstructure:"publish-timeout"`
	MaxRetries     uint          `mapstructure:"max-retries"`
}

func (cfg *QueueConfig) Validate() error {
	if cfg.Url == "" {
		return errors.New("queue url cannot be empty")
	}
	if cfg.Exchange == "" {
		return errors.New("queue exchange cannot be empty")
	}
	if cfg.PublishTimeout <= 0 {
		return errors.New("publish-timeout must be positive")
	}
	return nil
}
