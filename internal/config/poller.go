package config

import (
	"errors"
	"time"
)

type PollerConfig struct {
	ReportPollingInterval time.Duration `mapstructure:"report-polling-interval"`
	FeePollingInterval    time.Duration `mapstructure:"fee-polling-interval"`
}

func (cfg *PollerConfig) Validate() error {
	if cfg.ReportPollingInterval <= 0 {
		return errors.New("report-polling-interval must be positive")
	}
	if cfg.FeePollingInterval <= 0 {
		return errors.New("fee-polling-interval must be positive")
	}
	return nil
}
