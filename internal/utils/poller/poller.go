package poller

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Poller drives a named task on a fixed interval until its context is
// cancelled or Stop is called. Task failures are logged and the loop
// keeps going.
type Poller struct {
	name     string
	interval time.Duration
	quit     chan struct{}
	task     func(ctx context.Context) error
}

func NewPoller(name string, interval time.Duration, task func(ctx context.Context) error) *Poller {
	return &Poller{
		name:     name,
		interval: interval,
		quit:     make(chan struct{}),
		task:     task,
	}
}

func (p *Poller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	log.Ctx(ctx).Info().
		Str("poller", p.name).
		Str("interval", p.interval.String()).
		Msg("poller started")

	for {
		select {
		case <-ticker.C:
			if err := p.task(ctx); err != nil {
				log.Ctx(ctx).Error().Err(err).Str("poller", p.name).Msg("poll failed")
			}
		case <-ctx.Done():
			log.Ctx(ctx).Info().Str("poller", p.name).Msg("poller stopped, context cancelled")
			return
		case <-p.quit:
			log.Ctx(ctx).Info().Str("poller", p.name).Msg("poller stopped")
			return
		}
	}
}

func (p *Poller) Stop() {
	close(p.quit)
}
