package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cap-blurr/AJEY-contracts/internal/db/model"
	"github.com/cap-blurr/AJEY-contracts/internal/observability/metrics"
	"github.com/cap-blurr/AJEY-contracts/internal/queue"
	"github.com/cap-blurr/AJEY-contracts/internal/types"
	"github.com/cap-blurr/AJEY-contracts/internal/utils/poller"
)

func (s *Service) StartReportPoller(ctx context.Context) {
	reportPoller := poller.NewPoller(
		"report",
		s.cfg.Poller.ReportPollingInterval,
		metrics.RecordPollerDuration("report", s.runReports),
	)
	go reportPoller.Start(ctx)
}

// runReports reports every strategy in turn. A failing strategy is
// logged and skipped; it must not starve the others.
func (s *Service) runReports(ctx context.Context) error {
	for _, name := range s.engine.StrategyNames() {
		st := s.engine.Strategies[name]

		profit, loss, err := st.Report(ctx, s.engine.Keeper)
		metrics.RecordReport(name, err != nil)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).
				Str("strategy", name).
				Msg("strategy report failed")
			continue
		}
		if profit.IsZero() && loss.IsZero() {
			continue
		}

		baseline, _ := st.Baseline()
		now := time.Now().UTC()
		doc := model.NewReportDocument(
			uuid.NewString(), name,
			profit.String(), loss.String(), baseline.String(),
			now,
		)
		if err := s.db.SaveReport(ctx, doc); err != nil {
			log.Ctx(ctx).Error().Err(err).
				Str("strategy", name).
				Msg("failed to persist report")
			continue
		}

		s.publish(ctx, &queue.Event{
			Type:      types.EventTypeReport,
			Subject:   name,
			Payload:   doc,
			Timestamp: now,
		})
	}
	return nil
}

// publish is best effort: the engine's state, not the queue, is the
// source of truth.
func (s *Service) publish(ctx context.Context, event *queue.Event) {
	if s.queueManager == nil {
		return
	}
	if err := s.queueManager.Publish(ctx, event); err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("type", event.Type.String()).
			Str("subject", event.Subject).
			Msg("failed to publish event")
	}
}
