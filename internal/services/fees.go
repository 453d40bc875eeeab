package services

import (
	"context"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cap-blurr/AJEY-contracts/internal/db/model"
	"github.com/cap-blurr/AJEY-contracts/internal/observability/metrics"
	"github.com/cap-blurr/AJEY-contracts/internal/queue"
	"github.com/cap-blurr/AJEY-contracts/internal/types"
	"github.com/cap-blurr/AJEY-contracts/internal/utils/poller"
)

func (s *Service) StartFeePoller(ctx context.Context) {
	feePoller := poller.NewPoller(
		"fee",
		s.cfg.Poller.FeePollingInterval,
		metrics.RecordPollerDuration("fee", s.collectFees),
	)
	go feePoller.Start(ctx)
}

// collectFees takes fees on every vault and refreshes the total-assets
// gauge. As with reports, one failing vault does not block the rest.
func (s *Service) collectFees(ctx context.Context) error {
	for _, name := range s.engine.VaultNames() {
		v := s.engine.Vaults[name]

		if total, err := v.TotalAssets(ctx); err == nil {
			f, _ := new(big.Float).SetInt(total.BigInt()).Float64()
			metrics.RecordVaultTotalAssets(name, f)
		}

		capture, err := v.TakeFees(ctx, s.engine.Keeper)
		metrics.RecordFeeCapture(name, err != nil)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).
				Str("vault", name).
				Msg("fee collection failed")
			continue
		}
		if capture == nil {
			continue
		}

		now := time.Now().UTC()
		doc := model.NewFeeCaptureDocument(
			uuid.NewString(), name,
			capture.Gain.String(), capture.FeeAssets.String(),
			capture.FeeShares.String(), capture.Checkpoint.String(),
			now,
		)
		if err := s.db.SaveFeeCapture(ctx, doc); err != nil {
			log.Ctx(ctx).Error().Err(err).
				Str("vault", name).
				Msg("failed to persist fee capture")
			continue
		}

		s.publish(ctx, &queue.Event{
			Type:      types.EventTypeFeeCapture,
			Subject:   name,
			Payload:   doc,
			Timestamp: now,
		})
	}
	return nil
}
