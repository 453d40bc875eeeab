package yieldsource

import (
	"context"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/cap-blurr/AJEY-contracts/internal/observability/metrics"
	"github.com/cap-blurr/AJEY-contracts/internal/token"
)

type SourceWithMetrics struct {
	source Source
}

func NewSourceWithMetrics(source Source) *SourceWithMetrics {
	return &SourceWithMetrics{source: source}
}

func (s *SourceWithMetrics) Supply(ctx context.Context, asset token.ID, amount sdkmath.Int, onBehalfOf token.Address) error {
	start := time.Now()
	err := s.source.Supply(ctx, asset, amount, onBehalfOf)
	metrics.RecordYieldSourceLatency(time.Since(start), "Supply", err != nil)
	return err
}

func (s *SourceWithMetrics) Withdraw(ctx context.Context, asset token.ID, amount sdkmath.Int, to token.Address) (sdkmath.Int, error) {
	start := time.Now()
	received, err := s.source.Withdraw(ctx, asset, amount, to)
	metrics.RecordYieldSourceLatency(time.Since(start), "Withdraw", err != nil)
	return received, err
}

func (s *SourceWithMetrics) SuppliedBalance(ctx context.Context, asset token.ID, account token.Address) (sdkmath.Int, error) {
	start := time.Now()
	balance, err := s.source.SuppliedBalance(ctx, asset, account)
	metrics.RecordYieldSourceLatency(time.Since(start), "SuppliedBalance", err != nil)
	return balance, err
}
