package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	sdkmath "cosmossdk.io/math"

	"github.com/cap-blurr/AJEY-contracts/internal/db/model"
	"github.com/cap-blurr/AJEY-contracts/internal/queue"
	"github.com/cap-blurr/AJEY-contracts/internal/token"
	"github.com/cap-blurr/AJEY-contracts/internal/types"
)

// Claim pays out a recipient's accounted donation shares and records the
// payout.
func (s *Service) Claim(ctx context.Context, caller token.Address, id token.ID) (sdkmath.Int, error) {
	amount, err := s.engine.Ledger.Claim(ctx, caller, id)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if amount.IsZero() {
		return amount, nil
	}

	now := time.Now().UTC()
	doc := model.NewClaimDocument(uuid.NewString(), string(caller), amount.String(), now)
	if err := s.db.SaveClaim(ctx, doc); err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("recipient", string(caller)).
			Msg("failed to persist claim record")
		return amount, nil
	}

	s.publish(ctx, &queue.Event{
		Type:      types.EventTypeClaim,
		Subject:   string(caller),
		Payload:   doc,
		Timestamp: now,
	})
	return amount, nil
}
