package yieldsource

import (
	"context"

	sdkmath "cosmossdk.io/math"

	"github.com/cap-blurr/AJEY-contracts/internal/token"
)

// Source is the external yield source consumed by vaults. The vault trusts
// the amount reported by Withdraw and fails loudly when it falls short of
// the request.
type Source interface {
	// Supply moves amount of asset from onBehalfOf into the source,
	// credited to onBehalfOf's position.
	Supply(ctx context.Context, asset token.ID, amount sdkmath.Int, onBehalfOf token.Address) error
	// Withdraw moves up to amount of asset from account's position to the
	// given address and returns the amount actually received.
	Withdraw(ctx context.Context, asset token.ID, amount sdkmath.Int, to token.Address) (sdkmath.Int, error)
	// SuppliedBalance returns the current value of account's position,
	// including accrued yield.
	SuppliedBalance(ctx context.Context, asset token.ID, account token.Address) (sdkmath.Int, error)
}
