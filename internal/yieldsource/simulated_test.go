package yieldsource_test

import (
	"context"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cap-blurr/AJEY-contracts/internal/token"
	"github.com/cap-blurr/AJEY-contracts/internal/yieldsource"
)

const (
	asset token.ID = "USDQ"

	sourceAddr token.Address = "yield-source"
	depositor  token.Address = "vault/usdq"
)

func TestSimulated(t *testing.T) {
	ctx := context.Background()
	book := token.NewBook()
	source := yieldsource.NewSimulated(book, sourceAddr)

	require.NoError(t, book.Mint(asset, depositor, sdkmath.NewInt(1000)))

	t.Run("supply moves funds into the position", func(t *testing.T) {
		require.NoError(t, source.Supply(ctx, asset, sdkmath.NewInt(600), depositor))

		balance, err := source.SuppliedBalance(ctx, asset, depositor)
		require.NoError(t, err)
		assert.Equal(t, sdkmath.NewInt(600), balance)
		assert.Equal(t, sdkmath.NewInt(400), book.BalanceOf(asset, depositor))
	})

	t.Run("accrue grows the position without touching the depositor", func(t *testing.T) {
		require.NoError(t, source.Accrue(asset, depositor, sdkmath.NewInt(60)))

		balance, err := source.SuppliedBalance(ctx, asset, depositor)
		require.NoError(t, err)
		assert.Equal(t, sdkmath.NewInt(660), balance)
		assert.Equal(t, sdkmath.NewInt(400), book.BalanceOf(asset, depositor))
	})

	t.Run("withdraw is capped at the position", func(t *testing.T) {
		received, err := source.Withdraw(ctx, asset, sdkmath.NewInt(1_000_000), depositor)
		require.NoError(t, err)
		assert.Equal(t, sdkmath.NewInt(660), received)
		assert.Equal(t, sdkmath.NewInt(1060), book.BalanceOf(asset, depositor))
	})

	t.Run("payout cap simulates illiquidity", func(t *testing.T) {
		require.NoError(t, source.Supply(ctx, asset, sdkmath.NewInt(1000), depositor))
		source.SetPayoutBps(2500)

		received, err := source.Withdraw(ctx, asset, sdkmath.NewInt(1000), depositor)
		require.NoError(t, err)
		assert.Equal(t, sdkmath.NewInt(250), received)
	})

	t.Run("zero amounts are no-ops", func(t *testing.T) {
		require.NoError(t, source.Supply(ctx, asset, sdkmath.ZeroInt(), depositor))
		received, err := source.Withdraw(ctx, asset, sdkmath.ZeroInt(), depositor)
		require.NoError(t, err)
		assert.True(t, received.IsZero())
	})
}
