package donation_test

import (
	"context"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cap-blurr/AJEY-contracts/internal/auth"
	"github.com/cap-blurr/AJEY-contracts/internal/donation"
	"github.com/cap-blurr/AJEY-contracts/internal/token"
	"github.com/cap-blurr/AJEY-contracts/internal/types"
)

const (
	shareA token.ID = "sUSDQ"
	shareB token.ID = "sWETH"

	ledgerAddr token.Address = "ledger"
	crediter   token.Address = "strategy/usdq"
	admin      token.Address = "keeper"
	npoA       token.Address = "npo-a"
	npoB       token.Address = "npo-b"
	npoC       token.Address = "npo-c"
)

func newLedger(t *testing.T) (*donation.Ledger, *token.Book) {
	t.Helper()

	book := token.NewBook()
	authz := auth.NewTable()
	authz.Grant(crediter, auth.CapReceiveShares)
	authz.Grant(admin, auth.CapConfigureLedger)

	l := donation.NewLedger(ledgerAddr, book, authz)
	return l, book
}

// credit mints shares to the ledger and accounts them in one step.
func credit(t *testing.T, l *donation.Ledger, book *token.Book, id token.ID, amount int64) {
	t.Helper()
	require.NoError(t, book.Mint(id, ledgerAddr, sdkmath.NewInt(amount)))
	require.NoError(t, l.ReceiveShares(context.Background(), crediter, id, sdkmath.NewInt(amount)))
}

func TestLedger_ReceiveShares(t *testing.T) {
	ctx := context.Background()

	t.Run("splits by weight with floor rounding", func(t *testing.T) {
		l, book := newLedger(t)
		require.NoError(t, l.ApplyPreset(admin, donation.PresetConcentrated, [3]token.Address{npoA, npoB, npoC}))

		credit(t, l, book, shareA, 100)

		assert.Equal(t, sdkmath.NewInt(60), l.Claimable(shareA, npoA))
		assert.Equal(t, sdkmath.NewInt(20), l.Claimable(shareA, npoB))
		assert.Equal(t, sdkmath.NewInt(20), l.Claimable(shareA, npoC))
		assert.Equal(t, sdkmath.NewInt(100), l.Accounted(shareA))
	})

	t.Run("remainder stays held but per-recipient floors", func(t *testing.T) {
		l, book := newLedger(t)
		require.NoError(t, l.SetRecipients(admin, []donation.Recipient{
			{Addr: npoA, Weight: 1, Active: true},
			{Addr: npoB, Weight: 1, Active: true},
			{Addr: npoC, Weight: 1, Active: true},
		}))

		credit(t, l, book, shareA, 100)

		// floor(100/3) each, remainder 1 unassigned
		assert.Equal(t, sdkmath.NewInt(33), l.Claimable(shareA, npoA))
		assert.Equal(t, sdkmath.NewInt(33), l.Claimable(shareA, npoB))
		assert.Equal(t, sdkmath.NewInt(33), l.Claimable(shareA, npoC))
		assert.Equal(t, sdkmath.NewInt(100), l.Accounted(shareA))
		assert.Equal(t, sdkmath.NewInt(100), book.BalanceOf(shareA, ledgerAddr))
	})

	t.Run("rejects credit beyond held balance", func(t *testing.T) {
		l, book := newLedger(t)
		require.NoError(t, l.ApplyPreset(admin, donation.PresetUniform, [3]token.Address{npoA, npoB, npoC}))

		require.NoError(t, book.Mint(shareA, ledgerAddr, sdkmath.NewInt(50)))
		err := l.ReceiveShares(context.Background(), crediter, shareA, sdkmath.NewInt(51))
		require.Error(t, err)
		assert.True(t, types.IsKind(err, types.KindPrecondition))
	})

	t.Run("rejects unauthorized crediter and empty recipient list", func(t *testing.T) {
		l, book := newLedger(t)
		require.NoError(t, book.Mint(shareA, ledgerAddr, sdkmath.NewInt(10)))

		err := l.ReceiveShares(ctx, npoA, shareA, sdkmath.NewInt(10))
		require.Error(t, err)
		assert.True(t, types.IsKind(err, types.KindAuthorization))

		err = l.ReceiveShares(ctx, crediter, shareA, sdkmath.NewInt(10))
		require.Error(t, err)
		assert.True(t, types.IsKind(err, types.KindPrecondition))
	})

	t.Run("inactive recipients are skipped", func(t *testing.T) {
		l, book := newLedger(t)
		require.NoError(t, l.SetRecipients(admin, []donation.Recipient{
			{Addr: npoA, Weight: 1, Active: true},
			{Addr: npoB, Weight: 1, Active: false},
		}))

		credit(t, l, book, shareA, 100)

		assert.Equal(t, sdkmath.NewInt(100), l.Claimable(shareA, npoA))
		assert.True(t, l.Claimable(shareA, npoB).IsZero())
	})
}

func TestLedger_Claim(t *testing.T) {
	ctx := context.Background()
	l, book := newLedger(t)
	require.NoError(t, l.ApplyPreset(admin, donation.PresetBalanced, [3]token.Address{npoA, npoB, npoC}))

	credit(t, l, book, shareA, 100)

	t.Run("pays out and zeroes the balance", func(t *testing.T) {
		amount, err := l.Claim(ctx, npoA, shareA)
		require.NoError(t, err)
		assert.Equal(t, sdkmath.NewInt(40), amount)
		assert.Equal(t, sdkmath.NewInt(40), book.BalanceOf(shareA, npoA))
		assert.True(t, l.Claimable(shareA, npoA).IsZero())
		assert.Equal(t, sdkmath.NewInt(60), l.Accounted(shareA))
	})

	t.Run("second claim is a zero no-op", func(t *testing.T) {
		amount, err := l.Claim(ctx, npoA, shareA)
		require.NoError(t, err)
		assert.True(t, amount.IsZero())
	})

	t.Run("claim multiple returns amounts in input order", func(t *testing.T) {
		credit(t, l, book, shareB, 10)

		amounts, err := l.ClaimMultiple(ctx, npoB, []token.ID{shareA, shareB})
		require.NoError(t, err)
		require.Len(t, amounts, 2)
		assert.Equal(t, sdkmath.NewInt(30), amounts[0])
		// floor(10 * 30 / 100)
		assert.Equal(t, sdkmath.NewInt(3), amounts[1])
	})
}

func TestLedger_ClaimMultipleIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	l, book := newLedger(t)
	require.NoError(t, l.SetRecipients(admin, []donation.Recipient{
		{Addr: npoA, Weight: 1, Active: true},
	}))

	credit(t, l, book, shareA, 100)
	credit(t, l, book, shareB, 100)

	// a strategy loss burned part of the second token out of the
	// ledger's holdings, so its claim cannot be paid in full
	require.NoError(t, book.Burn(shareB, ledgerAddr, sdkmath.NewInt(60)))

	_, err := l.ClaimMultiple(ctx, npoA, []token.ID{shareA, shareB})
	require.Error(t, err)

	// the first token's payout was undone along with everything else
	assert.True(t, book.BalanceOf(shareA, npoA).IsZero())
	assert.Equal(t, sdkmath.NewInt(100), book.BalanceOf(shareA, ledgerAddr))
	assert.Equal(t, sdkmath.NewInt(100), l.Claimable(shareA, npoA))
	assert.Equal(t, sdkmath.NewInt(100), l.Accounted(shareA))
	assert.Equal(t, sdkmath.NewInt(100), l.Claimable(shareB, npoA))
	assert.Equal(t, sdkmath.NewInt(100), l.Accounted(shareB))
	assert.Equal(t, sdkmath.NewInt(40), book.BalanceOf(shareB, ledgerAddr))
}

func TestLedger_Configuration(t *testing.T) {
	l, book := newLedger(t)

	t.Run("requires configure capability", func(t *testing.T) {
		err := l.SetRecipients(npoA, []donation.Recipient{{Addr: npoA, Weight: 1, Active: true}})
		require.Error(t, err)
		assert.True(t, types.IsKind(err, types.KindAuthorization))
	})

	t.Run("rejects zero address and zero-weight active entries", func(t *testing.T) {
		err := l.SetRecipients(admin, []donation.Recipient{{Addr: token.ZeroAddress, Weight: 1, Active: true}})
		require.Error(t, err)

		err = l.SetRecipients(admin, []donation.Recipient{{Addr: npoA, Weight: 0, Active: true}})
		require.Error(t, err)
	})

	t.Run("replacement is never retroactive", func(t *testing.T) {
		require.NoError(t, l.ApplyPreset(admin, donation.PresetBalanced, [3]token.Address{npoA, npoB, npoC}))
		credit(t, l, book, shareA, 100)

		require.NoError(t, l.SetRecipients(admin, []donation.Recipient{
			{Addr: npoC, Weight: 1, Active: true},
		}))

		// credited balances survive the config change
		assert.Equal(t, sdkmath.NewInt(40), l.Claimable(shareA, npoA))
		assert.Equal(t, sdkmath.NewInt(30), l.Claimable(shareA, npoB))

		// new credits follow the new list
		credit(t, l, book, shareA, 50)
		assert.Equal(t, sdkmath.NewInt(80), l.Claimable(shareA, npoC))
	})

	t.Run("upsert updates in place", func(t *testing.T) {
		require.NoError(t, l.UpsertRecipient(admin, donation.Recipient{Addr: npoA, Weight: 5, Active: true}))
		require.NoError(t, l.UpsertRecipient(admin, donation.Recipient{Addr: npoA, Weight: 7, Active: true}))

		var found int
		for _, r := range l.Recipients() {
			if r.Addr == npoA {
				found++
				assert.Equal(t, uint64(7), r.Weight)
			}
		}
		assert.Equal(t, 1, found)
	})

	t.Run("unknown preset is rejected", func(t *testing.T) {
		err := l.ApplyPreset(admin, donation.Preset("LOPSIDED"), [3]token.Address{npoA, npoB, npoC})
		require.Error(t, err)
		assert.True(t, types.IsKind(err, types.KindPrecondition))
	})
}
