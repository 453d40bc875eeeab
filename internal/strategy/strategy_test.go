package strategy_test

import (
	"context"
	"errors"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cap-blurr/AJEY-contracts/internal/auth"
	"github.com/cap-blurr/AJEY-contracts/internal/donation"
	"github.com/cap-blurr/AJEY-contracts/internal/strategy"
	"github.com/cap-blurr/AJEY-contracts/internal/token"
	"github.com/cap-blurr/AJEY-contracts/internal/types"
	"github.com/cap-blurr/AJEY-contracts/internal/vault"
	"github.com/cap-blurr/AJEY-contracts/internal/yieldsource"
)

const (
	asset         token.ID = "USDQ"
	vaultShare    token.ID = "vUSDQ"
	strategyShare token.ID = "sUSDQ"

	vaultAddr    token.Address = "vault/usdq"
	strategyAddr token.Address = "strategy/usdq"
	ledgerAddr   token.Address = "ledger"
	alice        token.Address = "alice"
	keeper       token.Address = "keeper"
	custody      token.Address = "custody"
	npoA         token.Address = "npo-a"
	npoB         token.Address = "npo-b"
	npoC         token.Address = "npo-c"
)

type fixture struct {
	book     *token.Book
	authz    *auth.Table
	vault    *vault.ValueVault
	strategy *strategy.YieldStrategy
	ledger   *donation.Ledger
}

// newFixture wires a same-asset strategy over a non-deploying vault so
// yield can be simulated by minting directly to the vault address.
func newFixture(t *testing.T, notifier strategy.DonationNotifier, donationRecipient token.Address) *fixture {
	t.Helper()

	book := token.NewBook()
	authz := auth.NewTable()
	authz.Grant(keeper, auth.CapReport)
	authz.Grant(keeper, auth.CapManageVault)
	authz.Grant(keeper, auth.CapHalt)
	authz.Grant(keeper, auth.CapConfigureLedger)
	authz.Grant(custody, auth.CapMigrateAny)
	authz.Grant(strategyAddr, auth.CapReceiveShares)

	source := yieldsource.NewSimulated(book, "yield-source")
	v := vault.New(vault.Config{
		Name:       "usdq-vault",
		Asset:      asset,
		ShareToken: vaultShare,
		Address:    vaultAddr,
	}, book, source, authz)

	deployer, err := strategy.NewVaultDeployer(asset, strategyAddr, v)
	require.NoError(t, err)

	st := strategy.New(strategy.Config{
		Name:              "usdq-strategy",
		Asset:             asset,
		ShareToken:        strategyShare,
		Address:           strategyAddr,
		DonationRecipient: donationRecipient,
	}, book, authz, deployer, notifier)

	require.NoError(t, book.Mint(asset, alice, sdkmath.NewInt(10_000_000)))

	return &fixture{book: book, authz: authz, vault: v, strategy: st}
}

func newLedgerFixture(t *testing.T) *fixture {
	t.Helper()

	f := newFixture(t, nil, ledgerAddr)
	f.ledger = donation.NewLedger(ledgerAddr, f.book, f.authz)
	require.NoError(t, f.ledger.ApplyPreset(keeper, donation.PresetBalanced, [3]token.Address{npoA, npoB, npoC}))

	// rebuild the strategy with the real ledger as notifier
	deployer, err := strategy.NewVaultDeployer(asset, strategyAddr, f.vault)
	require.NoError(t, err)
	f.strategy = strategy.New(strategy.Config{
		Name:              "usdq-strategy",
		Asset:             asset,
		ShareToken:        strategyShare,
		Address:           strategyAddr,
		DonationRecipient: ledgerAddr,
	}, f.book, f.authz, deployer, f.ledger)

	return f
}

// accrue simulates vault yield by minting directly to the vault address.
func (f *fixture) accrue(t *testing.T, amount int64) {
	t.Helper()
	require.NoError(t, f.book.Mint(asset, vaultAddr, sdkmath.NewInt(amount)))
}

// lose simulates a vault loss by burning idle balance.
func (f *fixture) lose(t *testing.T, amount int64) {
	t.Helper()
	require.NoError(t, f.book.Burn(asset, vaultAddr, sdkmath.NewInt(amount)))
}

type failingNotifier struct{}

func (failingNotifier) ReceiveShares(ctx context.Context, caller token.Address, id token.ID, amount sdkmath.Int) error {
	return errors.New("ledger unavailable")
}

func TestStrategy_DepositDeploysEverything(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, "donations")

	shares, err := f.strategy.Deposit(ctx, alice, sdkmath.NewInt(1000), alice)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(1000), shares)
	assert.True(t, f.strategy.IdleBalance().IsZero())
	assert.Equal(t, sdkmath.NewInt(1000), f.book.BalanceOf(vaultShare, strategyAddr))

	total, err := f.strategy.TotalAssets(ctx)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(1000), total)
}

func TestStrategy_Report(t *testing.T) {
	ctx := context.Background()

	t.Run("first report only initializes the baseline", func(t *testing.T) {
		f := newFixture(t, nil, "donations")
		_, err := f.strategy.Deposit(ctx, alice, sdkmath.NewInt(1000), alice)
		require.NoError(t, err)

		assert.Equal(t, types.StrategyStateUninitialized, f.strategy.TrackingState())

		profit, loss, err := f.strategy.Report(ctx, keeper)
		require.NoError(t, err)
		assert.True(t, profit.IsZero())
		assert.True(t, loss.IsZero())

		baseline, set := f.strategy.Baseline()
		assert.True(t, set)
		assert.Equal(t, sdkmath.NewInt(1000), baseline)
		assert.Equal(t, types.StrategyStateTracking, f.strategy.TrackingState())
		// no donation shares on initialization
		assert.True(t, f.book.BalanceOf(strategyShare, "donations").IsZero())
	})

	t.Run("profit mints donation shares against the baseline", func(t *testing.T) {
		f := newFixture(t, nil, "donations")
		_, err := f.strategy.Deposit(ctx, alice, sdkmath.NewInt(1000), alice)
		require.NoError(t, err)
		_, _, err = f.strategy.Report(ctx, keeper)
		require.NoError(t, err)

		f.accrue(t, 100)

		profit, loss, err := f.strategy.Report(ctx, keeper)
		require.NoError(t, err)
		assert.Equal(t, sdkmath.NewInt(100), profit)
		assert.True(t, loss.IsZero())

		// floor(100 * 1000 / 1000)
		assert.Equal(t, sdkmath.NewInt(100), f.book.BalanceOf(strategyShare, "donations"))

		baseline, _ := f.strategy.Baseline()
		assert.Equal(t, sdkmath.NewInt(1100), baseline)

		// depositor principal is untouched
		assert.Equal(t, sdkmath.NewInt(1000), f.book.BalanceOf(strategyShare, alice))
	})

	t.Run("loss burns donation shares before touching principal", func(t *testing.T) {
		f := newFixture(t, nil, "donations")
		_, err := f.strategy.Deposit(ctx, alice, sdkmath.NewInt(1000), alice)
		require.NoError(t, err)
		_, _, err = f.strategy.Report(ctx, keeper)
		require.NoError(t, err)

		f.accrue(t, 100)
		_, _, err = f.strategy.Report(ctx, keeper)
		require.NoError(t, err)
		require.Equal(t, sdkmath.NewInt(100), f.book.BalanceOf(strategyShare, "donations"))

		f.lose(t, 55)

		profit, loss, err := f.strategy.Report(ctx, keeper)
		require.NoError(t, err)
		assert.True(t, profit.IsZero())
		assert.Equal(t, sdkmath.NewInt(55), loss)

		// floor(55 * 1100 / 1100) burned from the donation buffer
		assert.Equal(t, sdkmath.NewInt(45), f.book.BalanceOf(strategyShare, "donations"))
		assert.Equal(t, sdkmath.NewInt(1000), f.book.BalanceOf(strategyShare, alice))

		baseline, _ := f.strategy.Baseline()
		assert.Equal(t, sdkmath.NewInt(1045), baseline)
	})

	t.Run("loss burn is capped at the donation buffer", func(t *testing.T) {
		f := newFixture(t, nil, "donations")
		_, err := f.strategy.Deposit(ctx, alice, sdkmath.NewInt(1000), alice)
		require.NoError(t, err)
		_, _, err = f.strategy.Report(ctx, keeper)
		require.NoError(t, err)

		f.lose(t, 300)

		profit, loss, err := f.strategy.Report(ctx, keeper)
		require.NoError(t, err)
		assert.True(t, profit.IsZero())
		assert.Equal(t, sdkmath.NewInt(300), loss)

		// nothing to burn, principal shares survive
		assert.True(t, f.book.BalanceOf(strategyShare, "donations").IsZero())
		assert.Equal(t, sdkmath.NewInt(1000), f.book.BalanceOf(strategyShare, alice))

		baseline, _ := f.strategy.Baseline()
		assert.Equal(t, sdkmath.NewInt(700), baseline)
	})

	t.Run("unauthorized caller is rejected", func(t *testing.T) {
		f := newFixture(t, nil, "donations")
		_, _, err := f.strategy.Report(ctx, alice)
		require.Error(t, err)
		assert.True(t, types.IsKind(err, types.KindAuthorization))
	})
}

func TestStrategy_ReportNotifiesLedger(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	_, err := f.strategy.Deposit(ctx, alice, sdkmath.NewInt(1000), alice)
	require.NoError(t, err)
	_, _, err = f.strategy.Report(ctx, keeper)
	require.NoError(t, err)

	f.accrue(t, 100)
	_, _, err = f.strategy.Report(ctx, keeper)
	require.NoError(t, err)

	// 100 shares split 40/30/30
	assert.Equal(t, sdkmath.NewInt(100), f.book.BalanceOf(strategyShare, ledgerAddr))
	assert.Equal(t, sdkmath.NewInt(100), f.ledger.Accounted(strategyShare))
	assert.Equal(t, sdkmath.NewInt(40), f.ledger.Claimable(strategyShare, npoA))
	assert.Equal(t, sdkmath.NewInt(30), f.ledger.Claimable(strategyShare, npoB))
	assert.Equal(t, sdkmath.NewInt(30), f.ledger.Claimable(strategyShare, npoC))
}

func TestStrategy_NotifyFailureDoesNotFailReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, failingNotifier{}, ledgerAddr)

	_, err := f.strategy.Deposit(ctx, alice, sdkmath.NewInt(1000), alice)
	require.NoError(t, err)
	_, _, err = f.strategy.Report(ctx, keeper)
	require.NoError(t, err)

	f.accrue(t, 100)

	profit, _, err := f.strategy.Report(ctx, keeper)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(100), profit)

	// shares are held by the recipient even though the notify failed
	assert.Equal(t, sdkmath.NewInt(100), f.book.BalanceOf(strategyShare, ledgerAddr))

	baseline, _ := f.strategy.Baseline()
	assert.Equal(t, sdkmath.NewInt(1100), baseline)
}

func TestStrategy_Withdraw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, "donations")

	_, err := f.strategy.Deposit(ctx, alice, sdkmath.NewInt(1000), alice)
	require.NoError(t, err)
	require.True(t, f.strategy.IdleBalance().IsZero())

	aliceBefore := f.book.BalanceOf(asset, alice)

	burned, err := f.strategy.Withdraw(ctx, alice, sdkmath.NewInt(100), alice, alice)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(100), burned)
	assert.Equal(t, aliceBefore.Add(sdkmath.NewInt(100)), f.book.BalanceOf(asset, alice))
	assert.Equal(t, sdkmath.NewInt(900), f.strategy.TotalSupply())

	t.Run("third party needs allowance", func(t *testing.T) {
		_, err := f.strategy.Withdraw(ctx, "mallory", sdkmath.NewInt(50), "mallory", alice)
		require.Error(t, err)
		assert.True(t, types.IsKind(err, types.KindAuthorization))
	})

	t.Run("privileged migrator bypasses allowance", func(t *testing.T) {
		burned, err := f.strategy.Withdraw(ctx, custody, sdkmath.NewInt(50), custody, alice)
		require.NoError(t, err)
		assert.Equal(t, sdkmath.NewInt(50), burned)
	})
}

func TestStrategy_SetVault(t *testing.T) {
	f := newFixture(t, nil, "donations")

	otherAsset := vault.New(vault.Config{
		Name:       "weth-vault",
		Asset:      "WETH",
		ShareToken: "vWETH",
		Address:    "vault/weth",
	}, f.book, yieldsource.NewSimulated(f.book, "yield-source"), f.authz)

	err := f.strategy.SetVault(keeper, otherAsset)
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindPrecondition))

	sameAsset := vault.New(vault.Config{
		Name:       "usdq-vault-2",
		Asset:      asset,
		ShareToken: "v2USDQ",
		Address:    "vault/usdq2",
	}, f.book, yieldsource.NewSimulated(f.book, "yield-source"), f.authz)

	require.Error(t, f.strategy.SetVault(alice, sameAsset))
	require.NoError(t, f.strategy.SetVault(keeper, sameAsset))
}

func TestStrategy_Halt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, "donations")

	require.NoError(t, f.strategy.SetHalted(keeper, true))
	_, err := f.strategy.Deposit(ctx, alice, sdkmath.NewInt(100), alice)
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindPrecondition))

	_, _, err = f.strategy.Report(ctx, keeper)
	require.Error(t, err)

	require.NoError(t, f.strategy.SetHalted(keeper, false))
	_, err = f.strategy.Deposit(ctx, alice, sdkmath.NewInt(100), alice)
	require.NoError(t, err)
}
