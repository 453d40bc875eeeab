package strategy

import (
	"context"
	"encoding/json"

	sdkmath "cosmossdk.io/math"

	"github.com/cap-blurr/AJEY-contracts/internal/num"
	"github.com/cap-blurr/AJEY-contracts/internal/swap"
	"github.com/cap-blurr/AJEY-contracts/internal/token"
	"github.com/cap-blurr/AJEY-contracts/internal/types"
	"github.com/cap-blurr/AJEY-contracts/internal/vault"
)

// Deployer moves strategy funds into and out of the bound vault. The
// variant is selected at construction: VaultDeployer for a vault of the
// strategy's own asset, SwapDeployer for a cross-asset vault reached
// through a swap adapter.
type Deployer interface {
	// Deploy moves amount of the strategy's idle balance into the vault
	// position.
	Deploy(ctx context.Context, amount sdkmath.Int) error
	// Free brings amount of value (in the strategy's asset) back to the
	// strategy's idle balance and returns the amount received.
	Free(ctx context.Context, amount sdkmath.Int) (sdkmath.Int, error)
	// PositionValue is the current vault position valued in the
	// strategy's asset.
	PositionValue(ctx context.Context) (sdkmath.Int, error)
	// Rebind replaces the vault reference. The new vault must be
	// compatible with the variant's asset expectations.
	Rebind(v *vault.ValueVault) error
}

// VaultDeployer deposits directly into a vault of the same asset.
type VaultDeployer struct {
	asset        token.ID
	strategyAddr token.Address
	vlt          *vault.ValueVault
}

func NewVaultDeployer(asset token.ID, strategyAddr token.Address, vlt *vault.ValueVault) (*VaultDeployer, error) {
	d := &VaultDeployer{asset: asset, strategyAddr: strategyAddr}
	if err := d.Rebind(vlt); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *VaultDeployer) Deploy(ctx context.Context, amount sdkmath.Int) error {
	if amount.IsZero() {
		return nil
	}
	_, err := d.vlt.Deposit(ctx, d.strategyAddr, amount, d.strategyAddr)
	return err
}

func (d *VaultDeployer) Free(ctx context.Context, amount sdkmath.Int) (sdkmath.Int, error) {
	if amount.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	if _, err := d.vlt.Withdraw(ctx, d.strategyAddr, amount, d.strategyAddr, d.strategyAddr); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return amount, nil
}

func (d *VaultDeployer) PositionValue(ctx context.Context) (sdkmath.Int, error) {
	return d.vlt.MaxWithdrawable(ctx, d.strategyAddr)
}

func (d *VaultDeployer) Rebind(v *vault.ValueVault) error {
	if v == nil {
		return types.NewErrorf(types.KindPrecondition, "deployer.rebind", "nil vault")
	}
	if v.Asset() != d.asset {
		return types.NewErrorf(types.KindPrecondition, "deployer.rebind",
			"vault asset %s does not match strategy asset %s", v.Asset(), d.asset)
	}
	d.vlt = v
	return nil
}

// SwapDeployer reaches a vault of a different asset through an
// allow-listed swap adapter. Rate is the reference price used for
// previews and for sizing vault withdrawals; MinOutBps bounds acceptable
// slippage against that reference on every swap.
type SwapDeployer struct {
	asset        token.ID
	strategyAddr token.Address
	vlt          *vault.ValueVault
	book         *token.Book
	adapter      swap.Adapter
	allowlist    *swap.Allowlist
	rateNum      sdkmath.Int // vault asset out per rateDen of strategy asset in
	rateDen      sdkmath.Int
	minOutBps    uint32
}

type SwapDeployerConfig struct {
	Asset        token.ID
	StrategyAddr token.Address
	Adapter      swap.Adapter
	Allowlist    *swap.Allowlist
	RateNum      int64
	RateDen      int64
	MinOutBps    uint32
}

func NewSwapDeployer(cfg SwapDeployerConfig, book *token.Book, vlt *vault.ValueVault) (*SwapDeployer, error) {
	d := &SwapDeployer{
		asset:        cfg.Asset,
		strategyAddr: cfg.StrategyAddr,
		book:         book,
		adapter:      cfg.Adapter,
		allowlist:    cfg.Allowlist,
		rateNum:      sdkmath.NewInt(cfg.RateNum),
		rateDen:      sdkmath.NewInt(cfg.RateDen),
		minOutBps:    cfg.MinOutBps,
	}
	if err := d.Rebind(vlt); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *SwapDeployer) swapInto(ctx context.Context, from, to token.ID, amountIn, minOut sdkmath.Int) (sdkmath.Int, error) {
	const op = "deployer.swap"
	if !d.allowlist.IsAllowed(d.adapter.ID()) {
		return sdkmath.ZeroInt(), types.NewErrorf(types.KindPrecondition, op,
			"adapter %s is not allow-listed", d.adapter.ID())
	}

	payload, err := json.Marshal(swap.Payload{
		FromAsset: from,
		ToAsset:   to,
		Owner:     d.strategyAddr,
		AmountIn:  amountIn.String(),
	})
	if err != nil {
		return sdkmath.ZeroInt(), types.NewError(types.KindInternal, op, err)
	}

	pre := d.book.BalanceOf(to, d.strategyAddr)
	if err := d.book.Approve(from, d.strategyAddr, d.adapter.Address(), amountIn); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := d.adapter.Swap(ctx, payload); err != nil {
		return sdkmath.ZeroInt(), types.NewErrorf(types.KindInternal, op, "adapter failed: %s", err)
	}
	// residual allowance must not survive the call
	if err := d.book.Approve(from, d.strategyAddr, d.adapter.Address(), sdkmath.ZeroInt()); err != nil {
		return sdkmath.ZeroInt(), err
	}

	received := d.book.BalanceOf(to, d.strategyAddr).Sub(pre)
	if received.LT(minOut) {
		return sdkmath.ZeroInt(), types.NewErrorf(types.KindSlippage, op,
			"received %s below minimum %s", received, minOut)
	}
	return received, nil
}

func (d *SwapDeployer) Deploy(ctx context.Context, amount sdkmath.Int) error {
	if amount.IsZero() {
		return nil
	}
	expected := num.MulDivFloor(amount, d.rateNum, d.rateDen)
	minOut := num.BpsOf(expected, d.minOutBps)
	received, err := d.swapInto(ctx, d.asset, d.vlt.Asset(), amount, minOut)
	if err != nil {
		return err
	}
	if !received.IsPositive() {
		return nil
	}
	_, err = d.vlt.Deposit(ctx, d.strategyAddr, received, d.strategyAddr)
	return err
}

func (d *SwapDeployer) Free(ctx context.Context, amount sdkmath.Int) (sdkmath.Int, error) {
	if amount.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	// size the vault withdrawal by the reference rate, rounding up so the
	// swap can cover the requested amount
	vaultAmount := num.MulDivCeil(amount, d.rateNum, d.rateDen)
	available, err := d.vlt.MaxWithdrawable(ctx, d.strategyAddr)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	vaultAmount = sdkmath.MinInt(vaultAmount, available)
	if vaultAmount.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	if _, err := d.vlt.Withdraw(ctx, d.strategyAddr, vaultAmount, d.strategyAddr, d.strategyAddr); err != nil {
		return sdkmath.ZeroInt(), err
	}
	expected := num.MulDivFloor(vaultAmount, d.rateDen, d.rateNum)
	minOut := num.BpsOf(expected, d.minOutBps)
	return d.swapInto(ctx, d.vlt.Asset(), d.asset, vaultAmount, minOut)
}

func (d *SwapDeployer) PositionValue(ctx context.Context) (sdkmath.Int, error) {
	vaultValue, err := d.vlt.MaxWithdrawable(ctx, d.strategyAddr)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return num.MulDivFloor(vaultValue, d.rateDen, d.rateNum), nil
}

func (d *SwapDeployer) Rebind(v *vault.ValueVault) error {
	if v == nil {
		return types.NewErrorf(types.KindPrecondition, "deployer.rebind", "nil vault")
	}
	if v.Asset() == d.asset {
		return types.NewErrorf(types.KindPrecondition, "deployer.rebind",
			"cross-asset deployer bound to vault of the strategy's own asset %s", d.asset)
	}
	d.vlt = v
	return nil
}
