package vault

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/cap-blurr/AJEY-contracts/internal/auth"
	"github.com/cap-blurr/AJEY-contracts/internal/num"
	"github.com/cap-blurr/AJEY-contracts/internal/token"
	"github.com/cap-blurr/AJEY-contracts/internal/types"
	"github.com/cap-blurr/AJEY-contracts/internal/yieldsource"
)

// Config binds a ValueVault to its asset at construction. The binding is
// immutable for the vault's lifetime.
type Config struct {
	Name         string
	Asset        token.ID
	ShareToken   token.ID
	Address      token.Address
	FeeRecipient token.Address
	FeeRateBps   uint32
	AutoDeploy   bool
}

// ValueVault is a pooled single-asset store issuing proportional shares.
// Idle balance lives at the vault's own address in the book; the rest is
// deployed to the external yield source. Share conversion rounds in the
// pool's favor: deposits and redemptions floor, withdrawals ceil the
// shares burned.
//
// Every mutating operation is a serialized all-or-nothing unit: a busy
// guard rejects overlapping calls and a book snapshot is restored on any
// failure past the first mutation.
type ValueVault struct {
	name         string
	asset        token.ID
	shareToken   token.ID
	addr         token.Address
	autoDeploy   bool

	book   *token.Book
	source yieldsource.Source
	authz  auth.Authorizer

	busy atomic.Bool

	mu            sync.Mutex
	feeRateBps    uint32
	feeRecipient  token.Address
	checkpoint    sdkmath.Int
	checkpointSet bool
	checkpointAt  time.Time
	halted        bool

	now func() time.Time
}

func New(cfg Config, book *token.Book, source yieldsource.Source, authz auth.Authorizer) *ValueVault {
	return &ValueVault{
		name:         cfg.Name,
		asset:        cfg.Asset,
		shareToken:   cfg.ShareToken,
		addr:         cfg.Address,
		autoDeploy:   cfg.AutoDeploy,
		feeRateBps:   cfg.FeeRateBps,
		feeRecipient: cfg.FeeRecipient,
		book:         book,
		source:       source,
		authz:        authz,
		checkpoint:   sdkmath.ZeroInt(),
		now:          time.Now,
	}
}

func (v *ValueVault) Name() string              { return v.name }
func (v *ValueVault) Asset() token.ID           { return v.asset }
func (v *ValueVault) ShareToken() token.ID      { return v.shareToken }
func (v *ValueVault) Address() token.Address    { return v.addr }
func (v *ValueVault) TotalSupply() sdkmath.Int  { return v.book.Supply(v.shareToken) }
func (v *ValueVault) IdleBalance() sdkmath.Int  { return v.book.BalanceOf(v.asset, v.addr) }

// Checkpoint returns the last fee checkpoint and whether it has been
// initialized.
func (v *ValueVault) Checkpoint() (sdkmath.Int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.checkpoint, v.checkpointSet
}

func (v *ValueVault) acquire(op string) error {
	if !v.busy.CompareAndSwap(false, true) {
		return types.NewErrorf(types.KindPrecondition, op, "reentrant or overlapping call")
	}
	v.mu.Lock()
	halted := v.halted
	v.mu.Unlock()
	if halted {
		v.busy.Store(false)
		return types.NewErrorf(types.KindPrecondition, op, "vault %s is halted", v.name)
	}
	return nil
}

func (v *ValueVault) release() {
	v.busy.Store(false)
}

// TotalAssets is the idle balance plus the value deployed at the external
// source.
func (v *ValueVault) TotalAssets(ctx context.Context) (sdkmath.Int, error) {
	deployed, err := v.source.SuppliedBalance(ctx, v.asset, v.addr)
	if err != nil {
		return sdkmath.ZeroInt(), types.NewErrorf(types.KindInternal, "vault.totalAssets",
			"yield source balance query failed: %s", err)
	}
	return v.IdleBalance().Add(deployed), nil
}

// ConvertToShares previews the shares minted for an asset amount at the
// current share price, rounding down.
func (v *ValueVault) ConvertToShares(ctx context.Context, assets sdkmath.Int) (sdkmath.Int, error) {
	supply := v.TotalSupply()
	if supply.IsZero() {
		return assets, nil
	}
	total, err := v.TotalAssets(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if !total.IsPositive() {
		return sdkmath.ZeroInt(), types.NewErrorf(types.KindPrecondition, "vault.convertToShares",
			"vault %s has shares outstanding but no assets", v.name)
	}
	return num.MulDivFloor(assets, supply, total), nil
}

// ConvertToAssets previews the assets returned for a share amount,
// rounding down.
func (v *ValueVault) ConvertToAssets(ctx context.Context, shares sdkmath.Int) (sdkmath.Int, error) {
	supply := v.TotalSupply()
	if supply.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	total, err := v.TotalAssets(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return num.MulDivFloor(shares, total, supply), nil
}

// MaxWithdrawable is the asset value of owner's share balance.
func (v *ValueVault) MaxWithdrawable(ctx context.Context, owner token.Address) (sdkmath.Int, error) {
	return v.ConvertToAssets(ctx, v.book.BalanceOf(v.shareToken, owner))
}

// Deposit transfers amount of the asset from caller and mints
// proportional shares to receiver. With AutoDeploy set, the resulting
// idle balance is forwarded to the yield source.
func (v *ValueVault) Deposit(ctx context.Context, caller token.Address, amount sdkmath.Int, receiver token.Address) (sdkmath.Int, error) {
	const op = "vault.deposit"
	if err := v.acquire(op); err != nil {
		return sdkmath.ZeroInt(), err
	}
	defer v.release()

	if caller.IsZero() || receiver.IsZero() {
		return sdkmath.ZeroInt(), types.NewErrorf(types.KindPrecondition, op, "zero address")
	}
	if !amount.IsPositive() {
		return sdkmath.ZeroInt(), types.NewErrorf(types.KindPrecondition, op, "amount must be positive")
	}

	total, err := v.TotalAssets(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	supply := v.TotalSupply()

	var shares sdkmath.Int
	if supply.IsZero() {
		shares = amount
	} else {
		if !total.IsPositive() {
			return sdkmath.ZeroInt(), types.NewErrorf(types.KindPrecondition, op,
				"vault %s has shares outstanding but no assets", v.name)
		}
		shares = num.MulDivFloor(amount, supply, total)
	}
	if !shares.IsPositive() {
		return sdkmath.ZeroInt(), types.NewErrorf(types.KindPrecondition, op,
			"amount %s converts to zero shares", amount)
	}

	snap := v.book.Snapshot()
	if err := v.book.Transfer(v.asset, caller, v.addr, amount); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := v.book.Mint(v.shareToken, receiver, shares); err != nil {
		v.book.Restore(snap)
		return sdkmath.ZeroInt(), err
	}
	if v.autoDeploy {
		idle := v.IdleBalance()
		if idle.IsPositive() {
			if err := v.source.Supply(ctx, v.asset, idle, v.addr); err != nil {
				v.book.Restore(snap)
				return sdkmath.ZeroInt(), types.NewErrorf(types.KindInternal, op,
					"auto-deploy to yield source failed: %s", err)
			}
		}
	}

	log.Ctx(ctx).Debug().
		Str("vault", v.name).
		Str("amount", amount.String()).
		Str("shares", shares.String()).
		Msg("deposit")
	return shares, nil
}

// Withdraw pays amount of the asset to receiver, burning owner's shares
// rounded up. Shortfalls beyond the idle balance are pulled from the
// yield source; receiving less than requested aborts the whole call.
func (v *ValueVault) Withdraw(ctx context.Context, caller token.Address, amount sdkmath.Int, receiver, owner token.Address) (sdkmath.Int, error) {
	const op = "vault.withdraw"
	if err := v.acquire(op); err != nil {
		return sdkmath.ZeroInt(), err
	}
	defer v.release()

	shares, err := v.sharesForWithdraw(ctx, op, amount)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := v.payOut(ctx, op, caller, amount, shares, receiver, owner); err != nil {
		return sdkmath.ZeroInt(), err
	}

	log.Ctx(ctx).Debug().
		Str("vault", v.name).
		Str("amount", amount.String()).
		Str("shares", shares.String()).
		Msg("withdraw")
	return shares, nil
}

// Redeem burns exactly shares from owner and pays the floor-converted
// asset amount to receiver, with the same liquidity-pulling behavior as
// Withdraw.
func (v *ValueVault) Redeem(ctx context.Context, caller token.Address, shares sdkmath.Int, receiver, owner token.Address) (sdkmath.Int, error) {
	const op = "vault.redeem"
	if err := v.acquire(op); err != nil {
		return sdkmath.ZeroInt(), err
	}
	defer v.release()

	if !shares.IsPositive() {
		return sdkmath.ZeroInt(), types.NewErrorf(types.KindPrecondition, op, "shares must be positive")
	}
	assets, err := v.ConvertToAssets(ctx, shares)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if !assets.IsPositive() {
		return sdkmath.ZeroInt(), types.NewErrorf(types.KindPrecondition, op,
			"shares %s convert to zero assets", shares)
	}
	if err := v.payOut(ctx, op, caller, assets, shares, receiver, owner); err != nil {
		return sdkmath.ZeroInt(), err
	}

	log.Ctx(ctx).Debug().
		Str("vault", v.name).
		Str("shares", shares.String()).
		Str("assets", assets.String()).
		Msg("redeem")
	return assets, nil
}

func (v *ValueVault) sharesForWithdraw(ctx context.Context, op string, amount sdkmath.Int) (sdkmath.Int, error) {
	if !amount.IsPositive() {
		return sdkmath.ZeroInt(), types.NewErrorf(types.KindPrecondition, op, "amount must be positive")
	}
	supply := v.TotalSupply()
	if supply.IsZero() {
		return sdkmath.ZeroInt(), types.NewErrorf(types.KindPrecondition, op, "vault %s has no shares", v.name)
	}
	total, err := v.TotalAssets(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if !total.IsPositive() {
		return sdkmath.ZeroInt(), types.NewErrorf(types.KindPrecondition, op,
			"vault %s has shares outstanding but no assets", v.name)
	}
	// rounds up, in the pool's favor
	return num.MulDivCeil(amount, supply, total), nil
}

// payOut performs the shared withdraw/redeem tail: allowance, liquidity
// pull, burn and transfer, all-or-nothing.
func (v *ValueVault) payOut(ctx context.Context, op string, caller token.Address, amount, shares sdkmath.Int, receiver, owner token.Address) error {
	if caller.IsZero() || receiver.IsZero() || owner.IsZero() {
		return types.NewErrorf(types.KindPrecondition, op, "zero address")
	}
	if v.book.BalanceOf(v.shareToken, owner).LT(shares) {
		return types.NewErrorf(types.KindPrecondition, op,
			"owner %s holds fewer than %s shares", owner, shares)
	}

	snap := v.book.Snapshot()
	if caller != owner && !v.authz.IsAuthorized(caller, auth.CapMigrateAny) {
		if err := v.book.SpendAllowance(v.shareToken, owner, caller, shares); err != nil {
			return err
		}
	}

	idle := v.IdleBalance()
	if idle.LT(amount) {
		shortfall := amount.Sub(idle)
		received, err := v.source.Withdraw(ctx, v.asset, shortfall, v.addr)
		if err != nil {
			v.book.Restore(snap)
			return types.NewErrorf(types.KindLiquidity, op, "yield source withdraw failed: %s", err)
		}
		if received.LT(shortfall) {
			v.book.Restore(snap)
			return types.NewErrorf(types.KindLiquidity, op,
				"yield source returned %s of requested %s", received, shortfall)
		}
	}

	if err := v.book.Burn(v.shareToken, owner, shares); err != nil {
		v.book.Restore(snap)
		return err
	}
	if err := v.book.Transfer(v.asset, v.addr, receiver, amount); err != nil {
		v.book.Restore(snap)
		return err
	}
	return nil
}

// FeeCapture describes one completed fee collection.
type FeeCapture struct {
	Gain       sdkmath.Int
	FeeAssets  sdkmath.Int
	FeeShares  sdkmath.Int
	Checkpoint sdkmath.Int
}

// TakeFees checkpoints the vault value and mints fee shares on the gain
// since the last checkpoint. The first call only initializes the
// checkpoint: no fee is ever taken on principal. The checkpoint is set to
// the value captured before the fee mint moves the share price, so the
// fee does not compound on itself. The returned capture is nil when
// nothing was collected.
func (v *ValueVault) TakeFees(ctx context.Context, caller token.Address) (*FeeCapture, error) {
	const op = "vault.takeFees"
	if err := v.acquire(op); err != nil {
		return nil, err
	}
	defer v.release()

	if !v.authz.IsAuthorized(caller, auth.CapTakeFees) {
		return nil, types.NewErrorf(types.KindAuthorization, op, "%s may not take fees", caller)
	}

	current, err := v.TotalAssets(ctx)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.checkpointSet {
		v.checkpoint = current
		v.checkpointSet = true
		v.checkpointAt = v.now()
		log.Ctx(ctx).Info().
			Str("vault", v.name).
			Str("checkpoint", current.String()).
			Msg("fee checkpoint initialized")
		return nil, nil
	}

	var capture *FeeCapture
	if current.GT(v.checkpoint) {
		if v.feeRateBps > 0 {
			gain := current.Sub(v.checkpoint)
			feeAssets := num.BpsOf(gain, v.feeRateBps)
			if feeAssets.IsPositive() {
				supply := v.TotalSupply()
				feeShares := feeAssets
				if !supply.IsZero() {
					feeShares = num.MulDivFloor(feeAssets, supply, current)
				}
				if feeShares.IsPositive() {
					if err := v.book.Mint(v.shareToken, v.feeRecipient, feeShares); err != nil {
						return nil, err
					}
				}
				capture = &FeeCapture{
					Gain:       gain,
					FeeAssets:  feeAssets,
					FeeShares:  feeShares,
					Checkpoint: current,
				}
				log.Ctx(ctx).Info().
					Str("vault", v.name).
					Str("fee_assets", feeAssets.String()).
					Str("fee_shares", feeShares.String()).
					Str("checkpoint", current.String()).
					Msg("fees captured")
			}
		}
		// the high-water mark advances even at a zero rate; gains seen
		// while fees were off are never charged by a later rate change
		v.checkpoint = current
		v.checkpointAt = v.now()
	}
	return capture, nil
}

// SupplyToExternal moves amount of idle balance to the yield source.
func (v *ValueVault) SupplyToExternal(ctx context.Context, caller token.Address, amount sdkmath.Int) error {
	const op = "vault.supplyToExternal"
	if err := v.acquire(op); err != nil {
		return err
	}
	defer v.release()

	if !v.authz.IsAuthorized(caller, auth.CapManageVault) {
		return types.NewErrorf(types.KindAuthorization, op, "%s may not manage vault", caller)
	}
	if amount.IsZero() {
		return nil
	}
	if v.IdleBalance().LT(amount) {
		return types.NewErrorf(types.KindPrecondition, op,
			"idle balance below %s", amount)
	}
	if err := v.source.Supply(ctx, v.asset, amount, v.addr); err != nil {
		return types.NewErrorf(types.KindInternal, op, "yield source supply failed: %s", err)
	}
	return nil
}

// WithdrawFromExternal pulls amount back from the yield source into the
// idle balance.
func (v *ValueVault) WithdrawFromExternal(ctx context.Context, caller token.Address, amount sdkmath.Int) error {
	const op = "vault.withdrawFromExternal"
	if err := v.acquire(op); err != nil {
		return err
	}
	defer v.release()

	if !v.authz.IsAuthorized(caller, auth.CapManageVault) {
		return types.NewErrorf(types.KindAuthorization, op, "%s may not manage vault", caller)
	}
	if amount.IsZero() {
		return nil
	}
	snap := v.book.Snapshot()
	received, err := v.source.Withdraw(ctx, v.asset, amount, v.addr)
	if err != nil {
		v.book.Restore(snap)
		return types.NewErrorf(types.KindLiquidity, op, "yield source withdraw failed: %s", err)
	}
	if received.LT(amount) {
		v.book.Restore(snap)
		return types.NewErrorf(types.KindLiquidity, op,
			"yield source returned %s of requested %s", received, amount)
	}
	return nil
}

// SetFeeConfig replaces the fee rate and recipient.
func (v *ValueVault) SetFeeConfig(caller token.Address, rateBps uint32, recipient token.Address) error {
	const op = "vault.setFeeConfig"
	if !v.authz.IsAuthorized(caller, auth.CapManageVault) {
		return types.NewErrorf(types.KindAuthorization, op, "%s may not manage vault", caller)
	}
	if rateBps > num.BasisPoints {
		return types.NewErrorf(types.KindPrecondition, op, "fee rate %d above %d bps", rateBps, num.BasisPoints)
	}
	if recipient.IsZero() {
		return types.NewErrorf(types.KindPrecondition, op, "zero fee recipient")
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.feeRateBps = rateBps
	v.feeRecipient = recipient
	return nil
}

func (v *ValueVault) SetHalted(caller token.Address, halted bool) error {
	const op = "vault.setHalted"
	if !v.authz.IsAuthorized(caller, auth.CapHalt) {
		return types.NewErrorf(types.KindAuthorization, op, "%s may not halt", caller)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.halted = halted
	return nil
}

// State is the vault's scalar state captured for rollback.
type State struct {
	checkpoint    sdkmath.Int
	checkpointSet bool
	checkpointAt  time.Time
	halted        bool
}

func (v *ValueVault) SnapshotState() any {
	v.mu.Lock()
	defer v.mu.Unlock()
	return State{
		checkpoint:    v.checkpoint,
		checkpointSet: v.checkpointSet,
		checkpointAt:  v.checkpointAt,
		halted:        v.halted,
	}
}

func (v *ValueVault) RestoreState(s any) {
	st, ok := s.(State)
	if !ok {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.checkpoint = st.checkpoint
	v.checkpointSet = st.checkpointSet
	v.checkpointAt = st.checkpointAt
	v.halted = st.halted
}
