package strategy

import (
	"context"
	"sync"
	"sync/atomic"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/cap-blurr/AJEY-contracts/internal/auth"
	"github.com/cap-blurr/AJEY-contracts/internal/num"
	"github.com/cap-blurr/AJEY-contracts/internal/observability/metrics"
	"github.com/cap-blurr/AJEY-contracts/internal/token"
	"github.com/cap-blurr/AJEY-contracts/internal/types"
	"github.com/cap-blurr/AJEY-contracts/internal/vault"
)

// DonationNotifier is the accounting hook invoked after donation shares
// are minted. Its failure is deliberately swallowed by Report: a
// misconfigured downstream ledger must never block profit realization.
type DonationNotifier interface {
	ReceiveShares(ctx context.Context, caller token.Address, id token.ID, amount sdkmath.Int) error
}

type Config struct {
	Name              string
	Asset             token.ID
	ShareToken        token.ID
	Address           token.Address
	DonationRecipient token.Address
}

// YieldStrategy wraps a single vault position behind its own share token.
// Each report compares the current value against the stored baseline and
// mints or burns donation shares for the delta. Fund movement is
// delegated to the Deployer variant chosen at construction.
type YieldStrategy struct {
	name              string
	asset             token.ID
	shareToken        token.ID
	addr              token.Address
	donationRecipient token.Address

	book     *token.Book
	authz    auth.Authorizer
	deployer Deployer
	notifier DonationNotifier

	busy atomic.Bool

	mu          sync.Mutex
	baseline    sdkmath.Int
	baselineSet bool
	halted      bool
}

func New(cfg Config, book *token.Book, authz auth.Authorizer, deployer Deployer, notifier DonationNotifier) *YieldStrategy {
	return &YieldStrategy{
		name:              cfg.Name,
		asset:             cfg.Asset,
		shareToken:        cfg.ShareToken,
		addr:              cfg.Address,
		donationRecipient: cfg.DonationRecipient,
		book:              book,
		authz:             authz,
		deployer:          deployer,
		notifier:          notifier,
		baseline:          sdkmath.ZeroInt(),
	}
}

func (s *YieldStrategy) Name() string             { return s.name }
func (s *YieldStrategy) Asset() token.ID          { return s.asset }
func (s *YieldStrategy) ShareToken() token.ID     { return s.shareToken }
func (s *YieldStrategy) Address() token.Address   { return s.addr }
func (s *YieldStrategy) TotalSupply() sdkmath.Int { return s.book.Supply(s.shareToken) }

func (s *YieldStrategy) IdleBalance() sdkmath.Int {
	return s.book.BalanceOf(s.asset, s.addr)
}

// Baseline returns the last reported baseline and whether the strategy
// has left the uninitialized state.
func (s *YieldStrategy) Baseline() (sdkmath.Int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseline, s.baselineSet
}

func (s *YieldStrategy) TrackingState() types.StrategyState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.baselineSet {
		return types.StrategyStateTracking
	}
	return types.StrategyStateUninitialized
}

func (s *YieldStrategy) acquire(op string) error {
	if !s.busy.CompareAndSwap(false, true) {
		return types.NewErrorf(types.KindPrecondition, op, "reentrant or overlapping call")
	}
	s.mu.Lock()
	halted := s.halted
	s.mu.Unlock()
	if halted {
		s.busy.Store(false)
		return types.NewErrorf(types.KindPrecondition, op, "strategy %s is halted", s.name)
	}
	return nil
}

func (s *YieldStrategy) release() {
	s.busy.Store(false)
}

// TotalAssets is the strategy's current value: idle balance plus the
// vault position valued through the deployer.
func (s *YieldStrategy) TotalAssets(ctx context.Context) (sdkmath.Int, error) {
	position, err := s.deployer.PositionValue(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return s.IdleBalance().Add(position), nil
}

// ConvertToShares previews the shares minted for an asset amount at the
// current share price, rounding down.
func (s *YieldStrategy) ConvertToShares(ctx context.Context, assets sdkmath.Int) (sdkmath.Int, error) {
	supply := s.TotalSupply()
	if supply.IsZero() {
		return assets, nil
	}
	total, err := s.TotalAssets(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if !total.IsPositive() {
		return sdkmath.ZeroInt(), types.NewErrorf(types.KindPrecondition, "strategy.convertToShares",
			"strategy %s has shares outstanding but no assets", s.name)
	}
	return num.MulDivFloor(assets, supply, total), nil
}

// ConvertToAssets previews the assets returned for a share amount,
// rounding down.
func (s *YieldStrategy) ConvertToAssets(ctx context.Context, shares sdkmath.Int) (sdkmath.Int, error) {
	supply := s.TotalSupply()
	if supply.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	total, err := s.TotalAssets(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return num.MulDivFloor(shares, total, supply), nil
}

// Report realizes the value delta since the last baseline. Profit mints
// donation shares to the donation recipient and best-effort notifies the
// ledger; loss burns from the donation recipient's unclaimed shares
// before ever touching depositor principal. The first report only
// initializes the baseline. The baseline is unconditionally set to the
// current value at the end.
func (s *YieldStrategy) Report(ctx context.Context, caller token.Address) (sdkmath.Int, sdkmath.Int, error) {
	const op = "strategy.report"
	zero := sdkmath.ZeroInt()
	if err := s.acquire(op); err != nil {
		return zero, zero, err
	}
	defer s.release()

	if !s.authz.IsAuthorized(caller, auth.CapReport) {
		return zero, zero, types.NewErrorf(types.KindAuthorization, op, "%s may not report", caller)
	}

	current, err := s.TotalAssets(ctx)
	if err != nil {
		return zero, zero, err
	}

	s.mu.Lock()
	baseline, baselineSet := s.baseline, s.baselineSet
	s.mu.Unlock()

	if !baselineSet {
		s.setBaseline(current)
		log.Ctx(ctx).Info().
			Str("strategy", s.name).
			Str("baseline", current.String()).
			Msg("baseline initialized")
		return zero, zero, nil
	}

	profit, loss := zero, zero
	supply := s.TotalSupply()

	switch {
	case current.GT(baseline):
		profit = current.Sub(baseline)
		if supply.IsPositive() && baseline.IsPositive() {
			donationShares := num.MulDivFloor(profit, supply, baseline)
			if donationShares.IsPositive() {
				if err := s.book.Mint(s.shareToken, s.donationRecipient, donationShares); err != nil {
					return zero, zero, err
				}
				s.notifyLedger(ctx, donationShares)
			}
		}
	case current.LT(baseline):
		loss = baseline.Sub(current)
		if supply.IsPositive() && baseline.IsPositive() {
			toBurn := sdkmath.MinInt(
				num.MulDivFloor(loss, supply, baseline),
				s.book.BalanceOf(s.shareToken, s.donationRecipient),
			)
			if toBurn.IsPositive() {
				if err := s.book.Burn(s.shareToken, s.donationRecipient, toBurn); err != nil {
					return zero, zero, err
				}
			}
		}
	}

	s.setBaseline(current)
	log.Ctx(ctx).Info().
		Str("strategy", s.name).
		Str("profit", profit.String()).
		Str("loss", loss.String()).
		Str("baseline", current.String()).
		Msg("report")
	return profit, loss, nil
}

func (s *YieldStrategy) setBaseline(v sdkmath.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseline = v
	s.baselineSet = true
}

// notifyLedger is the single best-effort boundary of the engine: any
// downstream failure is logged and counted, never propagated. Shares the
// ledger already holds can be re-accounted by an administrator later.
func (s *YieldStrategy) notifyLedger(ctx context.Context, shares sdkmath.Int) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.ReceiveShares(ctx, s.addr, s.shareToken, shares); err != nil {
		metrics.IncDonationNotifyFailures()
		log.Ctx(ctx).Warn().Err(err).
			Str("strategy", s.name).
			Str("shares", shares.String()).
			Msg("donation ledger notify failed; shares remain held but unaccounted")
	}
}

// Deposit mints strategy shares for amount of the asset and deploys the
// resulting idle balance through the deployer.
func (s *YieldStrategy) Deposit(ctx context.Context, caller token.Address, amount sdkmath.Int, receiver token.Address) (sdkmath.Int, error) {
	const op = "strategy.deposit"
	if err := s.acquire(op); err != nil {
		return sdkmath.ZeroInt(), err
	}
	defer s.release()

	if caller.IsZero() || receiver.IsZero() {
		return sdkmath.ZeroInt(), types.NewErrorf(types.KindPrecondition, op, "zero address")
	}
	if !amount.IsPositive() {
		return sdkmath.ZeroInt(), types.NewErrorf(types.KindPrecondition, op, "amount must be positive")
	}

	total, err := s.TotalAssets(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	supply := s.TotalSupply()

	var shares sdkmath.Int
	if supply.IsZero() {
		shares = amount
	} else {
		if !total.IsPositive() {
			return sdkmath.ZeroInt(), types.NewErrorf(types.KindPrecondition, op,
				"strategy %s has shares outstanding but no value", s.name)
		}
		shares = num.MulDivFloor(amount, supply, total)
	}
	if !shares.IsPositive() {
		return sdkmath.ZeroInt(), types.NewErrorf(types.KindPrecondition, op,
			"amount %s converts to zero shares", amount)
	}

	snap := s.book.Snapshot()
	if err := s.book.Transfer(s.asset, caller, s.addr, amount); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := s.book.Mint(s.shareToken, receiver, shares); err != nil {
		s.book.Restore(snap)
		return sdkmath.ZeroInt(), err
	}
	if err := s.deployer.Deploy(ctx, s.IdleBalance()); err != nil {
		s.book.Restore(snap)
		return sdkmath.ZeroInt(), err
	}

	log.Ctx(ctx).Debug().
		Str("strategy", s.name).
		Str("amount", amount.String()).
		Str("shares", shares.String()).
		Msg("deposit")
	return shares, nil
}

// Withdraw pays amount of the asset to receiver, burning owner's strategy
// shares rounded up and freeing funds through the deployer on shortfall.
func (s *YieldStrategy) Withdraw(ctx context.Context, caller token.Address, amount sdkmath.Int, receiver, owner token.Address) (sdkmath.Int, error) {
	const op = "strategy.withdraw"
	if err := s.acquire(op); err != nil {
		return sdkmath.ZeroInt(), err
	}
	defer s.release()

	if caller.IsZero() || receiver.IsZero() || owner.IsZero() {
		return sdkmath.ZeroInt(), types.NewErrorf(types.KindPrecondition, op, "zero address")
	}
	if !amount.IsPositive() {
		return sdkmath.ZeroInt(), types.NewErrorf(types.KindPrecondition, op, "amount must be positive")
	}
	supply := s.TotalSupply()
	if supply.IsZero() {
		return sdkmath.ZeroInt(), types.NewErrorf(types.KindPrecondition, op, "strategy %s has no shares", s.name)
	}
	total, err := s.TotalAssets(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if !total.IsPositive() {
		return sdkmath.ZeroInt(), types.NewErrorf(types.KindPrecondition, op,
			"strategy %s has shares outstanding but no value", s.name)
	}

	shares := num.MulDivCeil(amount, supply, total)
	if s.book.BalanceOf(s.shareToken, owner).LT(shares) {
		return sdkmath.ZeroInt(), types.NewErrorf(types.KindPrecondition, op,
			"owner %s holds fewer than %s shares", owner, shares)
	}

	snap := s.book.Snapshot()
	if caller != owner && !s.authz.IsAuthorized(caller, auth.CapMigrateAny) {
		if err := s.book.SpendAllowance(s.shareToken, owner, caller, shares); err != nil {
			return sdkmath.ZeroInt(), err
		}
	}

	idle := s.IdleBalance()
	if idle.LT(amount) {
		shortfall := amount.Sub(idle)
		freed, err := s.deployer.Free(ctx, shortfall)
		if err != nil {
			s.book.Restore(snap)
			return sdkmath.ZeroInt(), err
		}
		if freed.LT(shortfall) {
			s.book.Restore(snap)
			return sdkmath.ZeroInt(), types.NewErrorf(types.KindLiquidity, op,
				"freed %s of required %s", freed, shortfall)
		}
	}

	if err := s.book.Burn(s.shareToken, owner, shares); err != nil {
		s.book.Restore(snap)
		return sdkmath.ZeroInt(), err
	}
	if err := s.book.Transfer(s.asset, s.addr, receiver, amount); err != nil {
		s.book.Restore(snap)
		return sdkmath.ZeroInt(), err
	}

	log.Ctx(ctx).Debug().
		Str("strategy", s.name).
		Str("amount", amount.String()).
		Str("shares", shares.String()).
		Msg("withdraw")
	return shares, nil
}

// SetVault replaces the bound vault. The deployer enforces asset
// compatibility for its variant.
func (s *YieldStrategy) SetVault(caller token.Address, v *vault.ValueVault) error {
	const op = "strategy.setVault"
	if !s.authz.IsAuthorized(caller, auth.CapManageVault) {
		return types.NewErrorf(types.KindAuthorization, op, "%s may not rebind the vault", caller)
	}
	return s.deployer.Rebind(v)
}

func (s *YieldStrategy) SetHalted(caller token.Address, halted bool) error {
	const op = "strategy.setHalted"
	if !s.authz.IsAuthorized(caller, auth.CapHalt) {
		return types.NewErrorf(types.KindAuthorization, op, "%s may not halt", caller)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.halted = halted
	return nil
}

// State is the strategy's scalar state captured for rollback.
type State struct {
	baseline    sdkmath.Int
	baselineSet bool
	halted      bool
}

func (s *YieldStrategy) SnapshotState() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{baseline: s.baseline, baselineSet: s.baselineSet, halted: s.halted}
}

func (s *YieldStrategy) RestoreState(st any) {
	state, ok := st.(State)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseline = state.baseline
	s.baselineSet = state.baselineSet
	s.halted = state.halted
}
