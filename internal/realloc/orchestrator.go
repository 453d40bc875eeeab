package realloc

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cap-blurr/AJEY-contracts/internal/auth"
	"github.com/cap-blurr/AJEY-contracts/internal/num"
	"github.com/cap-blurr/AJEY-contracts/internal/swap"
	"github.com/cap-blurr/AJEY-contracts/internal/token"
	"github.com/cap-blurr/AJEY-contracts/internal/types"
)

// MigrateParams is the ephemeral description of one migration. It has no
// life beyond a single Migrate call.
type MigrateParams struct {
	Owner     token.Address
	Source    Entity
	Target    Entity
	Shares    sdkmath.Int
	AdapterID string
	Payload   []byte
	MinOut    sdkmath.Int
	Deadline  time.Time
}

// Summary is the single record emitted for a completed migration.
type Summary struct {
	ID           string
	Owner        token.Address
	Source       string
	Target       string
	SharesBurned sdkmath.Int
	AssetsOut    sdkmath.Int
	AssetsIn     sdkmath.Int
	SharesMinted sdkmath.Int
	CrossAsset   bool
	At           time.Time
}

// Orchestrator atomically moves a holder's position between entities,
// swapping through an allow-listed adapter when the assets differ. Any
// failure past the source withdrawal restores the book and both entities
// to their pre-migration state.
type Orchestrator struct {
	custody  token.Address
	book     *token.Book
	authz    auth.Authorizer
	registry *Registry

	adapterMu sync.RWMutex
	adapters  map[string]swap.Adapter
	allowlist *swap.Allowlist

	busy atomic.Bool
	now  func() time.Time
}

func NewOrchestrator(custody token.Address, book *token.Book, authz auth.Authorizer, registry *Registry) *Orchestrator {
	return &Orchestrator{
		custody:   custody,
		book:      book,
		authz:     authz,
		registry:  registry,
		adapters:  make(map[string]swap.Adapter),
		allowlist: swap.NewAllowlist(),
		now:       time.Now,
	}
}

func (o *Orchestrator) Custody() token.Address { return o.custody }
func (o *Orchestrator) Registry() *Registry    { return o.registry }

// RegisterAdapter makes an adapter known to the orchestrator. Known is
// not allowed: invocation additionally requires an AllowAdapter grant.
func (o *Orchestrator) RegisterAdapter(a swap.Adapter) {
	o.adapterMu.Lock()
	defer o.adapterMu.Unlock()
	o.adapters[a.ID()] = a
}

func (o *Orchestrator) AllowAdapter(caller token.Address, id string) error {
	const op = "realloc.allowAdapter"
	if !o.authz.IsAuthorized(caller, auth.CapManageVault) {
		return types.NewErrorf(types.KindAuthorization, op, "%s may not manage adapters", caller)
	}
	o.allowlist.Allow(id)
	return nil
}

func (o *Orchestrator) RevokeAdapter(caller token.Address, id string) error {
	const op = "realloc.revokeAdapter"
	if !o.authz.IsAuthorized(caller, auth.CapManageVault) {
		return types.NewErrorf(types.KindAuthorization, op, "%s may not manage adapters", caller)
	}
	o.allowlist.Revoke(id)
	return nil
}

// Migrate executes the full withdraw / optional swap / redeposit sequence
// as one all-or-nothing unit and returns its summary record.
func (o *Orchestrator) Migrate(ctx context.Context, caller token.Address, p MigrateParams) (*Summary, error) {
	const op = "realloc.migrate"
	if !o.busy.CompareAndSwap(false, true) {
		return nil, types.NewErrorf(types.KindPrecondition, op, "reentrant or overlapping call")
	}
	defer o.busy.Store(false)

	if p.Owner.IsZero() {
		return nil, types.NewErrorf(types.KindPrecondition, op, "zero owner")
	}
	if p.Source == nil || p.Target == nil {
		return nil, types.NewErrorf(types.KindPrecondition, op, "nil source or target")
	}
	if p.Source == p.Target {
		return nil, types.NewErrorf(types.KindPrecondition, op, "source and target are the same entity")
	}
	if !p.Shares.IsPositive() {
		return nil, types.NewErrorf(types.KindPrecondition, op, "share amount must be positive")
	}
	if caller != p.Owner && !o.authz.IsAuthorized(caller, auth.CapMigrateAny) {
		return nil, types.NewErrorf(types.KindAuthorization, op,
			"%s may not migrate %s's position", caller, p.Owner)
	}
	if o.now().After(p.Deadline) {
		return nil, types.NewErrorf(types.KindPrecondition, op, "deadline expired")
	}

	crossAsset := p.Source.Asset() != p.Target.Asset()
	var adapter swap.Adapter
	if crossAsset {
		o.adapterMu.RLock()
		adapter = o.adapters[p.AdapterID]
		o.adapterMu.RUnlock()
		if adapter == nil {
			return nil, types.NewErrorf(types.KindPrecondition, op, "unknown adapter %q", p.AdapterID)
		}
		if !o.allowlist.IsAllowed(p.AdapterID) {
			return nil, types.NewErrorf(types.KindPrecondition, op, "adapter %s is not allow-listed", p.AdapterID)
		}
	}

	// realize pending profit/loss before pricing the source's shares;
	// a failed report must not block the migration
	if r, ok := p.Source.(Reporter); ok {
		if _, _, err := r.Report(ctx, o.custody); err != nil {
			log.Ctx(ctx).Warn().Err(err).
				Str("source", p.Source.Name()).
				Msg("pre-migration report failed")
		}
	}

	supply := p.Source.TotalSupply()
	if !supply.IsPositive() {
		return nil, types.NewErrorf(types.KindPrecondition, op, "source %s has no shares", p.Source.Name())
	}
	total, err := p.Source.TotalAssets(ctx)
	if err != nil {
		return nil, err
	}
	assetsFrom := num.MulDivFloor(p.Shares, total, supply)
	if !assetsFrom.IsPositive() {
		return nil, types.NewErrorf(types.KindPrecondition, op,
			"%s shares of %s convert to zero assets", p.Shares, p.Source.Name())
	}

	bookSnap := o.book.Snapshot()
	sourceState := p.Source.SnapshotState()
	targetState := p.Target.SnapshotState()
	rollback := func() {
		o.book.Restore(bookSnap)
		p.Source.RestoreState(sourceState)
		p.Target.RestoreState(targetState)
	}

	sharesBurned, err := p.Source.Withdraw(ctx, o.custody, assetsFrom, o.custody, p.Owner)
	if err != nil {
		rollback()
		return nil, err
	}

	amountToDeposit := assetsFrom
	if crossAsset {
		targetAsset := p.Target.Asset()
		pre := o.book.BalanceOf(targetAsset, o.custody)
		if err := o.book.Approve(p.Source.Asset(), o.custody, adapter.Address(), assetsFrom); err != nil {
			rollback()
			return nil, err
		}
		if err := adapter.Swap(ctx, p.Payload); err != nil {
			rollback()
			return nil, types.NewErrorf(types.KindInternal, op, "adapter %s failed: %s", p.AdapterID, err)
		}
		// any residual allowance must not survive the call
		if err := o.book.Approve(p.Source.Asset(), o.custody, adapter.Address(), sdkmath.ZeroInt()); err != nil {
			rollback()
			return nil, err
		}
		received := o.book.BalanceOf(targetAsset, o.custody).Sub(pre)
		if received.LT(p.MinOut) {
			rollback()
			return nil, types.NewErrorf(types.KindSlippage, op,
				"swap returned %s below minimum %s", received, p.MinOut)
		}
		amountToDeposit = received
	}

	sharesMinted, err := p.Target.Deposit(ctx, o.custody, amountToDeposit, p.Owner)
	if err != nil {
		rollback()
		return nil, err
	}

	summary := &Summary{
		ID:           uuid.New().String(),
		Owner:        p.Owner,
		Source:       p.Source.Name(),
		Target:       p.Target.Name(),
		SharesBurned: sharesBurned,
		AssetsOut:    assetsFrom,
		AssetsIn:     amountToDeposit,
		SharesMinted: sharesMinted,
		CrossAsset:   crossAsset,
		At:           o.now(),
	}
	log.Ctx(ctx).Info().
		Str("migration_id", summary.ID).
		Str("owner", string(p.Owner)).
		Str("source", summary.Source).
		Str("target", summary.Target).
		Str("shares_burned", sharesBurned.String()).
		Str("assets_out", assetsFrom.String()).
		Str("assets_in", amountToDeposit.String()).
		Str("shares_minted", sharesMinted.String()).
		Msg("migration complete")
	return summary, nil
}
