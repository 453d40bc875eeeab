package donation

import (
	"context"
	"sync"
	"sync/atomic"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/cap-blurr/AJEY-contracts/internal/auth"
	"github.com/cap-blurr/AJEY-contracts/internal/num"
	"github.com/cap-blurr/AJEY-contracts/internal/token"
	"github.com/cap-blurr/AJEY-contracts/internal/types"
)

// Recipient is one entry of the ordered beneficiary list.
type Recipient struct {
	Addr   token.Address
	Weight uint64
	Active bool
}

// Ledger splits credited share amounts across a weighted recipient list;
// recipients claim via pull. Accounting never exceeds the ledger's actual
// holdings, and configuration changes never retroactively alter balances
// that were already credited.
type Ledger struct {
	addr  token.Address
	book  *token.Book
	authz auth.Authorizer

	busy atomic.Bool

	mu         sync.Mutex
	recipients []Recipient
	accounted  map[token.ID]sdkmath.Int
	claimable  map[token.ID]map[token.Address]sdkmath.Int
}

func NewLedger(addr token.Address, book *token.Book, authz auth.Authorizer) *Ledger {
	return &Ledger{
		addr:      addr,
		book:      book,
		authz:     authz,
		accounted: make(map[token.ID]sdkmath.Int),
		claimable: make(map[token.ID]map[token.Address]sdkmath.Int),
	}
}

func (l *Ledger) Address() token.Address { return l.addr }

func (l *Ledger) acquire(op string) error {
	if !l.busy.CompareAndSwap(false, true) {
		return types.NewErrorf(types.KindPrecondition, op, "reentrant or overlapping call")
	}
	return nil
}

func (l *Ledger) release() {
	l.busy.Store(false)
}

// Recipients returns a copy of the current recipient list.
func (l *Ledger) Recipients() []Recipient {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Recipient, len(l.recipients))
	copy(out, l.recipients)
	return out
}

func (l *Ledger) Accounted(id token.ID) sdkmath.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if a, ok := l.accounted[id]; ok {
		return a
	}
	return sdkmath.ZeroInt()
}

func (l *Ledger) Claimable(id token.ID, recipient token.Address) sdkmath.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.claimableLocked(id, recipient)
}

func (l *Ledger) claimableLocked(id token.ID, recipient token.Address) sdkmath.Int {
	if holders, ok := l.claimable[id]; ok {
		if c, ok := holders[recipient]; ok {
			return c
		}
	}
	return sdkmath.ZeroInt()
}

// ReceiveShares credits amount of the given token across the active
// recipients by weight. The ledger must already hold the shares: the
// caller mints or transfers first, then accounts. Rounding remainders
// stay in the ledger's holdings without per-recipient tracking.
func (l *Ledger) ReceiveShares(ctx context.Context, caller token.Address, id token.ID, amount sdkmath.Int) error {
	const op = "donation.receiveShares"
	if err := l.acquire(op); err != nil {
		return err
	}
	defer l.release()

	if !l.authz.IsAuthorized(caller, auth.CapReceiveShares) {
		return types.NewErrorf(types.KindAuthorization, op, "%s may not credit shares", caller)
	}
	if !amount.IsPositive() {
		return types.NewErrorf(types.KindPrecondition, op, "amount must be positive")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	accounted := sdkmath.ZeroInt()
	if a, ok := l.accounted[id]; ok {
		accounted = a
	}
	held := l.book.BalanceOf(id, l.addr)
	if held.LT(accounted.Add(amount)) {
		return types.NewErrorf(types.KindPrecondition, op,
			"held balance %s below accounted %s plus credit %s", held, accounted, amount)
	}

	totalWeight := sdkmath.ZeroInt()
	for _, r := range l.recipients {
		if r.Active {
			totalWeight = totalWeight.AddRaw(int64(r.Weight))
		}
	}
	if !totalWeight.IsPositive() {
		return types.NewErrorf(types.KindPrecondition, op, "no active recipients")
	}

	holders, ok := l.claimable[id]
	if !ok {
		holders = make(map[token.Address]sdkmath.Int)
		l.claimable[id] = holders
	}
	for _, r := range l.recipients {
		if !r.Active {
			continue
		}
		share := num.MulDivFloor(amount, sdkmath.NewInt(int64(r.Weight)), totalWeight)
		if share.IsZero() {
			continue
		}
		cur := sdkmath.ZeroInt()
		if c, ok := holders[r.Addr]; ok {
			cur = c
		}
		holders[r.Addr] = cur.Add(share)
	}
	l.accounted[id] = accounted.Add(amount)

	log.Ctx(ctx).Info().
		Str("token", string(id)).
		Str("amount", amount.String()).
		Str("caller", string(caller)).
		Msg("shares credited to donation ledger")
	return nil
}

// Claim pays out the caller's claimable balance of the given token. The
// balance is zeroed before the transfer.
func (l *Ledger) Claim(ctx context.Context, caller token.Address, id token.ID) (sdkmath.Int, error) {
	const op = "donation.claim"
	if err := l.acquire(op); err != nil {
		return sdkmath.ZeroInt(), err
	}
	defer l.release()

	return l.claimLocked(ctx, op, caller, id)
}

// ClaimMultiple pays out the caller's claimable balances for every listed
// token, returning the amounts in input order. A failure on any token
// undoes the payouts already made for the earlier ones.
func (l *Ledger) ClaimMultiple(ctx context.Context, caller token.Address, ids []token.ID) ([]sdkmath.Int, error) {
	const op = "donation.claimMultiple"
	if err := l.acquire(op); err != nil {
		return nil, err
	}
	defer l.release()

	bookSnap := l.book.Snapshot()
	l.mu.Lock()
	accountedSnap, claimableSnap := l.snapshotAccountingLocked()
	l.mu.Unlock()

	out := make([]sdkmath.Int, 0, len(ids))
	for _, id := range ids {
		amount, err := l.claimLocked(ctx, op, caller, id)
		if err != nil {
			l.book.Restore(bookSnap)
			l.mu.Lock()
			l.accounted = accountedSnap
			l.claimable = claimableSnap
			l.mu.Unlock()
			return nil, err
		}
		out = append(out, amount)
	}
	return out, nil
}

func (l *Ledger) snapshotAccountingLocked() (map[token.ID]sdkmath.Int, map[token.ID]map[token.Address]sdkmath.Int) {
	accounted := make(map[token.ID]sdkmath.Int, len(l.accounted))
	for id, a := range l.accounted {
		accounted[id] = a
	}
	claimable := make(map[token.ID]map[token.Address]sdkmath.Int, len(l.claimable))
	for id, holders := range l.claimable {
		inner := make(map[token.Address]sdkmath.Int, len(holders))
		for addr, c := range holders {
			inner[addr] = c
		}
		claimable[id] = inner
	}
	return accounted, claimable
}

func (l *Ledger) claimLocked(ctx context.Context, op string, caller token.Address, id token.ID) (sdkmath.Int, error) {
	if caller.IsZero() {
		return sdkmath.ZeroInt(), types.NewErrorf(types.KindPrecondition, op, "zero address")
	}

	l.mu.Lock()
	amount := l.claimableLocked(id, caller)
	if amount.IsZero() {
		l.mu.Unlock()
		return sdkmath.ZeroInt(), nil
	}
	// zero before transfer
	delete(l.claimable[id], caller)
	l.accounted[id] = l.accounted[id].Sub(amount)
	l.mu.Unlock()

	if err := l.book.Transfer(id, l.addr, caller, amount); err != nil {
		l.mu.Lock()
		l.claimable[id][caller] = amount
		l.accounted[id] = l.accounted[id].Add(amount)
		l.mu.Unlock()
		return sdkmath.ZeroInt(), err
	}

	log.Ctx(ctx).Info().
		Str("token", string(id)).
		Str("recipient", string(caller)).
		Str("amount", amount.String()).
		Msg("donation claimed")
	return amount, nil
}

// SetRecipients replaces the whole recipient list. Already-credited
// claimable balances are untouched.
func (l *Ledger) SetRecipients(caller token.Address, recipients []Recipient) error {
	const op = "donation.setRecipients"
	if !l.authz.IsAuthorized(caller, auth.CapConfigureLedger) {
		return types.NewErrorf(types.KindAuthorization, op, "%s may not configure the ledger", caller)
	}
	for _, r := range recipients {
		if r.Addr.IsZero() {
			return types.NewErrorf(types.KindPrecondition, op, "zero recipient address")
		}
		if r.Active && r.Weight == 0 {
			return types.NewErrorf(types.KindPrecondition, op, "active recipient %s has zero weight", r.Addr)
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recipients = make([]Recipient, len(recipients))
	copy(l.recipients, recipients)
	return nil
}

// UpsertRecipient adds a recipient or updates the entry with the same
// address in place.
func (l *Ledger) UpsertRecipient(caller token.Address, r Recipient) error {
	const op = "donation.upsertRecipient"
	if !l.authz.IsAuthorized(caller, auth.CapConfigureLedger) {
		return types.NewErrorf(types.KindAuthorization, op, "%s may not configure the ledger", caller)
	}
	if r.Addr.IsZero() {
		return types.NewErrorf(types.KindPrecondition, op, "zero recipient address")
	}
	if r.Active && r.Weight == 0 {
		return types.NewErrorf(types.KindPrecondition, op, "active recipient %s has zero weight", r.Addr)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.recipients {
		if l.recipients[i].Addr == r.Addr {
			l.recipients[i] = r
			return nil
		}
	}
	l.recipients = append(l.recipients, r)
	return nil
}
