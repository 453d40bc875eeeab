package token

import (
	"sync"

	sdkmath "cosmossdk.io/math"

	"github.com/cap-blurr/AJEY-contracts/internal/types"
)

// Address identifies a holder of balances. The empty address is invalid as
// a sender or receiver and is used as the burn/mint counterparty.
type Address string

// ID identifies a fungible token. Underlying assets and the share tokens
// issued by vaults and strategies all live in the same book under their
// own IDs.
type ID string

const ZeroAddress Address = ""

func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// Book is the in-memory fungible token ledger shared by every engine
// component. It is the single serialization point for balance mutations;
// each method is atomic on its own, multi-step operations are made atomic
// by the owning component via Snapshot/Restore.
type Book struct {
	mu         sync.Mutex
	balances   map[ID]map[Address]sdkmath.Int
	supply     map[ID]sdkmath.Int
	allowances map[ID]map[Address]map[Address]sdkmath.Int
}

func NewBook() *Book {
	return &Book{
		balances:   make(map[ID]map[Address]sdkmath.Int),
		supply:     make(map[ID]sdkmath.Int),
		allowances: make(map[ID]map[Address]map[Address]sdkmath.Int),
	}
}

func (b *Book) BalanceOf(id ID, addr Address) sdkmath.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balanceOf(id, addr)
}

func (b *Book) balanceOf(id ID, addr Address) sdkmath.Int {
	if holders, ok := b.balances[id]; ok {
		if bal, ok := holders[addr]; ok {
			return bal
		}
	}
	return sdkmath.ZeroInt()
}

func (b *Book) Supply(id ID) sdkmath.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.supply[id]; ok {
		return s
	}
	return sdkmath.ZeroInt()
}

func (b *Book) setBalance(id ID, addr Address, amount sdkmath.Int) {
	holders, ok := b.balances[id]
	if !ok {
		holders = make(map[Address]sdkmath.Int)
		b.balances[id] = holders
	}
	if amount.IsZero() {
		delete(holders, addr)
		return
	}
	holders[addr] = amount
}

func (b *Book) Mint(id ID, to Address, amount sdkmath.Int) error {
	const op = "token.mint"
	b.mu.Lock()
	defer b.mu.Unlock()

	if to.IsZero() {
		return types.NewErrorf(types.KindPrecondition, op, "mint to zero address")
	}
	if amount.IsNegative() {
		return types.NewErrorf(types.KindPrecondition, op, "negative amount %s", amount)
	}
	supply := sdkmath.ZeroInt()
	if s, ok := b.supply[id]; ok {
		supply = s
	}
	b.supply[id] = supply.Add(amount)
	b.setBalance(id, to, b.balanceOf(id, to).Add(amount))
	return nil
}

func (b *Book) Burn(id ID, from Address, amount sdkmath.Int) error {
	const op = "token.burn"
	b.mu.Lock()
	defer b.mu.Unlock()

	if from.IsZero() {
		return types.NewErrorf(types.KindPrecondition, op, "burn from zero address")
	}
	if amount.IsNegative() {
		return types.NewErrorf(types.KindPrecondition, op, "negative amount %s", amount)
	}
	bal := b.balanceOf(id, from)
	if bal.LT(amount) {
		return types.NewErrorf(types.KindPrecondition, op,
			"insufficient balance of %s: have %s, need %s", id, bal, amount)
	}
	b.supply[id] = b.supply[id].Sub(amount)
	b.setBalance(id, from, bal.Sub(amount))
	return nil
}

func (b *Book) Transfer(id ID, from, to Address, amount sdkmath.Int) error {
	const op = "token.transfer"
	b.mu.Lock()
	defer b.mu.Unlock()

	if from.IsZero() || to.IsZero() {
		return types.NewErrorf(types.KindPrecondition, op, "zero address")
	}
	if amount.IsNegative() {
		return types.NewErrorf(types.KindPrecondition, op, "negative amount %s", amount)
	}
	bal := b.balanceOf(id, from)
	if bal.LT(amount) {
		return types.NewErrorf(types.KindPrecondition, op,
			"insufficient balance of %s: have %s, need %s", id, bal, amount)
	}
	b.setBalance(id, from, bal.Sub(amount))
	b.setBalance(id, to, b.balanceOf(id, to).Add(amount))
	return nil
}

func (b *Book) Allowance(id ID, owner, spender Address) sdkmath.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if owners, ok := b.allowances[id]; ok {
		if spenders, ok := owners[owner]; ok {
			if a, ok := spenders[spender]; ok {
				return a
			}
		}
	}
	return sdkmath.ZeroInt()
}

func (b *Book) Approve(id ID, owner, spender Address, amount sdkmath.Int) error {
	const op = "token.approve"
	b.mu.Lock()
	defer b.mu.Unlock()

	if owner.IsZero() || spender.IsZero() {
		return types.NewErrorf(types.KindPrecondition, op, "zero address")
	}
	if amount.IsNegative() {
		return types.NewErrorf(types.KindPrecondition, op, "negative amount %s", amount)
	}
	owners, ok := b.allowances[id]
	if !ok {
		owners = make(map[Address]map[Address]sdkmath.Int)
		b.allowances[id] = owners
	}
	spenders, ok := owners[owner]
	if !ok {
		spenders = make(map[Address]sdkmath.Int)
		owners[owner] = spenders
	}
	if amount.IsZero() {
		delete(spenders, spender)
	} else {
		spenders[spender] = amount
	}
	return nil
}

// SpendAllowance consumes amount from the allowance owner granted spender.
func (b *Book) SpendAllowance(id ID, owner, spender Address, amount sdkmath.Int) error {
	const op = "token.spendAllowance"
	b.mu.Lock()
	defer b.mu.Unlock()

	cur := sdkmath.ZeroInt()
	if owners, ok := b.allowances[id]; ok {
		if spenders, ok := owners[owner]; ok {
			if a, ok := spenders[spender]; ok {
				cur = a
			}
		}
	}
	if cur.LT(amount) {
		return types.NewErrorf(types.KindAuthorization, op,
			"insufficient allowance of %s from %s to %s: have %s, need %s",
			id, owner, spender, cur, amount)
	}
	rest := cur.Sub(amount)
	if rest.IsZero() {
		delete(b.allowances[id][owner], spender)
	} else {
		b.allowances[id][owner][spender] = rest
	}
	return nil
}

// Snapshot captures the full book state. The returned snapshot is
// detached from the live book and can be restored more than once.
type Snapshot struct {
	balances   map[ID]map[Address]sdkmath.Int
	supply     map[ID]sdkmath.Int
	allowances map[ID]map[Address]map[Address]sdkmath.Int
}

func (b *Book) Snapshot() *Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := &Snapshot{
		balances:   make(map[ID]map[Address]sdkmath.Int, len(b.balances)),
		supply:     make(map[ID]sdkmath.Int, len(b.supply)),
		allowances: make(map[ID]map[Address]map[Address]sdkmath.Int, len(b.allowances)),
	}
	for id, holders := range b.balances {
		cp := make(map[Address]sdkmath.Int, len(holders))
		for addr, bal := range holders {
			cp[addr] = bal
		}
		snap.balances[id] = cp
	}
	for id, s := range b.supply {
		snap.supply[id] = s
	}
	for id, owners := range b.allowances {
		ocp := make(map[Address]map[Address]sdkmath.Int, len(owners))
		for owner, spenders := range owners {
			scp := make(map[Address]sdkmath.Int, len(spenders))
			for spender, a := range spenders {
				scp[spender] = a
			}
			ocp[owner] = scp
		}
		snap.allowances[id] = ocp
	}
	return snap
}

func (b *Book) Restore(snap *Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.balances = make(map[ID]map[Address]sdkmath.Int, len(snap.balances))
	for id, holders := range snap.balances {
		cp := make(map[Address]sdkmath.Int, len(holders))
		for addr, bal := range holders {
			cp[addr] = bal
		}
		b.balances[id] = cp
	}
	b.supply = make(map[ID]sdkmath.Int, len(snap.supply))
	for id, s := range snap.supply {
		b.supply[id] = s
	}
	b.allowances = make(map[ID]map[Address]map[Address]sdkmath.Int, len(snap.allowances))
	for id, owners := range snap.allowances {
		ocp := make(map[Address]map[Address]sdkmath.Int, len(owners))
		for owner, spenders := range owners {
			scp := make(map[Address]sdkmath.Int, len(spenders))
			for spender, a := range spenders {
				scp[spender] = a
			}
			ocp[owner] = scp
		}
		b.allowances[id] = ocp
	}
}
