package yieldsource

import (
	"context"
	"sync"

	sdkmath "cosmossdk.io/math"

	"github.com/cap-blurr/AJEY-contracts/internal/num"
	"github.com/cap-blurr/AJEY-contracts/internal/token"
)

// Simulated is an in-process yield source backed by the token book. Each
// account's position is held at a derived custody address, so the whole
// source state participates in book snapshots and rollbacks. Withdraw
// treats `to` as the position owner; vaults only ever withdraw to
// themselves.
type Simulated struct {
	mu        sync.Mutex
	book      *token.Book
	addr      token.Address
	payoutBps uint32
}

func NewSimulated(book *token.Book, addr token.Address) *Simulated {
	return &Simulated{book: book, addr: addr, payoutBps: num.BasisPoints}
}

func (s *Simulated) positionAddr(account token.Address) token.Address {
	return s.addr + "/" + account
}

func (s *Simulated) Supply(ctx context.Context, asset token.ID, amount sdkmath.Int, onBehalfOf token.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if amount.IsZero() {
		return nil
	}
	return s.book.Transfer(asset, onBehalfOf, s.positionAddr(onBehalfOf), amount)
}

func (s *Simulated) Withdraw(ctx context.Context, asset token.ID, amount sdkmath.Int, to token.Address) (sdkmath.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if amount.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	pos := s.positionAddr(to)
	pay := sdkmath.MinInt(amount, s.book.BalanceOf(asset, pos))
	pay = num.BpsOf(pay, s.payoutBps)
	if pay.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	if err := s.book.Transfer(asset, pos, to, pay); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return pay, nil
}

func (s *Simulated) SuppliedBalance(ctx context.Context, asset token.ID, account token.Address) (sdkmath.Int, error) {
	return s.book.BalanceOf(asset, s.positionAddr(account)), nil
}

// Accrue mints simulated yield into account's position.
func (s *Simulated) Accrue(asset token.ID, account token.Address, amount sdkmath.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Mint(asset, s.positionAddr(account), amount)
}

// SetPayoutBps caps withdrawals to a fraction of the request, used to
// exercise liquidity-shortfall handling.
func (s *Simulated) SetPayoutBps(bps uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payoutBps = bps
}
