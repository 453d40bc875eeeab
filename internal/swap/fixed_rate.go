package swap

import (
	"context"
	"encoding/json"

	sdkmath "cosmossdk.io/math"

	"github.com/cap-blurr/AJEY-contracts/internal/num"
	"github.com/cap-blurr/AJEY-contracts/internal/token"
	"github.com/cap-blurr/AJEY-contracts/internal/types"
)

// Payload is the instruction format understood by the in-process
// adapters. Off-chain agents serialize it as JSON.
type Payload struct {
	FromAsset token.ID      `json:"from_asset"`
	ToAsset   token.ID      `json:"to_asset"`
	Owner     token.Address `json:"owner"`
	AmountIn  string        `json:"amount_in"`
}

// FixedRate swaps at a constant RateNum/RateDen price against its own
// inventory, drawing the input via the allowance the owner granted it.
// It exists for tests and the simulation wiring.
type FixedRate struct {
	id      string
	addr    token.Address
	book    *token.Book
	rateNum sdkmath.Int
	rateDen sdkmath.Int
}

func NewFixedRate(id string, addr token.Address, book *token.Book, rateNum, rateDen int64) *FixedRate {
	return &FixedRate{
		id:      id,
		addr:    addr,
		book:    book,
		rateNum: sdkmath.NewInt(rateNum),
		rateDen: sdkmath.NewInt(rateDen),
	}
}

func (f *FixedRate) ID() string {
	return f.id
}

func (f *FixedRate) Address() token.Address {
	return f.addr
}

func (f *FixedRate) Swap(ctx context.Context, payload []byte) error {
	const op = "swap.fixedRate"

	var p Payload
	if err := json.Unmarshal(payload, &p); err != nil {
		return types.NewErrorf(types.KindPrecondition, op, "malformed payload: %s", err)
	}
	amountIn, ok := sdkmath.NewIntFromString(p.AmountIn)
	if !ok || !amountIn.IsPositive() {
		return types.NewErrorf(types.KindPrecondition, op, "bad amount_in %q", p.AmountIn)
	}

	if err := f.book.SpendAllowance(p.FromAsset, p.Owner, f.addr, amountIn); err != nil {
		return err
	}
	if err := f.book.Transfer(p.FromAsset, p.Owner, f.addr, amountIn); err != nil {
		return err
	}

	amountOut := num.MulDivFloor(amountIn, f.rateNum, f.rateDen)
	// the adapter's inventory is unbounded in simulation
	if err := f.book.Mint(p.ToAsset, f.addr, amountOut); err != nil {
		return err
	}
	return f.book.Transfer(p.ToAsset, f.addr, p.Owner, amountOut)
}
