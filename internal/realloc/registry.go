package realloc

import (
	"context"
	"sync"

	sdkmath "cosmossdk.io/math"

	"github.com/cap-blurr/AJEY-contracts/internal/token"
	"github.com/cap-blurr/AJEY-contracts/internal/types"
)

// Entity is a share-issuing pool the orchestrator can migrate positions
// between. Both ValueVault and YieldStrategy satisfy it.
type Entity interface {
	Name() string
	Asset() token.ID
	ShareToken() token.ID
	TotalAssets(ctx context.Context) (sdkmath.Int, error)
	TotalSupply() sdkmath.Int
	Deposit(ctx context.Context, caller token.Address, amount sdkmath.Int, receiver token.Address) (sdkmath.Int, error)
	Withdraw(ctx context.Context, caller token.Address, amount sdkmath.Int, receiver, owner token.Address) (sdkmath.Int, error)
	SnapshotState() any
	RestoreState(state any)
}

// Reporter is implemented by entities whose value must be realized before
// their shares are priced.
type Reporter interface {
	Report(ctx context.Context, caller token.Address) (sdkmath.Int, sdkmath.Int, error)
}

// Registry is the explicit profile -> asset -> entity table owned by the
// orchestrator.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]map[token.ID]Entity
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]map[token.ID]Entity)}
}

func (r *Registry) Bind(profile string, e Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	assets, ok := r.entries[profile]
	if !ok {
		assets = make(map[token.ID]Entity)
		r.entries[profile] = assets
	}
	assets[e.Asset()] = e
}

func (r *Registry) Resolve(profile string, asset token.ID) (Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if assets, ok := r.entries[profile]; ok {
		if e, ok := assets[asset]; ok {
			return e, nil
		}
	}
	return nil, types.NewErrorf(types.KindPrecondition, "realloc.resolve",
		"no entity bound for profile %s asset %s", profile, asset)
}
