package swap

import (
	"context"
	"sync"

	"github.com/cap-blurr/AJEY-contracts/internal/token"
)

// Adapter executes an externally-constructed swap. The payload is opaque
// to the engine: callers verify only the balance delta of the output
// asset, never payload correctness.
type Adapter interface {
	ID() string
	Address() token.Address
	Swap(ctx context.Context, payload []byte) error
}

// Allowlist is the explicit set of adapters the orchestrator may invoke.
type Allowlist struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

func NewAllowlist(ids ...string) *Allowlist {
	l := &Allowlist{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		l.ids[id] = struct{}{}
	}
	return l
}

func (l *Allowlist) Allow(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids[id] = struct{}{}
}

func (l *Allowlist) Revoke(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.ids, id)
}

func (l *Allowlist) IsAllowed(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.ids[id]
	return ok
}
