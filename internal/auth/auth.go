package auth

import (
	"sync"

	"github.com/cap-blurr/AJEY-contracts/internal/token"
)

// Capability names a privileged action a principal may be granted.
type Capability string

const (
	CapManageVault     Capability = "MANAGE_VAULT"
	CapTakeFees        Capability = "TAKE_FEES"
	CapReport          Capability = "REPORT"
	CapReceiveShares   Capability = "RECEIVE_SHARES"
	CapConfigureLedger Capability = "CONFIGURE_LEDGER"
	CapMigrateAny      Capability = "MIGRATE_ANY"
	CapHalt            Capability = "HALT"
)

func (c Capability) String() string {
	return string(c)
}

// Authorizer is the opaque capability predicate injected into every
// component. Granting and revoking are administration concerns; components
// only ever ask the question.
type Authorizer interface {
	IsAuthorized(principal token.Address, capability Capability) bool
}

// Table is an explicit (capability, principal) grant table.
type Table struct {
	mu     sync.RWMutex
	grants map[Capability]map[token.Address]struct{}
}

func NewTable() *Table {
	return &Table{grants: make(map[Capability]map[token.Address]struct{})}
}

func (t *Table) Grant(principal token.Address, capability Capability) {
	t.mu.Lock()
	defer t.mu.Unlock()
	principals, ok := t.grants[capability]
	if !ok {
		principals = make(map[token.Address]struct{})
		t.grants[capability] = principals
	}
	principals[principal] = struct{}{}
}

func (t *Table) Revoke(principal token.Address, capability Capability) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if principals, ok := t.grants[capability]; ok {
		delete(principals, principal)
	}
}

func (t *Table) IsAuthorized(principal token.Address, capability Capability) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if principals, ok := t.grants[capability]; ok {
		_, ok := principals[principal]
		return ok
	}
	return false
}
