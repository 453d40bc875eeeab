package services

import (
	"fmt"
	"sort"

	"github.com/cap-blurr/AJEY-contracts/internal/auth"
	"github.com/cap-blurr/AJEY-contracts/internal/config"
	"github.com/cap-blurr/AJEY-contracts/internal/donation"
	"github.com/cap-blurr/AJEY-contracts/internal/realloc"
	"github.com/cap-blurr/AJEY-contracts/internal/strategy"
	"github.com/cap-blurr/AJEY-contracts/internal/swap"
	"github.com/cap-blurr/AJEY-contracts/internal/token"
	"github.com/cap-blurr/AJEY-contracts/internal/vault"
	"github.com/cap-blurr/AJEY-contracts/internal/yieldsource"
)

const (
	profileVault    = "vault"
	profileStrategy = "strategy"

	yieldSourceAddr token.Address = "yield-source"
)

var ledgerPresets = map[string]donation.Preset{
	"balanced":     donation.PresetBalanced,
	"concentrated": donation.PresetConcentrated,
	"uniform":      donation.PresetUniform,
}

// Engine is the assembled in-memory pool topology: one shared token book,
// the capability table, and every vault, strategy and adapter the config
// names, wired together and ready to serve.
type Engine struct {
	Book         *token.Book
	Auth         *auth.Table
	Source       *yieldsource.Simulated
	Vaults       map[string]*vault.ValueVault
	Strategies   map[string]*strategy.YieldStrategy
	Ledger       *donation.Ledger
	Registry     *realloc.Registry
	Orchestrator *realloc.Orchestrator

	Keeper  token.Address
	Custody token.Address
}

// VaultNames returns vault names in deterministic order.
func (e *Engine) VaultNames() []string {
	names := make([]string, 0, len(e.Vaults))
	for name := range e.Vaults {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StrategyNames returns strategy names in deterministic order.
func (e *Engine) StrategyNames() []string {
	names := make([]string, 0, len(e.Strategies))
	for name := range e.Strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildEngine constructs the full engine from a validated config.
func BuildEngine(cfg *config.EngineConfig) (*Engine, error) {
	book := token.NewBook()
	authTable := auth.NewTable()

	keeper := token.Address(cfg.Keeper)
	custody := token.Address(cfg.Custody)

	for _, capability := range []auth.Capability{
		auth.CapManageVault,
		auth.CapTakeFees,
		auth.CapReport,
		auth.CapReceiveShares,
		auth.CapConfigureLedger,
		auth.CapHalt,
	} {
		authTable.Grant(keeper, capability)
	}
	authTable.Grant(custody, auth.CapMigrateAny)
	authTable.Grant(custody, auth.CapReport)

	source := yieldsource.NewSimulated(book, yieldSourceAddr)
	meteredSource := yieldsource.NewSourceWithMetrics(source)

	adapters := make(map[string]*swap.FixedRate, len(cfg.Adapters))
	allowlist := swap.NewAllowlist()
	for _, a := range cfg.Adapters {
		adapters[a.ID] = swap.NewFixedRate(a.ID, token.Address(a.Address), book, a.RateNum, a.RateDen)
		if a.Allowed {
			allowlist.Allow(a.ID)
		}
	}

	registry := realloc.NewRegistry()

	vaults := make(map[string]*vault.ValueVault, len(cfg.Vaults))
	for _, vc := range cfg.Vaults {
		v := vault.New(vault.Config{
			Name:         vc.Name,
			Asset:        token.ID(vc.Asset),
			ShareToken:   token.ID(vc.ShareToken),
			Address:      token.Address(vc.Address),
			FeeRecipient: token.Address(vc.FeeRecipient),
			FeeRateBps:   vc.FeeRateBps,
			AutoDeploy:   vc.AutoDeploy,
		}, book, meteredSource, authTable)
		vaults[vc.Name] = v
		registry.Bind(profileVault, v)
	}

	var ledger *donation.Ledger
	if cfg.Ledger.Address != "" {
		ledger = donation.NewLedger(token.Address(cfg.Ledger.Address), book, authTable)
		if cfg.Ledger.Preset != "" {
			var addrs [3]token.Address
			for i, r := range cfg.Ledger.Recipients {
				addrs[i] = token.Address(r)
			}
			if err := ledger.ApplyPreset(keeper, ledgerPresets[cfg.Ledger.Preset], addrs); err != nil {
				return nil, fmt.Errorf("failed to apply ledger preset: %w", err)
			}
		}
	}

	strategies := make(map[string]*strategy.YieldStrategy, len(cfg.Strategies))
	for _, sc := range cfg.Strategies {
		vlt := vaults[sc.Vault]

		var (
			deployer strategy.Deployer
			err      error
		)
		if sc.SwapAdapter == "" {
			deployer, err = strategy.NewVaultDeployer(token.ID(sc.Asset), token.Address(sc.Address), vlt)
		} else {
			deployer, err = strategy.NewSwapDeployer(strategy.SwapDeployerConfig{
				Asset:        token.ID(sc.Asset),
				StrategyAddr: token.Address(sc.Address),
				Adapter:      adapters[sc.SwapAdapter],
				Allowlist:    allowlist,
				RateNum:      sc.SwapRateNum,
				RateDen:      sc.SwapRateDen,
				MinOutBps:    sc.MinOutBps,
			}, book, vlt)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to build deployer for strategy %s: %w", sc.Name, err)
		}

		var (
			notifier          strategy.DonationNotifier
			donationRecipient token.Address
		)
		if ledger != nil {
			notifier = ledger
			donationRecipient = token.Address(cfg.Ledger.Address)
		}

		st := strategy.New(strategy.Config{
			Name:              sc.Name,
			Asset:             token.ID(sc.Asset),
			ShareToken:        token.ID(sc.ShareToken),
			Address:           token.Address(sc.Address),
			DonationRecipient: donationRecipient,
		}, book, authTable, deployer, notifier)

		authTable.Grant(token.Address(sc.Address), auth.CapReceiveShares)
		strategies[sc.Name] = st
		registry.Bind(profileStrategy, st)
	}

	orchestrator := realloc.NewOrchestrator(custody, book, authTable, registry)
	for _, a := range cfg.Adapters {
		orchestrator.RegisterAdapter(adapters[a.ID])
		if a.Allowed {
			if err := orchestrator.AllowAdapter(keeper, a.ID); err != nil {
				return nil, fmt.Errorf("failed to allow adapter %s: %w", a.ID, err)
			}
		}
	}

	return &Engine{
		Book:         book,
		Auth:         authTable,
		Source:       source,
		Vaults:       vaults,
		Strategies:   strategies,
		Ledger:       ledger,
		Registry:     registry,
		Orchestrator: orchestrator,
		Keeper:       keeper,
		Custody:      custody,
	}, nil
}
