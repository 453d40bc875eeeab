package config

import (
	"errors"
	"fmt"
)

const maxBasisPoints = 10_000

// EngineConfig describes the pooled-asset topology the daemon assembles
// at startup: tokens, vaults, strategies, the donation ledger and the
// swap adapters available to the reallocation orchestrator.
type EngineConfig struct {
	Keeper     string           `mapstructure:"keeper"`
	Custody    string           `mapstructure:"custody"`
	Assets     []AssetConfig    `mapstructure:"assets"`
	Vaults     []VaultConfig    `mapstructure:"vaults"`
	Strategies []StrategyConfig `mapstructure:"strategies"`
	Ledger     LedgerConfig     `mapstructure:"ledger"`
	Adapters   []AdapterConfig  `mapstructure:"adapters"`
}

type AssetConfig struct {
	ID       string `mapstructure:"id"`
	Decimals uint8  `mapstructure:"decimals"`
}

type VaultConfig struct {
	Name         string `mapstructure:"name"`
	Asset        string `mapstructure:"asset"`
	ShareToken   string `mapstructure:"share-token"`
	Address      string `mapstructure:"address"`
	FeeRecipient string `mapstructure:"fee-recipient"`
	FeeRateBps   uint32 `mapstructure:"fee-rate-bps"`
	AutoDeploy   bool   `mapstructure:"auto-deploy"`
}

type StrategyConfig struct {
	Name       string `mapstructure:"name"`
	Asset      string `mapstructure:"asset"`
	ShareToken string `mapstructure:"share-token"`
	Address    string `mapstructure:"address"`
	Vault      string `mapstructure:"vault"`
	// SwapRateNum/SwapRateDen and MinOutBps configure a cross-asset
	// deployer when the strategy asset differs from the vault asset.
	SwapAdapter string `mapstructure:"swap-adapter"`
	SwapRateNum int64  `mapstructure:"swap-rate-num"`
	SwapRateDen int64  `mapstructure:"swap-rate-den"`
	MinOutBps   uint32 `mapstructure:"min-out-bps"`
}

type LedgerConfig struct {
	Address    string   `mapstructure:"address"`
	ShareToken string   `mapstructure:"share-token"`
	Preset     string   `mapstructure:"preset"`
	Recipients []string `mapstructure:"recipients"`
}

type AdapterConfig struct {
	ID      string `mapstructure:"id"`
	Address string `mapstructure:"address"`
	RateNum int64  `mapstructure:"rate-num"`
	RateDen int64  `mapstructure:"rate-den"`
	Allowed bool   `mapstructure:"allowed"`
}

func (cfg *EngineConfig) Validate() error {
	if cfg.Keeper == "" {
		return errors.New("engine keeper address cannot be empty")
	}
	if cfg.Custody == "" {
		return errors.New("engine custody address cannot be empty")
	}
	if len(cfg.Vaults) == 0 {
		return errors.New("engine requires at least one vault")
	}

	assets := make(map[string]struct{}, len(cfg.Assets))
	for _, a := range cfg.Assets {
		if a.ID == "" {
			return errors.New("asset id cannot be empty")
		}
		if _, ok := assets[a.ID]; ok {
			return fmt.Errorf("duplicate asset %q", a.ID)
		}
		assets[a.ID] = struct{}{}
	}

	vaults := make(map[string]struct{}, len(cfg.Vaults))
	for _, v := range cfg.Vaults {
		if v.Name == "" || v.Address == "" {
			return errors.New("vault name and address cannot be empty")
		}
		if _, ok := assets[v.Asset]; !ok {
			return fmt.Errorf("vault %q references unknown asset %q", v.Name, v.Asset)
		}
		if v.FeeRateBps > maxBasisPoints {
			return fmt.Errorf("vault %q fee rate %d exceeds %d bps", v.Name, v.FeeRateBps, maxBasisPoints)
		}
		if _, ok := vaults[v.Name]; ok {
			return fmt.Errorf("duplicate vault %q", v.Name)
		}
		vaults[v.Name] = struct{}{}
	}

	adapters := make(map[string]struct{}, len(cfg.Adapters))
	for _, a := range cfg.Adapters {
		if a.ID == "" || a.Address == "" {
			return errors.New("adapter id and address cannot be empty")
		}
		if a.RateNum <= 0 || a.RateDen <= 0 {
			return fmt.Errorf("adapter %q rate must be positive", a.ID)
		}
		if _, ok := adapters[a.ID]; ok {
			return fmt.Errorf("duplicate adapter %q", a.ID)
		}
		adapters[a.ID] = struct{}{}
	}

	if len(cfg.Strategies) > 0 && cfg.Ledger.Address == "" {
		return errors.New("strategies require a donation ledger")
	}

	for _, s := range cfg.Strategies {
		if s.Name == "" || s.Address == "" {
			return errors.New("strategy name and address cannot be empty")
		}
		if _, ok := assets[s.Asset]; !ok {
			return fmt.Errorf("strategy %q references unknown asset %q", s.Name, s.Asset)
		}
		if _, ok := vaults[s.Vault]; !ok {
			return fmt.Errorf("strategy %q references unknown vault %q", s.Name, s.Vault)
		}
		if s.SwapAdapter != "" {
			if _, ok := adapters[s.SwapAdapter]; !ok {
				return fmt.Errorf("strategy %q references unknown adapter %q", s.Name, s.SwapAdapter)
			}
			if s.SwapRateNum <= 0 || s.SwapRateDen <= 0 {
				return fmt.Errorf("strategy %q swap rate must be positive", s.Name)
			}
			if s.MinOutBps > maxBasisPoints {
				return fmt.Errorf("strategy %q min-out %d exceeds %d bps", s.Name, s.MinOutBps, maxBasisPoints)
			}
		}
	}

	if cfg.Ledger.Address != "" {
		switch cfg.Ledger.Preset {
		case "", "balanced", "concentrated", "uniform":
		default:
			return fmt.Errorf("unknown ledger preset %q", cfg.Ledger.Preset)
		}
		if cfg.Ledger.Preset != "" && len(cfg.Ledger.Recipients) != 3 {
			return fmt.Errorf("ledger preset %q requires exactly 3 recipients", cfg.Ledger.Preset)
		}
	}

	return nil
}
