package services_test

import (
	"context"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cap-blurr/AJEY-contracts/internal/auth"
	"github.com/cap-blurr/AJEY-contracts/internal/config"
	"github.com/cap-blurr/AJEY-contracts/internal/services"
	"github.com/cap-blurr/AJEY-contracts/internal/token"
)

func engineConfig() *config.EngineConfig {
	return &config.EngineConfig{
		Keeper:  "keeper",
		Custody: "custody",
		Assets: []config.AssetConfig{
			{ID: "USDQ", Decimals: 6},
			{ID: "WETH", Decimals: 18},
		},
		Vaults: []config.VaultConfig{
			{
				Name: "usdq-vault", Asset: "USDQ", ShareToken: "vUSDQ",
				Address: "vault/usdq", FeeRecipient: "treasury",
				FeeRateBps: 1000, AutoDeploy: true,
			},
			{
				Name: "weth-vault", Asset: "WETH", ShareToken: "vWETH",
				Address: "vault/weth",
			},
		},
		Strategies: []config.StrategyConfig{
			{
				Name: "usdq-strategy", Asset: "USDQ", ShareToken: "sUSDQ",
				Address: "strategy/usdq", Vault: "usdq-vault",
			},
		},
		Ledger: config.LedgerConfig{
			Address: "ledger", ShareToken: "sUSDQ", Preset: "balanced",
			Recipients: []string{"npo-a", "npo-b", "npo-c"},
		},
		Adapters: []config.AdapterConfig{
			{ID: "fixed-usdq-weth", Address: "adapter/usdq-weth", RateNum: 1, RateDen: 2000, Allowed: true},
			{ID: "fixed-weth-usdq", Address: "adapter/weth-usdq", RateNum: 2000, RateDen: 1, Allowed: false},
		},
	}
}

func TestBuildEngine(t *testing.T) {
	cfg := engineConfig()
	require.NoError(t, cfg.Validate())

	engine, err := services.BuildEngine(cfg)
	require.NoError(t, err)

	t.Run("topology", func(t *testing.T) {
		assert.Equal(t, []string{"usdq-vault", "weth-vault"}, engine.VaultNames())
		assert.Equal(t, []string{"usdq-strategy"}, engine.StrategyNames())
		assert.Equal(t, token.Address("keeper"), engine.Keeper)
		assert.Equal(t, token.Address("custody"), engine.Custody)

		require.NotNil(t, engine.Ledger)
		recipients := engine.Ledger.Recipients()
		require.Len(t, recipients, 3)
		assert.Equal(t, uint64(40), recipients[0].Weight)
	})

	t.Run("grants", func(t *testing.T) {
		assert.True(t, engine.Auth.IsAuthorized("keeper", auth.CapManageVault))
		assert.True(t, engine.Auth.IsAuthorized("keeper", auth.CapTakeFees))
		assert.True(t, engine.Auth.IsAuthorized("keeper", auth.CapReport))
		// the keeper can re-run ledger accounting after a swallowed notify
		assert.True(t, engine.Auth.IsAuthorized("keeper", auth.CapReceiveShares))
		assert.True(t, engine.Auth.IsAuthorized("custody", auth.CapMigrateAny))
		assert.True(t, engine.Auth.IsAuthorized("strategy/usdq", auth.CapReceiveShares))
		assert.False(t, engine.Auth.IsAuthorized("custody", auth.CapManageVault))
	})

	t.Run("registry resolves both profiles", func(t *testing.T) {
		v, err := engine.Registry.Resolve("vault", "USDQ")
		require.NoError(t, err)
		assert.Equal(t, "usdq-vault", v.Name())

		s, err := engine.Registry.Resolve("strategy", "USDQ")
		require.NoError(t, err)
		assert.Equal(t, "usdq-strategy", s.Name())

		_, err = engine.Registry.Resolve("strategy", "WETH")
		require.Error(t, err)
	})

	t.Run("strategy reports flow through the ledger", func(t *testing.T) {
		ctx := context.Background()
		st := engine.Strategies["usdq-strategy"]

		require.NoError(t, engine.Book.Mint("USDQ", "alice", sdkmath.NewInt(1000)))
		_, err := st.Deposit(ctx, "alice", sdkmath.NewInt(1000), "alice")
		require.NoError(t, err)

		_, _, err = st.Report(ctx, engine.Keeper)
		require.NoError(t, err)

		// the vault auto-deployed, so yield accrues inside the source
		require.NoError(t, engine.Source.Accrue("USDQ", "vault/usdq", sdkmath.NewInt(100)))

		profit, loss, err := st.Report(ctx, engine.Keeper)
		require.NoError(t, err)
		assert.Equal(t, sdkmath.NewInt(100), profit)
		assert.True(t, loss.IsZero())

		assert.Equal(t, sdkmath.NewInt(40), engine.Ledger.Claimable("sUSDQ", "npo-a"))
		assert.Equal(t, sdkmath.NewInt(30), engine.Ledger.Claimable("sUSDQ", "npo-b"))
		assert.Equal(t, sdkmath.NewInt(30), engine.Ledger.Claimable("sUSDQ", "npo-c"))
	})
}
