package cli

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cap-blurr/AJEY-contracts/internal/config"
	"github.com/cap-blurr/AJEY-contracts/internal/services"
)

func DumpStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump-state",
		Short: "Builds the engine from config and dumps its initial state",
		Args:  cobra.ExactArgs(0),
		RunE:  dumpState,
	}

	return cmd
}

type vaultState struct {
	Name       string
	Asset      string
	ShareToken string
	Supply     string
	Idle       string
}

type strategyState struct {
	Name       string
	Asset      string
	ShareToken string
	State      string
	Baseline   string
}

func dumpState(cmd *cobra.Command, args []string) error {
	cfgPath := GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg(fmt.Sprintf("error while loading config file: %s", cfgPath))
	}

	engine, err := services.BuildEngine(&cfg.Engine)
	if err != nil {
		return fmt.Errorf("error while building engine: %w", err)
	}

	vaults := make([]vaultState, 0, len(engine.Vaults))
	for _, name := range engine.VaultNames() {
		v := engine.Vaults[name]
		vaults = append(vaults, vaultState{
			Name:       v.Name(),
			Asset:      string(v.Asset()),
			ShareToken: string(v.ShareToken()),
			Supply:     v.TotalSupply().String(),
			Idle:       v.IdleBalance().String(),
		})
	}

	strategies := make([]strategyState, 0, len(engine.Strategies))
	for _, name := range engine.StrategyNames() {
		st := engine.Strategies[name]
		baseline, _ := st.Baseline()
		strategies = append(strategies, strategyState{
			Name:       st.Name(),
			Asset:      string(st.Asset()),
			ShareToken: string(st.ShareToken()),
			State:      st.TrackingState().String(),
			Baseline:   baseline.String(),
		})
	}

	spew.Dump(vaults)
	spew.Dump(strategies)
	if engine.Ledger != nil {
		spew.Dump(engine.Ledger.Recipients())
	}
	return nil
}
