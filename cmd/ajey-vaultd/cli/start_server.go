package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cap-blurr/AJEY-contracts/internal/config"
	"github.com/cap-blurr/AJEY-contracts/internal/db"
	dbmodel "github.com/cap-blurr/AJEY-contracts/internal/db/model"
	"github.com/cap-blurr/AJEY-contracts/internal/observability/metrics"
	"github.com/cap-blurr/AJEY-contracts/internal/observability/tracing"
	"github.com/cap-blurr/AJEY-contracts/internal/queue"
	"github.com/cap-blurr/AJEY-contracts/internal/services"
)

func StartServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start-server",
		Short: "Starts the pooled vault engine",
		Args:  cobra.ExactArgs(0),
		RunE:  startServer,
	}

	return cmd
}

func startServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ctx = tracing.InjectTraceID(ctx)
	log := log.Ctx(ctx)

	// load config
	cfgPath := GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg(fmt.Sprintf("error while loading config file: %s", cfgPath))
	}

	err = dbmodel.Setup(ctx, &cfg.Db)
	if err != nil {
		log.Fatal().Err(err).Msg("error while setting up audit db model")
	}

	// create new db client
	var dbClient db.DbInterface
	dbClient, err = db.New(ctx, cfg.Db)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating db client")
	}
	dbClient = db.NewDbWithMetrics(dbClient)

	qm, err := queue.NewQueueManager(&cfg.Queue)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize queue manager")
	}
	defer qm.Shutdown()

	engine, err := services.BuildEngine(&cfg.Engine)
	if err != nil {
		log.Fatal().Err(err).Msg("error while building engine")
	}

	service := services.NewService(cfg, dbClient, engine, qm)

	// initialize metrics with the metrics port from config
	metricsPort := cfg.Metrics.GetMetricsPort()
	metrics.Init(metricsPort)

	service.StartEngineSync(ctx)
	return nil
}
