package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/cap-blurr/AJEY-contracts/internal/config"
	"github.com/cap-blurr/AJEY-contracts/internal/db"
	"github.com/cap-blurr/AJEY-contracts/internal/queue"
)

type Service struct {
	cfg          *config.Config
	db           db.DbInterface
	engine       *Engine
	queueManager *queue.QueueManager
}

func NewService(
	cfg *config.Config,
	db db.DbInterface,
	engine *Engine,
	qm *queue.QueueManager,
) *Service {
	return &Service{
		cfg:          cfg,
		db:           db,
		engine:       engine,
		queueManager: qm,
	}
}

func (s *Service) Engine() *Engine {
	return s.engine
}

// StartEngineSync launches the report and fee pollers and blocks until
// the context is cancelled.
func (s *Service) StartEngineSync(ctx context.Context) {
	s.StartReportPoller(ctx)
	s.StartFeePoller(ctx)

	<-ctx.Done()
	log.Ctx(ctx).Info().Msg("engine sync stopped")
}
