package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/cap-blurr/AJEY-contracts/internal/db/model"
	"github.com/cap-blurr/AJEY-contracts/internal/observability/metrics"
	"github.com/cap-blurr/AJEY-contracts/internal/queue"
	"github.com/cap-blurr/AJEY-contracts/internal/realloc"
	"github.com/cap-blurr/AJEY-contracts/internal/token"
	"github.com/cap-blurr/AJEY-contracts/internal/types"
)

// Migrate runs a migration through the orchestrator and persists its
// summary. The migration itself is atomic; the audit record is written
// after the fact and its failure does not undo the migration.
func (s *Service) Migrate(ctx context.Context, caller token.Address, p realloc.MigrateParams) (*realloc.Summary, error) {
	summary, err := s.engine.Orchestrator.Migrate(ctx, caller, p)
	metrics.RecordMigration(err != nil)
	if err != nil {
		return nil, err
	}

	doc := &model.MigrationDocument{
		Id:           summary.ID,
		Owner:        string(summary.Owner),
		Source:       summary.Source,
		Target:       summary.Target,
		SharesBurned: summary.SharesBurned.String(),
		AssetsOut:    summary.AssetsOut.String(),
		AssetsIn:     summary.AssetsIn.String(),
		SharesMinted: summary.SharesMinted.String(),
		CrossAsset:   summary.CrossAsset,
		Timestamp:    summary.At.UTC(),
	}
	if err := s.db.SaveMigration(ctx, doc); err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("migration_id", summary.ID).
			Msg("failed to persist migration record")
	} else {
		s.publish(ctx, &queue.Event{
			Type:      types.EventTypeMigration,
			Subject:   summary.Source,
			Payload:   doc,
			Timestamp: doc.Timestamp,
		})
	}

	return summary, nil
}
