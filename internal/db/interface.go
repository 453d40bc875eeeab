package db

import (
	"context"

	"github.com/cap-blurr/AJEY-contracts/internal/db/model"
)

type DbInterface interface {
	Ping(ctx context.Context) error

	SaveReport(ctx context.Context, doc *model.ReportDocument) error
	GetLatestReport(ctx context.Context, strategy string) (*model.ReportDocument, error)
	GetReportsByStrategy(ctx context.Context, strategy string, limit int64) ([]model.ReportDocument, error)

	SaveFeeCapture(ctx context.Context, doc *model.FeeCaptureDocument) error
	GetFeeCapturesByVault(ctx context.Context, vault string, limit int64) ([]model.FeeCaptureDocument, error)

	SaveMigration(ctx context.Context, doc *model.MigrationDocument) error
	GetMigration(ctx context.Context, id string) (*model.MigrationDocument, error)
	GetMigrationsByOwner(ctx context.Context, owner string, limit int64) ([]model.MigrationDocument, error)

	SaveClaim(ctx context.Context, doc *model.ClaimDocument) error
	GetClaimsByRecipient(ctx context.Context, recipient string, limit int64) ([]model.ClaimDocument, error)
}
