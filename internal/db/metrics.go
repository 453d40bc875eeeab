package db

import (
	"context"
	"time"

	"github.com/cap-blurr/AJEY-contracts/internal/db/model"
	"github.com/cap-blurr/AJEY-contracts/internal/observability/metrics"
)

type DbWithMetrics struct {
	db DbInterface
}

func NewDbWithMetrics(db DbInterface) *DbWithMetrics {
	return &DbWithMetrics{db: db}
}

func (d *DbWithMetrics) Ping(ctx context.Context) error {
	return d.db.Ping(ctx)
}

func (d *DbWithMetrics) SaveReport(ctx context.Context, doc *model.ReportDocument) error {
	return d.run("SaveReport", func() error {
		return d.db.SaveReport(ctx, doc)
	})
}

func (d *DbWithMetrics) GetLatestReport(ctx context.Context, strategy string) (result *model.ReportDocument, err error) {
	//nolint:errcheck
	d.run("GetLatestReport", func() error {
		result, err = d.db.GetLatestReport(ctx, strategy)
		return err
	})
	return
}

func (d *DbWithMetrics) GetReportsByStrategy(ctx context.Context, strategy string, limit int64) (result []model.ReportDocument, err error) {
	//nolint:errcheck
	d.run("GetReportsByStrategy", func() error {
		result, err = d.db.GetReportsByStrategy(ctx, strategy, limit)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveFeeCapture(ctx context.Context, doc *model.FeeCaptureDocument) error {
	return d.run("SaveFeeCapture", func() error {
		return d.db.SaveFeeCapture(ctx, doc)
	})
}

func (d *DbWithMetrics) GetFeeCapturesByVault(ctx context.Context, vault string, limit int64) (result []model.FeeCaptureDocument, err error) {
	//nolint:errcheck
	d.run("GetFeeCapturesByVault", func() error {
		result, err = d.db.GetFeeCapturesByVault(ctx, vault, limit)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveMigration(ctx context.Context, doc *model.MigrationDocument) error {
	return d.run("SaveMigration", func() error {
		return d.db.SaveMigration(ctx, doc)
	})
}

func (d *DbWithMetrics) GetMigration(ctx context.Context, id string) (result *model.MigrationDocument, err error) {
	//nolint:errcheck
	d.run("GetMigration", func() error {
		result, err = d.db.GetMigration(ctx, id)
		return err
	})
	return
}

func (d *DbWithMetrics) GetMigrationsByOwner(ctx context.Context, owner string, limit int64) (result []model.MigrationDocument, err error) {
	//nolint:errcheck
	d.run("GetMigrationsByOwner", func() error {
		result, err = d.db.GetMigrationsByOwner(ctx, owner, limit)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveClaim(ctx context.Context, doc *model.ClaimDocument) error {
	return d.run("SaveClaim", func() error {
		return d.db.SaveClaim(ctx, doc)
	})
}

func (d *DbWithMetrics) GetClaimsByRecipient(ctx context.Context, recipient string, limit int64) (result []model.ClaimDocument, err error) {
	//nolint:errcheck
	d.run("GetClaimsByRecipient", func() error {
		result, err = d.db.GetClaimsByRecipient(ctx, recipient, limit)
		return err
	})
	return
}

func (d *DbWithMetrics) run(method string, f func() error) error {
	start := time.Now()
	err := f()
	metrics.RecordDbLatency(time.Since(start), method, err != nil)
	return err
}
