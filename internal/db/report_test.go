//go:build integration

package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cap-blurr/AJEY-contracts/internal/db"
	"github.com/cap-blurr/AJEY-contracts/internal/db/model"
)

func TestReports(t *testing.T) {
	ctx := context.Background()
	t.Cleanup(func() {
		resetDatabase(t)
	})

	t.Run("no reports", func(t *testing.T) {
		_, err := testDB.GetLatestReport(ctx, "usdq-strategy")
		require.Error(t, err)
		assert.True(t, db.IsNotFoundError(err))
	})

	t.Run("latest report wins", func(t *testing.T) {
		base := time.Now().UTC().Truncate(time.Millisecond)

		older := model.NewReportDocument(uuid.NewString(), "usdq-strategy", "100", "0", "1100", base.Add(-time.Hour))
		newer := model.NewReportDocument(uuid.NewString(), "usdq-strategy", "0", "40", "1060", base)
		other := model.NewReportDocument(uuid.NewString(), "weth-strategy", "7", "0", "507", base)

		for _, doc := range []*model.ReportDocument{older, newer, other} {
			require.NoError(t, testDB.SaveReport(ctx, doc))
		}

		latest, err := testDB.GetLatestReport(ctx, "usdq-strategy")
		require.NoError(t, err)
		assert.Equal(t, newer, latest)

		docs, err := testDB.GetReportsByStrategy(ctx, "usdq-strategy", 10)
		require.NoError(t, err)
		assert.Equal(t, []model.ReportDocument{*newer, *older}, docs)
	})

	t.Run("duplicate id rejected", func(t *testing.T) {
		doc := model.NewReportDocument(uuid.NewString(), "usdq-strategy", "5", "0", "1065", time.Now().UTC())
		require.NoError(t, testDB.SaveReport(ctx, doc))

		err := testDB.SaveReport(ctx, doc)
		require.Error(t, err)
		assert.True(t, db.IsDuplicateKeyError(err))
	})
}
