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
	"github.com/cap-blurr/AJEY-contracts/testutil"
)

func TestMigrations(t *testing.T) {
	ctx := context.Background()
	t.Cleanup(func() {
		resetDatabase(t)
	})

	owner := string(testutil.RandomAddress())

	t.Run("not found", func(t *testing.T) {
		_, err := testDB.GetMigration(ctx, uuid.NewString())
		require.Error(t, err)
		assert.True(t, db.IsNotFoundError(err))
	})

	t.Run("save and fetch by owner", func(t *testing.T) {
		base := time.Now().UTC().Truncate(time.Millisecond)

		first := &model.MigrationDocument{
			Id:           uuid.NewString(),
			Owner:        owner,
			Source:       "usdq-vault",
			Target:       "weth-vault",
			SharesBurned: "1000",
			AssetsOut:    "1000",
			AssetsIn:     "998",
			SharesMinted: "998",
			CrossAsset:   true,
			Timestamp:    base.Add(-time.Minute),
		}
		second := &model.MigrationDocument{
			Id:           uuid.NewString(),
			Owner:        owner,
			Source:       "weth-vault",
			Target:       "usdq-vault",
			SharesBurned: "500",
			AssetsOut:    "500",
			AssetsIn:     "500",
			SharesMinted: "500",
			Timestamp:    base,
		}
		require.NoError(t, testDB.SaveMigration(ctx, first))
		require.NoError(t, testDB.SaveMigration(ctx, second))

		got, err := testDB.GetMigration(ctx, first.Id)
		require.NoError(t, err)
		assert.Equal(t, first, got)

		docs, err := testDB.GetMigrationsByOwner(ctx, owner, 10)
		require.NoError(t, err)
		assert.Equal(t, []model.MigrationDocument{*second, *first}, docs)
	})

	t.Run("duplicate id rejected", func(t *testing.T) {
		doc := &model.MigrationDocument{
			Id:           uuid.NewString(),
			Owner:        owner,
			Source:       "usdq-vault",
			Target:       "usdq-strategy",
			SharesBurned: "1",
			AssetsOut:    "1",
			AssetsIn:     "1",
			SharesMinted: "1",
			Timestamp:    time.Now().UTC(),
		}
		require.NoError(t, testDB.SaveMigration(ctx, doc))

		err := testDB.SaveMigration(ctx, doc)
		require.Error(t, err)
		assert.True(t, db.IsDuplicateKeyError(err))
	})
}
