package model

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cap-blurr/AJEY-contracts/internal/config"
)

var collections = map[string][]mongo.IndexModel{
	ReportCollection: {
		{Keys: bson.D{{Key: "strategy", Value: 1}, {Key: "timestamp", Value: -1}}},
	},
	FeeCaptureCollection: {
		{Keys: bson.D{{Key: "vault", Value: 1}, {Key: "timestamp", Value: -1}}},
	},
	MigrationCollection: {
		{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "timestamp", Value: -1}}},
	},
	ClaimCollection: {
		{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "timestamp", Value: -1}}},
	},
}

// Setup creates the collections and indexes used by the audit store.
// It is idempotent and safe to run on every startup.
func Setup(ctx context.Context, cfg *config.DbConfig) error {
	credential := options.Credential{
		Username: cfg.Username,
		Password: cfg.Password,
	}
	clientOps := options.Client().ApplyURI(cfg.Address).SetAuth(credential)
	client, err := mongo.Connect(ctx, clientOps)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Disconnect(ctx)
	}()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	database := client.Database(cfg.DbName)
	for name, indexes := range collections {
		if err := createCollection(ctx, database, name); err != nil {
			return err
		}
		if len(indexes) > 0 {
			if _, err := database.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
				return err
			}
		}
	}

	return nil
}

func createCollection(ctx context.Context, database *mongo.Database, name string) error {
	// CreateCollection returns NamespaceExists on reruns, which is fine
	err := database.CreateCollection(ctx, name)
	if err == nil {
		return nil
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Name == "NamespaceExists" {
		return nil
	}
	return err
}
