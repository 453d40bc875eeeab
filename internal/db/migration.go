package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cap-blurr/AJEY-contracts/internal/db/model"
)

func (db *Database) SaveMigration(ctx context.Context, doc *model.MigrationDocument) error {
	_, err := db.collection(model.MigrationCollection).InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &DuplicateKeyError{
				Key:     doc.Id,
				Message: "migration already recorded",
			}
		}
		return err
	}
	return nil
}

func (db *Database) GetMigration(ctx context.Context, id string) (*model.MigrationDocument, error) {
	filter := bson.M{"_id": id}

	var doc model.MigrationDocument
	err := db.collection(model.MigrationCollection).FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     id,
				Message: "migration not found",
			}
		}
		return nil, err
	}
	return &doc, nil
}

func (db *Database) GetMigrationsByOwner(ctx context.Context, owner string, limit int64) ([]model.MigrationDocument, error) {
	filter := bson.M{"owner": owner}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := db.collection(model.MigrationCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []model.MigrationDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}
