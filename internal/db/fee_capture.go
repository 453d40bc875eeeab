package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cap-blurr/AJEY-contracts/internal/db/model"
)

func (db *Database) SaveFeeCapture(ctx context.Context, doc *model.FeeCaptureDocument) error {
	_, err := db.collection(model.FeeCaptureCollection).InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &DuplicateKeyError{
				Key:     doc.Id,
				Message: "fee capture already recorded",
			}
		}
		return err
	}
	return nil
}

func (db *Database) GetFeeCapturesByVault(ctx context.Context, vault string, limit int64) ([]model.FeeCaptureDocument, error) {
	filter := bson.M{"vault": vault}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := db.collection(model.FeeCaptureCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []model.FeeCaptureDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}
