package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cap-blurr/AJEY-contracts/internal/db/model"
)

func (db *Database) SaveClaim(ctx context.Context, doc *model.ClaimDocument) error {
	_, err := db.collection(model.ClaimCollection).InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &DuplicateKeyError{
				Key:     doc.Id,
				Message: "claim already recorded",
			}
		}
		return err
	}
	return nil
}

func (db *Database) GetClaimsByRecipient(ctx context.Context, recipient string, limit int64) ([]model.ClaimDocument, error) {
	filter := bson.M{"recipient": recipient}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := db.collection(model.ClaimCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []model.ClaimDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}
