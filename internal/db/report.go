package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cap-blurr/AJEY-contracts/internal/db/model"
)

func (db *Database) SaveReport(ctx context.Context, doc *model.ReportDocument) error {
	_, err := db.collection(model.ReportCollection).InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &DuplicateKeyError{
				Key:     doc.Id,
				Message: "report already recorded",
			}
		}
		return err
	}
	return nil
}

func (db *Database) GetLatestReport(ctx context.Context, strategy string) (*model.ReportDocument, error) {
	filter := bson.M{"strategy": strategy}
	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}})

	var doc model.ReportDocument
	err := db.collection(model.ReportCollection).FindOne(ctx, filter, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     strategy,
				Message: "no report found for strategy",
			}
		}
		return nil, err
	}
	return &doc, nil
}

func (db *Database) GetReportsByStrategy(ctx context.Context, strategy string, limit int64) ([]model.ReportDocument, error) {
	filter := bson.M{"strategy": strategy}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := db.collection(model.ReportCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []model.ReportDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}
