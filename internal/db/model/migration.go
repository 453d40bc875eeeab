package model

import "time"

const MigrationCollection = "migrations"

type MigrationDocument struct {
	Id           string    `bson:"_id"` // Primary key, uuid
	Owner        string    `bson:"owner"`
	Source       string    `bson:"source"`
	Target       string    `bson:"target"`
	SharesBurned string    `bson:"shares_burned"`
	AssetsOut    string    `bson:"assets_out"`
	AssetsIn     string    `bson:"assets_in"`
	SharesMinted string    `bson:"shares_minted"`
	CrossAsset   bool      `bson:"cross_asset"`
	Timestamp    time.Time `bson:"timestamp"`
}
