package model

import "time"

const FeeCaptureCollection = "fee_captures"

type FeeCaptureDocument struct {
	Id              string    `bson:"_id"` // Primary key, uuid
	Vault           string    `bson:"vault"`
	GainAssets      string    `bson:"gain_assets"`
	FeeAssets       string    `bson:"fee_assets"`
	FeeShares       string    `bson:"fee_shares"`
	CheckpointAfter string    `bson:"checkpoint_after"`
	Timestamp       time.Time `bson:"timestamp"`
}

func NewFeeCaptureDocument(id, vault, gainAssets, feeAssets, feeShares, checkpointAfter string, ts time.Time) *FeeCaptureDocument {
	return &FeeCaptureDocument{
		Id:              id,
		Vault:           vault,
		GainAssets:      gainAssets,
		FeeAssets:       feeAssets,
		FeeShares:       feeShares,
		CheckpointAfter: checkpointAfter,
		Timestamp:       ts,
	}
}
