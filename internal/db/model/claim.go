package model

import "time"

const ClaimCollection = "donation_claims"

type ClaimDocument struct {
	Id        string    `bson:"_id"` // Primary key, uuid
	Recipient string    `bson:"recipient"`
	Amount    string    `bson:"amount"`
	Timestamp time.Time `bson:"timestamp"`
}

func NewClaimDocument(id, recipient, amount string, ts time.Time) *ClaimDocument {
	return &ClaimDocument{
		Id:        id,
		Recipient: recipient,
		Amount:    amount,
		Timestamp: ts,
	}
}
