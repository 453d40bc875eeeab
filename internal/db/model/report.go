package model

import "time"

const ReportCollection = "strategy_reports"

// ReportDocument records a single strategy report outcome. Amounts are
// stored as decimal strings to preserve arbitrary precision.
type ReportDocument struct {
	Id            string    `bson:"_id"` // Primary key, uuid
	Strategy      string    `bson:"strategy"`
	Profit        string    `bson:"profit"`
	Loss          string    `bson:"loss"`
	BaselineAfter string    `bson:"baseline_after"`
	Timestamp     time.Time `bson:"timestamp"`
}

func NewReportDocument(id, strategy, profit, loss, baselineAfter string, ts time.Time) *ReportDocument {
	return &ReportDocument{
		Id:            id,
		Strategy:      strategy,
		Profit:        profit,
		Loss:          loss,
		BaselineAfter: baselineAfter,
		Timestamp:     ts,
	}
}
