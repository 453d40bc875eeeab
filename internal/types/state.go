package types

// Enum values for strategy tracking state
type StrategyState string

const (
	StrategyStateUninitialized StrategyState = "UNINITIALIZED"
	StrategyStateTracking      StrategyState = "TRACKING"
)

func (s StrategyState) String() string {
	return string(s)
}

// Enum values for engine event types published to the queue
type EventType string

const (
	EventTypeReport     EventType = "REPORT"
	EventTypeFeeCapture EventType = "FEE_CAPTURE"
	EventTypeMigration  EventType = "MIGRATION"
	EventTypeClaim      EventType = "CLAIM"
)

func (e EventType) String() string {
	return string(e)
}
