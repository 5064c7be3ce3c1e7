package models

// Event types published and consumed on the event bus.
const (
	EventSnapshotCreated   = "SNAPSHOT_CREATED"
	EventPositionAdded     = "POSITION_ADDED"
	EventPositionRemoved   = "POSITION_REMOVED"
	EventPositionsSnapshot = "POSITIONS_SNAPSHOT"
)

// Event is the envelope for all bus messages
type Event struct {
	EventType string      `json:"event_type"`
	Source    string      `json:"source"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// PositionsSnapshotEvent is an inbound full-portfolio sync for one user,
// typically produced by a broker import job
type PositionsSnapshotEvent struct {
	EventType string                `json:"event_type"`
	Source    string                `json:"source"`
	Timestamp string                `json:"timestamp"`
	Data      PositionsSnapshotData `json:"data"`
}

// PositionsSnapshotData carries the user and their full position list
type PositionsSnapshotData struct {
	UserID    int                `json:"user_id"`
	Positions []PositionSyncData `json:"positions"`
}

// PositionSyncData is a single position in a sync event. Numeric fields are
// strings on the wire, as upstream producers emit them.
type PositionSyncData struct {
	Symbol          string `json:"symbol"`
	Quantity        string `json:"quantity"`
	AverageBuyPrice string `json:"average_buy_price"`
	Exchange        string `json:"exchange,omitempty"`
}
