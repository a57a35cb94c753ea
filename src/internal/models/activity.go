package models

import "time"

// ActivityMessage is the audit record published to the RabbitMQ exchange.
// Dropped score events never get a response on the wire, so this is the
// only operational trace of throttling.
type ActivityMessage struct {
	SessionID   string            `json:"session_id,omitempty"`
	DeviceID    string            `json:"device_id,omitempty"`
	ServiceName string            `json:"service_name"`
	Action      string            `json:"action"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Activity action constants
const (
	ActionEventDuplicate   = "event_duplicate"
	ActionEventRateLimited = "event_rate_limited"
	ActionEventTeamReject  = "event_team_rejected"
	ActionEventUnknownSess = "event_unknown_session"
	ActionMatchPersisted   = "match_persisted"
	ActionDevicePaired     = "device_paired"
)

// Service name constants
const (
	ServiceDispatcher = "session.dispatcher"
	ServiceScoring    = "session.scoring"
	ServicePairing    = "session.pairing"
	ServiceHistory    = "session.history"
)
