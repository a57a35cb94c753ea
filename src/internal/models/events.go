package models

// Score event actions sent by bracelets.
const (
	ActionIncrement = "increment"
	ActionDecrement = "decrement"
	ActionReset     = "reset"
)

// Session lifecycle commands.
const (
	CommandStart        = "start"
	CommandStop         = "stop"
	CommandReset        = "reset"
	CommandRequestState = "request_state"
	CommandOpenPairing  = "open_pairing"
)

// ScoreEvent is a single button press from a bracelet. Timestamp is the
// device-side epoch millis and doubles as the deduplication key together
// with DeviceID.
type ScoreEvent struct {
	DeviceID  string `json:"deviceId"`
	Team      int    `json:"team"`
	Action    string `json:"action"`
	Timestamp int64  `json:"timestamp"`
	EventID   string `json:"eventId,omitempty"`
}

// Command is a lifecycle or pairing-control message on session/{id}/command.
type Command struct {
	Action   string `json:"action"`
	Duration int64  `json:"duration,omitempty"`
}

// PairingRequest arrives on the shared pairing/request channel.
type PairingRequest struct {
	DeviceID  string `json:"deviceId"`
	Timestamp int64  `json:"timestamp"`
}

// PairingResponse is sent directly to pairing/response/{deviceId}.
type PairingResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"sessionId,omitempty"`
	Team      int    `json:"team,omitempty"`
	Topic     string `json:"topic,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Score holds both team counters.
type Score struct {
	Team1 int `json:"team1"`
	Team2 int `json:"team2"`
}

// PairedDevices lists device ids per team.
type PairedDevices struct {
	Team1 []string `json:"team1"`
	Team2 []string `json:"team2"`
}

// StateSnapshot is the retained state message published on
// session/{id}/state after every accepted mutation.
type StateSnapshot struct {
	SessionID     string        `json:"sessionId"`
	Status        string        `json:"status"`
	Score         Score         `json:"score"`
	PairedDevices PairedDevices `json:"pairedDevices"`
	Timestamp     int64         `json:"timestamp"`
}
