package session

import (
	"time"

	"scorely-session-svc/src/internal/models"
)

// Lifecycle statuses. Transitions are one-way: waiting -> running -> ended.
const (
	StatusWaiting = "waiting"
	StatusRunning = "running"
	StatusEnded   = "ended"
)

const (
	Team1 = 1
	Team2 = 2
)

// Session is the authoritative live-match record. It lives only in memory;
// durability is delegated to the retained state snapshots and, after the
// match ends, to the history collection.
type Session struct {
	ID               string               `json:"sessionId"`
	LocationID       string               `json:"locationId"`
	Status           string               `json:"status"`
	Score            models.Score         `json:"score"`
	PairedDevices    models.PairedDevices `json:"pairedDevices"`
	PairingOpen      bool                 `json:"pairingOpen"`
	PairingExpiresAt *time.Time           `json:"pairingExpiresAt,omitempty"`
	CreatedAt        time.Time            `json:"createdAt"`
	StartedAt        *time.Time           `json:"startedAt,omitempty"`
	EndedAt          *time.Time           `json:"endedAt,omitempty"`
}

// DeviceTeam reports which team a device is paired to, or 0 if unpaired.
func (s *Session) DeviceTeam(deviceID string) int {
	for _, id := range s.PairedDevices.Team1 {
		if id == deviceID {
			return Team1
		}
	}
	for _, id := range s.PairedDevices.Team2 {
		if id == deviceID {
			return Team2
		}
	}
	return 0
}

// TeamCounts returns current member counts for both teams.
func (s *Session) TeamCounts() (int, int) {
	return len(s.PairedDevices.Team1), len(s.PairedDevices.Team2)
}

// AddDevice appends a device to a team. Callers must check DeviceTeam first;
// a device belongs to at most one team for the session's lifetime.
func (s *Session) AddDevice(deviceID string, team int) {
	if team == Team1 {
		s.PairedDevices.Team1 = append(s.PairedDevices.Team1, deviceID)
		return
	}
	s.PairedDevices.Team2 = append(s.PairedDevices.Team2, deviceID)
}

// Snapshot builds the immutable state projection published on the state
// topic. Device lists are copied so later mutations cannot leak into an
// already-published snapshot.
func (s *Session) Snapshot() *models.StateSnapshot {
	team1 := make([]string, len(s.PairedDevices.Team1))
	copy(team1, s.PairedDevices.Team1)
	team2 := make([]string, len(s.PairedDevices.Team2))
	copy(team2, s.PairedDevices.Team2)

	return &models.StateSnapshot{
		SessionID: s.ID,
		Status:    s.Status,
		Score:     s.Score,
		PairedDevices: models.PairedDevices{
			Team1: team1,
			Team2: team2,
		},
		Timestamp: time.Now().UnixMilli(),
	}
}
