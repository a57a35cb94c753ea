package history

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"scorely-session-svc/src/internal/models"
)

// Winner values stored on finished matches.
const (
	WinnerTeam1 = "team1"
	WinnerTeam2 = "team2"
	WinnerDraw  = "draw"
)

// Match is the durable record of a finished session.
type Match struct {
	ID            primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	SessionID     string               `json:"sessionId" bson:"session_id"`
	LocationID    string               `json:"locationId" bson:"location_id"`
	StartedAt     time.Time            `json:"startedAt" bson:"started_at"`
	EndedAt       time.Time            `json:"endedAt" bson:"ended_at"`
	Duration      int64                `json:"duration" bson:"duration"`
	FinalScore    models.Score         `json:"finalScore" bson:"final_score"`
	Winner        string               `json:"winner" bson:"winner"`
	PairedDevices models.PairedDevices `json:"pairedDevices" bson:"paired_devices"`
	CreatedAt     time.Time            `json:"createdAt" bson:"created_at"`
}

// Location is a venue matches are played at.
type Location struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Address   string    `json:"address,omitempty" bson:"address,omitempty"`
	Active    bool      `json:"active" bson:"active"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// GetMatchHistoryRequest carries the history query filters.
type GetMatchHistoryRequest struct {
	LocationID string `json:"locationId" form:"locationId"`
	Limit      int    `json:"limit" form:"limit"`
	Offset     int    `json:"offset" form:"offset"`
	OrderBy    string `json:"orderBy" form:"orderBy"`
	Order      string `json:"order" form:"order"`
}

// GetMatchHistoryResponse wraps a page of matches.
type GetMatchHistoryResponse struct {
	Matches    []*Match `json:"matches"`
	TotalCount int64    `json:"totalCount"`
	Limit      int      `json:"limit"`
	Offset     int      `json:"offset"`
}

// WinnerOf derives the winner label from a final score.
func WinnerOf(score models.Score) string {
	switch {
	case score.Team1 > score.Team2:
		return WinnerTeam1
	case score.Team2 > score.Team1:
		return WinnerTeam2
	default:
		return WinnerDraw
	}
}
