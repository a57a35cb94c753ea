package models

// LocationStats aggregates finished matches at one location over a period.
type LocationStats struct {
	TotalMatches    int64 `json:"totalMatches"`
	TotalDuration   int64 `json:"totalDuration"`
	AverageDuration int64 `json:"averageDuration"`
	TotalScores     int64 `json:"totalScores"`
	Team1Wins       int64 `json:"team1Wins"`
	Team2Wins       int64 `json:"team2Wins"`
	Draws           int64 `json:"draws"`
}
