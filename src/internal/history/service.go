package history

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"scorely-session-svc/src/internal/cache"
	"scorely-session-svc/src/internal/config"
	"scorely-session-svc/src/internal/models"
)

// Auditor receives an audit event for every persisted match. May be nil.
type Auditor interface {
	PublishActivity(sessionID, deviceID, serviceName, action string) error
}

type Service interface {
	SaveMatch(ctx context.Context, match *Match) error
	GetMatchByID(ctx context.Context, id string) (*Match, error)
	GetMatchHistory(ctx context.Context, req *GetMatchHistoryRequest) (*GetMatchHistoryResponse, error)
	DeleteMatch(ctx context.Context, id string) error
	CreateLocation(ctx context.Context, location *Location) error
	GetLocations(ctx context.Context) ([]*Location, error)
	GetLocationStats(ctx context.Context, locationID string, days int) (*models.LocationStats, error)
}

type matchService struct {
	repository   Repository
	cacheService cache.Service
	auditor      Auditor
	cfg          *config.Configuration
}

func NewService(repository Repository, cacheService cache.Service, auditor Auditor, cfg *config.Configuration) Service {
	return &matchService{
		repository:   repository,
		cacheService: cacheService,
		auditor:      auditor,
		cfg:          cfg,
	}
}

func (s *matchService) SaveMatch(ctx context.Context, match *Match) error {
	if err := s.repository.SaveMatch(ctx, match); err != nil {
		return err
	}

	if s.auditor != nil {
		if err := s.auditor.PublishActivity(match.SessionID, "", models.ServiceHistory, models.ActionMatchPersisted); err != nil {
			logrus.WithError(err).Debug("Failed to publish match activity")
		}
	}

	return nil
}

func (s *matchService) GetMatchByID(ctx context.Context, id string) (*Match, error) {
	return s.repository.GetMatchByID(ctx, id)
}

func (s *matchService) GetMatchHistory(ctx context.Context, req *GetMatchHistoryRequest) (*GetMatchHistoryResponse, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	if req.Limit > 100 {
		req.Limit = 100
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	matches, totalCount, err := s.repository.GetMatchHistory(ctx, req)
	if err != nil {
		logrus.WithError(err).Error("Failed to get match history from repository")
		return nil, err
	}

	if matches == nil {
		matches = []*Match{}
	}

	return &GetMatchHistoryResponse{
		Matches:    matches,
		TotalCount: totalCount,
		Limit:      req.Limit,
		Offset:     req.Offset,
	}, nil
}

func (s *matchService) DeleteMatch(ctx context.Context, id string) error {
	return s.repository.DeleteMatch(ctx, id)
}

func (s *matchService) CreateLocation(ctx context.Context, location *Location) error {
	return s.repository.CreateLocation(ctx, location)
}

func (s *matchService) GetLocations(ctx context.Context) ([]*Location, error) {
	locations, err := s.repository.GetLocations(ctx)
	if err != nil {
		return nil, err
	}
	if locations == nil {
		locations = []*Location{}
	}
	return locations, nil
}

func (s *matchService) GetLocationStats(ctx context.Context, locationID string, days int) (*models.LocationStats, error) {
	if days <= 0 {
		days = 30
	}
	if days > 365 {
		days = 365
	}

	if s.cacheService != nil {
		cached, err := s.cacheService.GetLocationStats(ctx, locationID, days)
		if err == nil && cached != nil {
			logrus.WithField("location_id", locationID).Debug("Location stats served from cache")
			return cached, nil
		}
	}

	since := time.Now().AddDate(0, 0, -days)
	matches, err := s.repository.GetMatchesSince(ctx, locationID, since)
	if err != nil {
		return nil, err
	}

	stats := ComputeStats(matches)

	if s.cacheService != nil {
		if err := s.cacheService.SaveLocationStats(ctx, locationID, days, stats); err != nil {
			logrus.WithError(err).Debug("Failed to cache location stats")
		}
	}

	return stats, nil
}

// ComputeStats aggregates a set of finished matches.
func ComputeStats(matches []*Match) *models.LocationStats {
	stats := &models.LocationStats{
		TotalMatches: int64(len(matches)),
	}

	for _, m := range matches {
		stats.TotalDuration += m.Duration
		stats.TotalScores += int64(m.FinalScore.Team1 + m.FinalScore.Team2)
		switch m.Winner {
		case WinnerTeam1:
			stats.Team1Wins++
		case WinnerTeam2:
			stats.Team2Wins++
		default:
			stats.Draws++
		}
	}

	if stats.TotalMatches > 0 {
		stats.AverageDuration = stats.TotalDuration / stats.TotalMatches
	}

	return stats
}
