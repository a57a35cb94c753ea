package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"scorely-session-svc/src/internal/config"
	"scorely-session-svc/src/internal/models"
)

type Service interface {
	GetLocationStats(ctx context.Context, locationID string, days int) (*models.LocationStats, error)
	SaveLocationStats(ctx context.Context, locationID string, days int, stats *models.LocationStats) error
}

type cacheService struct {
	client *redis.Client
	cfg    *config.CacheConfig
}

func NewCacheService(client *redis.Client, cfg *config.Configuration) Service {
	return &cacheService{
		client: client,
		cfg:    &cfg.Cache,
	}
}

func (c *cacheService) GetLocationStats(ctx context.Context, locationID string, days int) (*models.LocationStats, error) {
	key := c.statsKey(locationID, days)

	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			logrus.WithField("key", key).Debug("Location stats not found in cache")
			return nil, nil // Not an error, just not found
		}
		logrus.WithError(err).WithField("key", key).Error("Failed to get location stats from cache")
		return nil, models.ErrRedisGet
	}

	var stats models.LocationStats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		logrus.WithError(err).WithField("key", key).Error("Failed to unmarshal location stats from cache")
		return nil, models.ErrRedisGet
	}

	logrus.WithField("key", key).Debug("Location stats retrieved from cache")
	return &stats, nil
}

func (c *cacheService) SaveLocationStats(ctx context.Context, locationID string, days int, stats *models.LocationStats) error {
	key := c.statsKey(locationID, days)

	data, err := json.Marshal(stats)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal location stats for cache")
		return models.ErrRedisSet
	}

	expiration := time.Duration(c.cfg.StatsExpirationMinutes) * time.Minute
	if err := c.client.Set(ctx, key, data, expiration).Err(); err != nil {
		logrus.WithError(err).WithField("key", key).Error("Failed to cache location stats")
		return models.ErrRedisSet
	}

	return nil
}

func (c *cacheService) statsKey(locationID string, days int) string {
	return c.cfg.StatsKeyPrefix + locationID + ":" + strconv.Itoa(days)
}
