package history

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"scorely-session-svc/src/clients"
	"scorely-session-svc/src/internal/models"
)

type Repository interface {
	SaveMatch(ctx context.Context, match *Match) error
	GetMatchByID(ctx context.Context, id string) (*Match, error)
	GetMatchHistory(ctx context.Context, req *GetMatchHistoryRequest) ([]*Match, int64, error)
	DeleteMatch(ctx context.Context, id string) error
	CreateLocation(ctx context.Context, location *Location) error
	GetLocations(ctx context.Context) ([]*Location, error)
	GetMatchesSince(ctx context.Context, locationID string, since time.Time) ([]*Match, error)
}

type matchRepository struct {
	matches   *mongo.Collection
	locations *mongo.Collection
}

func NewRepository(mongoClient *clients.MongoDB, matchCollection, locationCollection string) Repository {
	return &matchRepository{
		matches:   mongoClient.Database.Collection(matchCollection),
		locations: mongoClient.Database.Collection(locationCollection),
	}
}

func (r *matchRepository) SaveMatch(ctx context.Context, match *Match) error {
	result, err := r.matches.InsertOne(ctx, match)
	if err != nil {
		logrus.WithError(err).WithField("session_id", match.SessionID).Error("Failed to insert match")
		return models.ErrDatabaseInsert
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		match.ID = oid
	}

	logrus.WithFields(logrus.Fields{
		"session_id": match.SessionID,
		"team1":      match.FinalScore.Team1,
		"team2":      match.FinalScore.Team2,
		"winner":     match.Winner,
	}).Info("Match saved")

	return nil
}

func (r *matchRepository) GetMatchByID(ctx context.Context, id string) (*Match, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrMatchNotFound
	}

	var match Match
	err = r.matches.FindOne(ctx, bson.M{"_id": oid}).Decode(&match)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrMatchNotFound
		}
		logrus.WithError(err).WithField("match_id", id).Error("Failed to get match")
		return nil, models.ErrDatabaseQuery
	}

	return &match, nil
}

func (r *matchRepository) GetMatchHistory(ctx context.Context, req *GetMatchHistoryRequest) ([]*Match, int64, error) {
	filter := bson.M{}
	if req.LocationID != "" {
		filter["location_id"] = req.LocationID
	}

	totalCount, err := r.matches.CountDocuments(ctx, filter)
	if err != nil {
		logrus.WithError(err).Error("Failed to count matches")
		return nil, 0, models.ErrDatabaseQuery
	}

	order := -1
	if req.Order == "asc" {
		order = 1
	}
	orderBy := "ended_at"
	if req.OrderBy != "" {
		orderBy = req.OrderBy
	}

	opts := options.Find().
		SetLimit(int64(req.Limit)).
		SetSkip(int64(req.Offset)).
		SetSort(bson.M{orderBy: order})

	cursor, err := r.matches.Find(ctx, filter, opts)
	if err != nil {
		logrus.WithError(err).Error("Failed to find matches")
		return nil, 0, models.ErrDatabaseQuery
	}
	defer cursor.Close(ctx)

	var matches []*Match
	for cursor.Next(ctx) {
		var match Match
		if err := cursor.Decode(&match); err != nil {
			logrus.WithError(err).Error("Failed to decode match")
			continue
		}
		matches = append(matches, &match)
	}

	if err := cursor.Err(); err != nil {
		logrus.WithError(err).Error("Cursor error")
		return nil, 0, models.ErrDatabaseQuery
	}

	logrus.WithFields(logrus.Fields{
		"count":    len(matches),
		"total":    totalCount,
		"location": req.LocationID,
	}).Debug("Retrieved match history")

	return matches, totalCount, nil
}

func (r *matchRepository) DeleteMatch(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrMatchNotFound
	}

	result, err := r.matches.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		logrus.WithError(err).WithField("match_id", id).Error("Failed to delete match")
		return models.ErrDatabaseDelete
	}
	if result.DeletedCount == 0 {
		return models.ErrMatchNotFound
	}

	logrus.WithField("match_id", id).Info("Match deleted")
	return nil
}

func (r *matchRepository) CreateLocation(ctx context.Context, location *Location) error {
	location.Active = true
	location.CreatedAt = time.Now()

	opts := options.Replace().SetUpsert(true)
	_, err := r.locations.ReplaceOne(ctx, bson.M{"_id": location.ID}, location, opts)
	if err != nil {
		logrus.WithError(err).WithField("location_id", location.ID).Error("Failed to create location")
		return models.ErrDatabaseInsert
	}

	logrus.WithFields(logrus.Fields{
		"location_id": location.ID,
		"name":        location.Name,
	}).Info("Location created")

	return nil
}

func (r *matchRepository) GetLocations(ctx context.Context) ([]*Location, error) {
	cursor, err := r.locations.Find(ctx, bson.M{"active": true})
	if err != nil {
		logrus.WithError(err).Error("Failed to find locations")
		return nil, models.ErrDatabaseQuery
	}
	defer cursor.Close(ctx)

	var locations []*Location
	for cursor.Next(ctx) {
		var location Location
		if err := cursor.Decode(&location); err != nil {
			logrus.WithError(err).Error("Failed to decode location")
			continue
		}
		locations = append(locations, &location)
	}

	if err := cursor.Err(); err != nil {
		logrus.WithError(err).Error("Cursor error")
		return nil, models.ErrDatabaseQuery
	}

	return locations, nil
}

func (r *matchRepository) GetMatchesSince(ctx context.Context, locationID string, since time.Time) ([]*Match, error) {
	filter := bson.M{
		"location_id": locationID,
		"ended_at":    bson.M{"$gte": since},
	}

	cursor, err := r.matches.Find(ctx, filter)
	if err != nil {
		logrus.WithError(err).WithField("location_id", locationID).Error("Failed to find matches for stats")
		return nil, models.ErrDatabaseQuery
	}
	defer cursor.Close(ctx)

	var matches []*Match
	for cursor.Next(ctx) {
		var match Match
		if err := cursor.Decode(&match); err != nil {
			logrus.WithError(err).Error("Failed to decode match")
			continue
		}
		matches = append(matches, &match)
	}

	if err := cursor.Err(); err != nil {
		logrus.WithError(err).Error("Cursor error")
		return nil, models.ErrDatabaseQuery
	}

	return matches, nil
}
