package history

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"scorely-session-svc/src/internal/config"
	"scorely-session-svc/src/internal/models"
)

type Handler interface {
	GetMatchHistory(c *gin.Context)
	GetMatchByID(c *gin.Context)
	DeleteMatch(c *gin.Context)
	GetLocations(c *gin.Context)
	CreateLocation(c *gin.Context)
	GetLocationStats(c *gin.Context)
}

type handler struct {
	config  *config.Configuration
	service Service
}

func NewHandler(cfg *config.Configuration, service Service) Handler {
	return &handler{
		config:  cfg,
		service: service,
	}
}

func (h *handler) GetMatchHistory(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	req := &GetMatchHistoryRequest{
		LocationID: c.Query("locationId"),
		Limit:      parseIntParam(c, "limit", 50),
		Offset:     parseIntParam(c, "offset", 0),
		OrderBy:    c.Query("orderBy"),
		Order:      c.Query("order"),
	}

	response, err := h.service.GetMatchHistory(ctx, req)
	if err != nil {
		logrus.WithError(err).Error("Failed to get match history")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to fetch matches",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(response.Matches),
		"matches": response.Matches,
		"total":   response.TotalCount,
	})
}

func (h *handler) GetMatchByID(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	id := c.Param("id")

	match, err := h.service.GetMatchByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrMatchNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   "Match not found",
				"matchId": id,
			})
			return
		}
		logrus.WithError(err).WithField("match_id", id).Error("Failed to get match")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to fetch match",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"match":   match,
	})
}

func (h *handler) DeleteMatch(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	id := c.Param("id")

	if err := h.service.DeleteMatch(ctx, id); err != nil {
		if errors.Is(err, models.ErrMatchNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   "Match not found",
				"matchId": id,
			})
			return
		}
		logrus.WithError(err).WithField("match_id", id).Error("Failed to delete match")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to delete match",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Match deleted successfully",
		"matchId": id,
	})
}

func (h *handler) GetLocations(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	locations, err := h.service.GetLocations(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to get locations")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to fetch locations",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"count":     len(locations),
		"locations": locations,
	})
}

func (h *handler) CreateLocation(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	var location Location
	if err := c.ShouldBindJSON(&location); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
		})
		return
	}

	if location.ID == "" || location.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Missing required fields: id, name",
		})
		return
	}

	if err := h.service.CreateLocation(ctx, &location); err != nil {
		logrus.WithError(err).WithField("location_id", location.ID).Error("Failed to create location")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to create location",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"message":    "Location created successfully",
		"locationId": location.ID,
	})
}

func (h *handler) GetLocationStats(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	locationID := c.Param("locationId")
	days := parseIntParam(c, "days", 30)

	stats, err := h.service.GetLocationStats(ctx, locationID, days)
	if err != nil {
		logrus.WithError(err).WithField("location_id", locationID).Error("Failed to get location stats")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to fetch statistics",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"locationId": locationID,
		"period":     strconv.Itoa(days) + " days",
		"stats":      stats,
	})
}

func (h *handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
}

func parseIntParam(c *gin.Context, param string, defaultValue int) int {
	value := c.Query(param)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"param": param,
			"value": value,
			"error": err,
		}).Warn("Invalid integer parameter, using default")

		return defaultValue
	}
	return parsed
}
