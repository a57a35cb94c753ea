package live

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"scorely-session-svc/src/internal/models"
	"scorely-session-svc/src/internal/publisher"
	"scorely-session-svc/src/internal/session"
)

// Handler exposes live sessions over REST. Creation is explicit here;
// score events never provision sessions.
type Handler interface {
	CreateSession(c *gin.Context)
	GetSession(c *gin.Context)
}

type handler struct {
	store     *session.Store
	publisher *publisher.Publisher
}

func NewHandler(store *session.Store, pub *publisher.Publisher) Handler {
	return &handler{
		store:     store,
		publisher: pub,
	}
}

type createSessionRequest struct {
	LocationID string `json:"locationId"`
}

func (h *handler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
		})
		return
	}

	if req.LocationID == "" {
		req.LocationID = "default"
	}

	sess := h.store.Create(req.LocationID)

	// Publish the initial snapshot so observers subscribing right after
	// creation already find retained state.
	if err := h.publisher.PublishState(sess); err != nil {
		logrus.WithError(err).WithField("session_id", sess.ID).Error("Failed to publish initial snapshot")
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"session": sess,
	})
}

func (h *handler) GetSession(c *gin.Context) {
	id := c.Param("id")

	sess, err := h.store.Get(id)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success":   false,
				"error":     "Session not found",
				"sessionId": id,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to fetch session",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": sess,
	})
}
