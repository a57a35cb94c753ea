package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"scorely-session-svc/src/internal/models"
)

type Handler interface {
	Login(c *gin.Context)
	Verify(c *gin.Context)
}

type handler struct {
	service Service
}

func NewHandler(service Service) Handler {
	return &handler{service: service}
}

type loginRequest struct {
	Role string `json:"role"`
	Pin  string `json:"pin"`
}

func (h *handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Role == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Role is required",
		})
		return
	}

	token, err := h.service.Login(req.Role, req.Pin)
	if err != nil {
		if errors.Is(err, models.ErrInvalidRole) || errors.Is(err, models.ErrInvalidPin) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}
		logrus.WithError(err).Error("Login failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Authentication failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"token":       token,
		"role":        req.Role,
		"permissions": h.service.Permissions(req.Role),
	})
}

func (h *handler) Verify(c *gin.Context) {
	token := ""
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		token = strings.TrimPrefix(header, "Bearer ")
	} else {
		token = c.Query("token")
	}

	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "No token provided",
		})
		return
	}

	claims, err := h.service.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"valid":   false,
			"error":   "Invalid or expired token",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"valid":       true,
		"role":        claims.Role,
		"permissions": h.service.Permissions(claims.Role),
	})
}
