package clients

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"scorely-session-svc/src/internal/config"
	"scorely-session-svc/src/internal/models"
)

// ActivityClient publishes audit messages to the activity exchange.
type ActivityClient struct {
	channel *amqp.Channel
	cfg     *config.RabbitMQConfig
}

// NewActivityClient creates a new activity publisher
func NewActivityClient(cfg *config.Configuration, channel *amqp.Channel) *ActivityClient {
	return &ActivityClient{
		channel: channel,
		cfg:     &cfg.Queue.RabbitMQ,
	}
}

// PublishActivity publishes a session activity message to RabbitMQ
func (c *ActivityClient) PublishActivity(sessionID, deviceID, serviceName, action string) error {
	return c.PublishActivityWithMetadata(sessionID, deviceID, serviceName, action, nil)
}

// PublishActivityWithMetadata publishes a session activity message with extra fields
func (c *ActivityClient) PublishActivityWithMetadata(sessionID, deviceID, serviceName, action string, metadata map[string]string) error {
	message := models.ActivityMessage{
		SessionID:   sessionID,
		DeviceID:    deviceID,
		ServiceName: serviceName,
		Action:      action,
		Metadata:    metadata,
		Timestamp:   time.Now(),
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal activity message: %w", err)
	}

	err = c.channel.Publish(
		c.cfg.Exchange,
		c.cfg.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)

	if err != nil {
		logrus.WithError(err).Error("Failed to publish activity message")
		return fmt.Errorf("failed to publish activity message: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"session_id":  sessionID,
		"device_id":   deviceID,
		"service":     serviceName,
		"action":      action,
		"exchange":    c.cfg.Exchange,
		"routing_key": c.cfg.RoutingKey,
	}).Debug("Activity message published")

	return nil
}
