package publisher

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"scorely-session-svc/src/internal/models"
	"scorely-session-svc/src/internal/session"
)

// Topic layout shared with bracelets and observers.
func StateTopic(sessionID string) string {
	return fmt.Sprintf("session/%s/state", sessionID)
}

func EventTopic(sessionID string) string {
	return fmt.Sprintf("session/%s/event", sessionID)
}

func PairingResponseTopic(deviceID string) string {
	return fmt.Sprintf("pairing/response/%s", deviceID)
}

// Broker is the slice of the MQTT client the publisher needs.
type Broker interface {
	Publish(topic string, payload []byte, retained bool) error
}

// Publisher emits state snapshots as retained messages so that a subscriber
// joining after a disconnect immediately receives the latest truth.
type Publisher struct {
	broker Broker
}

func New(broker Broker) *Publisher {
	return &Publisher{broker: broker}
}

// PublishState serializes the session's current state and publishes it
// retained on the session's state topic.
func (p *Publisher) PublishState(sess *session.Session) error {
	snapshot := sess.Snapshot()

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal state snapshot: %w", err)
	}

	if err := p.broker.Publish(StateTopic(sess.ID), payload, true); err != nil {
		return fmt.Errorf("failed to publish state snapshot: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"status":     snapshot.Status,
		"team1":      snapshot.Score.Team1,
		"team2":      snapshot.Score.Team2,
	}).Debug("State snapshot published")

	return nil
}

// PublishPairingResponse sends a direct response to a single device. These
// are not retained; only the shared state topic keeps history.
func (p *Publisher) PublishPairingResponse(deviceID string, resp *models.PairingResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal pairing response: %w", err)
	}

	if err := p.broker.Publish(PairingResponseTopic(deviceID), payload, false); err != nil {
		return fmt.Errorf("failed to publish pairing response: %w", err)
	}

	return nil
}
