package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"scorely-session-svc/src/internal/admission"
	"scorely-session-svc/src/internal/models"
	"scorely-session-svc/src/internal/pairing"
	"scorely-session-svc/src/internal/scoring"
)

const (
	filterSessionEvents   = "session/+/event"
	filterSessionCommands = "session/+/command"
	filterPairingRequests = "pairing/request"
)

// Subscriber is the slice of the MQTT client the dispatcher needs.
type Subscriber interface {
	Subscribe(filter string, handler func(topic string, payload []byte)) error
}

// Auditor receives audit events for dropped messages. May be nil.
type Auditor interface {
	PublishActivity(sessionID, deviceID, serviceName, action string) error
}

type inbound struct {
	topic   string
	payload []byte
}

// Dispatcher decodes inbound broker messages and routes them to the
// admission filter, scoring engine and pairing manager. A single worker
// drains the queue, so every mutation of a given session is serialized
// without per-session locks. This holds only while one process owns the
// session set; a multi-process deployment needs per-session mutual
// exclusion on top.
type Dispatcher struct {
	broker  Subscriber
	filter  *admission.Filter
	engine  *scoring.Engine
	pairing *pairing.Manager
	auditor Auditor
	queue   chan inbound
}

func New(broker Subscriber, filter *admission.Filter, engine *scoring.Engine, pairingMgr *pairing.Manager, auditor Auditor, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Dispatcher{
		broker:  broker,
		filter:  filter,
		engine:  engine,
		pairing: pairingMgr,
		auditor: auditor,
		queue:   make(chan inbound, queueSize),
	}
}

// Start subscribes to the inbound channels and launches the worker. It
// returns once subscriptions are established; the worker runs until ctx is
// canceled.
func (d *Dispatcher) Start(ctx context.Context) error {
	for _, filter := range []string{filterSessionEvents, filterSessionCommands, filterPairingRequests} {
		if err := d.broker.Subscribe(filter, d.enqueue); err != nil {
			return err
		}
	}

	go d.run(ctx)
	logrus.Info("Dispatcher started")
	return nil
}

func (d *Dispatcher) enqueue(topic string, payload []byte) {
	select {
	case d.queue <- inbound{topic: topic, payload: payload}:
	default:
		logrus.WithField("topic", topic).Warn("Inbound queue full, message dropped")
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			logrus.Info("Dispatcher stopped")
			return
		case msg := <-d.queue:
			d.Handle(msg.topic, msg.payload)
		}
	}
}

// Handle routes one decoded message. Exported for tests; production traffic
// arrives through the worker loop.
func (d *Dispatcher) Handle(topic string, payload []byte) {
	if topic == filterPairingRequests {
		var req models.PairingRequest
		if err := json.Unmarshal(payload, &req); err != nil || req.DeviceID == "" {
			logrus.WithError(err).WithField("topic", topic).Warn("Malformed pairing request dropped")
			return
		}
		d.pairing.HandleRequest(&req)
		return
	}

	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "session" {
		logrus.WithField("topic", topic).Warn("Message on unexpected topic dropped")
		return
	}
	sessionID := parts[1]

	switch parts[2] {
	case "event":
		var event models.ScoreEvent
		if err := json.Unmarshal(payload, &event); err != nil || event.DeviceID == "" {
			logrus.WithError(err).WithField("topic", topic).Warn("Malformed score event dropped")
			return
		}
		d.handleScoreEvent(sessionID, &event)
	case "command":
		var cmd models.Command
		if err := json.Unmarshal(payload, &cmd); err != nil {
			logrus.WithError(err).WithField("topic", topic).Warn("Malformed command dropped")
			return
		}
		d.handleCommand(sessionID, &cmd)
	default:
		logrus.WithField("topic", topic).Warn("Message on unexpected topic dropped")
	}
}

func (d *Dispatcher) handleScoreEvent(sessionID string, event *models.ScoreEvent) {
	switch d.filter.Admit(event) {
	case admission.Duplicate:
		d.audit(sessionID, event.DeviceID, models.ActionEventDuplicate)
		return
	case admission.RateLimited:
		d.audit(sessionID, event.DeviceID, models.ActionEventRateLimited)
		return
	}

	err := d.engine.ApplyEvent(sessionID, event)
	if err == nil {
		return
	}

	// Score events for unknown sessions are dropped; sessions are only
	// created explicitly, matching the not-found semantics of lookups.
	switch {
	case errors.Is(err, models.ErrSessionNotFound):
		logrus.WithFields(logrus.Fields{
			"session_id": sessionID,
			"device_id":  event.DeviceID,
		}).Warn("Score event for unknown session dropped")
		d.audit(sessionID, event.DeviceID, models.ActionEventUnknownSess)
	case errors.Is(err, models.ErrDeviceNotPaired), errors.Is(err, models.ErrTeamMismatch):
		d.audit(sessionID, event.DeviceID, models.ActionEventTeamReject)
	case scoring.IsRejection(err):
		// Already logged by the engine; nothing to publish.
	default:
		logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to apply score event")
	}
}

func (d *Dispatcher) handleCommand(sessionID string, cmd *models.Command) {
	logrus.WithFields(logrus.Fields{
		"session_id": sessionID,
		"action":     cmd.Action,
	}).Info("Command received")

	var err error
	switch cmd.Action {
	case models.CommandStart:
		if err = d.engine.Start(sessionID); err == nil {
			d.pairing.CancelExpiry(sessionID)
		}
	case models.CommandStop:
		if err = d.engine.End(sessionID); err == nil {
			d.pairing.CancelExpiry(sessionID)
		}
	case models.CommandReset:
		err = d.engine.ResetScore(sessionID)
	case models.CommandRequestState:
		err = d.engine.RequestState(sessionID)
	case models.CommandOpenPairing:
		err = d.pairing.OpenPairing(sessionID, time.Duration(cmd.Duration)*time.Millisecond)
	default:
		logrus.WithFields(logrus.Fields{
			"session_id": sessionID,
			"action":     cmd.Action,
		}).Warn("Unknown command dropped")
		return
	}

	if err != nil && !scoring.IsRejection(err) &&
		!errors.Is(err, models.ErrSessionEnded) && !errors.Is(err, models.ErrSessionNotFound) {
		logrus.WithError(err).WithFields(logrus.Fields{
			"session_id": sessionID,
			"action":     cmd.Action,
		}).Error("Command failed")
	}
}

func (d *Dispatcher) audit(sessionID, deviceID, action string) {
	if d.auditor == nil {
		return
	}
	if err := d.auditor.PublishActivity(sessionID, deviceID, models.ServiceDispatcher, action); err != nil {
		logrus.WithError(err).Debug("Failed to publish audit activity")
	}
}
