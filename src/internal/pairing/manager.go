package pairing

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"scorely-session-svc/src/internal/models"
	"scorely-session-svc/src/internal/publisher"
	"scorely-session-svc/src/internal/session"
)

// Auditor receives pairing audit events. May be nil.
type Auditor interface {
	PublishActivity(sessionID, deviceID, serviceName, action string) error
}

// Manager assigns devices to teams and owns the bounded pairing window of
// each session. One expiry timer is active per open window, keyed by
// session id, and is canceled on explicit close.
type Manager struct {
	store         *session.Store
	publisher     *publisher.Publisher
	auditor       Auditor
	defaultWindow time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewManager(store *session.Store, pub *publisher.Publisher, auditor Auditor, defaultWindow time.Duration) *Manager {
	return &Manager{
		store:         store,
		publisher:     pub,
		auditor:       auditor,
		defaultWindow: defaultWindow,
		timers:        make(map[string]*time.Timer),
	}
}

// OpenPairing opens (or re-opens) the pairing window for a session and
// schedules its expiry.
func (m *Manager) OpenPairing(sessionID string, duration time.Duration) error {
	if duration <= 0 {
		duration = m.defaultWindow
	}

	_, err := m.store.Mutate(sessionID, func(s *session.Session) error {
		if s.Status == session.StatusEnded {
			return models.ErrSessionEnded
		}
		expires := time.Now().Add(duration)
		s.PairingOpen = true
		s.PairingExpiresAt = &expires
		return nil
	})
	if err != nil {
		return err
	}

	m.schedule(sessionID, duration)

	logrus.WithFields(logrus.Fields{
		"session_id": sessionID,
		"duration":   duration,
	}).Info("Pairing window opened")

	return nil
}

// Pair assigns a device to a team. Known devices get their existing team
// back without mutation; new devices go to the smaller team, ties to team 1.
func (m *Manager) Pair(sessionID, deviceID string) (int, error) {
	team := 0
	alreadyPaired := false

	_, err := m.store.Mutate(sessionID, func(s *session.Session) error {
		if !s.PairingOpen {
			return models.ErrPairingClosed
		}
		if s.PairingExpiresAt != nil && time.Now().After(*s.PairingExpiresAt) {
			return models.ErrPairingExpired
		}

		if existing := s.DeviceTeam(deviceID); existing != 0 {
			team = existing
			alreadyPaired = true
			return nil
		}

		team1, team2 := s.TeamCounts()
		team = session.Team1
		if team1 > team2 {
			team = session.Team2
		}
		s.AddDevice(deviceID, team)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if alreadyPaired {
		logrus.WithFields(logrus.Fields{
			"session_id": sessionID,
			"device_id":  deviceID,
			"team":       team,
		}).Info("Device already paired")
		return team, nil
	}

	logrus.WithFields(logrus.Fields{
		"session_id": sessionID,
		"device_id":  deviceID,
		"team":       team,
	}).Info("Device paired")

	if m.auditor != nil {
		if err := m.auditor.PublishActivity(sessionID, deviceID, models.ServicePairing, models.ActionDevicePaired); err != nil {
			logrus.WithError(err).Debug("Failed to publish pairing activity")
		}
	}

	sess, err := m.store.Get(sessionID)
	if err == nil {
		if err := m.publisher.PublishState(sess); err != nil {
			logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to publish state after pairing")
		}
	}

	return team, nil
}

// HandleRequest serves one message from the shared pairing/request channel:
// it locates the session with an open window, pairs the device and replies
// on the device's direct response topic.
func (m *Manager) HandleRequest(req *models.PairingRequest) {
	sess, err := m.store.FindOpenPairing()
	if err != nil {
		logrus.WithField("device_id", req.DeviceID).Warn("Pairing request with no open session")
		m.respond(req.DeviceID, &models.PairingResponse{
			Status: "error",
			Error:  "No active pairing session",
		})
		return
	}

	team, err := m.Pair(sess.ID, req.DeviceID)
	if err != nil {
		m.respond(req.DeviceID, &models.PairingResponse{
			Status: "error",
			Error:  err.Error(),
		})
		return
	}

	m.respond(req.DeviceID, &models.PairingResponse{
		Status:    "ok",
		SessionID: sess.ID,
		Team:      team,
		Topic:     publisher.EventTopic(sess.ID),
	})
}

// CancelExpiry stops the scheduled expiry for a session, if any. Called
// when pairing is closed explicitly so a stale timer cannot fire later.
func (m *Manager) CancelExpiry(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if timer, ok := m.timers[sessionID]; ok {
		timer.Stop()
		delete(m.timers, sessionID)
	}
}

func (m *Manager) schedule(sessionID string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if timer, ok := m.timers[sessionID]; ok {
		timer.Stop()
	}
	m.timers[sessionID] = time.AfterFunc(duration, func() {
		m.expire(sessionID)
	})
}

func (m *Manager) expire(sessionID string) {
	m.mu.Lock()
	delete(m.timers, sessionID)
	m.mu.Unlock()

	closed := false
	_, err := m.store.Mutate(sessionID, func(s *session.Session) error {
		// No-op if pairing was already closed by start/stop.
		if s.PairingOpen {
			s.PairingOpen = false
			closed = true
		}
		return nil
	})
	if err != nil {
		return
	}

	if closed {
		logrus.WithField("session_id", sessionID).Info("Pairing window expired")
	}
}

func (m *Manager) respond(deviceID string, resp *models.PairingResponse) {
	if err := m.publisher.PublishPairingResponse(deviceID, resp); err != nil {
		logrus.WithError(err).WithField("device_id", deviceID).Error("Failed to send pairing response")
	}
}
