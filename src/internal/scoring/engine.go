package scoring

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"scorely-session-svc/src/internal/history"
	"scorely-session-svc/src/internal/models"
	"scorely-session-svc/src/internal/publisher"
	"scorely-session-svc/src/internal/session"
)

// Recorder hands the final record of an ended session to the history store.
type Recorder interface {
	SaveMatch(ctx context.Context, match *history.Match) error
}

// Engine applies lifecycle commands and score events to sessions. Every
// accepted mutation publishes exactly one state snapshot; rejected paths
// publish nothing.
type Engine struct {
	store     *session.Store
	publisher *publisher.Publisher
	recorder  Recorder
	dbTimeout time.Duration
}

func NewEngine(store *session.Store, pub *publisher.Publisher, recorder Recorder, dbTimeout time.Duration) *Engine {
	return &Engine{
		store:     store,
		publisher: pub,
		recorder:  recorder,
		dbTimeout: dbTimeout,
	}
}

// Start transitions a waiting session to running and closes pairing.
// Not-waiting sessions are left untouched.
func (e *Engine) Start(sessionID string) error {
	sess, err := e.store.Mutate(sessionID, func(s *session.Session) error {
		if s.Status != session.StatusWaiting {
			logrus.WithFields(logrus.Fields{
				"session_id": sessionID,
				"status":     s.Status,
			}).Warn("Cannot start session, not in waiting state")
			return models.ErrInvalidTransition
		}
		now := time.Now()
		s.Status = session.StatusRunning
		s.StartedAt = &now
		s.PairingOpen = false
		return nil
	})
	if err != nil {
		return err
	}

	logrus.WithField("session_id", sessionID).Info("Session started")
	return e.publisher.PublishState(sess)
}

// End transitions any non-ended session to ended, closes pairing and hands
// the final record to the history collaborator. Already-ended sessions are
// a no-op.
func (e *Engine) End(sessionID string) error {
	sess, err := e.store.Mutate(sessionID, func(s *session.Session) error {
		if s.Status == session.StatusEnded {
			logrus.WithField("session_id", sessionID).Warn("Session already ended")
			return models.ErrSessionEnded
		}
		now := time.Now()
		s.Status = session.StatusEnded
		s.EndedAt = &now
		s.PairingOpen = false
		return nil
	})
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"session_id": sessionID,
		"team1":      sess.Score.Team1,
		"team2":      sess.Score.Team2,
	}).Info("Session ended")

	if err := e.publisher.PublishState(sess); err != nil {
		return err
	}

	e.saveHistory(sess)
	return nil
}

// ResetScore zeroes both team scores. Status, pairing state and device
// associations are untouched; callable in any state.
func (e *Engine) ResetScore(sessionID string) error {
	sess, err := e.store.Mutate(sessionID, func(s *session.Session) error {
		s.Score = models.Score{}
		return nil
	})
	if err != nil {
		return err
	}

	logrus.WithField("session_id", sessionID).Info("Session score reset")
	return e.publisher.PublishState(sess)
}

// RequestState republishes the current snapshot without mutation.
func (e *Engine) RequestState(sessionID string) error {
	sess, err := e.store.Get(sessionID)
	if err != nil {
		return err
	}
	return e.publisher.PublishState(sess)
}

// ApplyEvent applies an admitted score event. The session must be running
// and the sending device must be paired to the team named in the event;
// otherwise the event is rejected without mutation.
func (e *Engine) ApplyEvent(sessionID string, event *models.ScoreEvent) error {
	sess, err := e.store.Mutate(sessionID, func(s *session.Session) error {
		if s.Status != session.StatusRunning {
			logrus.WithFields(logrus.Fields{
				"session_id": sessionID,
				"status":     s.Status,
			}).Warn("Score event for session that is not running")
			return models.ErrInvalidTransition
		}

		deviceTeam := s.DeviceTeam(event.DeviceID)
		if deviceTeam == 0 {
			logrus.WithFields(logrus.Fields{
				"session_id": sessionID,
				"device_id":  event.DeviceID,
			}).Warn("Score event from unpaired device")
			return models.ErrDeviceNotPaired
		}
		if deviceTeam != event.Team {
			logrus.WithFields(logrus.Fields{
				"session_id":  sessionID,
				"device_id":   event.DeviceID,
				"paired_team": deviceTeam,
				"event_team":  event.Team,
			}).Warn("Score event for a team the device is not paired to")
			return models.ErrTeamMismatch
		}

		applyAction(&s.Score, event.Team, event.Action)
		return nil
	})
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"session_id": sessionID,
		"device_id":  event.DeviceID,
		"team":       event.Team,
		"action":     event.Action,
		"team1":      sess.Score.Team1,
		"team2":      sess.Score.Team2,
	}).Info("Score updated")

	return e.publisher.PublishState(sess)
}

func applyAction(score *models.Score, team int, action string) {
	value := &score.Team1
	if team == session.Team2 {
		value = &score.Team2
	}

	switch action {
	case models.ActionIncrement:
		*value++
	case models.ActionDecrement:
		*value = max(0, *value-1)
	case models.ActionReset:
		*value = 0
	}
}

func (e *Engine) saveHistory(sess *session.Session) {
	if e.recorder == nil {
		return
	}
	if sess.StartedAt == nil || sess.EndedAt == nil {
		logrus.WithField("session_id", sess.ID).Warn("Session has no start time, skipping history record")
		return
	}

	match := &history.Match{
		SessionID:     sess.ID,
		LocationID:    sess.LocationID,
		StartedAt:     *sess.StartedAt,
		EndedAt:       *sess.EndedAt,
		Duration:      int64(sess.EndedAt.Sub(*sess.StartedAt).Seconds()),
		FinalScore:    sess.Score,
		Winner:        history.WinnerOf(sess.Score),
		PairedDevices: sess.PairedDevices,
		CreatedAt:     time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.dbTimeout)
	defer cancel()

	if err := e.recorder.SaveMatch(ctx, match); err != nil {
		logrus.WithError(err).WithField("session_id", sess.ID).Error("Failed to persist match record")
	}
}

// IsRejection reports whether an ApplyEvent error is an expected drop
// rather than a failure.
func IsRejection(err error) bool {
	return errors.Is(err, models.ErrInvalidTransition) ||
		errors.Is(err, models.ErrDeviceNotPaired) ||
		errors.Is(err, models.ErrTeamMismatch)
}
