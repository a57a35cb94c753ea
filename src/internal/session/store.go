package session

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"scorely-session-svc/src/internal/models"
)

const (
	idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	idLength   = 6
)

// Store owns every live session. It is injected wherever session access is
// needed; nothing else holds a session beyond the scope of one operation.
// The dispatcher serializes mutation, but REST handlers read concurrently,
// so the map is still guarded.
type Store struct {
	mu            sync.Mutex
	sessions      map[string]*Session
	pairingWindow time.Duration
}

func NewStore(pairingWindow time.Duration) *Store {
	return &Store{
		sessions:      make(map[string]*Session),
		pairingWindow: pairingWindow,
	}
}

// Create registers a new waiting session with pairing open for the default
// window and returns a copy of it.
func (s *Store) Create(locationID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.generateID()
	now := time.Now()
	expires := now.Add(s.pairingWindow)

	sess := &Session{
		ID:         id,
		LocationID: locationID,
		Status:     StatusWaiting,
		Score:      models.Score{},
		PairedDevices: models.PairedDevices{
			Team1: []string{},
			Team2: []string{},
		},
		PairingOpen:      true,
		PairingExpiresAt: &expires,
		CreatedAt:        now,
	}
	s.sessions[id] = sess

	logrus.WithFields(logrus.Fields{
		"session_id": id,
		"location":   locationID,
	}).Info("Session created")

	return sess.clone()
}

// Get returns a copy of the session or ErrSessionNotFound.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return sess.clone(), nil
}

// Mutate applies fn to the session under the store lock and returns a copy
// of the result. fn runs atomically with respect to other mutations on the
// same id.
func (s *Store) Mutate(id string, fn func(*Session) error) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	return sess.clone(), nil
}

// FindOpenPairing returns a copy of the first session whose pairing window
// is open and unexpired, or ErrNoOpenPairing.
func (s *Store) FindOpenPairing() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, sess := range s.sessions {
		if sess.PairingOpen && sess.PairingExpiresAt != nil && now.Before(*sess.PairingExpiresAt) {
			return sess.clone(), nil
		}
	}
	return nil, models.ErrNoOpenPairing
}

func (s *Store) generateID() string {
	for {
		b := make([]byte, idLength)
		for i := range b {
			b[i] = idAlphabet[rand.IntN(len(idAlphabet))]
		}
		id := string(b)
		if _, exists := s.sessions[id]; !exists {
			return id
		}
	}
}

func (s *Session) clone() *Session {
	c := *s
	c.PairedDevices.Team1 = append([]string(nil), s.PairedDevices.Team1...)
	c.PairedDevices.Team2 = append([]string(nil), s.PairedDevices.Team2...)
	if s.PairingExpiresAt != nil {
		t := *s.PairingExpiresAt
		c.PairingExpiresAt = &t
	}
	if s.StartedAt != nil {
		t := *s.StartedAt
		c.StartedAt = &t
	}
	if s.EndedAt != nil {
		t := *s.EndedAt
		c.EndedAt = &t
	}
	return &c
}
