package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"scorely-session-svc/src/internal/models"
)

func TestCreateDefaults(t *testing.T) {
	store := NewStore(time.Minute)

	sess := store.Create("arena-1")

	if len(sess.ID) != 6 {
		t.Fatalf("expected 6-char session id, got %q", sess.ID)
	}
	for _, r := range sess.ID {
		if !strings.ContainsRune(idAlphabet, r) {
			t.Fatalf("session id %q contains invalid character %q", sess.ID, r)
		}
	}
	if sess.Status != StatusWaiting {
		t.Fatalf("expected status %q, got %q", StatusWaiting, sess.Status)
	}
	if !sess.PairingOpen {
		t.Fatal("expected pairing to be open on a new session")
	}
	if sess.PairingExpiresAt == nil {
		t.Fatal("expected pairing expiry to be set")
	}
	if sess.Score.Team1 != 0 || sess.Score.Team2 != 0 {
		t.Fatalf("expected zero score, got %d:%d", sess.Score.Team1, sess.Score.Team2)
	}
	if len(sess.PairedDevices.Team1) != 0 || len(sess.PairedDevices.Team2) != 0 {
		t.Fatal("expected no paired devices on a new session")
	}
}

func TestGetUnknownSession(t *testing.T) {
	store := NewStore(time.Minute)

	if _, err := store.Get("ABC123"); !errors.Is(err, models.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestMutateAppliesAndClones(t *testing.T) {
	store := NewStore(time.Minute)
	created := store.Create("arena-1")

	mutated, err := store.Mutate(created.ID, func(s *Session) error {
		s.AddDevice("bracelet-1", Team1)
		s.Score.Team1 = 3
		return nil
	})
	if err != nil {
		t.Fatalf("mutate failed: %v", err)
	}

	// Changing the returned copy must not leak into the store.
	mutated.PairedDevices.Team1[0] = "tampered"
	mutated.Score.Team1 = 99

	stored, err := store.Get(created.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.PairedDevices.Team1[0] != "bracelet-1" {
		t.Fatalf("store leaked mutation of returned copy: %v", stored.PairedDevices.Team1)
	}
	if stored.Score.Team1 != 3 {
		t.Fatalf("expected score 3, got %d", stored.Score.Team1)
	}
}

func TestMutateErrorLeavesSessionUntouched(t *testing.T) {
	store := NewStore(time.Minute)
	created := store.Create("arena-1")
	boom := errors.New("boom")

	if _, err := store.Mutate(created.ID, func(s *Session) error {
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected fn error to propagate, got %v", err)
	}
}

func TestFindOpenPairing(t *testing.T) {
	store := NewStore(time.Minute)

	if _, err := store.FindOpenPairing(); !errors.Is(err, models.ErrNoOpenPairing) {
		t.Fatalf("expected ErrNoOpenPairing on empty store, got %v", err)
	}

	created := store.Create("arena-1")

	found, err := store.FindOpenPairing()
	if err != nil {
		t.Fatalf("expected open pairing session, got %v", err)
	}
	if found.ID != created.ID {
		t.Fatalf("expected session %s, got %s", created.ID, found.ID)
	}

	if _, err := store.Mutate(created.ID, func(s *Session) error {
		s.PairingOpen = false
		return nil
	}); err != nil {
		t.Fatalf("mutate failed: %v", err)
	}

	if _, err := store.FindOpenPairing(); !errors.Is(err, models.ErrNoOpenPairing) {
		t.Fatalf("expected ErrNoOpenPairing after close, got %v", err)
	}
}

func TestDeviceTeam(t *testing.T) {
	sess := &Session{
		PairedDevices: models.PairedDevices{
			Team1: []string{"a"},
			Team2: []string{"b"},
		},
	}

	if got := sess.DeviceTeam("a"); got != Team1 {
		t.Fatalf("expected team 1 for device a, got %d", got)
	}
	if got := sess.DeviceTeam("b"); got != Team2 {
		t.Fatalf("expected team 2 for device b, got %d", got)
	}
	if got := sess.DeviceTeam("c"); got != 0 {
		t.Fatalf("expected 0 for unknown device, got %d", got)
	}
}

func TestSnapshotCopiesDeviceLists(t *testing.T) {
	sess := &Session{
		ID:     "ABC123",
		Status: StatusRunning,
		PairedDevices: models.PairedDevices{
			Team1: []string{"a"},
			Team2: []string{},
		},
	}

	snap := sess.Snapshot()
	sess.PairedDevices.Team1[0] = "tampered"

	if snap.PairedDevices.Team1[0] != "a" {
		t.Fatal("snapshot shares device list with session")
	}
	if snap.Timestamp == 0 {
		t.Fatal("expected snapshot timestamp to be set")
	}
}
