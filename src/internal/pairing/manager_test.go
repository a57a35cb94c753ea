package pairing

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"scorely-session-svc/src/internal/models"
	"scorely-session-svc/src/internal/publisher"
	"scorely-session-svc/src/internal/session"
)

type publication struct {
	topic    string
	payload  []byte
	retained bool
}

type fakeBroker struct {
	mu           sync.Mutex
	publications []publication
}

func (b *fakeBroker) Publish(topic string, payload []byte, retained bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.publications = append(b.publications, publication{topic: topic, payload: payload, retained: retained})
	return nil
}

func (b *fakeBroker) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.publications)
}

func (b *fakeBroker) lastOn(t *testing.T, topic string) []byte {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.publications) - 1; i >= 0; i-- {
		if b.publications[i].topic == topic {
			return b.publications[i].payload
		}
	}
	t.Fatalf("no publication on topic %q", topic)
	return nil
}

type fakeAuditor struct {
	mu      sync.Mutex
	actions []string
}

func (a *fakeAuditor) PublishActivity(_, _, _, action string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, action)
	return nil
}

func newTestManager(t *testing.T) (*Manager, *session.Store, *fakeBroker, *fakeAuditor) {
	t.Helper()
	store := session.NewStore(time.Minute)
	broker := &fakeBroker{}
	auditor := &fakeAuditor{}
	manager := NewManager(store, publisher.New(broker), auditor, time.Minute)
	return manager, store, broker, auditor
}

func TestPairBalancesTeams(t *testing.T) {
	manager, store, _, _ := newTestManager(t)
	sess := store.Create("arena-1")

	// Ties go to team 1, so assignment alternates.
	want := []int{session.Team1, session.Team2, session.Team1, session.Team2, session.Team1}
	for i, expected := range want {
		team, err := manager.Pair(sess.ID, fmt.Sprintf("bracelet-%d", i))
		if err != nil {
			t.Fatalf("pair %d failed: %v", i, err)
		}
		if team != expected {
			t.Fatalf("device %d: expected team %d, got %d", i, expected, team)
		}
	}

	got, err := store.Get(sess.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	team1, team2 := got.TeamCounts()
	if team1 != 3 || team2 != 2 {
		t.Fatalf("expected 3:2 split, got %d:%d", team1, team2)
	}
}

func TestPairIsIdempotent(t *testing.T) {
	manager, store, broker, _ := newTestManager(t)
	sess := store.Create("arena-1")

	first, err := manager.Pair(sess.ID, "bracelet-1")
	if err != nil {
		t.Fatalf("pair failed: %v", err)
	}
	published := broker.count()

	second, err := manager.Pair(sess.ID, "bracelet-1")
	if err != nil {
		t.Fatalf("re-pair failed: %v", err)
	}
	if second != first {
		t.Fatalf("expected same team on re-pair, got %d then %d", first, second)
	}
	if broker.count() != published {
		t.Fatal("re-pair must not publish a new snapshot")
	}

	got, err := store.Get(sess.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	team1, team2 := got.TeamCounts()
	if team1+team2 != 1 {
		t.Fatalf("expected one paired device, got %d", team1+team2)
	}
}

func TestPairRejectsClosedWindow(t *testing.T) {
	manager, store, _, _ := newTestManager(t)
	sess := store.Create("arena-1")

	if _, err := store.Mutate(sess.ID, func(s *session.Session) error {
		s.PairingOpen = false
		return nil
	}); err != nil {
		t.Fatalf("mutate failed: %v", err)
	}

	if _, err := manager.Pair(sess.ID, "bracelet-1"); !errors.Is(err, models.ErrPairingClosed) {
		t.Fatalf("expected ErrPairingClosed, got %v", err)
	}
}

func TestPairRejectsExpiredWindow(t *testing.T) {
	manager, store, _, _ := newTestManager(t)
	sess := store.Create("arena-1")

	// The flag is still set but the deadline has passed; the window is
	// treated as expired even before the timer fires.
	if _, err := store.Mutate(sess.ID, func(s *session.Session) error {
		expired := time.Now().Add(-time.Second)
		s.PairingExpiresAt = &expired
		return nil
	}); err != nil {
		t.Fatalf("mutate failed: %v", err)
	}

	if _, err := manager.Pair(sess.ID, "bracelet-1"); !errors.Is(err, models.ErrPairingExpired) {
		t.Fatalf("expected ErrPairingExpired, got %v", err)
	}
}

func TestPairAuditsNewPairings(t *testing.T) {
	manager, store, _, auditor := newTestManager(t)
	sess := store.Create("arena-1")

	if _, err := manager.Pair(sess.ID, "bracelet-1"); err != nil {
		t.Fatalf("pair failed: %v", err)
	}
	if _, err := manager.Pair(sess.ID, "bracelet-1"); err != nil {
		t.Fatalf("re-pair failed: %v", err)
	}

	if len(auditor.actions) != 1 || auditor.actions[0] != models.ActionDevicePaired {
		t.Fatalf("expected exactly one pairing audit, got %v", auditor.actions)
	}
}

func TestOpenPairingRejectsEndedSession(t *testing.T) {
	manager, store, _, _ := newTestManager(t)
	sess := store.Create("arena-1")

	if _, err := store.Mutate(sess.ID, func(s *session.Session) error {
		s.Status = session.StatusEnded
		s.PairingOpen = false
		return nil
	}); err != nil {
		t.Fatalf("mutate failed: %v", err)
	}

	if err := manager.OpenPairing(sess.ID, time.Minute); !errors.Is(err, models.ErrSessionEnded) {
		t.Fatalf("expected ErrSessionEnded, got %v", err)
	}
}

func TestExpiryTimerClosesWindow(t *testing.T) {
	manager, store, _, _ := newTestManager(t)
	sess := store.Create("arena-1")

	if err := manager.OpenPairing(sess.ID, 10*time.Millisecond); err != nil {
		t.Fatalf("open pairing failed: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		got, err := store.Get(sess.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if !got.PairingOpen {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("pairing window never expired")
}

func TestCancelExpiryStopsTimer(t *testing.T) {
	manager, store, _, _ := newTestManager(t)
	sess := store.Create("arena-1")

	if err := manager.OpenPairing(sess.ID, 20*time.Millisecond); err != nil {
		t.Fatalf("open pairing failed: %v", err)
	}
	manager.CancelExpiry(sess.ID)

	time.Sleep(100 * time.Millisecond)

	got, err := store.Get(sess.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !got.PairingOpen {
		t.Fatal("canceled timer must not close the window")
	}
}

func TestHandleRequestWithoutOpenSession(t *testing.T) {
	manager, _, broker, _ := newTestManager(t)

	manager.HandleRequest(&models.PairingRequest{DeviceID: "bracelet-1"})

	payload := broker.lastOn(t, publisher.PairingResponseTopic("bracelet-1"))
	var resp models.PairingResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "error" {
		t.Fatalf("expected error status, got %q", resp.Status)
	}
	if resp.Error == "" {
		t.Fatal("expected error message in response")
	}
}

func TestHandleRequestPairsAndResponds(t *testing.T) {
	manager, store, broker, _ := newTestManager(t)
	sess := store.Create("arena-1")

	manager.HandleRequest(&models.PairingRequest{DeviceID: "bracelet-1"})

	payload := broker.lastOn(t, publisher.PairingResponseTopic("bracelet-1"))
	var resp models.PairingResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Fatalf("expected ok status, got %q (%s)", resp.Status, resp.Error)
	}
	if resp.SessionID != sess.ID {
		t.Fatalf("expected session %s, got %s", sess.ID, resp.SessionID)
	}
	if resp.Team != session.Team1 {
		t.Fatalf("expected first device on team 1, got %d", resp.Team)
	}
	if resp.Topic != publisher.EventTopic(sess.ID) {
		t.Fatalf("unexpected event topic %q", resp.Topic)
	}
}
