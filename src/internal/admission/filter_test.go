package admission

import (
	"testing"
	"time"

	"scorely-session-svc/src/internal/config"
	"scorely-session-svc/src/internal/models"
)

func newTestFilter(start time.Time) (*Filter, *time.Time) {
	now := start
	f := NewFilter(&config.AdmissionConfig{
		DedupTTLMs:   5000,
		RateWindowMs: 1000,
		MaxPerWindow: 10,
	})
	f.now = func() time.Time { return now }
	return f, &now
}

func event(deviceID string, ts int64) *models.ScoreEvent {
	return &models.ScoreEvent{
		DeviceID:  deviceID,
		Team:      1,
		Action:    models.ActionIncrement,
		Timestamp: ts,
	}
}

func TestAdmitDuplicateWithinTTL(t *testing.T) {
	f, now := newTestFilter(time.Now())

	if got := f.Admit(event("bracelet-1", 1000)); got != Accepted {
		t.Fatalf("expected first event accepted, got %v", got)
	}
	if got := f.Admit(event("bracelet-1", 1000)); got != Duplicate {
		t.Fatalf("expected retransmission rejected, got %v", got)
	}

	// After the TTL the marker is gone and the same key admits again.
	*now = now.Add(6 * time.Second)
	if got := f.Admit(event("bracelet-1", 1000)); got != Accepted {
		t.Fatalf("expected event accepted after TTL, got %v", got)
	}
}

func TestAdmitDistinctTimestampsNotDuplicates(t *testing.T) {
	f, _ := newTestFilter(time.Now())

	if got := f.Admit(event("bracelet-1", 1000)); got != Accepted {
		t.Fatalf("expected accepted, got %v", got)
	}
	if got := f.Admit(event("bracelet-1", 1001)); got != Accepted {
		t.Fatalf("expected distinct timestamp accepted, got %v", got)
	}
	if got := f.Admit(event("bracelet-2", 1000)); got != Accepted {
		t.Fatalf("expected distinct device accepted, got %v", got)
	}
}

func TestAdmitRateLimit(t *testing.T) {
	f, now := newTestFilter(time.Now())

	for i := 0; i < 10; i++ {
		if got := f.Admit(event("bracelet-1", int64(i))); got != Accepted {
			t.Fatalf("expected event %d accepted, got %v", i, got)
		}
	}

	if got := f.Admit(event("bracelet-1", 100)); got != RateLimited {
		t.Fatalf("expected 11th event in window rate limited, got %v", got)
	}

	// A second device has its own window.
	if got := f.Admit(event("bracelet-2", 100)); got != Accepted {
		t.Fatalf("expected other device unaffected, got %v", got)
	}

	// Once the window elapses the counter resets.
	*now = now.Add(1500 * time.Millisecond)
	if got := f.Admit(event("bracelet-1", 200)); got != Accepted {
		t.Fatalf("expected event accepted after window rollover, got %v", got)
	}
}

func TestAdmitDuplicateDoesNotConsumeRateBudget(t *testing.T) {
	f, _ := newTestFilter(time.Now())

	for i := 0; i < 9; i++ {
		if got := f.Admit(event("bracelet-1", int64(i))); got != Accepted {
			t.Fatalf("expected event %d accepted, got %v", i, got)
		}
	}

	// Retransmissions are rejected before the rate counter.
	for i := 0; i < 5; i++ {
		if got := f.Admit(event("bracelet-1", 0)); got != Duplicate {
			t.Fatalf("expected duplicate, got %v", got)
		}
	}

	if got := f.Admit(event("bracelet-1", 100)); got != Accepted {
		t.Fatalf("expected 10th fresh event accepted, got %v", got)
	}
}

func TestResultString(t *testing.T) {
	cases := map[Result]string{
		Accepted:    "accepted",
		Duplicate:   "duplicate",
		RateLimited: "rate_limited",
	}
	for result, want := range cases {
		if got := result.String(); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}
