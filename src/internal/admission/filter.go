package admission

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"scorely-session-svc/src/internal/config"
	"scorely-session-svc/src/internal/models"
)

// Result of an admission check. Duplicate and RateLimited are terminal:
// the event is dropped without feedback to the sender.
type Result int

const (
	Accepted Result = iota
	Duplicate
	RateLimited
)

func (r Result) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case Duplicate:
		return "duplicate"
	case RateLimited:
		return "rate_limited"
	}
	return "unknown"
}

type rateWindow struct {
	windowStart time.Time
	count       int
}

// Filter gates inbound score events before they reach state logic. It keeps
// a dedup marker per (device, timestamp) and a sliding per-device rate
// window. Both tables are process-local; the filter sits on the single
// dispatch path.
type Filter struct {
	mu       sync.Mutex
	seen     map[string]time.Time // dedup key -> expiry
	rates    map[string]*rateWindow
	dedupTTL time.Duration
	window   time.Duration
	maxCount int
	now      func() time.Time
}

func NewFilter(cfg *config.AdmissionConfig) *Filter {
	return &Filter{
		seen:     make(map[string]time.Time),
		rates:    make(map[string]*rateWindow),
		dedupTTL: time.Duration(cfg.DedupTTLMs) * time.Millisecond,
		window:   time.Duration(cfg.RateWindowMs) * time.Millisecond,
		maxCount: cfg.MaxPerWindow,
		now:      time.Now,
	}
}

// Admit checks a score event against the dedup cache and the per-device
// rate window. Expired dedup markers are evicted lazily on each call.
func (f *Filter) Admit(event *models.ScoreEvent) Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()

	// Evict expired dedup markers.
	for key, expiry := range f.seen {
		if now.After(expiry) {
			delete(f.seen, key)
		}
	}

	key := fmt.Sprintf("%s_%d", event.DeviceID, event.Timestamp)
	if _, dup := f.seen[key]; dup {
		logrus.WithFields(logrus.Fields{
			"device_id": event.DeviceID,
			"timestamp": event.Timestamp,
		}).Warn("Duplicate event ignored")
		return Duplicate
	}

	if f.isRateLimited(event.DeviceID, now) {
		logrus.WithField("device_id", event.DeviceID).Warn("Rate limit exceeded, event ignored")
		return RateLimited
	}

	// The marker expiry is fixed at admission time, not refreshed by
	// later duplicates.
	f.seen[key] = now.Add(f.dedupTTL)
	return Accepted
}

func (f *Filter) isRateLimited(deviceID string, now time.Time) bool {
	rate, ok := f.rates[deviceID]
	if !ok || now.Sub(rate.windowStart) > f.window {
		f.rates[deviceID] = &rateWindow{windowStart: now, count: 1}
		return false
	}

	rate.count++
	return rate.count > f.maxCount
}
