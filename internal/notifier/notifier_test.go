package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/good-yellow-bee/alertrelay/internal/models"
)

// recordingNotifier captures sent records for assertions.
type recordingNotifier struct {
	mu      sync.Mutex
	records []*models.AlertRecord
	err     error
}

func (r *recordingNotifier) Name() string { return "recording" }

func (r *recordingNotifier) Send(_ context.Context, record *models.AlertRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return r.err
}

func (r *recordingNotifier) Close() error { return nil }

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func TestDispatcherNotify(t *testing.T) {
	d := NewDispatcher(RateLimitConfig{Enabled: false}, time.Second)
	rec := &recordingNotifier{}
	d.Register(rec)

	done := make(chan error, 1)
	d.OnResult(func(name string, err error) { done <- err })

	d.Notify(&models.AlertRecord{ID: "rec-1", Service: "auth"})

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("delivery failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notification never delivered")
	}

	if rec.count() != 1 {
		t.Errorf("notifier received %d records, want 1", rec.count())
	}
}

func TestDispatcherAbsorbsDeliveryFailure(t *testing.T) {
	d := NewDispatcher(RateLimitConfig{Enabled: false}, time.Second)
	rec := &recordingNotifier{err: errors.New("webhook unreachable")}
	d.Register(rec)

	done := make(chan error, 1)
	d.OnResult(func(name string, err error) { done <- err })

	// Must not panic or propagate; failure is logged only.
	d.Notify(&models.AlertRecord{ID: "rec-1", Service: "auth"})

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected delivery error to reach result hook")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("result hook never invoked")
	}
}

func TestDispatcherRateLimitDrops(t *testing.T) {
	d := NewDispatcher(RateLimitConfig{MaxPerWindow: 1, Window: time.Minute, Enabled: true}, time.Second)
	rec := &recordingNotifier{}
	d.Register(rec)

	var mu sync.Mutex
	var results []error
	d.OnResult(func(name string, err error) {
		mu.Lock()
		results = append(results, err)
		mu.Unlock()
	})

	d.Notify(&models.AlertRecord{ID: "rec-1", Service: "auth"})
	d.Notify(&models.AlertRecord{ID: "rec-2", Service: "auth"})
	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if rec.count() != 1 {
		t.Errorf("notifier received %d records, want 1 (second dropped)", rec.count())
	}
	if d.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", d.Dropped())
	}

	mu.Lock()
	defer mu.Unlock()
	var limited bool
	for _, err := range results {
		if errors.Is(err, ErrRateLimited) {
			limited = true
		}
	}
	if !limited {
		t.Error("no ErrRateLimited reported")
	}
}

func TestDispatcherCloseWaitsForInflight(t *testing.T) {
	d := NewDispatcher(RateLimitConfig{Enabled: false}, time.Second)
	rec := &recordingNotifier{}
	d.Register(rec)

	for i := 0; i < 10; i++ {
		d.Notify(&models.AlertRecord{ID: "rec", Service: "auth"})
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if rec.count() != 10 {
		t.Errorf("notifier received %d records before Close returned, want 10", rec.count())
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{MaxPerWindow: 2, Window: time.Minute, Enabled: true})

	if !rl.Allow() || !rl.Allow() {
		t.Fatal("first two notifications should be allowed")
	}
	if rl.Allow() {
		t.Error("third notification should be rate limited")
	}
	if rl.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", rl.Dropped())
	}

	rl.Reset()
	if !rl.Allow() {
		t.Error("notification after Reset should be allowed")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{MaxPerWindow: 1, Window: time.Minute, Enabled: false})
	for i := 0; i < 10; i++ {
		if !rl.Allow() {
			t.Fatal("disabled limiter must always allow")
		}
	}
}
