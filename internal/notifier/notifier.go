// Package notifier provides best-effort notification dispatching for
// ingested alerts.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/good-yellow-bee/alertrelay/internal/models"
)

// Notifier is the interface for notification channels.
type Notifier interface {
	// Name returns the notifier name (e.g., "googlechat").
	Name() string
	// Send delivers a notification for the given alert record.
	Send(ctx context.Context, record *models.AlertRecord) error
	// Close releases any resources.
	Close() error
}

// ErrRateLimited is returned when a notification is dropped due to rate
// limiting.
var ErrRateLimited = errors.New("notification rate limited")

// Dispatcher fans an alert out to all registered notifiers. Delivery is
// fire-and-forget from the caller's perspective: Notify runs on its own
// goroutine and failures are logged, never propagated to the ingestion
// response.
type Dispatcher struct {
	mu          sync.RWMutex
	notifiers   map[string]Notifier
	rateLimiter *RateLimiter
	timeout     time.Duration
	wg          sync.WaitGroup

	onResult func(name string, err error) // test hook, also drives metrics
}

// NewDispatcher creates a dispatcher with the given rate limit
// configuration and per-delivery timeout. A timeout <= 0 selects 10s.
func NewDispatcher(rate RateLimitConfig, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		notifiers:   make(map[string]Notifier),
		rateLimiter: NewRateLimiter(rate),
		timeout:     timeout,
	}
}

// Register adds a notifier to the dispatcher.
func (d *Dispatcher) Register(n Notifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifiers[n.Name()] = n
}

// OnResult installs a callback invoked after every delivery attempt.
func (d *Dispatcher) OnResult(fn func(name string, err error)) {
	d.onResult = fn
}

// Notify dispatches the record to every registered notifier on a
// background goroutine. The record must not be mutated by the caller
// afterward; the store hands out its own copy.
func (d *Dispatcher) Notify(record *models.AlertRecord) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.dispatch(record)
	}()
}

func (d *Dispatcher) dispatch(record *models.AlertRecord) {
	if d.rateLimiter != nil && !d.rateLimiter.Allow() {
		log.Printf("notifier: dropped notification for %s (%s): rate limited",
			record.Service, record.ID)
		d.report("", ErrRateLimited)
		return
	}

	d.mu.RLock()
	notifiers := make([]Notifier, 0, len(d.notifiers))
	for _, n := range d.notifiers {
		notifiers = append(notifiers, n)
	}
	d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	for _, n := range notifiers {
		if err := n.Send(ctx, record); err != nil {
			log.Printf("notifier: %s delivery failed for %s (%s): %v",
				n.Name(), record.Service, record.ID, err)
			d.report(n.Name(), err)
			continue
		}
		log.Printf("notifier: %s notified for %s (%s)", n.Name(), record.Service, record.ID)
		d.report(n.Name(), nil)
	}
}

func (d *Dispatcher) report(name string, err error) {
	if d.onResult != nil {
		d.onResult(name, err)
	}
}

// Dropped returns the number of notifications dropped by rate limiting.
func (d *Dispatcher) Dropped() int64 {
	if d.rateLimiter == nil {
		return 0
	}
	return d.rateLimiter.Dropped()
}

// Close waits for in-flight deliveries and closes all notifiers.
func (d *Dispatcher) Close() error {
	d.wg.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for name, n := range d.notifiers {
		if err := n.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	d.notifiers = make(map[string]Notifier)

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
