package health

import (
	"context"
	"fmt"
)

// Pinger is implemented by dependencies that support a ping check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MirrorChecker checks the durable alert mirror.
type MirrorChecker struct {
	pinger Pinger
}

// NewMirrorChecker creates a mirror health checker.
func NewMirrorChecker(p Pinger) *MirrorChecker {
	return &MirrorChecker{pinger: p}
}

// Name returns the checker name.
func (c *MirrorChecker) Name() string {
	return "mirror"
}

// Check verifies the mirror is accessible.
func (c *MirrorChecker) Check(ctx context.Context) error {
	if c.pinger == nil {
		return fmt.Errorf("mirror not configured")
	}
	return c.pinger.Ping(ctx)
}

// StoreChecker reports on the in-memory alert store.
type StoreChecker struct {
	size func() int
}

// NewStoreChecker creates a store health checker.
func NewStoreChecker(size func() int) *StoreChecker {
	return &StoreChecker{size: size}
}

// Name returns the checker name.
func (c *StoreChecker) Name() string {
	return "store"
}

// Check verifies the store is initialized.
func (c *StoreChecker) Check(ctx context.Context) error {
	if c.size == nil {
		return fmt.Errorf("store not initialized")
	}
	c.size()
	return nil
}
