package store

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/good-yellow-bee/alertrelay/internal/models"
)

const (
	// DefaultMaxRecords bounds in-memory retention. When the cap is
	// reached the oldest records are evicted.
	DefaultMaxRecords = 1000

	// maxQueryResults caps the number of records a single query
	// returns. An unfiltered query yields at most the 100 newest
	// records.
	maxQueryResults = 100
)

// MemoryStore is a bounded, append-only in-memory alert store.
// Records are immutable once inserted and ReceivedAt is strictly
// increasing with insertion order. Safe for concurrent use.
type MemoryStore struct {
	mu           sync.RWMutex
	records      []models.AlertRecord
	maxRecords   int
	lastReceived time.Time
	evicted      atomic.Int64

	// now is swappable for tests.
	now func() time.Time
	// newID is swappable for tests.
	newID func() string
}

// NewMemoryStore creates a memory store. maxRecords <= 0 selects
// DefaultMaxRecords.
func NewMemoryStore(maxRecords int) *MemoryStore {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	return &MemoryStore{
		records:    make([]models.AlertRecord, 0, maxRecords),
		maxRecords: maxRecords,
		now:        time.Now,
		newID:      newRecordID,
	}
}

// Put appends a record, assigning its ID and ReceivedAt. The input
// record is updated in place with the assigned fields and a copy is
// retained, so later caller mutations cannot affect stored state.
func (s *MemoryStore) Put(_ context.Context, record *models.AlertRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UTC()
	// ReceivedAt must be strictly increasing even when the clock
	// resolution cannot distinguish two inserts.
	if !ts.After(s.lastReceived) {
		ts = s.lastReceived.Add(time.Nanosecond)
	}
	s.lastReceived = ts

	record.ID = s.newID()
	record.ReceivedAt = ts

	stored := *record
	stored.RecentLogs = append([]string(nil), record.RecentLogs...)
	if record.AffectedUsers != nil {
		n := *record.AffectedUsers
		stored.AffectedUsers = &n
	}

	s.records = append(s.records, stored)
	if over := len(s.records) - s.maxRecords; over > 0 {
		s.records = append(s.records[:0:0], s.records[over:]...)
		s.evicted.Add(int64(over))
	}

	return record.ID, nil
}

// Query returns records matching the filter, newest-first. Service is
// an exact, case-sensitive match. A positive SinceDays bounds record
// age as ReceivedAt >= now - SinceDays*24h; a zero window carries no
// age bound, so records inserted up to the current instant always
// qualify. At most maxQueryResults records are returned.
func (s *MemoryStore) Query(_ context.Context, filter models.QueryFilter) ([]models.AlertRecord, error) {
	var cutoff time.Time
	ageBound := filter.SinceDays != nil && *filter.SinceDays > 0
	if ageBound {
		cutoff = s.now().UTC().Add(-time.Duration(*filter.SinceDays) * 24 * time.Hour)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.AlertRecord, 0, maxQueryResults)
	for i := len(s.records) - 1; i >= 0; i-- {
		r := s.records[i]
		if ageBound && r.ReceivedAt.Before(cutoff) {
			// Records are ordered by ReceivedAt; everything older
			// is out of range too.
			break
		}
		if filter.Service != "" && r.Service != filter.Service {
			continue
		}
		out = append(out, r)
		if len(out) >= maxQueryResults {
			break
		}
	}
	return out, nil
}

// Len returns the number of records currently held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Evicted returns the total number of records dropped to respect the
// retention cap.
func (s *MemoryStore) Evicted() int64 {
	return s.evicted.Load()
}
