package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/good-yellow-bee/alertrelay/internal/models"
)

func newTestMirror(t *testing.T) *SQLiteMirror {
	t.Helper()
	m := NewSQLiteMirror(filepath.Join(t.TempDir(), "alerts.db"))
	if err := m.Open(); err != nil {
		t.Fatalf("open mirror: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestSQLiteMirrorInsertAndList(t *testing.T) {
	m := newTestMirror(t)
	ctx := context.Background()

	first := &models.AlertRecord{
		ID:          "rec-1",
		Service:     "user-authentication",
		ErrorType:   "DatabaseTimeout",
		Message:     "Database Connection Timeout",
		Severity:    models.SeverityHigh,
		Environment: "production",
		RecentLogs:  []string{"retrying connection", "pool exhausted"},
		ReceivedAt:  time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	affected := 1500
	second := &models.AlertRecord{
		ID:            "rec-2",
		Service:       "billing",
		ErrorType:     "PaymentFailed",
		Message:       "charge declined",
		Severity:      models.SeverityCritical,
		AffectedUsers: &affected,
		StackTrace:    "at billing.Charge()",
		Environment:   "production",
		ReceivedAt:    time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC),
	}

	if err := m.Insert(ctx, first); err != nil {
		t.Fatalf("insert first: %v", err)
	}
	if err := m.Insert(ctx, second); err != nil {
		t.Fatalf("insert second: %v", err)
	}

	records, err := m.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("list returned %d records, want 2", len(records))
	}

	// Newest first.
	if records[0].ID != "rec-2" || records[1].ID != "rec-1" {
		t.Errorf("order = [%s %s], want [rec-2 rec-1]", records[0].ID, records[1].ID)
	}

	got := records[0]
	if got.AffectedUsers == nil || *got.AffectedUsers != 1500 {
		t.Errorf("AffectedUsers = %v, want 1500", got.AffectedUsers)
	}
	if got.StackTrace != "at billing.Charge()" {
		t.Errorf("StackTrace = %q", got.StackTrace)
	}

	got = records[1]
	if got.AffectedUsers != nil {
		t.Errorf("AffectedUsers = %v, want nil", got.AffectedUsers)
	}
	if len(got.RecentLogs) != 2 || got.RecentLogs[0] != "retrying connection" {
		t.Errorf("RecentLogs = %v", got.RecentLogs)
	}
}

func TestSQLiteMirrorListLimit(t *testing.T) {
	m := newTestMirror(t)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		rec := &models.AlertRecord{
			ID:          string(rune('a' + i)),
			Service:     "auth",
			ErrorType:   "X",
			Message:     "m",
			Severity:    models.SeverityLow,
			Environment: "staging",
			ReceivedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := m.Insert(ctx, rec); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	records, err := m.List(ctx, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("list returned %d records, want 3", len(records))
	}
}

func TestSQLiteMirrorPing(t *testing.T) {
	m := newTestMirror(t)
	if err := m.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}

	unopened := NewSQLiteMirror("/nonexistent/alerts.db")
	if err := unopened.Ping(context.Background()); err == nil {
		t.Error("ping on unopened mirror should fail")
	}
}
