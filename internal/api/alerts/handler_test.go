package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/good-yellow-bee/alertrelay/internal/models"
	"github.com/good-yellow-bee/alertrelay/internal/notifier"
	"github.com/good-yellow-bee/alertrelay/internal/store"
)

func samplePayload() map[string]any {
	return map[string]any{
		"service":        "user-authentication",
		"error_type":     "DatabaseTimeout",
		"message":        "Database Connection Timeout",
		"severity":       "HIGH",
		"affected_users": 1500,
		"environment":    "production",
		"recent_logs":    []string{"retrying connection", "pool exhausted"},
	}
}

func postAlert(t *testing.T, h *Handler, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/alert", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.Ingest(rr, req)
	return rr
}

func TestIngestStoresRecord(t *testing.T) {
	s := store.NewMemoryStore(10)
	h := NewHandler(s, nil, nil)

	rr := postAlert(t, h, samplePayload())

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rr.Code, rr.Body.String())
	}

	var resp IngestResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Status != "processed" {
		t.Errorf("Status = %q, want processed", resp.Status)
	}
	if resp.ID == "" {
		t.Error("response missing record ID")
	}
	if resp.Service != "user-authentication" {
		t.Errorf("Service = %q", resp.Service)
	}
	if resp.ReceivedAt.IsZero() {
		t.Error("response missing received_at")
	}

	if s.Len() != 1 {
		t.Errorf("store holds %d records, want 1", s.Len())
	}
}

func TestIngestValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
		errMsg string
	}{
		{
			name:   "missing service",
			mutate: func(p map[string]any) { delete(p, "service") },
			errMsg: "service is required",
		},
		{
			name:   "blank service",
			mutate: func(p map[string]any) { p["service"] = "   " },
			errMsg: "service is required",
		},
		{
			name:   "missing error_type",
			mutate: func(p map[string]any) { delete(p, "error_type") },
			errMsg: "error_type is required",
		},
		{
			name:   "missing message",
			mutate: func(p map[string]any) { delete(p, "message") },
			errMsg: "message is required",
		},
		{
			name:   "missing severity",
			mutate: func(p map[string]any) { delete(p, "severity") },
			errMsg: "severity is required",
		},
		{
			name:   "invalid severity",
			mutate: func(p map[string]any) { p["severity"] = "SEVERE" },
			errMsg: "invalid severity",
		},
		{
			name:   "negative affected_users",
			mutate: func(p map[string]any) { p["affected_users"] = -5 },
			errMsg: "affected_users must be >= 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.NewMemoryStore(10)
			h := NewHandler(s, nil, nil)

			payload := samplePayload()
			tt.mutate(payload)
			rr := postAlert(t, h, payload)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body: %s", rr.Code, rr.Body.String())
			}
			var resp errorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal error response: %v", err)
			}
			if resp.Error.Code != errCodeValidationFailed {
				t.Errorf("error code = %q, want %q", resp.Error.Code, errCodeValidationFailed)
			}
			if !strings.Contains(resp.Error.Message, tt.errMsg) {
				t.Errorf("error message %q missing %q", resp.Error.Message, tt.errMsg)
			}
			// Nothing may be stored on rejection.
			if s.Len() != 0 {
				t.Errorf("store holds %d records after rejected payload, want 0", s.Len())
			}
		})
	}
}

func TestIngestInvalidJSON(t *testing.T) {
	h := NewHandler(store.NewMemoryStore(10), nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/alert", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	h.Ingest(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestIngestLowercaseSeverityNormalized(t *testing.T) {
	s := store.NewMemoryStore(10)
	h := NewHandler(s, nil, nil)

	payload := samplePayload()
	payload["severity"] = "critical"
	rr := postAlert(t, h, payload)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	records, _ := s.Query(context.Background(), models.QueryFilter{})
	if records[0].Severity != models.SeverityCritical {
		t.Errorf("stored severity = %q, want CRITICAL", records[0].Severity)
	}
}

func TestIngestDefaultEnvironment(t *testing.T) {
	s := store.NewMemoryStore(10)
	h := NewHandler(s, nil, nil)

	payload := samplePayload()
	delete(payload, "environment")
	postAlert(t, h, payload)

	records, _ := s.Query(context.Background(), models.QueryFilter{})
	if records[0].Environment != "production" {
		t.Errorf("Environment = %q, want production", records[0].Environment)
	}
}

// failingStore simulates an unavailable store.
type failingStore struct{}

func (failingStore) Put(context.Context, *models.AlertRecord) (string, error) {
	return "", store.ErrUnavailable
}

func (failingStore) Query(context.Context, models.QueryFilter) ([]models.AlertRecord, error) {
	return nil, store.ErrUnavailable
}

func (failingStore) Len() int { return 0 }

func TestIngestStoreFailure(t *testing.T) {
	h := NewHandler(failingStore{}, nil, nil)

	rr := postAlert(t, h, samplePayload())

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
}

// failingMirror always rejects writes.
type failingMirror struct {
	calls chan struct{}
}

func (m *failingMirror) Insert(context.Context, *models.AlertRecord) error {
	m.calls <- struct{}{}
	return errors.New("mirror down")
}

func (m *failingMirror) List(context.Context, int) ([]models.AlertRecord, error) {
	return nil, errors.New("mirror down")
}

func (m *failingMirror) Ping(context.Context) error { return errors.New("mirror down") }
func (m *failingMirror) Close() error               { return nil }

func TestIngestMirrorFailureAbsorbed(t *testing.T) {
	mirror := &failingMirror{calls: make(chan struct{}, 1)}
	h := NewHandler(store.NewMemoryStore(10), mirror, nil)

	rr := postAlert(t, h, samplePayload())

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 despite mirror failure", rr.Code)
	}

	select {
	case <-mirror.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("mirror write never attempted")
	}
}

// failingNotifier simulates an unreachable webhook.
type failingNotifier struct {
	calls chan struct{}
}

func (n *failingNotifier) Name() string { return "failing" }

func (n *failingNotifier) Send(context.Context, *models.AlertRecord) error {
	n.calls <- struct{}{}
	return errors.New("webhook unreachable")
}

func (n *failingNotifier) Close() error { return nil }

func TestIngestNotificationFailureAbsorbed(t *testing.T) {
	failing := &failingNotifier{calls: make(chan struct{}, 1)}
	d := notifier.NewDispatcher(notifier.RateLimitConfig{Enabled: false}, time.Second)
	d.Register(failing)
	h := NewHandler(store.NewMemoryStore(10), nil, d)

	rr := postAlert(t, h, samplePayload())

	// Ingestion reports success once the record is stored, regardless
	// of notification outcome.
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 despite notification failure", rr.Code)
	}

	select {
	case <-failing.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("notification never attempted")
	}
}
