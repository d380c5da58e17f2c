package answer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/good-yellow-bee/alertrelay/internal/models"
)

func sampleRecords(n int) []models.AlertRecord {
	records := make([]models.AlertRecord, n)
	for i := range records {
		records[i] = models.AlertRecord{
			ID:          "rec",
			Service:     "auth",
			ErrorType:   "Timeout",
			Message:     "Database Connection Timeout",
			Severity:    models.SeverityHigh,
			Environment: "production",
			ReceivedAt:  time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		}
	}
	return records
}

func TestBuildPrompt(t *testing.T) {
	prompt, err := BuildPrompt("why did auth fail?", sampleRecords(2))
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}

	for _, want := range []string{
		"reliability assistant",
		"Database Connection Timeout",
		"why did auth fail?",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPromptEmptyContext(t *testing.T) {
	prompt, err := BuildPrompt("anything?", nil)
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}
	if !strings.Contains(prompt, "[]") {
		t.Error("empty context should serialize as []")
	}
}

func TestBuildPromptCapsRecords(t *testing.T) {
	prompt, err := BuildPrompt("q", sampleRecords(maxContextRecords+20))
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}
	if got := strings.Count(prompt, `"error_type"`); got != maxContextRecords {
		t.Errorf("prompt contains %d records, want %d", got, maxContextRecords)
	}
}

func TestHTTPGeneratorAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("x-goog-api-key = %q, want test-key", got)
		}

		body, _ := io.ReadAll(r.Body)
		var req generateRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("unmarshal request: %v", err)
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) != 1 {
			t.Errorf("unexpected request shape: %+v", req)
		}
		if !strings.Contains(req.Contents[0].Parts[0].Text, "why did auth fail?") {
			t.Error("prompt missing question")
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"The auth service timed out."}]}}]}`)
	}))
	defer server.Close()

	g, err := NewHTTPGenerator(HTTPConfig{URL: server.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewHTTPGenerator failed: %v", err)
	}
	g.httpClient = server.Client()

	text, err := g.Answer(context.Background(), "why did auth fail?", sampleRecords(1))
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if text != "The auth service timed out." {
		t.Errorf("Answer = %q", text)
	}
}

func TestHTTPGeneratorTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	g, err := NewHTTPGenerator(HTTPConfig{URL: server.URL, Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewHTTPGenerator failed: %v", err)
	}

	start := time.Now()
	_, err = g.Answer(context.Background(), "q", nil)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Answer took %v, timeout bound not applied", elapsed)
	}
}

func TestHTTPGeneratorErrorStatuses(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "server error", body: "boom", code: http.StatusInternalServerError},
		{name: "no candidates", body: `{"candidates":[]}`, code: http.StatusOK},
		{name: "malformed body", body: `{`, code: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			g, _ := NewHTTPGenerator(HTTPConfig{URL: server.URL})
			g.httpClient = server.Client()

			if _, err := g.Answer(context.Background(), "q", nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestHTTPGeneratorConfigValidation(t *testing.T) {
	if _, err := NewHTTPGenerator(HTTPConfig{}); err == nil {
		t.Error("expected error for missing URL")
	}
}

func TestStubGenerator(t *testing.T) {
	text, err := StubGenerator{}.Answer(context.Background(), "what failed?", sampleRecords(3))
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if !strings.Contains(text, "3 found") {
		t.Errorf("stub answer %q missing record count", text)
	}
	if !strings.Contains(text, "what failed?") {
		t.Errorf("stub answer %q missing question", text)
	}
}
