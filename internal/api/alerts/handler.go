// Package alerts implements the alert ingestion endpoint.
package alerts

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/good-yellow-bee/alertrelay/internal/metrics"
	"github.com/good-yellow-bee/alertrelay/internal/models"
	"github.com/good-yellow-bee/alertrelay/internal/notifier"
	"github.com/good-yellow-bee/alertrelay/internal/store"
)

// mirrorTimeout bounds the best-effort durable mirror write.
const mirrorTimeout = 5 * time.Second

// Response helpers
type errorResponse struct {
	Error errorBody `json:"error"`
}
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	errCodeBadRequest       = "BAD_REQUEST"
	errCodeValidationFailed = "VALIDATION_FAILED"
	errCodeInternalError    = "INTERNAL_ERROR"
)

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: errorBody{Code: code, Message: message}}); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

func jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

// IngestRequest is the POST /alert payload.
type IngestRequest struct {
	Service       string   `json:"service"`
	ErrorType     string   `json:"error_type"`
	Message       string   `json:"message"`
	Severity      string   `json:"severity"`
	AffectedUsers *int     `json:"affected_users,omitempty"`
	StackTrace    string   `json:"stack_trace,omitempty"`
	Environment   string   `json:"environment,omitempty"`
	RecentLogs    []string `json:"recent_logs,omitempty"`
}

// IngestResponse acknowledges a stored alert.
type IngestResponse struct {
	Status     string    `json:"status"`
	ID         string    `json:"id"`
	Service    string    `json:"service"`
	ReceivedAt time.Time `json:"received_at"`
}

// Handler handles alert ingestion.
type Handler struct {
	store      store.Store
	mirror     store.Mirror // may be nil
	dispatcher *notifier.Dispatcher
}

// NewHandler creates an ingestion handler. mirror may be nil when no
// durable mirror is configured.
func NewHandler(s store.Store, mirror store.Mirror, dispatcher *notifier.Dispatcher) *Handler {
	return &Handler{
		store:      s,
		mirror:     mirror,
		dispatcher: dispatcher,
	}
}

// Ingest handles POST /alert. The record is durably stored before the
// response is written; the chat notification and the mirror write run
// decoupled afterward and their failures never reach the caller.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	record, err := ValidateRequest(&req)
	if err != nil {
		metrics.AlertsRejected.Inc()
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
		return
	}

	ctx := r.Context()
	id, err := h.store.Put(ctx, record)
	if err != nil {
		log.Printf("ingest: store write failed for %s: %v", record.Service, err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	metrics.AlertsIngested.Inc()
	metrics.StoreRecords.Set(float64(h.store.Len()))
	log.Printf("ingest: stored alert %s for %s (%s)", id, record.Service, record.Severity)

	if h.mirror != nil {
		go h.writeMirror(record)
	}
	if h.dispatcher != nil {
		h.dispatcher.Notify(record)
	}

	jsonOK(w, IngestResponse{
		Status:     "processed",
		ID:         id,
		Service:    record.Service,
		ReceivedAt: record.ReceivedAt,
	})
}

// writeMirror copies the record into the durable mirror. Best-effort:
// failures are logged and counted only.
func (h *Handler) writeMirror(record *models.AlertRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()

	if err := h.mirror.Insert(ctx, record); err != nil {
		metrics.MirrorErrors.Inc()
		log.Printf("ingest: mirror write failed for %s (%s): %v", record.Service, record.ID, err)
	}
}
