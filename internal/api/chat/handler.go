// Package chat implements the chat command endpoint.
package chat

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/good-yellow-bee/alertrelay/internal/answer"
	"github.com/good-yellow-bee/alertrelay/internal/metrics"
	"github.com/good-yellow-bee/alertrelay/internal/models"
	"github.com/good-yellow-bee/alertrelay/internal/query"
	"github.com/good-yellow-bee/alertrelay/internal/store"
)

const (
	usageText = "Usage: `/ask <question> [service:... since:N]`\n" +
		"Example: `/ask why is auth failing? service:user-auth since:1`"

	greetingText = "Hey! I monitor production errors and can answer questions.\n" +
		"Type `/ask <question>` to investigate recent alerts."

	fallbackText = "Sorry, I'm unable to answer right now. Please try again later."

	noContextCaveat = "\n\n_Note: alert history was unavailable, answered without context._"
)

// Handler handles chat platform events.
type Handler struct {
	store            store.Store
	generator        answer.Generator
	defaultSinceDays int
}

// NewHandler creates a chat handler. defaultSinceDays bounds the query
// window when the command carries no `since:` filter.
func NewHandler(s store.Store, g answer.Generator, defaultSinceDays int) *Handler {
	if defaultSinceDays <= 0 {
		defaultSinceDays = 7
	}
	return &Handler{
		store:            s,
		generator:        g,
		defaultSinceDays: defaultSinceDays,
	}
}

// Command handles POST /chat. Every event type receives a 200 response
// with a body: the chat platform expects an envelope regardless of
// what went wrong, so downstream failures degrade to fallback text.
func (h *Handler) Command(w http.ResponseWriter, r *http.Request) {
	var event models.ChatEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid JSON"})
		return
	}

	threadName := event.ThreadName()

	switch event.Type {
	case models.ChatEventAddedToSpace:
		writeResponse(w, models.NewChatResponse(greetingText, threadName))
		return
	case models.ChatEventMessage:
		// handled below
	default:
		// Platform handshake or unknown event: acknowledge with an
		// empty envelope, never invoking the answer generator.
		writeResponse(w, &models.ChatResponse{})
		return
	}

	text := strings.TrimSpace(event.Argument())
	if text == "" {
		writeResponse(w, models.NewChatResponse(usageText, threadName))
		return
	}

	filter := query.Resolve(text)
	if filter.SinceDays == nil {
		days := h.defaultSinceDays
		filter.SinceDays = &days
	}

	var caveat string
	records, err := h.store.Query(r.Context(), filter)
	if err != nil {
		// Degrade to an empty context set rather than failing the
		// command.
		log.Printf("chat: store query failed: %v", err)
		records = nil
		caveat = noContextCaveat
	}

	answerText, err := h.generator.Answer(r.Context(), filter.QuestionText, records)
	if err != nil {
		metrics.AnswerFailures.Inc()
		log.Printf("chat: answer generation failed: %v", err)
		writeResponse(w, models.NewChatResponse(fallbackText, threadName))
		return
	}
	metrics.AnswersGenerated.Inc()

	responseText := fmt.Sprintf("*Q:* %s\n*A:* %s", filter.QuestionText, answerText)
	if len(records) > 0 {
		responseText += fmt.Sprintf("\n\n_Based on %d recent alerts_", len(records))
	}
	responseText += caveat

	writeResponse(w, models.NewChatResponse(responseText, threadName))
}

func writeResponse(w http.ResponseWriter, resp *models.ChatResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("chat: json encode error: %v", err)
	}
}
