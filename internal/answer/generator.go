// Package answer integrates the external answer-generation service
// that turns a question plus alert context into a reply.
package answer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/good-yellow-bee/alertrelay/internal/models"
)

// maxContextRecords bounds how many records are serialized into the
// prompt handed to the generator.
const maxContextRecords = 50

const systemPreamble = "You are a reliability assistant. Use the provided recent alerts " +
	"to answer the user's question. Cite services, time ranges, and themes " +
	"if visible; be concise and actionable."

// Generator produces an answer for a question given alert context.
type Generator interface {
	// Answer returns generated text for the question. records is the
	// context bundle, newest-first.
	Answer(ctx context.Context, question string, records []models.AlertRecord) (string, error)
}

// BuildPrompt composes the prompt sent to the generator: the system
// preamble, a compact JSON rendering of up to maxContextRecords context
// records, and the user question.
func BuildPrompt(question string, records []models.AlertRecord) (string, error) {
	if len(records) > maxContextRecords {
		records = records[:maxContextRecords]
	}

	snippets := "[]"
	if len(records) > 0 {
		data, err := json.Marshal(records)
		if err != nil {
			return "", fmt.Errorf("marshal context records: %w", err)
		}
		snippets = string(data)
	}

	var b strings.Builder
	b.WriteString(systemPreamble)
	b.WriteString("\n\nRecent alerts JSON (truncated):\n")
	b.WriteString(snippets)
	b.WriteString("\n\nUser question:\n")
	b.WriteString(question)
	return b.String(), nil
}

// StubGenerator is used when no generator endpoint is configured. It
// produces a deterministic summary so the service remains usable end to
// end in development.
type StubGenerator struct{}

// Answer returns a canned summary of the available context.
func (StubGenerator) Answer(_ context.Context, question string, records []models.AlertRecord) (string, error) {
	return fmt.Sprintf("(answer generation not configured) Based on recent alerts (%d found), "+
		"no major anomalies detected. Question: %s", len(records), question), nil
}
