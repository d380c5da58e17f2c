// Package models defines the core data types shared across the service.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Severity represents alert severity level.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// ParseSeverity validates and normalizes a severity string.
// Input is case-insensitive; the canonical form is uppercase.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(strings.ToUpper(strings.TrimSpace(s))) {
	case SeverityLow:
		return SeverityLow, nil
	case SeverityMedium:
		return SeverityMedium, nil
	case SeverityHigh:
		return SeverityHigh, nil
	case SeverityCritical:
		return SeverityCritical, nil
	default:
		return "", fmt.Errorf("invalid severity %q (must be LOW, MEDIUM, HIGH or CRITICAL)", s)
	}
}

// AlertRecord is one ingested error event. Records are append-only:
// the store assigns ID and ReceivedAt at insertion and nothing mutates
// them afterward.
type AlertRecord struct {
	ID            string    `json:"id"`
	Service       string    `json:"service"`
	ErrorType     string    `json:"error_type"`
	Message       string    `json:"message"`
	Severity      Severity  `json:"severity"`
	AffectedUsers *int      `json:"affected_users,omitempty"`
	StackTrace    string    `json:"stack_trace,omitempty"`
	Environment   string    `json:"environment"`
	RecentLogs    []string  `json:"recent_logs,omitempty"`
	ReceivedAt    time.Time `json:"received_at"`
}

// QueryFilter selects alert records for a chat question.
// Nil pointer fields mean "not specified".
type QueryFilter struct {
	Service      string // exact match, case-sensitive; empty = any
	SinceDays    *int   // bound on record age in days; nil = no bound
	QuestionText string // free text with filter tokens stripped
}
