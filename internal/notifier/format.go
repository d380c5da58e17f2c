package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/good-yellow-bee/alertrelay/internal/models"
)

// maxStackTraceChars bounds the stack trace excerpt in chat messages.
const maxStackTraceChars = 200

// severityEmoji returns an emoji marker for the severity level.
func severityEmoji(severity models.Severity) string {
	switch severity {
	case models.SeverityCritical:
		return "\U0001F6A8" // rotating light
	case models.SeverityHigh:
		return "\U0001F534" // red circle
	case models.SeverityMedium:
		return "\U0001F7E0" // orange circle
	case models.SeverityLow:
		return "\U0001F7E1" // yellow circle
	default:
		return "⚪" // white circle
	}
}

// FormatNotification renders an alert record as a chat notification.
func FormatNotification(record *models.AlertRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s *Production Error Alert*\n\n", severityEmoji(record.Severity))
	fmt.Fprintf(&b, "*Service:* %s\n", record.Service)
	fmt.Fprintf(&b, "*Error:* %s\n", record.ErrorType)
	fmt.Fprintf(&b, "*Message:* %s\n", record.Message)
	fmt.Fprintf(&b, "*Severity:* %s\n", record.Severity)
	fmt.Fprintf(&b, "*Time:* %s\n", record.ReceivedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "*Environment:* %s", record.Environment)

	if record.AffectedUsers != nil {
		fmt.Fprintf(&b, "\n*Affected Users:* ~%d", *record.AffectedUsers)
	}

	if record.StackTrace != "" {
		fmt.Fprintf(&b, "\n*Stack Trace:* ```%s```", truncate(record.StackTrace, maxStackTraceChars))
	}

	if len(record.RecentLogs) > 0 {
		fmt.Fprintf(&b, "\n*Recent Logs:* %d entries available", len(record.RecentLogs))
	}

	b.WriteString("\n\n_Type `/ask <question>` to investigate this error_")

	return b.String()
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
