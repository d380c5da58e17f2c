package alerts

import (
	"fmt"
	"strings"

	"github.com/good-yellow-bee/alertrelay/internal/models"
)

// defaultEnvironment is assumed when the payload does not name one.
const defaultEnvironment = "production"

// ValidateRequest checks required fields and converts the payload into
// an AlertRecord. Nothing is stored when validation fails.
func ValidateRequest(req *IngestRequest) (*models.AlertRecord, error) {
	if strings.TrimSpace(req.Service) == "" {
		return nil, fmt.Errorf("service is required")
	}
	if strings.TrimSpace(req.ErrorType) == "" {
		return nil, fmt.Errorf("error_type is required")
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("message is required")
	}
	if strings.TrimSpace(req.Severity) == "" {
		return nil, fmt.Errorf("severity is required")
	}

	severity, err := models.ParseSeverity(req.Severity)
	if err != nil {
		return nil, err
	}

	if req.AffectedUsers != nil && *req.AffectedUsers < 0 {
		return nil, fmt.Errorf("affected_users must be >= 0 (got %d)", *req.AffectedUsers)
	}

	environment := strings.TrimSpace(req.Environment)
	if environment == "" {
		environment = defaultEnvironment
	}

	return &models.AlertRecord{
		Service:       strings.TrimSpace(req.Service),
		ErrorType:     strings.TrimSpace(req.ErrorType),
		Message:       req.Message,
		Severity:      severity,
		AffectedUsers: req.AffectedUsers,
		StackTrace:    req.StackTrace,
		Environment:   environment,
		RecentLogs:    req.RecentLogs,
	}, nil
}
