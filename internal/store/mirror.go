package store

import (
	"context"

	"github.com/good-yellow-bee/alertrelay/internal/models"
)

// Mirror is a durable, best-effort copy of every ingested alert.
// Write failures are logged by the caller and never affect the
// ingestion response.
type Mirror interface {
	// Insert writes one record to the mirror.
	Insert(ctx context.Context, record *models.AlertRecord) error
	// List returns up to limit records, newest-first.
	List(ctx context.Context, limit int) ([]models.AlertRecord, error)
	// Ping checks mirror connectivity.
	Ping(ctx context.Context) error
	// Close releases the underlying connection.
	Close() error
}
