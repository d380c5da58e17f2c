// Package store provides the alert record store and its durable mirror.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/good-yellow-bee/alertrelay/internal/models"
)

// ErrUnavailable is returned when the store cannot serve a request.
// Callers on the query path degrade to an empty context set instead of
// failing the whole command.
var ErrUnavailable = errors.New("alert store unavailable")

// Store is the interface for alert record storage.
type Store interface {
	// Put assigns an ID and ReceivedAt to the record and appends it.
	// Returns the assigned record ID.
	Put(ctx context.Context, record *models.AlertRecord) (string, error)
	// Query returns matching records ordered newest-first, capped at
	// the implementation's result limit.
	Query(ctx context.Context, filter models.QueryFilter) ([]models.AlertRecord, error)
	// Len returns the number of records currently held.
	Len() int
}

// newRecordID returns a fresh record identifier.
func newRecordID() string {
	return uuid.New().String()
}
