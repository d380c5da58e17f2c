package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	// SQLite driver for the durable alert mirror.
	_ "github.com/mattn/go-sqlite3"

	"github.com/good-yellow-bee/alertrelay/internal/models"
)

// SQLiteMirror implements Mirror using SQLite.
type SQLiteMirror struct {
	path string
	db   *sql.DB
}

// NewSQLiteMirror creates a SQLite-backed alert mirror.
func NewSQLiteMirror(path string) *SQLiteMirror {
	return &SQLiteMirror{path: path}
}

// Open initializes the database connection and runs migrations.
func (m *SQLiteMirror) Open() error {
	ctx := context.Background()

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", m.path))
	if err != nil {
		return fmt.Errorf("open mirror database: %w", err)
	}

	// SQLite is single-writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping mirror database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return fmt.Errorf("enable WAL: %w", err)
	}

	m.db = db

	if err := m.migrate(); err != nil {
		db.Close()
		return fmt.Errorf("migrate mirror database: %w", err)
	}
	return nil
}

func (m *SQLiteMirror) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			service TEXT NOT NULL,
			error_type TEXT NOT NULL,
			message TEXT NOT NULL,
			severity TEXT NOT NULL,
			affected_users INTEGER,
			stack_trace TEXT,
			environment TEXT NOT NULL,
			recent_logs TEXT,
			received_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_alerts_received_at ON alerts(received_at);
		CREATE INDEX IF NOT EXISTS idx_alerts_service ON alerts(service);
	`
	if _, err := m.db.Exec(schema); err != nil {
		return fmt.Errorf("create alerts table: %w", err)
	}
	return nil
}

// Insert writes one record to the mirror.
func (m *SQLiteMirror) Insert(ctx context.Context, record *models.AlertRecord) error {
	var logs any
	if len(record.RecentLogs) > 0 {
		data, err := json.Marshal(record.RecentLogs)
		if err != nil {
			return fmt.Errorf("marshal recent logs: %w", err)
		}
		logs = string(data)
	}

	query := `
		INSERT INTO alerts (id, service, error_type, message, severity,
			affected_users, stack_trace, environment, recent_logs, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := m.db.ExecContext(ctx, query,
		record.ID, record.Service, record.ErrorType, record.Message, record.Severity,
		nullInt(record.AffectedUsers), nullString(record.StackTrace),
		record.Environment, logs, record.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// List returns up to limit records, newest-first.
func (m *SQLiteMirror) List(ctx context.Context, limit int) ([]models.AlertRecord, error) {
	query := `
		SELECT id, service, error_type, message, severity, affected_users,
			stack_trace, environment, recent_logs, received_at
		FROM alerts ORDER BY received_at DESC LIMIT ?
	`
	rows, err := m.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var records []models.AlertRecord
	for rows.Next() {
		var (
			r        models.AlertRecord
			affected sql.NullInt64
			trace    sql.NullString
			logs     sql.NullString
		)
		err := rows.Scan(&r.ID, &r.Service, &r.ErrorType, &r.Message, &r.Severity,
			&affected, &trace, &r.Environment, &logs, &r.ReceivedAt)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		if affected.Valid {
			n := int(affected.Int64)
			r.AffectedUsers = &n
		}
		if trace.Valid {
			r.StackTrace = trace.String
		}
		if logs.Valid && logs.String != "" {
			if err := json.Unmarshal([]byte(logs.String), &r.RecentLogs); err != nil {
				return nil, fmt.Errorf("unmarshal recent logs: %w", err)
			}
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Ping checks mirror connectivity.
func (m *SQLiteMirror) Ping(ctx context.Context) error {
	if m.db == nil {
		return fmt.Errorf("mirror not opened")
	}
	return m.db.PingContext(ctx)
}

// Close releases the underlying connection.
func (m *SQLiteMirror) Close() error {
	if m.db == nil {
		return nil
	}
	return m.db.Close()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}
