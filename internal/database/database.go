// Package database provides the audit-log data access layer.
package database

import (
	"context"

	"github.com/contentlabs/sift/internal/models"
)

// Store defines the interface for audit persistence. Only request metadata
// is stored; submitted content and verdicts never touch disk.
type Store interface {
	// Audit logs
	LogRequest(ctx context.Context, entry *models.AuditLog) error
	GetAuditLogs(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)

	// Lifecycle
	Migrate() error
	Close() error
}

// NoopStore discards everything. It stands in when the audit store is
// disabled so callers need no nil checks.
type NoopStore struct{}

// NewNoopStore creates a store that discards all writes.
func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

func (*NoopStore) LogRequest(ctx context.Context, entry *models.AuditLog) error {
	return nil
}

func (*NoopStore) GetAuditLogs(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	return nil, nil
}

func (*NoopStore) Migrate() error { return nil }

func (*NoopStore) Close() error { return nil }
