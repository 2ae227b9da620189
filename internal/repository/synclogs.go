package repository

import (
	"context"
	"time"

	"github.com/datasaude/hrsync/internal/model"
	"github.com/gofrs/uuid/v5"
)

// SyncLogRepository persists sync run progress records.
type SyncLogRepository interface {
	// Create inserts a new run and fills in ID and CreatedAt.
	Create(ctx context.Context, l *model.SyncLog) error

	// Get returns a run by id within the tenant, or errs.ErrNotFound.
	Get(ctx context.Context, tenantID, id uuid.UUID) (*model.SyncLog, error)

	// List returns the tenant's most recent runs, newest first.
	List(ctx context.Context, tenantID uuid.UUID, limit int) ([]model.SyncLog, error)

	// UpdateCompany refreshes only the company label.
	UpdateCompany(ctx context.Context, id uuid.UUID, company string) error

	// UpdateMessage updates only the free-text status message.
	UpdateMessage(ctx context.Context, id uuid.UUID, message string) error

	// UpdateProgress writes the aggregate counters and progress message.
	UpdateProgress(ctx context.Context, id uuid.UUID, processed, success, errors int, message string) error

	// Finalize sets the terminal status, message and end time.
	Finalize(ctx context.Context, id uuid.UUID, status model.SyncStatus, message string, endTime time.Time) error

	// SetTaskID records the dispatcher handle for an async run.
	SetTaskID(ctx context.Context, id uuid.UUID, taskID string) error

	// Delete removes a run within the tenant, or errs.ErrNotFound.
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
