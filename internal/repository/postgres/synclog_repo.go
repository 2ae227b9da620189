package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/datasaude/hrsync/internal/errs"
	"github.com/datasaude/hrsync/internal/model"
)

// SyncLogRepo implements SyncLogRepository using PostgreSQL.
type SyncLogRepo struct{ db *DB }

// NewSyncLogRepo constructs a sync log repository.
func NewSyncLogRepo(db *DB) *SyncLogRepo { return &SyncLogRepo{db: db} }

// Create inserts a new run. A nil ID is replaced with a fresh UUID.
func (r *SyncLogRepo) Create(ctx context.Context, l *model.SyncLog) error {
	if l.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		l.ID = id
	}
	const q = `
INSERT INTO sync_logs (id, tenant_id, user_id, kind, company, status,
records_processed, records_success, records_error, message, start_time, task_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
RETURNING created_at`
	return r.db.Pool.QueryRow(ctx, q,
		l.ID, l.TenantID, l.UserID, l.Kind, l.Company, l.Status,
		l.RecordsProcessed, l.RecordsSuccess, l.RecordsError, l.Message,
		l.StartTime, l.TaskID,
	).Scan(&l.CreatedAt)
}

const selectSyncLogSQL = `
SELECT id, tenant_id, user_id, kind, company, status,
records_processed, records_success, records_error, message,
start_time, end_time, task_id, created_at
FROM sync_logs`

func scanSyncLog(row pgx.Row) (*model.SyncLog, error) {
	var l model.SyncLog
	err := row.Scan(
		&l.ID, &l.TenantID, &l.UserID, &l.Kind, &l.Company, &l.Status,
		&l.RecordsProcessed, &l.RecordsSuccess, &l.RecordsError, &l.Message,
		&l.StartTime, &l.EndTime, &l.TaskID, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Get returns a run by id within the tenant.
func (r *SyncLogRepo) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.SyncLog, error) {
	const q = selectSyncLogSQL + `
WHERE tenant_id=$1 AND id=$2`
	l, err := scanSyncLog(r.db.Pool.QueryRow(ctx, q, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	return l, err
}

// List returns the tenant's most recent runs, newest first.
func (r *SyncLogRepo) List(ctx context.Context, tenantID uuid.UUID, limit int) ([]model.SyncLog, error) {
	const q = selectSyncLogSQL + `
WHERE tenant_id=$1
ORDER BY created_at DESC
LIMIT $2`
	rows, err := r.db.Pool.Query(ctx, q, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SyncLog
	for rows.Next() {
		l, err := scanSyncLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// UpdateCompany refreshes only the company label.
func (r *SyncLogRepo) UpdateCompany(ctx context.Context, id uuid.UUID, company string) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE sync_logs SET company=$2 WHERE id=$1`, id, company)
	return err
}

// UpdateMessage updates only the free-text status message.
func (r *SyncLogRepo) UpdateMessage(ctx context.Context, id uuid.UUID, message string) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE sync_logs SET message=$2 WHERE id=$1`, id, message)
	return err
}

// UpdateProgress writes the aggregate counters and progress message.
func (r *SyncLogRepo) UpdateProgress(ctx context.Context, id uuid.UUID, processed, success, errCount int, message string) error {
	const q = `
UPDATE sync_logs
SET records_processed=$2, records_success=$3, records_error=$4, message=$5
WHERE id=$1`
	_, err := r.db.Pool.Exec(ctx, q, id, processed, success, errCount, message)
	return err
}

// Finalize sets the terminal status, message and end time.
func (r *SyncLogRepo) Finalize(ctx context.Context, id uuid.UUID, status model.SyncStatus, message string, endTime time.Time) error {
	const q = `
UPDATE sync_logs
SET status=$2, message=$3, end_time=$4
WHERE id=$1`
	_, err := r.db.Pool.Exec(ctx, q, id, status, message, endTime)
	return err
}

// SetTaskID records the dispatcher handle for an async run.
func (r *SyncLogRepo) SetTaskID(ctx context.Context, id uuid.UUID, taskID string) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE sync_logs SET task_id=$2 WHERE id=$1`, id, taskID)
	return err
}

// Delete removes a run within the tenant.
func (r *SyncLogRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM sync_logs WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
