package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/datasaude/hrsync/internal/errs"
	"github.com/datasaude/hrsync/internal/model"
)

func syncLogColumns() []string {
	return []string{
		"id", "tenant_id", "user_id", "kind", "company", "status",
		"records_processed", "records_success", "records_error", "message",
		"start_time", "end_time", "task_id", "created_at",
	}
}

func TestSyncLogRepo_Create_GeneratesID(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSyncLogRepo(db)
	ctx := context.Background()

	l := &model.SyncLog{
		TenantID:  uuid.Must(uuid.NewV4()),
		UserID:    uuid.Must(uuid.NewV4()),
		Kind:      model.KindEmployee,
		Status:    model.StatusError,
		StartTime: time.Now().UTC(),
	}

	mock.ExpectQuery(`INSERT INTO sync_logs`).
		WithArgs(pgxmock.AnyArg(), l.TenantID, l.UserID, l.Kind, l.Company, l.Status,
			l.RecordsProcessed, l.RecordsSuccess, l.RecordsError, l.Message,
			l.StartTime, l.TaskID).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	require.NoError(t, r.Create(ctx, l))
	require.NotEqual(t, uuid.Nil, l.ID)
	require.False(t, l.CreatedAt.IsZero())
}

func TestSyncLogRepo_Get(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSyncLogRepo(db)
	ctx := context.Background()

	tenantID := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())
	now := time.Now()

	mock.ExpectQuery(`FROM sync_logs\s+WHERE tenant_id=\$1 AND id=\$2`).
		WithArgs(tenantID, id).
		WillReturnRows(pgxmock.NewRows(syncLogColumns()).AddRow(
			id, tenantID, uuid.Must(uuid.NewV4()), model.KindAbsence, "100",
			model.StatusPartial, 10, 8, 2, "done", now, &now, "task-1", now,
		))

	l, err := r.Get(ctx, tenantID, id)
	require.NoError(t, err)
	require.Equal(t, model.KindAbsence, l.Kind)
	require.Equal(t, 8, l.RecordsSuccess)
	require.True(t, l.Finished())

	mock.ExpectQuery(`FROM sync_logs\s+WHERE tenant_id=\$1 AND id=\$2`).
		WithArgs(tenantID, id).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.Get(ctx, tenantID, id)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestSyncLogRepo_List(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSyncLogRepo(db)
	ctx := context.Background()

	tenantID := uuid.Must(uuid.NewV4())
	now := time.Now()

	mock.ExpectQuery(`FROM sync_logs\s+WHERE tenant_id=\$1\s+ORDER BY created_at DESC\s+LIMIT \$2`).
		WithArgs(tenantID, 10).
		WillReturnRows(pgxmock.NewRows(syncLogColumns()).
			AddRow(uuid.Must(uuid.NewV4()), tenantID, uuid.Must(uuid.NewV4()),
				model.KindEmployee, "100", model.StatusSuccess, 5, 5, 0, "", now, &now, "", now).
			AddRow(uuid.Must(uuid.NewV4()), tenantID, uuid.Must(uuid.NewV4()),
				model.KindAbsence, "100", model.StatusError, 0, 0, 0, "failed", now, nil, "", now))

	out, err := r.List(ctx, tenantID, 10)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.True(t, out[0].Finished())
	require.False(t, out[1].Finished())
}

func TestSyncLogRepo_UpdateProgress(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSyncLogRepo(db)
	id := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`UPDATE sync_logs\s+SET records_processed=\$2, records_success=\$3, records_error=\$4, message=\$5\s+WHERE id=\$1`).
		WithArgs(id, 100, 40, 10, "Processando: 50/100 registros (50%)").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, r.UpdateProgress(context.Background(), id, 100, 40, 10, "Processando: 50/100 registros (50%)"))
}

func TestSyncLogRepo_Finalize(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSyncLogRepo(db)
	id := uuid.Must(uuid.NewV4())
	end := time.Now().UTC()

	mock.ExpectExec(`UPDATE sync_logs\s+SET status=\$2, message=\$3, end_time=\$4\s+WHERE id=\$1`).
		WithArgs(id, model.StatusPartial, "done", end).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, r.Finalize(context.Background(), id, model.StatusPartial, "done", end))
}

func TestSyncLogRepo_Delete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSyncLogRepo(db)
	tenantID := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`DELETE FROM sync_logs WHERE tenant_id=\$1 AND id=\$2`).
		WithArgs(tenantID, id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, r.Delete(context.Background(), tenantID, id))

	mock.ExpectExec(`DELETE FROM sync_logs WHERE tenant_id=\$1 AND id=\$2`).
		WithArgs(tenantID, id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	err := r.Delete(context.Background(), tenantID, id)
	require.ErrorIs(t, err, errs.ErrNotFound)
}
