package syncer

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/datasaude/hrsync/internal/model"
	"github.com/datasaude/hrsync/internal/repository"
)

// progressStep is the minimum completion delta, in percentage points,
// between two persisted progress reports. Bounds write amplification on the
// log store for large batches.
const progressStep = 5.0

// runLog manages the lifecycle of one sync run's progress record.
type runLog struct {
	repo repository.SyncLogRepository
	log  *zap.Logger
}

// open reuses the run identified by existingID when it resolves (refreshing
// its company label), otherwise creates a fresh run with the pessimistic
// default status and start time now. A crash before finalization therefore
// leaves the run visibly failed instead of forever running.
func (m *runLog) open(ctx context.Context, existingID, tenantID, userID uuid.UUID, kind model.SyncKind, company string) (*model.SyncLog, error) {
	if existingID != uuid.Nil {
		run, err := m.repo.Get(ctx, tenantID, existingID)
		if err == nil {
			run.Company = company
			if err := m.repo.UpdateCompany(ctx, run.ID, company); err != nil {
				return nil, err
			}
			return run, nil
		}
		m.log.Warn("sync log not found, creating a new one",
			zap.String("sync_log_id", existingID.String()),
			zap.Error(err),
		)
	}

	run := &model.SyncLog{
		TenantID:  tenantID,
		UserID:    userID,
		Kind:      kind,
		Company:   company,
		Status:    model.StatusError,
		StartTime: time.Now().UTC(),
	}
	if err := m.repo.Create(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// touch updates only the free-text status message, for coarse narration
// between phases.
func (m *runLog) touch(ctx context.Context, run *model.SyncLog, message string) {
	run.Message = message
	if err := m.repo.UpdateMessage(ctx, run.ID, message); err != nil {
		m.log.Warn("update sync log message", zap.Error(err))
	}
}

// finalize sets the terminal status and end time. Storage failures are
// logged, not propagated: the run outcome was already decided.
func (m *runLog) finalize(ctx context.Context, run *model.SyncLog, status model.SyncStatus, message string) {
	now := time.Now().UTC()
	run.Status = status
	run.Message = message
	run.EndTime = &now
	if err := m.repo.Finalize(ctx, run.ID, status, message, now); err != nil {
		m.log.Error("finalize sync log", zap.Error(err))
	}
}

// tracker aggregates per-record outcomes from concurrent workers and
// persists progress at every >=5 percentage point step (or on the final
// record). All counters are serialized behind its mutex, so reported
// percentages are monotonically non-decreasing regardless of worker
// completion order.
type tracker struct {
	mu          sync.Mutex
	runLog      *runLog
	run         *model.SyncLog
	total       int
	processed   int
	success     int
	errors      int
	lastPercent float64
}

func newTracker(rl *runLog, run *model.SyncLog, total int) *tracker {
	return &tracker{runLog: rl, run: run, total: total}
}

// record counts one completed record and reports progress when a step
// boundary is crossed.
func (t *tracker) record(ctx context.Context, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.processed++
	if ok {
		t.success++
	} else {
		t.errors++
	}

	if t.total == 0 {
		return
	}
	percent := float64(t.processed) / float64(t.total) * 100
	if percent-t.lastPercent < progressStep && t.processed != t.total {
		return
	}
	t.lastPercent = percent

	msg := fmt.Sprintf("Processando: %d/%d registros (%d%%)",
		t.processed, t.total, int(math.Round(percent)))
	t.run.RecordsProcessed = t.total
	t.run.RecordsSuccess = t.success
	t.run.RecordsError = t.errors
	t.run.Message = msg
	if err := t.runLog.repo.UpdateProgress(ctx, t.run.ID, t.total, t.success, t.errors, msg); err != nil {
		t.runLog.log.Warn("update sync progress", zap.Error(err))
	}
}

// counts returns the final aggregate under the lock.
func (t *tracker) counts() (success, errors int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.success, t.errors
}
