// Package tasks runs sync operations asynchronously: on demand from the
// HTTP layer and on a cron schedule for every configured credential scope.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/datasaude/hrsync/internal/model"
	"github.com/datasaude/hrsync/internal/repository"
)

// Syncer is the subset of the sync service the dispatcher drives.
type Syncer interface {
	SyncEmployees(ctx context.Context, tenantID, userID, runID uuid.UUID) model.SyncResult
	SyncAbsences(ctx context.Context, tenantID, userID, runID uuid.UUID) model.SyncResult
}

// Dispatcher runs sync operations in background goroutines. Each dispatch is
// tracked so Shutdown can wait for in-flight runs, and its run log always
// reaches a terminal state even when the operation panics before opening it.
type Dispatcher struct {
	syncer Syncer
	logs   repository.SyncLogRepository
	creds  repository.CredentialsRepository
	log    *zap.Logger

	wg   sync.WaitGroup
	cron *cron.Cron

	// base is the lifetime context for dispatched runs; it outlives the
	// triggering HTTP request.
	base   context.Context
	cancel context.CancelFunc
}

// NewDispatcher constructs a dispatcher. creds may be nil when scheduled
// syncs are not used.
func NewDispatcher(syncer Syncer, logs repository.SyncLogRepository, creds repository.CredentialsRepository, log *zap.Logger) *Dispatcher {
	base, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		syncer: syncer,
		logs:   logs,
		creds:  creds,
		log:    log,
		base:   base,
		cancel: cancel,
	}
}

// Dispatch starts one sync run in the background and returns its task
// handle. The handle is recorded on the run before the operation starts so
// clients polling the run can correlate it immediately.
func (d *Dispatcher) Dispatch(ctx context.Context, kind model.SyncKind, tenantID, userID, runID uuid.UUID) string {
	taskID := uuid.Must(uuid.NewV4()).String()

	if runID != uuid.Nil {
		if err := d.logs.SetTaskID(ctx, runID, taskID); err != nil {
			d.log.Warn("set task id", zap.Error(err), zap.String("sync_log_id", runID.String()))
		}
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.recoverRun(kind, tenantID, runID)

		res := d.run(d.base, kind, tenantID, userID, runID)
		d.log.Info("dispatched sync finished",
			zap.String("task_id", taskID),
			zap.String("kind", string(kind)),
			zap.Bool("success", res.Success),
			zap.Int("errors", res.ErrorCount),
		)
	}()
	return taskID
}

func (d *Dispatcher) run(ctx context.Context, kind model.SyncKind, tenantID, userID, runID uuid.UUID) model.SyncResult {
	switch kind {
	case model.KindAbsence:
		return d.syncer.SyncAbsences(ctx, tenantID, userID, runID)
	default:
		return d.syncer.SyncEmployees(ctx, tenantID, userID, runID)
	}
}

// recoverRun back-fills the run as failed when the operation escapes with a
// panic, so a pre-created run is never left without an end time.
func (d *Dispatcher) recoverRun(kind model.SyncKind, tenantID, runID uuid.UUID) {
	r := recover()
	if r == nil {
		return
	}
	d.log.Error("dispatched sync panic",
		zap.Any("reason", r),
		zap.String("kind", string(kind)),
		zap.String("sync_log_id", runID.String()),
	)
	if runID == uuid.Nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := d.logs.Get(ctx, tenantID, runID); err != nil {
		return
	}
	msg := fmt.Sprintf("Erro na sincronização: %v", r)
	if err := d.logs.Finalize(ctx, runID, model.StatusError, msg, time.Now().UTC()); err != nil {
		d.log.Error("finalize panicked run", zap.Error(err))
	}
}

// StartSchedule begins cron-driven syncs of both kinds for every configured
// credential scope. spec is a standard 5-field cron expression.
func (d *Dispatcher) StartSchedule(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, d.runScheduled); err != nil {
		return fmt.Errorf("parse sync schedule: %w", err)
	}
	d.cron = c
	c.Start()
	d.log.Info("sync schedule started", zap.String("spec", spec))
	return nil
}

func (d *Dispatcher) runScheduled() {
	ctx, cancel := context.WithTimeout(d.base, time.Minute)
	defer cancel()

	empScopes, err := d.creds.EmployeeScopes(ctx)
	if err != nil {
		d.log.Error("list employee scopes", zap.Error(err))
	}
	for _, s := range empScopes {
		d.Dispatch(ctx, model.KindEmployee, s.TenantID, s.UserID, uuid.Nil)
	}

	absScopes, err := d.creds.AbsenceScopes(ctx)
	if err != nil {
		d.log.Error("list absence scopes", zap.Error(err))
	}
	for _, s := range absScopes {
		d.Dispatch(ctx, model.KindAbsence, s.TenantID, s.UserID, uuid.Nil)
	}
}

// Shutdown stops the schedule, cancels the run context and waits for
// in-flight runs up to the context deadline.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	if d.cron != nil {
		<-d.cron.Stop().Done()
	}
	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
