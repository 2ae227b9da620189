package syncer

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/datasaude/hrsync/internal/model"
)

func TestRunLog_OpenCreatesPessimisticRun(t *testing.T) {
	logs := newFakeLogs()
	rl := &runLog{repo: logs, log: zap.NewNop()}

	run, err := rl.open(context.Background(), uuid.Nil, testTenant, testUser, model.KindEmployee, "100")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, run.ID)
	require.Equal(t, model.StatusError, run.Status)
	require.False(t, run.Finished())
	require.Equal(t, "100", run.Company)
}

func TestRunLog_OpenFallsBackWhenRunMissing(t *testing.T) {
	logs := newFakeLogs()
	rl := &runLog{repo: logs, log: zap.NewNop()}

	missing := uuid.Must(uuid.NewV4())
	run, err := rl.open(context.Background(), missing, testTenant, testUser, model.KindAbsence, "100")
	require.NoError(t, err)
	require.NotEqual(t, missing, run.ID, "a stale id must not be reused")
}

func TestRunLog_FinalizeSetsEndTime(t *testing.T) {
	logs := newFakeLogs()
	rl := &runLog{repo: logs, log: zap.NewNop()}

	run, err := rl.open(context.Background(), uuid.Nil, testTenant, testUser, model.KindEmployee, "100")
	require.NoError(t, err)

	rl.finalize(context.Background(), run, model.StatusPartial, "done")

	stored, err := logs.Get(context.Background(), testTenant, run.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusPartial, stored.Status)
	require.True(t, stored.Finished())
	require.WithinDuration(t, time.Now().UTC(), *stored.EndTime, time.Minute)
}

func TestTracker_ReportsAtStepBoundaries(t *testing.T) {
	logs := newFakeLogs()
	rl := &runLog{repo: logs, log: zap.NewNop()}
	run, err := rl.open(context.Background(), uuid.Nil, testTenant, testUser, model.KindEmployee, "100")
	require.NoError(t, err)

	tr := newTracker(rl, run, 100)
	for i := 0; i < 100; i++ {
		tr.record(context.Background(), true)
	}

	success, errs := tr.counts()
	require.Equal(t, 100, success)
	require.Zero(t, errs)

	// 5% steps over 100 records means 20 progress writes, final one at 100%.
	require.Len(t, logs.messages, 20)
	require.Equal(t, "Processando: 100/100 registros (100%)", logs.messages[len(logs.messages)-1])

	lastPercent := -1
	for _, msg := range logs.messages {
		var processed, total, percent int
		_, err := fmt.Sscanf(msg, "Processando: %d/%d registros (%d%%)", &processed, &total, &percent)
		require.NoError(t, err, msg)
		require.Greater(t, percent, lastPercent, "progress must not go backwards")
		lastPercent = percent
	}
}

func TestTracker_SmallBatchReportsFinalRecord(t *testing.T) {
	logs := newFakeLogs()
	rl := &runLog{repo: logs, log: zap.NewNop()}
	run, err := rl.open(context.Background(), uuid.Nil, testTenant, testUser, model.KindEmployee, "100")
	require.NoError(t, err)

	tr := newTracker(rl, run, 3)
	tr.record(context.Background(), true)
	tr.record(context.Background(), false)
	tr.record(context.Background(), true)

	success, errs := tr.counts()
	require.Equal(t, 2, success)
	require.Equal(t, 1, errs)
	require.True(t, strings.HasSuffix(logs.messages[len(logs.messages)-1], "3/3 registros (100%)"))
}
