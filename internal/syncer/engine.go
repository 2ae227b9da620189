package syncer

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/datasaude/hrsync/internal/model"
	"github.com/datasaude/hrsync/internal/soc"
)

// defaultWorkers is the worker pool size used when none is configured.
const defaultWorkers = 10

// processFunc handles one raw record. A returned error counts the record as
// failed; it never aborts the batch.
type processFunc func(ctx context.Context, raw soc.RawRecord) error

// reconcile fans a record batch out over a bounded worker pool, isolating
// per-record failures (including panics) and publishing periodic progress,
// then returns the aggregate counts. Completion order is arbitrary; the
// tracker serializes the aggregate.
func (s *Service) reconcile(ctx context.Context, run *model.SyncLog, records soc.Records, process processFunc) (success, errors int) {
	t := newTracker(s.runLog, run, len(records))

	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for _, raw := range records {
		raw := raw
		g.Go(func() error {
			var err error
			if err = ctx.Err(); err == nil {
				err = s.processSafely(ctx, raw, process)
			}
			if err != nil {
				s.log.Error("process record", zap.Error(err), zap.String("kind", string(run.Kind)))
			}
			t.record(ctx, err == nil)
			return nil
		})
	}
	_ = g.Wait()

	return t.counts()
}

// processSafely converts a worker panic into a per-record failure.
func (s *Service) processSafely(ctx context.Context, raw soc.RawRecord, process processFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return process(ctx, raw)
}

// employeeCache is the shared registration -> employee lookup table used
// during absence reconciliation. It is seeded by the bulk pre-load and
// guards placeholder creation with insert-if-absent semantics so concurrent
// records referencing the same (possibly absent) registration never create
// duplicate placeholders.
type employeeCache struct {
	mu    sync.Mutex
	byReg map[string]*model.Employee
}

func newEmployeeCache(seed map[string]*model.Employee) *employeeCache {
	c := &employeeCache{byReg: make(map[string]*model.Employee, len(seed))}
	for reg, e := range seed {
		c.byReg[reg] = e
	}
	return c
}

// getOrCreate returns the cached employee for a registration, or runs
// create exactly once per registration and caches its result. The lock is
// held across create on purpose: losing the race must reuse, not re-insert.
func (c *employeeCache) getOrCreate(reg string, create func() (*model.Employee, error)) (*model.Employee, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.byReg[reg]; ok {
		return e, nil
	}
	e, err := create()
	if err != nil {
		return nil, err
	}
	c.byReg[reg] = e
	return e, nil
}
