package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/datasaude/hrsync/internal/errs"
	"github.com/datasaude/hrsync/internal/model"
	"github.com/datasaude/hrsync/internal/repository"
	"github.com/datasaude/hrsync/internal/soc"
)

type fakeCreds struct {
	employee *model.EmployeeCredentials
	absence  *model.AbsenceCredentials
	err      error
}

func (f *fakeCreds) EmployeeCredentials(_ context.Context, _, _ uuid.UUID) (*model.EmployeeCredentials, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.employee == nil {
		return nil, errs.ErrNotConfigured
	}
	return f.employee, nil
}

func (f *fakeCreds) AbsenceCredentials(_ context.Context, _, _ uuid.UUID) (*model.AbsenceCredentials, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.absence == nil {
		return nil, errs.ErrNotConfigured
	}
	return f.absence, nil
}

func (f *fakeCreds) EmployeeScopes(context.Context) ([]repository.Scope, error) {
	if f.employee == nil {
		return nil, nil
	}
	return []repository.Scope{{TenantID: f.employee.TenantID, UserID: f.employee.UserID}}, nil
}

func (f *fakeCreds) AbsenceScopes(context.Context) ([]repository.Scope, error) {
	if f.absence == nil {
		return nil, nil
	}
	return []repository.Scope{{TenantID: f.absence.TenantID, UserID: f.absence.UserID}}, nil
}

// fakeEmployees is an in-memory employee store keyed the same way the real
// backend is: (code) for upserts, (registration) for lookups.
type fakeEmployees struct {
	mu        sync.Mutex
	nextID    int64
	byCode    map[string]*model.Employee
	upsertErr func(e *model.Employee) error
	creates   int
}

func newFakeEmployees() *fakeEmployees {
	return &fakeEmployees{byCode: make(map[string]*model.Employee)}
}

func (f *fakeEmployees) Upsert(_ context.Context, e *model.Employee) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		if err := f.upsertErr(e); err != nil {
			return err
		}
	}
	if prev, ok := f.byCode[e.Code]; ok {
		e.ID = prev.ID
	} else {
		f.nextID++
		e.ID = f.nextID
	}
	f.byCode[e.Code] = e
	return nil
}

func (f *fakeEmployees) Create(_ context.Context, e *model.Employee) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	f.nextID++
	e.ID = f.nextID
	f.byCode[e.Code] = e
	return nil
}

func (f *fakeEmployees) FindByRegistration(_ context.Context, _ uuid.UUID, registration string) (*model.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.byCode {
		if e.Registration == registration {
			return e, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeEmployees) FindByRegistrations(_ context.Context, _ uuid.UUID, registrations []string) (map[string]*model.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]*model.Employee)
	for _, reg := range registrations {
		for _, e := range f.byCode {
			if e.Registration == reg {
				out[reg] = e
				break
			}
		}
	}
	return out, nil
}

type fakeAbsences struct {
	mu        sync.Mutex
	rows      []*model.Absence
	upsertErr func(a *model.Absence) error
}

func (f *fakeAbsences) Upsert(_ context.Context, a *model.Absence) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		if err := f.upsertErr(a); err != nil {
			return err
		}
	}
	for i, prev := range f.rows {
		if prev.EmployeeID == a.EmployeeID &&
			prev.StartDate.Equal(*a.StartDate) && prev.EndDate.Equal(*a.EndDate) {
			a.ID = prev.ID
			f.rows[i] = a
			return nil
		}
	}
	a.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, a)
	return nil
}

type fakeLogs struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*model.SyncLog
	// messages records every free-text update in order.
	messages []string
}

func newFakeLogs() *fakeLogs {
	return &fakeLogs{rows: make(map[uuid.UUID]*model.SyncLog)}
}

func (f *fakeLogs) Create(_ context.Context, l *model.SyncLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.Must(uuid.NewV4())
	}
	l.CreatedAt = time.Now().UTC()
	cp := *l
	f.rows[l.ID] = &cp
	return nil
}

func (f *fakeLogs) Get(_ context.Context, tenantID, id uuid.UUID) (*model.SyncLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.rows[id]
	if !ok || l.TenantID != tenantID {
		return nil, errs.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeLogs) List(_ context.Context, tenantID uuid.UUID, _ int) ([]model.SyncLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.SyncLog
	for _, l := range f.rows {
		if l.TenantID == tenantID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeLogs) UpdateCompany(_ context.Context, id uuid.UUID, company string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.rows[id]; ok {
		l.Company = company
	}
	return nil
}

func (f *fakeLogs) UpdateMessage(_ context.Context, id uuid.UUID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
	if l, ok := f.rows[id]; ok {
		l.Message = message
	}
	return nil
}

func (f *fakeLogs) UpdateProgress(_ context.Context, id uuid.UUID, processed, success, errors int, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
	if l, ok := f.rows[id]; ok {
		l.RecordsProcessed = processed
		l.RecordsSuccess = success
		l.RecordsError = errors
		l.Message = message
	}
	return nil
}

func (f *fakeLogs) Finalize(_ context.Context, id uuid.UUID, status model.SyncStatus, message string, endTime time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.rows[id]; ok {
		l.Status = status
		l.Message = message
		l.EndTime = &endTime
	}
	return nil
}

func (f *fakeLogs) SetTaskID(_ context.Context, id uuid.UUID, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.rows[id]; ok {
		l.TaskID = taskID
	}
	return nil
}

func (f *fakeLogs) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.rows[id]
	if !ok || l.TenantID != tenantID {
		return errs.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeLogs) single() *model.SyncLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.rows {
		return l
	}
	return nil
}

type fakeGateway struct {
	outcome soc.Outcome
	err     error
	// params records the last payload sent, for assertion.
	params map[string]string
}

func (f *fakeGateway) Fetch(_ context.Context, params map[string]string) (soc.Outcome, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return f.outcome, nil
}
