package repository

import (
	"context"

	"github.com/datasaude/hrsync/internal/model"
	"github.com/gofrs/uuid/v5"
)

// EmployeeRepository provides tenant-scoped access to roster records.
type EmployeeRepository interface {
	// Upsert inserts or overwrites an employee keyed by (tenant, code) and
	// fills in the stored ID.
	Upsert(ctx context.Context, e *model.Employee) error

	// FindByRegistration returns the employee matching a registration
	// within the tenant, or errs.ErrNotFound.
	FindByRegistration(ctx context.Context, tenantID uuid.UUID, registration string) (*model.Employee, error)

	// FindByRegistrations bulk-loads employees for a set of registrations
	// within the tenant, keyed by registration.
	FindByRegistrations(ctx context.Context, tenantID uuid.UUID, registrations []string) (map[string]*model.Employee, error)

	// Create inserts a new employee (used for placeholders) and fills in
	// the stored ID.
	Create(ctx context.Context, e *model.Employee) error
}
