// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/datasaude/hrsync/internal/model"
	"github.com/gofrs/uuid/v5"
)

// Scope identifies one (tenant, user) pair with stored credentials.
type Scope struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
}

// CredentialsRepository resolves API credentials scoped to (tenant, user).
// When duplicate rows exist for the same scope the oldest one wins; the
// single-credential-per-scope assumption is not enforced here.
type CredentialsRepository interface {
	// EmployeeCredentials returns roster API credentials or errs.ErrNotConfigured.
	EmployeeCredentials(ctx context.Context, tenantID, userID uuid.UUID) (*model.EmployeeCredentials, error)
	// AbsenceCredentials returns absence API credentials or errs.ErrNotConfigured.
	AbsenceCredentials(ctx context.Context, tenantID, userID uuid.UUID) (*model.AbsenceCredentials, error)
	// EmployeeScopes lists every scope with roster credentials configured.
	EmployeeScopes(ctx context.Context) ([]Scope, error)
	// AbsenceScopes lists every scope with absence credentials configured.
	AbsenceScopes(ctx context.Context) ([]Scope, error)
}
