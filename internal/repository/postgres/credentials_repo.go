package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/datasaude/hrsync/internal/errs"
	"github.com/datasaude/hrsync/internal/model"
	"github.com/datasaude/hrsync/internal/repository"
)

// CredentialsRepo implements CredentialsRepository using PostgreSQL.
type CredentialsRepo struct{ db *DB }

// NewCredentialsRepo constructs a credentials repository.
func NewCredentialsRepo(db *DB) *CredentialsRepo { return &CredentialsRepo{db: db} }

// EmployeeCredentials returns the oldest roster credential row for
// (tenant, user). First-match on duplicates is deliberate.
func (r *CredentialsRepo) EmployeeCredentials(ctx context.Context, tenantID, userID uuid.UUID) (*model.EmployeeCredentials, error) {
	const q = `
SELECT id, tenant_id, user_id, company, code, key,
include_active, include_inactive, include_away, include_pending, include_vacation,
created_at, updated_at
FROM employee_credentials
WHERE tenant_id=$1 AND user_id=$2
ORDER BY created_at, id LIMIT 1`
	var c model.EmployeeCredentials
	err := r.db.Pool.QueryRow(ctx, q, tenantID, userID).Scan(
		&c.ID, &c.TenantID, &c.UserID, &c.Company, &c.Code, &c.Key,
		&c.IncludeActive, &c.IncludeInactive, &c.IncludeAway, &c.IncludePending,
		&c.IncludeVacation, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotConfigured
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// EmployeeScopes lists distinct (tenant, user) pairs with roster credentials.
func (r *CredentialsRepo) EmployeeScopes(ctx context.Context) ([]repository.Scope, error) {
	return r.scopes(ctx, `SELECT DISTINCT tenant_id, user_id FROM employee_credentials`)
}

// AbsenceScopes lists distinct (tenant, user) pairs with absence credentials.
func (r *CredentialsRepo) AbsenceScopes(ctx context.Context) ([]repository.Scope, error) {
	return r.scopes(ctx, `SELECT DISTINCT tenant_id, user_id FROM absence_credentials`)
}

func (r *CredentialsRepo) scopes(ctx context.Context, q string) ([]repository.Scope, error) {
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.Scope
	for rows.Next() {
		var s repository.Scope
		if err := rows.Scan(&s.TenantID, &s.UserID); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AbsenceCredentials returns the oldest absence credential row for (tenant, user).
func (r *CredentialsRepo) AbsenceCredentials(ctx context.Context, tenantID, userID uuid.UUID) (*model.AbsenceCredentials, error) {
	const q = `
SELECT id, tenant_id, user_id, main_company, code, key, work_company,
start_date, end_date, created_at, updated_at
FROM absence_credentials
WHERE tenant_id=$1 AND user_id=$2
ORDER BY created_at, id LIMIT 1`
	var c model.AbsenceCredentials
	err := r.db.Pool.QueryRow(ctx, q, tenantID, userID).Scan(
		&c.ID, &c.TenantID, &c.UserID, &c.MainCompany, &c.Code, &c.Key, &c.WorkCompany,
		&c.StartDate, &c.EndDate, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotConfigured
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
