package postgres

import (
	"context"
	"errors"

	"github.com/datasaude/hrsync/internal/model"
)

// AbsenceRepo implements AbsenceRepository using PostgreSQL.
type AbsenceRepo struct{ db *DB }

// NewAbsenceRepo constructs an absence repository.
func NewAbsenceRepo(db *DB) *AbsenceRepo { return &AbsenceRepo{db: db} }

const upsertAbsenceSQL = `
INSERT INTO absences (tenant_id, employee_id, unit, sector, registration, birth_date,
gender, certificate_type, start_date, end_date, start_hour, end_hour, days_off,
hours_off, primary_cid, cid_description, pathology_group, leave_type)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
ON CONFLICT (tenant_id, employee_id, start_date, end_date) DO UPDATE SET
unit=EXCLUDED.unit, sector=EXCLUDED.sector, registration=EXCLUDED.registration,
birth_date=EXCLUDED.birth_date, gender=EXCLUDED.gender,
certificate_type=EXCLUDED.certificate_type, start_hour=EXCLUDED.start_hour,
end_hour=EXCLUDED.end_hour, days_off=EXCLUDED.days_off, hours_off=EXCLUDED.hours_off,
primary_cid=EXCLUDED.primary_cid, cid_description=EXCLUDED.cid_description,
pathology_group=EXCLUDED.pathology_group, leave_type=EXCLUDED.leave_type,
updated_at=now()
RETURNING id`

// ErrMissingDates rejects absences that cannot form a unique identity.
var ErrMissingDates = errors.New("absence requires start and end dates")

// Upsert inserts or overwrites an absence keyed by
// (tenant, employee, start date, end date).
func (r *AbsenceRepo) Upsert(ctx context.Context, a *model.Absence) error {
	if a.StartDate == nil || a.EndDate == nil {
		return ErrMissingDates
	}
	row := r.db.Pool.QueryRow(ctx, upsertAbsenceSQL,
		a.TenantID, a.EmployeeID, a.Unit, a.Sector, a.Registration, a.BirthDate,
		a.Gender, a.CertificateType, a.StartDate, a.EndDate, a.StartHour, a.EndHour,
		a.DaysOff, a.HoursOff, a.PrimaryCID, a.CIDDescription, a.PathologyGroup,
		a.LeaveType,
	)
	return row.Scan(&a.ID)
}
