package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/datasaude/hrsync/internal/errs"
	"github.com/datasaude/hrsync/internal/model"
)

// EmployeeRepo implements EmployeeRepository using PostgreSQL.
type EmployeeRepo struct{ db *DB }

// NewEmployeeRepo constructs an employee repository.
func NewEmployeeRepo(db *DB) *EmployeeRepo { return &EmployeeRepo{db: db} }

// employeeCols is the mapped column set in insert/scan order, after tenant_id.
const employeeCols = `company_code, company_name, code, name, unit_code, unit_name,
sector_code, sector_name, role_code, role_name, role_cbo, cost_center, cost_center_name,
registration, cpf, rg, rg_state, rg_issuer, situation, gender, pis, ctps, ctps_series,
marital_status, hiring_type, birth_date, admission_date, dismissal_date, address,
address_number, district, city, state, zip_code, home_phone, mobile_phone, email,
disabled, disability, mother_name, last_change_date, hr_registration, skin_color,
education, birth_place, extension, shift_regime, work_regime, work_phone, work_shift,
hr_unit, hr_sector, hr_role, hr_cost_center`

const upsertEmployeeSQL = `
INSERT INTO employees (tenant_id, ` + employeeCols + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,
$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34,$35,$36,$37,$38,$39,$40,
$41,$42,$43,$44,$45,$46,$47,$48,$49,$50,$51,$52,$53,$54,$55)
ON CONFLICT (tenant_id, code) DO UPDATE SET
company_code=EXCLUDED.company_code, company_name=EXCLUDED.company_name,
name=EXCLUDED.name, unit_code=EXCLUDED.unit_code, unit_name=EXCLUDED.unit_name,
sector_code=EXCLUDED.sector_code, sector_name=EXCLUDED.sector_name,
role_code=EXCLUDED.role_code, role_name=EXCLUDED.role_name, role_cbo=EXCLUDED.role_cbo,
cost_center=EXCLUDED.cost_center, cost_center_name=EXCLUDED.cost_center_name,
registration=EXCLUDED.registration, cpf=EXCLUDED.cpf, rg=EXCLUDED.rg,
rg_state=EXCLUDED.rg_state, rg_issuer=EXCLUDED.rg_issuer, situation=EXCLUDED.situation,
gender=EXCLUDED.gender, pis=EXCLUDED.pis, ctps=EXCLUDED.ctps,
ctps_series=EXCLUDED.ctps_series, marital_status=EXCLUDED.marital_status,
hiring_type=EXCLUDED.hiring_type, birth_date=EXCLUDED.birth_date,
admission_date=EXCLUDED.admission_date, dismissal_date=EXCLUDED.dismissal_date,
address=EXCLUDED.address, address_number=EXCLUDED.address_number,
district=EXCLUDED.district, city=EXCLUDED.city, state=EXCLUDED.state,
zip_code=EXCLUDED.zip_code, home_phone=EXCLUDED.home_phone,
mobile_phone=EXCLUDED.mobile_phone, email=EXCLUDED.email, disabled=EXCLUDED.disabled,
disability=EXCLUDED.disability, mother_name=EXCLUDED.mother_name,
last_change_date=EXCLUDED.last_change_date, hr_registration=EXCLUDED.hr_registration,
skin_color=EXCLUDED.skin_color, education=EXCLUDED.education,
birth_place=EXCLUDED.birth_place, extension=EXCLUDED.extension,
shift_regime=EXCLUDED.shift_regime, work_regime=EXCLUDED.work_regime,
work_phone=EXCLUDED.work_phone, work_shift=EXCLUDED.work_shift,
hr_unit=EXCLUDED.hr_unit, hr_sector=EXCLUDED.hr_sector, hr_role=EXCLUDED.hr_role,
hr_cost_center=EXCLUDED.hr_cost_center, updated_at=now()
RETURNING id`

// employeeArgs returns upsert arguments in SQL placeholder order.
func employeeArgs(e *model.Employee) []any {
	return []any{
		e.TenantID, e.CompanyCode, e.CompanyName, e.Code, e.Name, e.UnitCode, e.UnitName,
		e.SectorCode, e.SectorName, e.RoleCode, e.RoleName, e.RoleCBO, e.CostCenter,
		e.CostCenterName, e.Registration, e.CPF, e.RG, e.RGState, e.RGIssuer, e.Situation,
		e.Gender, e.PIS, e.CTPS, e.CTPSSeries, e.MaritalStatus, e.HiringType, e.BirthDate,
		e.AdmissionDate, e.DismissalDate, e.Address, e.AddressNumber, e.District, e.City,
		e.State, e.ZipCode, e.HomePhone, e.MobilePhone, e.Email, e.Disabled, e.Disability,
		e.MotherName, e.LastChangeDate, e.HRRegistration, e.SkinColor, e.Education,
		e.BirthPlace, e.Extension, e.ShiftRegime, e.WorkRegime, e.WorkPhone, e.WorkShift,
		e.HRUnit, e.HRSector, e.HRRole, e.HRCostCenter,
	}
}

// Upsert inserts or overwrites an employee keyed by (tenant, code).
func (r *EmployeeRepo) Upsert(ctx context.Context, e *model.Employee) error {
	row := r.db.Pool.QueryRow(ctx, upsertEmployeeSQL, employeeArgs(e)...)
	return row.Scan(&e.ID)
}

// Create inserts a new employee row (no conflict handling); used for placeholders.
func (r *EmployeeRepo) Create(ctx context.Context, e *model.Employee) error {
	const q = `
INSERT INTO employees (tenant_id, code, name, situation, registration)
VALUES ($1,$2,$3,$4,$5)
RETURNING id`
	err := r.db.Pool.QueryRow(ctx, q, e.TenantID, e.Code, e.Name, e.Situation, e.Registration).Scan(&e.ID)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

const selectEmployeeSQL = `
SELECT id, tenant_id, ` + employeeCols + `, created_at, updated_at
FROM employees`

func scanEmployee(row pgx.Row) (*model.Employee, error) {
	var e model.Employee
	err := row.Scan(
		&e.ID, &e.TenantID, &e.CompanyCode, &e.CompanyName, &e.Code, &e.Name, &e.UnitCode,
		&e.UnitName, &e.SectorCode, &e.SectorName, &e.RoleCode, &e.RoleName, &e.RoleCBO,
		&e.CostCenter, &e.CostCenterName, &e.Registration, &e.CPF, &e.RG, &e.RGState,
		&e.RGIssuer, &e.Situation, &e.Gender, &e.PIS, &e.CTPS, &e.CTPSSeries,
		&e.MaritalStatus, &e.HiringType, &e.BirthDate, &e.AdmissionDate, &e.DismissalDate,
		&e.Address, &e.AddressNumber, &e.District, &e.City, &e.State, &e.ZipCode,
		&e.HomePhone, &e.MobilePhone, &e.Email, &e.Disabled, &e.Disability, &e.MotherName,
		&e.LastChangeDate, &e.HRRegistration, &e.SkinColor, &e.Education, &e.BirthPlace,
		&e.Extension, &e.ShiftRegime, &e.WorkRegime, &e.WorkPhone, &e.WorkShift,
		&e.HRUnit, &e.HRSector, &e.HRRole, &e.HRCostCenter, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// FindByRegistration returns the employee matching a registration within the tenant.
func (r *EmployeeRepo) FindByRegistration(ctx context.Context, tenantID uuid.UUID, registration string) (*model.Employee, error) {
	const q = selectEmployeeSQL + `
WHERE tenant_id=$1 AND registration=$2
ORDER BY id LIMIT 1`
	e, err := scanEmployee(r.db.Pool.QueryRow(ctx, q, tenantID, registration))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	return e, err
}

// FindByRegistrations bulk-loads employees for a registration set within the tenant.
func (r *EmployeeRepo) FindByRegistrations(ctx context.Context, tenantID uuid.UUID, registrations []string) (map[string]*model.Employee, error) {
	out := make(map[string]*model.Employee, len(registrations))
	if len(registrations) == 0 {
		return out, nil
	}
	const q = selectEmployeeSQL + `
WHERE tenant_id=$1 AND registration = ANY($2)`
	rows, err := r.db.Pool.Query(ctx, q, tenantID, registrations)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out[e.Registration] = e
	}
	return out, rows.Err()
}
