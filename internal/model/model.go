// Package model defines domain entities used by services and repositories.
package model

import (
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
)

// SyncKind identifies which external API a sync run targets.
type SyncKind string

const (
	KindEmployee SyncKind = "employee"
	KindAbsence  SyncKind = "absence"
)

// SyncStatus is the terminal (or pessimistic-default) status of a sync run.
type SyncStatus string

const (
	StatusSuccess SyncStatus = "success"
	StatusPartial SyncStatus = "partial"
	StatusError   SyncStatus = "error"
)

// DeriveStatus maps aggregate per-record counts to a run status. It is the
// single status policy for every batch operation; an empty batch counts as
// success.
func DeriveStatus(successCount, errorCount int) SyncStatus {
	switch {
	case errorCount == 0:
		return StatusSuccess
	case successCount > 0:
		return StatusPartial
	default:
		return StatusError
	}
}

// MaxAbsenceWindow bounds the absence credential date window accepted by the
// provider.
const MaxAbsenceWindow = 30 * 24 * time.Hour

// Window validation errors.
var (
	ErrWindowInverted = errors.New("end date before start date")
	ErrWindowTooWide  = errors.New("date window exceeds 30 days")
)

// EmployeeCredentials holds roster API access for one (tenant, user).
type EmployeeCredentials struct {
	ID       int64
	TenantID uuid.UUID
	UserID   uuid.UUID
	Company  string
	Code     string
	Key      string

	// Roster status filters forwarded to the provider when enabled.
	IncludeActive   bool
	IncludeInactive bool
	IncludeAway     bool
	IncludePending  bool
	IncludeVacation bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AbsenceCredentials holds absence API access for one (tenant, user),
// including the mandatory date window.
type AbsenceCredentials struct {
	ID          int64
	TenantID    uuid.UUID
	UserID      uuid.UUID
	MainCompany string
	Code        string
	Key         string
	WorkCompany string
	StartDate   time.Time
	EndDate     time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateWindow enforces end >= start and a span of at most 30 days. It must
// pass before any provider call is made.
func (c *AbsenceCredentials) ValidateWindow() error {
	if c.EndDate.Before(c.StartDate) {
		return ErrWindowInverted
	}
	if c.EndDate.Sub(c.StartDate) > MaxAbsenceWindow {
		return ErrWindowTooWide
	}
	return nil
}

// PlaceholderSituation marks employees synthesized for absences whose
// registration matched no stored roster record.
const PlaceholderSituation = "GENERICO"

// Employee is a roster record synchronized from the provider. Uniqueness is
// (tenant, code); re-synchronization overwrites every mapped field in place.
type Employee struct {
	ID       int64
	TenantID uuid.UUID

	CompanyCode    string
	CompanyName    string
	Code           string
	Name           string
	UnitCode       string
	UnitName       string
	SectorCode     string
	SectorName     string
	RoleCode       string
	RoleName       string
	RoleCBO        string
	CostCenter     string
	CostCenterName string
	Registration   string
	CPF            string
	RG             string
	RGState        string
	RGIssuer       string
	Situation      string
	Gender         *int
	PIS            string
	CTPS           string
	CTPSSeries     string
	MaritalStatus  *int
	HiringType     *int
	BirthDate      *time.Time
	AdmissionDate  *time.Time
	DismissalDate  *time.Time
	Address        string
	AddressNumber  string
	District       string
	City           string
	State          string
	ZipCode        string
	HomePhone      string
	MobilePhone    string
	Email          string
	Disabled       *int
	Disability     string
	MotherName     string
	LastChangeDate *time.Time
	HRRegistration string
	SkinColor      *int
	Education      *int
	BirthPlace     string
	Extension      string
	ShiftRegime    *int
	WorkRegime     string
	WorkPhone      string
	WorkShift      *int
	HRUnit         string
	HRSector       string
	HRRole         string
	HRCostCenter   string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Absence is one leave record tied to (tenant, employee). Uniqueness is
// (tenant, employee, start date, end date); both dates are mandatory for
// persistence.
type Absence struct {
	ID         int64
	TenantID   uuid.UUID
	EmployeeID int64

	Unit            string
	Sector          string
	Registration    string
	BirthDate       *time.Time
	Gender          *int
	CertificateType *int
	StartDate       *time.Time
	EndDate         *time.Time
	StartHour       string
	EndHour         string
	DaysOff         *int
	HoursOff        string
	PrimaryCID      string
	CIDDescription  string
	PathologyGroup  string
	LeaveType       string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SyncLog tracks one sync run. It is created with StatusError (pessimistic
// default) so a crash before finalization leaves the run visibly failed, and
// is terminal once EndTime is set.
type SyncLog struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	UserID   uuid.UUID
	Kind     SyncKind
	Company  string
	Status   SyncStatus

	RecordsProcessed int
	RecordsSuccess   int
	RecordsError     int
	Message          string

	StartTime time.Time
	EndTime   *time.Time
	TaskID    string

	CreatedAt time.Time
}

// Finished reports whether the run reached a terminal state.
func (l *SyncLog) Finished() bool { return l.EndTime != nil }

// SyncResult is the payload returned to every caller of a sync operation,
// whether invoked synchronously or through the task dispatcher.
type SyncResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	Total        int    `json:"total,omitempty"`
	SuccessCount int    `json:"success_count,omitempty"`
	ErrorCount   int    `json:"error_count,omitempty"`
}
