// Package syncer implements the synchronization core: mapping provider
// records, reconciling them into the store under bounded concurrency, and
// tracking each run in a sync log.
package syncer

import (
	"fmt"
	"hash/fnv"
	"sort"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/datasaude/hrsync/internal/model"
	"github.com/datasaude/hrsync/internal/parse"
	"github.com/datasaude/hrsync/internal/soc"
)

// fields reads typed values out of a raw record. Non-empty values that fail
// coercion are logged and degrade to nil so one bad field never discards the
// whole record.
type fields struct {
	raw soc.RawRecord
	log *zap.Logger
}

func (f fields) str(key string) string { return f.raw.Str(key) }

func (f fields) intPtr(key string) *int {
	v := f.raw.Str(key)
	n, ok := parse.Int(v)
	if !ok {
		if v != "" {
			f.log.Warn("invalid integer field",
				zap.String("field", key), zap.String("value", v))
		}
		return nil
	}
	return &n
}

func (f fields) datePtr(key string) *time.Time {
	v := f.raw.Str(key)
	t, ok := parse.Date(v)
	if !ok {
		if v != "" {
			f.log.Warn("invalid date field",
				zap.String("field", key), zap.String("value", v))
		}
		return nil
	}
	return &t
}

// mapEmployee translates one raw roster record. The natural-key code is the
// only mandatory field; ok == false signals the record must be skipped.
// A missing name is replaced with a placeholder embedding the code so
// downstream display never shows a blank identity.
func mapEmployee(tenantID uuid.UUID, raw soc.RawRecord, log *zap.Logger) (*model.Employee, bool) {
	code := raw.Str("CODIGO")
	if code == "" {
		return nil, false
	}
	name := raw.Str("NOME")
	if name == "" {
		name = fmt.Sprintf("Sem Nome (%s)", code)
	}
	f := fields{raw: raw, log: log.With(zap.String("code", code))}
	return &model.Employee{
		TenantID:       tenantID,
		CompanyCode:    f.str("CODIGOEMPRESA"),
		CompanyName:    f.str("NOMEEMPRESA"),
		Code:           code,
		Name:           name,
		UnitCode:       f.str("CODIGOUNIDADE"),
		UnitName:       f.str("NOMEUNIDADE"),
		SectorCode:     f.str("CODIGOSETOR"),
		SectorName:     f.str("NOMESETOR"),
		RoleCode:       f.str("CODIGOCARGO"),
		RoleName:       f.str("NOMECARGO"),
		RoleCBO:        f.str("CBOCARGO"),
		CostCenter:     f.str("CCUSTO"),
		CostCenterName: f.str("NOMECENTROCUSTO"),
		Registration:   f.str("MATRICULAFUNCIONARIO"),
		CPF:            f.str("CPF"),
		RG:             f.str("RG"),
		RGState:        f.str("UFRG"),
		RGIssuer:       f.str("ORGAOEMISSORRG"),
		Situation:      f.str("SITUACAO"),
		Gender:         f.intPtr("SEXO"),
		PIS:            f.str("PIS"),
		CTPS:           f.str("CTPS"),
		CTPSSeries:     f.str("SERIECTPS"),
		MaritalStatus:  f.intPtr("ESTADOCIVIL"),
		HiringType:     f.intPtr("TIPOCONTATACAO"),
		BirthDate:      f.datePtr("DATA_NASCIMENTO"),
		AdmissionDate:  f.datePtr("DATA_ADMISSAO"),
		DismissalDate:  f.datePtr("DATA_DEMISSAO"),
		Address:        f.str("ENDERECO"),
		AddressNumber:  f.str("NUMERO_ENDERECO"),
		District:       f.str("BAIRRO"),
		City:           f.str("CIDADE"),
		State:          f.str("UF"),
		ZipCode:        f.str("CEP"),
		HomePhone:      f.str("TELEFONERESIDENCIAL"),
		MobilePhone:    f.str("TELEFONECELULAR"),
		Email:          f.str("EMAIL"),
		Disabled:       f.intPtr("DEFICIENTE"),
		Disability:     f.str("DEFICIENCIA"),
		MotherName:     f.str("NM_MAE_FUNCIONARIO"),
		LastChangeDate: f.datePtr("DATAULTALTERACAO"),
		HRRegistration: f.str("MATRICULARH"),
		SkinColor:      f.intPtr("COR"),
		Education:      f.intPtr("ESCOLARIDADE"),
		BirthPlace:     f.str("NATURALIDADE"),
		Extension:      f.str("RAMAL"),
		ShiftRegime:    f.intPtr("REGIMEREVEZAMENTO"),
		WorkRegime:     f.str("REGIMETRABALHO"),
		WorkPhone:      f.str("TELCOMERCIAL"),
		WorkShift:      f.intPtr("TURNOTRABALHO"),
		HRUnit:         f.str("RHUNIDADE"),
		HRSector:       f.str("RHSETOR"),
		HRRole:         f.str("RHCARGO"),
		HRCostCenter:   f.str("RHCENTROCUSTOUNIDADE"),
	}, true
}

// mapAbsence translates one raw absence record. Every field is optional at
// this stage; the mandatory-date gate is applied by the engine.
func mapAbsence(tenantID uuid.UUID, raw soc.RawRecord, log *zap.Logger) *model.Absence {
	f := fields{raw: raw, log: log.With(zap.String("registration", raw.Str("MATRICULA_FUNC")))}
	return &model.Absence{
		TenantID:        tenantID,
		Unit:            f.str("UNIDADE"),
		Sector:          f.str("SETOR"),
		Registration:    f.str("MATRICULA_FUNC"),
		BirthDate:       f.datePtr("DT_NASCIMENTO"),
		Gender:          f.intPtr("SEXO"),
		CertificateType: f.intPtr("TIPO_ATESTADO"),
		StartDate:       f.datePtr("DT_INICIO_ATESTADO"),
		EndDate:         f.datePtr("DT_FIM_ATESTADO"),
		StartHour:       f.str("HORA_INICIO_ATESTADO"),
		EndHour:         f.str("HORA_FIM_ATESTADO"),
		DaysOff:         f.intPtr("DIAS_AFASTADOS"),
		HoursOff:        f.str("HORAS_AFASTADO"),
		PrimaryCID:      f.str("CID_PRINCIPAL"),
		CIDDescription:  f.str("DESCRICAO_CID"),
		PathologyGroup:  f.str("GRUPO_PATOLOGICO"),
		LeaveType:       f.str("TIPO_LICENCA"),
	}
}

// placeholderCodeLen matches the employee code column limit.
const placeholderCodeLen = 20

// placeholderCode derives a deterministic synthetic employee code from the
// raw record. Uniqueness is best effort: the hash is truncated to the code
// column length and not checked against existing codes.
func placeholderCode(raw soc.RawRecord) (code string, identifier uint64) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := fnv.New64a()
	for _, k := range keys {
		_, _ = h.Write([]byte(k))
		_, _ = h.Write([]byte{'='})
		_, _ = h.Write([]byte(raw.Str(k)))
		_, _ = h.Write([]byte{';'})
	}
	sum := h.Sum64()

	code = fmt.Sprintf("SEM_MATRICULA_%d", sum)
	if len(code) > placeholderCodeLen {
		code = code[:placeholderCodeLen]
	}
	return code, sum % 10000
}

// placeholderEmployee synthesizes a stand-in roster record for an absence
// whose registration has no stored match.
func placeholderEmployee(tenantID uuid.UUID, registration string, raw soc.RawRecord) *model.Employee {
	code, n := placeholderCode(raw)
	identifier := registration
	if identifier == "" {
		identifier = fmt.Sprintf("%d", n)
	}
	return &model.Employee{
		TenantID:     tenantID,
		Code:         code,
		Name:         fmt.Sprintf("Sem Matrícula (%s)", identifier),
		Situation:    model.PlaceholderSituation,
		Registration: registration,
	}
}
