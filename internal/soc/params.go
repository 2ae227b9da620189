package soc

import (
	"github.com/datasaude/hrsync/internal/model"
)

const dateLayoutBR = "02/01/2006"

// EmployeeParams builds the roster export payload. Status filters are only
// sent when enabled; the provider treats an absent key as "don't include".
func EmployeeParams(c *model.EmployeeCredentials) map[string]string {
	params := map[string]string{
		"empresa":   c.Company,
		"codigo":    c.Code,
		"chave":     c.Key,
		"tipoSaida": "json",
	}
	if c.IncludeActive {
		params["ativo"] = "Sim"
	}
	if c.IncludeInactive {
		params["inativo"] = "Sim"
	}
	if c.IncludeAway {
		params["afastado"] = "Sim"
	}
	if c.IncludePending {
		params["pendente"] = "Sim"
	}
	if c.IncludeVacation {
		params["ferias"] = "Sim"
	}
	return params
}

// AbsenceParams builds the absence export payload. The credential window
// must already be validated.
func AbsenceParams(c *model.AbsenceCredentials) map[string]string {
	return map[string]string{
		"empresa":         c.MainCompany,
		"codigo":          c.Code,
		"chave":           c.Key,
		"tipoSaida":       "json",
		"empresaTrabalho": c.WorkCompany,
		"dataInicio":      c.StartDate.Format(dateLayoutBR),
		"dataFim":         c.EndDate.Format(dateLayoutBR),
	}
}
