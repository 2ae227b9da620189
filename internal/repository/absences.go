package repository

import (
	"context"

	"github.com/datasaude/hrsync/internal/model"
)

// AbsenceRepository provides tenant-scoped access to absence records.
type AbsenceRepository interface {
	// Upsert inserts or overwrites an absence keyed by
	// (tenant, employee, start date, end date). Both dates must be set.
	Upsert(ctx context.Context, a *model.Absence) error
}
