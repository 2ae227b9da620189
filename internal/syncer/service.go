package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/datasaude/hrsync/internal/errs"
	"github.com/datasaude/hrsync/internal/model"
	"github.com/datasaude/hrsync/internal/repository"
	"github.com/datasaude/hrsync/internal/soc"
)

// User-facing messages, in the provider's locale.
const (
	msgNotConfigured = "Credenciais não encontradas. Configure suas credenciais na página de configurações."
	msgNoEmployees   = "Nenhum funcionário encontrado para sincronizar"
	msgNoAbsences    = "Nenhum registro de absenteísmo encontrado para sincronizar"
	msgAwaitingAPI   = "Aguardando resposta da API..."
	msgDataReceived  = "Dados recebidos, processando..."
	msgDecodeFailed  = "Erro ao decodificar resposta da API. Verifique as credenciais."
	msgWindowSpan    = "O intervalo entre as datas não pode ser maior que 30 dias."
	msgWindowOrder   = "A data de fim deve ser maior que a data de início."
	msgStopped       = "Sincronização interrompida pelo usuário."
)

// Gateway is the outbound boundary to the provider API.
type Gateway interface {
	// Fetch issues one export call and classifies the response.
	Fetch(ctx context.Context, params map[string]string) (soc.Outcome, error)
}

// Service orchestrates the two synchronization operations. Every public
// operation returns a structured result and never an error: failures are
// converted to data (counts, status, message) and recorded on the run.
type Service struct {
	creds     repository.CredentialsRepository
	employees repository.EmployeeRepository
	absences  repository.AbsenceRepository
	runLog    *runLog
	gateway   Gateway
	log       *zap.Logger
	workers   int
}

// New constructs the sync service. workers <= 0 selects the default pool
// size.
func New(
	creds repository.CredentialsRepository,
	employees repository.EmployeeRepository,
	absences repository.AbsenceRepository,
	logs repository.SyncLogRepository,
	gateway Gateway,
	log *zap.Logger,
	workers int,
) *Service {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Service{
		creds:     creds,
		employees: employees,
		absences:  absences,
		runLog:    &runLog{repo: logs, log: log},
		gateway:   gateway,
		log:       log,
		workers:   workers,
	}
}

// SyncEmployees pulls the roster for (tenant, user) and reconciles it into
// the store. runID, when not Nil, attaches progress to an existing run.
func (s *Service) SyncEmployees(ctx context.Context, tenantID, userID, runID uuid.UUID) (res model.SyncResult) {
	creds, err := s.creds.EmployeeCredentials(ctx, tenantID, userID)
	if err != nil {
		return s.credentialFailure(ctx, tenantID, runID, err)
	}

	run, err := s.runLog.open(ctx, runID, tenantID, userID, model.KindEmployee, creds.Company)
	if err != nil {
		return model.SyncResult{Success: false, Message: fmt.Sprintf("Erro na sincronização: %v", err)}
	}
	defer s.recoverRun(ctx, run, &res)

	s.log.Info("starting employee sync",
		zap.String("tenant_id", tenantID.String()),
		zap.String("company", creds.Company),
	)

	outcome, res, ok := s.fetch(ctx, run, soc.EmployeeParams(creds), msgNoEmployees)
	if !ok {
		return res
	}

	return s.runBatch(ctx, run, outcome, func(ctx context.Context, raw soc.RawRecord) error {
		return s.processEmployee(ctx, tenantID, raw)
	})
}

// SyncAbsences pulls absence records for (tenant, user) and reconciles them
// into the store, creating placeholder employees for unknown registrations.
func (s *Service) SyncAbsences(ctx context.Context, tenantID, userID, runID uuid.UUID) (res model.SyncResult) {
	creds, err := s.creds.AbsenceCredentials(ctx, tenantID, userID)
	if err != nil {
		return s.credentialFailure(ctx, tenantID, runID, err)
	}
	if err := creds.ValidateWindow(); err != nil {
		msg := windowMessage(err)
		s.failPreCreated(ctx, tenantID, runID, msg)
		return model.SyncResult{Success: false, Message: msg}
	}

	run, err := s.runLog.open(ctx, runID, tenantID, userID, model.KindAbsence, creds.MainCompany)
	if err != nil {
		return model.SyncResult{Success: false, Message: fmt.Sprintf("Erro na sincronização: %v", err)}
	}
	defer s.recoverRun(ctx, run, &res)

	s.log.Info("starting absence sync",
		zap.String("tenant_id", tenantID.String()),
		zap.String("company", creds.MainCompany),
	)

	outcome, res, ok := s.fetch(ctx, run, soc.AbsenceParams(creds), msgNoAbsences)
	if !ok {
		return res
	}

	records := outcome.(soc.Records)
	cache, err := s.preloadEmployees(ctx, tenantID, records)
	if err != nil {
		msg := fmt.Sprintf("Erro na sincronização: %v", err)
		s.runLog.finalize(ctx, run, model.StatusError, msg)
		return model.SyncResult{Success: false, Message: msg}
	}

	return s.runBatch(ctx, run, outcome, func(ctx context.Context, raw soc.RawRecord) error {
		return s.processAbsence(ctx, tenantID, raw, cache)
	})
}

// Stop finalizes an in-flight run as interrupted. Workers already running
// are not interrupted; only the log reflects the stop.
func (s *Service) Stop(ctx context.Context, tenantID, runID uuid.UUID) error {
	run, err := s.runLog.repo.Get(ctx, tenantID, runID)
	if err != nil {
		return err
	}
	if run.Finished() {
		return errs.ErrAlreadyFinished
	}
	s.runLog.finalize(ctx, run, model.StatusError, msgStopped)
	return nil
}

// credentialFailure maps a credential lookup failure to a result, finalizing
// the pre-created run (if any) so dispatched invocations do not leave it
// dangling without an end time.
func (s *Service) credentialFailure(ctx context.Context, tenantID, runID uuid.UUID, err error) model.SyncResult {
	msg := msgNotConfigured
	if !errors.Is(err, errs.ErrNotConfigured) {
		msg = fmt.Sprintf("Erro na sincronização: %v", err)
	}
	s.failPreCreated(ctx, tenantID, runID, msg)
	return model.SyncResult{Success: false, Message: msg}
}

// failPreCreated finalizes a run created ahead of dispatch when the sync
// fails before opening it. Every fail-fast exit must pass through here,
// otherwise the run keeps no end time and pollers see it running forever.
func (s *Service) failPreCreated(ctx context.Context, tenantID, runID uuid.UUID, msg string) {
	if runID == uuid.Nil {
		return
	}
	if run, err := s.runLog.repo.Get(ctx, tenantID, runID); err == nil {
		s.runLog.finalize(ctx, run, model.StatusError, msg)
	}
}

// recoverRun is the orchestrator's outer boundary: any panic is recorded on
// the run as a fatal error with the end time set, and replaces the caller's
// result with a failure.
func (s *Service) recoverRun(ctx context.Context, run *model.SyncLog, res *model.SyncResult) {
	if r := recover(); r != nil {
		msg := fmt.Sprintf("Erro na sincronização: %v", r)
		s.log.Error("sync panic", zap.Any("reason", r), zap.String("sync_log_id", run.ID.String()))
		s.runLog.finalize(ctx, run, model.StatusError, msg)
		*res = model.SyncResult{Success: false, Message: msg}
	}
}

// fetch performs the gateway call and handles every outcome that terminates
// the run early. ok is true only for a non-empty record batch, which the
// caller must reconcile.
func (s *Service) fetch(ctx context.Context, run *model.SyncLog, params map[string]string, emptyMsg string) (soc.Outcome, model.SyncResult, bool) {
	s.runLog.touch(ctx, run, msgAwaitingAPI)

	outcome, err := s.gateway.Fetch(ctx, params)
	if err != nil {
		msg := fmt.Sprintf("Erro na sincronização: %v", err)
		s.runLog.finalize(ctx, run, model.StatusError, msg)
		return nil, model.SyncResult{Success: false, Message: msg}, false
	}

	switch o := outcome.(type) {
	case soc.TransportError:
		msg := fmt.Sprintf("Erro na requisição: %d - %s", o.Status, o.Body)
		s.runLog.finalize(ctx, run, model.StatusError, msg)
		return nil, model.SyncResult{Success: false, Message: msg}, false

	case soc.DecodeError:
		stored := fmt.Sprintf("Erro ao decodificar resposta JSON. Resposta recebida: %s", o.BodyPrefix)
		s.runLog.finalize(ctx, run, model.StatusError, stored)
		return nil, model.SyncResult{Success: false, Message: msgDecodeFailed}, false

	case soc.ProviderError:
		msg := fmt.Sprintf("Erro da API: %s", o.Message)
		s.runLog.finalize(ctx, run, model.StatusError, msg)
		return nil, model.SyncResult{Success: false, Message: msg}, false

	case soc.Empty:
		s.runLog.finalize(ctx, run, model.StatusSuccess, emptyMsg)
		return nil, model.SyncResult{Success: true, Message: emptyMsg}, false

	case soc.Records:
		s.runLog.touch(ctx, run, msgDataReceived)
		return o, model.SyncResult{}, true

	default:
		msg := fmt.Sprintf("Erro na sincronização: resposta inesperada %T", outcome)
		s.runLog.finalize(ctx, run, model.StatusError, msg)
		return nil, model.SyncResult{Success: false, Message: msg}, false
	}
}

// runBatch drives the reconciliation engine over a non-empty batch and
// finalizes the run with the derived status.
func (s *Service) runBatch(ctx context.Context, run *model.SyncLog, outcome soc.Outcome, process processFunc) model.SyncResult {
	records := outcome.(soc.Records)
	total := len(records)

	run.RecordsProcessed = total
	s.runLog.touch(ctx, run, fmt.Sprintf("Processando %d registros...", total))

	success, errCount := s.reconcile(ctx, run, records, process)

	status := model.DeriveStatus(success, errCount)
	s.runLog.finalize(ctx, run, status, "")

	msg := fmt.Sprintf("Sincronização concluída. Processados: %d, Sucesso: %d, Erros: %d",
		total, success, errCount)
	s.log.Info("sync finished",
		zap.String("sync_log_id", run.ID.String()),
		zap.String("status", string(status)),
		zap.Int("total", total),
		zap.Int("success", success),
		zap.Int("errors", errCount),
	)
	return model.SyncResult{
		Success:      true,
		Message:      msg,
		Total:        total,
		SuccessCount: success,
		ErrorCount:   errCount,
	}
}

// processEmployee maps and upserts one roster record. Records without the
// natural-key code are skipped as failures.
func (s *Service) processEmployee(ctx context.Context, tenantID uuid.UUID, raw soc.RawRecord) error {
	e, ok := mapEmployee(tenantID, raw, s.log)
	if !ok {
		s.log.Warn("employee record without code, skipping")
		return errors.New("employee record without code")
	}
	return s.employees.Upsert(ctx, e)
}

// processAbsence resolves (or synthesizes) the employee, applies the
// mandatory-date gate and upserts one absence record.
func (s *Service) processAbsence(ctx context.Context, tenantID uuid.UUID, raw soc.RawRecord, cache *employeeCache) error {
	emp, err := s.employeeForAbsence(ctx, tenantID, raw, cache)
	if err != nil {
		return err
	}

	a := mapAbsence(tenantID, raw, s.log)
	if a.StartDate == nil || a.EndDate == nil {
		s.log.Warn("absence record without mandatory dates, skipping",
			zap.String("registration", a.Registration))
		return errors.New("absence record without mandatory dates")
	}
	a.EmployeeID = emp.ID
	return s.absences.Upsert(ctx, a)
}

// employeeForAbsence finds the employee for an absence's registration via
// the shared cache, falling back to a live lookup and finally to a
// placeholder.
func (s *Service) employeeForAbsence(ctx context.Context, tenantID uuid.UUID, raw soc.RawRecord, cache *employeeCache) (*model.Employee, error) {
	reg := raw.Str("MATRICULA_FUNC")
	return cache.getOrCreate(reg, func() (*model.Employee, error) {
		if reg != "" {
			e, err := s.employees.FindByRegistration(ctx, tenantID, reg)
			if err == nil {
				return e, nil
			}
			if !errors.Is(err, errs.ErrNotFound) {
				return nil, err
			}
		}

		e := placeholderEmployee(tenantID, reg, raw)
		s.log.Info("creating placeholder employee",
			zap.String("registration", reg),
			zap.String("code", e.Code),
		)
		if err := s.employees.Create(ctx, e); err != nil {
			return nil, err
		}
		return e, nil
	})
}

// preloadEmployees bulk-loads the employees referenced by the batch into the
// shared cache, turning per-record lookups into in-memory hits.
func (s *Service) preloadEmployees(ctx context.Context, tenantID uuid.UUID, records soc.Records) (*employeeCache, error) {
	seen := make(map[string]struct{}, len(records))
	regs := make([]string, 0, len(records))
	for _, raw := range records {
		reg := raw.Str("MATRICULA_FUNC")
		if reg == "" {
			continue
		}
		if _, ok := seen[reg]; ok {
			continue
		}
		seen[reg] = struct{}{}
		regs = append(regs, reg)
	}

	existing, err := s.employees.FindByRegistrations(ctx, tenantID, regs)
	if err != nil {
		return nil, err
	}
	return newEmployeeCache(existing), nil
}

// windowMessage maps window validation errors to user-facing text.
func windowMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrWindowTooWide):
		return msgWindowSpan
	case errors.Is(err, model.ErrWindowInverted):
		return msgWindowOrder
	default:
		return err.Error()
	}
}
