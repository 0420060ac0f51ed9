package lending

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/prestamos-api/internal/application/ports"
	"github.com/jhoicas/prestamos-api/internal/domain"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
	"github.com/jhoicas/prestamos-api/internal/domain/loan"
	"github.com/jhoicas/prestamos-api/pkg/logger"
)

// SubmitOutcome resultado de un envío: el préstamo creado o, si el backend lo rechazó por
// lista negra, el mensaje que se le muestra al operador antes de confirmar.
type SubmitOutcome struct {
	Loan   *entity.Loan
	Prompt string
}

// NeedsConfirmation indica que el pedido quedó retenido en el borrador.
func (o *SubmitOutcome) NeedsConfirmation() bool { return o.Prompt != "" }

// Submitter envía el préstamo y maneja el rechazo por lista negra: retiene el pedido, y
// con la confirmación del operador lo reenvía una sola vez sin bloqueo.
type Submitter struct {
	loans   ports.LoanGateway
	builder *LoanBuilder
	audit   ports.OverrideAuditRepository
	now     Clock
	log     *logger.Logger
}

// NewSubmitter construye el submitter. audit puede ser nil (sin bitácora).
func NewSubmitter(loans ports.LoanGateway, builder *LoanBuilder, audit ports.OverrideAuditRepository, now Clock, log *logger.Logger) *Submitter {
	return &Submitter{loans: loans, builder: builder, audit: audit, now: now, log: log.Component("submitter")}
}

// Submit prepara y crea el préstamo con la lista negra bloqueada. Modifica d.Pending cuando
// el rechazo requiere confirmación; el caller persiste el borrador.
func (s *Submitter) Submit(ctx context.Context, d *loan.Draft) (*SubmitOutcome, error) {
	ctx, span := tracer.Start(ctx, "lending.Submit", trace.WithAttributes(attribute.String("draft.id", d.ID)))
	defer span.End()

	if d.Pending != nil {
		return nil, fmt.Errorf("%w: confirme o cancele la solicitud pendiente", domain.ErrConflict)
	}

	req, applied, err := s.builder.Prepare(ctx, d, s.now())
	if err != nil {
		span.SetStatus(codes.Error, "preparación fallida")
		return nil, err
	}

	created, err := s.create(ctx, req)
	if err == nil {
		span.SetAttributes(attribute.Int64("loan.id", created.ID))
		return &SubmitOutcome{Loan: created}, nil
	}

	if loan.IsBlacklistRejection(rejectionText(err)) {
		msg := rejectionMessage(err)
		d.Pending = &loan.PendingSubmission{Request: req, Applied: applied, Message: msg}
		span.AddEvent("lista negra: confirmación requerida")
		s.log.Info().Str("draft_id", d.ID).Int64("requestor_id", req.RequestorID).Msg("préstamo retenido por lista negra")
		return &SubmitOutcome{Prompt: msg}, nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "creación rechazada")
	return nil, s.abort(ctx, applied, err)
}

// Confirm reenvía el pedido retenido con el bloqueo desactivado. El resultado es final:
// un nuevo rechazo, aunque mencione la lista negra, se devuelve como error.
func (s *Submitter) Confirm(ctx context.Context, operatorID string, d *loan.Draft) (*SubmitOutcome, error) {
	ctx, span := tracer.Start(ctx, "lending.ConfirmOverride", trace.WithAttributes(attribute.String("draft.id", d.ID)))
	defer span.End()

	p := d.Pending
	if p == nil {
		return nil, domain.ErrNoPendingOverride
	}
	d.Pending = nil

	req := p.Request
	req.BlockBlacklisted = false
	created, err := s.create(ctx, req)

	entry := s.auditEntry(operatorID, d, p)
	if err != nil {
		entry.Outcome = entity.OverrideFailed
		s.record(ctx, entry)
		span.RecordError(err)
		span.SetStatus(codes.Error, "reenvío rechazado")
		return nil, s.abort(ctx, p.Applied, err)
	}

	entry.Outcome = entity.OverrideConfirmed
	entry.LoanID = &created.ID
	s.record(ctx, entry)
	s.log.Warn().Str("operator_id", operatorID).Int64("requestor_id", req.RequestorID).Int64("loan_id", created.ID).
		Msg("préstamo creado a persona en lista negra")
	return &SubmitOutcome{Loan: created}, nil
}

// Cancel descarta el pedido retenido y revierte las condiciones aplicadas.
func (s *Submitter) Cancel(ctx context.Context, operatorID string, d *loan.Draft) error {
	p := d.Pending
	if p == nil {
		return domain.ErrNoPendingOverride
	}
	d.Pending = nil

	entry := s.auditEntry(operatorID, d, p)
	entry.Outcome = entity.OverrideCancelled
	s.record(ctx, entry)
	return s.builder.Compensate(ctx, p.Applied)
}

func (s *Submitter) create(ctx context.Context, req loan.CreateRequest) (*entity.Loan, error) {
	out, err := s.loans.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	if out == nil || !out.Success {
		var msgs []string
		if out != nil {
			msgs = out.Messages
		}
		return nil, &domain.RemoteError{Messages: msgs, Body: "el backend rechazó el préstamo"}
	}
	if out.Loan == nil {
		return &entity.Loan{}, nil
	}
	return out.Loan, nil
}

func (s *Submitter) abort(ctx context.Context, applied []loan.ConditionChange, cause error) error {
	if compErr := s.builder.Compensate(ctx, applied); compErr != nil {
		return errors.Join(cause, compErr)
	}
	return cause
}

func (s *Submitter) auditEntry(operatorID string, d *loan.Draft, p *loan.PendingSubmission) *entity.OverrideAudit {
	return &entity.OverrideAudit{
		ID:          uuid.New().String(),
		OperatorID:  operatorID,
		DraftID:     d.ID,
		RequestorID: p.Request.RequestorID,
		DNI:         d.Requestor.DNI,
		Message:     p.Message,
		CreatedAt:   s.now(),
	}
}

func (s *Submitter) record(ctx context.Context, a *entity.OverrideAudit) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(context.WithoutCancel(ctx), a); err != nil {
		s.log.Error().Err(err).Str("draft_id", a.DraftID).Str("outcome", string(a.Outcome)).
			Msg("no se pudo registrar la auditoría de lista negra")
	}
}

// rejectionText une todas las líneas del rechazo, venga de un sobre estructurado o de un
// error con texto plano.
func rejectionText(err error) string {
	var re *domain.RemoteError
	if errors.As(err, &re) {
		return re.Text()
	}
	return err.Error()
}

// rejectionMessage primera línea, la que se muestra al operador.
func rejectionMessage(err error) string {
	var re *domain.RemoteError
	if errors.As(err, &re) {
		return re.Error()
	}
	return err.Error()
}
