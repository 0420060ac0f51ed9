package lending

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/prestamos-api/internal/application/dto"
	"github.com/jhoicas/prestamos-api/internal/application/ports"
	"github.com/jhoicas/prestamos-api/internal/domain"
	"github.com/jhoicas/prestamos-api/internal/domain/loan"
	"github.com/jhoicas/prestamos-api/pkg/logger"
)

// ErrReturnFailed mensaje genérico de una devolución rechazada; el detalle queda en el log.
var ErrReturnFailed = errors.New("no se pudo registrar la devolución, intente nuevamente")

// ReturnUseCase devolución de préstamos entregados, línea por línea y en un solo envío.
type ReturnUseCase struct {
	sessions   ports.SessionStore
	loans      ports.LoanGateway
	items      ports.InventoryCatalog
	persons    ports.PersonDirectory
	now        Clock
	locks      *keyedMutex
	submitting *keyedMutex
	inFlight   *inFlightSet
	log        *logger.Logger
}

// NewReturnUseCase construye el caso de uso.
func NewReturnUseCase(
	sessions ports.SessionStore,
	loans ports.LoanGateway,
	items ports.InventoryCatalog,
	persons ports.PersonDirectory,
	now Clock,
	log *logger.Logger,
) *ReturnUseCase {
	return &ReturnUseCase{
		sessions:   sessions,
		loans:      loans,
		items:      items,
		persons:    persons,
		now:        now,
		locks:      newKeyedMutex(),
		submitting: newKeyedMutex(),
		inFlight:   &inFlightSet{ids: make(map[int64]struct{})},
		log:        log.Component("returns"),
	}
}

// Open abre el flujo sobre un préstamo DELIVERED.
func (uc *ReturnUseCase) Open(ctx context.Context, operatorID string, in dto.OpenReturnRequest) (*dto.ReturnSessionResponse, error) {
	if in.LoanID <= 0 {
		return nil, fmt.Errorf("%w: loan_id requerido", domain.ErrInvalidInput)
	}
	l, err := uc.loans.Get(ctx, in.LoanID)
	if err != nil {
		return nil, fmt.Errorf("obtener préstamo: %w", err)
	}
	if l == nil {
		return nil, domain.ErrNotFound
	}

	names := make(map[int64]string, len(l.Details))
	for _, d := range l.Details {
		if _, ok := names[d.ItemID]; ok {
			continue
		}
		item, err := uc.items.GetByID(ctx, d.ItemID)
		if err != nil || item == nil {
			uc.log.Debug().Err(err).Int64("item_id", d.ItemID).Msg("nombre de ítem no disponible")
			continue
		}
		names[d.ItemID] = item.Name
	}

	flow, err := loan.NewReturnFlow(l, names)
	if err != nil {
		return nil, err
	}

	var defaulter bool
	if p, err := uc.persons.GetByID(ctx, l.RequestorID); err != nil {
		uc.log.Warn().Err(err).Int64("person_id", l.RequestorID).Msg("estado de moroso no disponible")
	} else if p != nil {
		defaulter = p.Defaulter
	}

	s := &loan.ReturnSession{
		ID:         uuid.New().String(),
		OperatorID: operatorID,
		Flow:       flow,
		Defaulter:  loan.DefaulterControl{Defaulter: defaulter},
		CreatedAt:  uc.now(),
	}
	if err := uc.sessions.SaveReturnSession(ctx, s); err != nil {
		return nil, fmt.Errorf("guardar sesión de devolución: %w", err)
	}
	return uc.view(s), nil
}

// Get devuelve la sesión.
func (uc *ReturnUseCase) Get(ctx context.Context, operatorID, id string) (*dto.ReturnSessionResponse, error) {
	s, err := uc.load(ctx, operatorID, id)
	if err != nil {
		return nil, err
	}
	return uc.view(s), nil
}

// Next avanza a la siguiente línea (sin efecto en la última).
func (uc *ReturnUseCase) Next(ctx context.Context, operatorID, id string) (*dto.ReturnSessionResponse, error) {
	return uc.update(ctx, operatorID, id, func(s *loan.ReturnSession) error {
		s.Flow.Next()
		return nil
	})
}

// Previous retrocede a la línea anterior (sin efecto en la primera).
func (uc *ReturnUseCase) Previous(ctx context.Context, operatorID, id string) (*dto.ReturnSessionResponse, error) {
	return uc.update(ctx, operatorID, id, func(s *loan.ReturnSession) error {
		s.Flow.Previous()
		return nil
	})
}

// UpdateNotes fija las notas generales.
func (uc *ReturnUseCase) UpdateNotes(ctx context.Context, operatorID, id string, in dto.UpdateReturnRequest) (*dto.ReturnSessionResponse, error) {
	return uc.update(ctx, operatorID, id, func(s *loan.ReturnSession) error {
		if s.Flow.State == loan.StateDone {
			return domain.ErrFlowClosed
		}
		if in.Notes != nil {
			s.Flow.Notes = *in.Notes
		}
		return nil
	})
}

// UpdateItem modifica la línea index: condición, observaciones y cantidad (tipeada o al salir).
func (uc *ReturnUseCase) UpdateItem(ctx context.Context, operatorID, id string, index int, in dto.UpdateReturnItemRequest) (*dto.ReturnSessionResponse, error) {
	return uc.update(ctx, operatorID, id, func(s *loan.ReturnSession) error {
		f := s.Flow
		if in.ReturnConditionID != nil {
			if err := f.SetCondition(index, *in.ReturnConditionID); err != nil {
				return err
			}
		}
		if in.ReturnObservations != nil {
			if err := f.SetObservations(index, *in.ReturnObservations); err != nil {
				return err
			}
		}
		if in.QuantityInput != nil {
			if in.Blur {
				return f.BlurQuantity(index, *in.QuantityInput)
			}
			return f.TypeQuantity(index, *in.QuantityInput)
		}
		return nil
	})
}

// Submit valida todas las líneas y envía la devolución en lote. El estado Submitting vive
// solo en este proceso: un segundo envío concurrente recibe ErrSubmissionInFlight.
func (uc *ReturnUseCase) Submit(ctx context.Context, operatorID, id string) (*dto.ReturnSubmitResponse, error) {
	release, ok := uc.submitting.TryLock(id)
	if !ok {
		return nil, domain.ErrSubmissionInFlight
	}
	defer release()
	unlock, err := uc.locks.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s, err := uc.load(ctx, operatorID, id)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "lending.ReturnSubmit", trace.WithAttributes(attribute.Int64("loan.id", s.Flow.LoanID)))
	defer span.End()

	req, err := s.Flow.BeginSubmit(uc.now())
	if err != nil {
		if errors.Is(err, domain.ErrFlowClosed) || errors.Is(err, domain.ErrSubmissionInFlight) {
			return nil, err
		}
		// Validación: el flujo sigue en revisión; se guarda por si el índice cambió.
		if saveErr := uc.sessions.SaveReturnSession(ctx, s); saveErr != nil {
			uc.log.Error().Err(saveErr).Str("session_id", id).Msg("guardar sesión de devolución")
		}
		return nil, err
	}

	submitErr := uc.loans.Return(ctx, req)
	s.Flow.Complete(submitErr)
	if err := uc.sessions.SaveReturnSession(ctx, s); err != nil {
		uc.log.Error().Err(err).Str("session_id", id).Msg("guardar sesión de devolución")
	}
	if submitErr != nil {
		span.RecordError(submitErr)
		span.SetStatus(codes.Error, "devolución rechazada")
		uc.log.Error().Err(submitErr).Int64("loan_id", req.LoanID).Msg("devolución rechazada")
		return nil, fmt.Errorf("%w: %w", ErrReturnFailed, submitErr)
	}
	uc.log.Info().Int64("loan_id", req.LoanID).Int("items", len(req.Items)).Msg("préstamo devuelto")
	return &dto.ReturnSubmitResponse{LoanID: req.LoanID, Next: dto.NextLoans}, nil
}

// MarkDefaulter marca al solicitante como moroso.
func (uc *ReturnUseCase) MarkDefaulter(ctx context.Context, operatorID, id string) (*dto.ReturnSessionResponse, error) {
	return uc.setDefaulter(ctx, operatorID, id, true)
}

// UnmarkDefaulter quita la marca de moroso.
func (uc *ReturnUseCase) UnmarkDefaulter(ctx context.Context, operatorID, id string) (*dto.ReturnSessionResponse, error) {
	return uc.setDefaulter(ctx, operatorID, id, false)
}

// setDefaulter no hace nada si la persona ya está en el estado pedido o si hay otra llamada
// en curso para ella. La llamada remota se hace sin bloquear la sesión.
func (uc *ReturnUseCase) setDefaulter(ctx context.Context, operatorID, id string, target bool) (*dto.ReturnSessionResponse, error) {
	s, err := uc.load(ctx, operatorID, id)
	if err != nil {
		return nil, err
	}
	personID := s.Flow.RequestorID
	if s.Defaulter.Defaulter == target {
		return uc.view(s), nil
	}
	if !uc.inFlight.begin(personID) {
		return uc.view(s), nil
	}
	err = uc.persons.SetDefaulter(ctx, personID, target)
	uc.inFlight.end(personID)
	if err != nil {
		return nil, fmt.Errorf("actualizar moroso: %w", err)
	}
	uc.log.Info().Str("operator_id", operatorID).Int64("person_id", personID).Bool("defaulter", target).Msg("estado de moroso actualizado")

	return uc.update(ctx, operatorID, id, func(s *loan.ReturnSession) error {
		s.Defaulter.Defaulter = target
		return nil
	})
}

func (uc *ReturnUseCase) load(ctx context.Context, operatorID, id string) (*loan.ReturnSession, error) {
	s, err := uc.sessions.GetReturnSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("leer sesión de devolución: %w", err)
	}
	if s == nil || s.Flow == nil {
		return nil, domain.ErrNotFound
	}
	if s.OperatorID != operatorID {
		return nil, domain.ErrForbidden
	}
	return s, nil
}

func (uc *ReturnUseCase) update(ctx context.Context, operatorID, id string, fn func(s *loan.ReturnSession) error) (*dto.ReturnSessionResponse, error) {
	unlock, err := uc.locks.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s, err := uc.load(ctx, operatorID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	if err := uc.sessions.SaveReturnSession(ctx, s); err != nil {
		return nil, fmt.Errorf("guardar sesión de devolución: %w", err)
	}
	return uc.view(s), nil
}

func (uc *ReturnUseCase) view(s *loan.ReturnSession) *dto.ReturnSessionResponse {
	f := s.Flow
	ctl := s.Defaulter
	ctl.InFlight = uc.inFlight.has(f.RequestorID)
	resp := &dto.ReturnSessionResponse{
		ID:          s.ID,
		LoanID:      f.LoanID,
		LoanCode:    f.LoanCode,
		State:       f.State,
		Index:       f.Index,
		Total:       len(f.Entries),
		Entries:     f.Entries,
		Notes:       f.Notes,
		HasPrevious: f.Index > 0,
		HasNext:     f.Index < len(f.Entries)-1,
		Defaulter: dto.DefaulterResponse{
			Defaulter: ctl.Defaulter,
			InFlight:  ctl.InFlight,
			CanMark:   ctl.CanMark(),
			CanUnmark: ctl.CanUnmark(),
		},
	}
	if len(f.Entries) > 0 {
		resp.Current = f.Current()
	}
	return resp
}

// inFlightSet personas con una llamada de moroso en curso.
type inFlightSet struct {
	mu  sync.Mutex
	ids map[int64]struct{}
}

func (s *inFlightSet) begin(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.ids[id]; busy {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s *inFlightSet) end(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
}

func (s *inFlightSet) has(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.ids[id]
	return busy
}
