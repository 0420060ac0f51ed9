package lending

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/prestamos-api/internal/application/dto"
	"github.com/jhoicas/prestamos-api/internal/application/ports"
	"github.com/jhoicas/prestamos-api/internal/domain"
	"github.com/jhoicas/prestamos-api/internal/domain/loan"
	"github.com/jhoicas/prestamos-api/pkg/logger"
)

// DraftUseCase borradores de préstamo de cada operador.
type DraftUseCase struct {
	sessions   ports.SessionStore
	requestors *RequestorValidator
	items      ports.InventoryCatalog
	conditions ports.ConditionCatalog
	submitter  *Submitter
	now        Clock
	locks      *keyedMutex
	log        *logger.Logger
}

// NewDraftUseCase construye el caso de uso.
func NewDraftUseCase(
	sessions ports.SessionStore,
	requestors *RequestorValidator,
	items ports.InventoryCatalog,
	conditions ports.ConditionCatalog,
	submitter *Submitter,
	now Clock,
	log *logger.Logger,
) *DraftUseCase {
	return &DraftUseCase{
		sessions:   sessions,
		requestors: requestors,
		items:      items,
		conditions: conditions,
		submitter:  submitter,
		now:        now,
		locks:      newKeyedMutex(),
		log:        log.Component("drafts"),
	}
}

// Open crea un borrador vacío con la fecha de devolución sugerida.
func (uc *DraftUseCase) Open(ctx context.Context, operatorID string, in dto.OpenDraftRequest) (*dto.DraftResponse, error) {
	mode := loan.Mode(strings.ToLower(strings.TrimSpace(in.Mode)))
	if in.Mode == "" {
		mode = loan.ModeManual
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: modo %q", domain.ErrInvalidInput, in.Mode)
	}
	d := loan.NewDraft(uuid.New().String(), operatorID, mode, uc.now())
	if err := uc.sessions.SaveDraft(ctx, d); err != nil {
		return nil, fmt.Errorf("guardar borrador: %w", err)
	}
	return uc.view(d, ""), nil
}

// Get devuelve el borrador.
func (uc *DraftUseCase) Get(ctx context.Context, operatorID, id string) (*dto.DraftResponse, error) {
	d, err := uc.load(ctx, operatorID, id)
	if err != nil {
		return nil, err
	}
	return uc.view(d, ""), nil
}

// Discard elimina el borrador. Si tenía un pedido retenido, primero se revierte.
func (uc *DraftUseCase) Discard(ctx context.Context, operatorID, id string) error {
	return uc.mutate(ctx, operatorID, id, func(d *loan.Draft) (bool, error) {
		if d.Pending != nil {
			if err := uc.submitter.Cancel(ctx, operatorID, d); err != nil {
				uc.log.Warn().Err(err).Str("draft_id", id).Msg("compensación incompleta al descartar")
			}
		}
		return false, uc.sessions.DeleteDraft(ctx, id)
	})
}

// ValidateRequestor resuelve el DNI. Un DNI inexistente o una búsqueda fallida no son errores:
// quedan como error de campo en el borrador.
func (uc *DraftUseCase) ValidateRequestor(ctx context.Context, operatorID, id string, in dto.ValidateRequestorRequest) (*dto.DraftResponse, error) {
	var out *dto.DraftResponse
	err := uc.mutate(ctx, operatorID, id, func(d *loan.Draft) (bool, error) {
		res := uc.requestors.Validate(ctx, in.DNI)
		if res.Validated() {
			d.SetRequestor(*res.Person)
		} else {
			d.ClearRequestor(strings.TrimSpace(in.DNI), res.FieldError)
		}
		out = uc.view(d, "")
		return true, nil
	})
	return out, err
}

// Update modifica los campos de texto y la fecha de devolución.
func (uc *DraftUseCase) Update(ctx context.Context, operatorID, id string, in dto.UpdateDraftRequest) (*dto.DraftResponse, error) {
	var out *dto.DraftResponse
	err := uc.mutate(ctx, operatorID, id, func(d *loan.Draft) (bool, error) {
		if in.Reason != nil {
			d.Reason = *in.Reason
		}
		if in.AssociatedEvent != nil {
			d.AssociatedEvent = *in.AssociatedEvent
		}
		if in.ExternalLocation != nil {
			d.ExternalLocation = *in.ExternalLocation
		}
		if in.Notes != nil {
			d.Notes = *in.Notes
		}
		if in.ScheduledReturnDate != nil {
			d.ScheduledReturnDate = *in.ScheduledReturnDate
		}
		out = uc.view(d, "")
		return true, nil
	})
	return out, err
}

// AddItem busca el ítem por código y lo agrega al carrito.
func (uc *DraftUseCase) AddItem(ctx context.Context, operatorID, id string, in dto.AddItemRequest) (*dto.DraftResponse, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return nil, fmt.Errorf("%w: código vacío", domain.ErrInvalidInput)
	}
	var out *dto.DraftResponse
	err := uc.mutate(ctx, operatorID, id, func(d *loan.Draft) (bool, error) {
		item, err := uc.items.GetByCode(ctx, code)
		if err != nil {
			return false, fmt.Errorf("buscar ítem %s: %w", code, err)
		}
		if item == nil {
			return false, fmt.Errorf("%w: no existe un ítem con código %s", domain.ErrNotFound, code)
		}
		conds, err := uc.conditions.List(ctx)
		if err != nil {
			uc.log.Warn().Err(err).Msg("catálogo de condiciones no disponible")
			conds = nil
		}
		warning, err := d.Cart.Add(*item, conds)
		if err != nil {
			return false, err
		}
		out = uc.view(d, warning)
		return true, nil
	})
	return out, err
}

// UpdateItem cambia cantidad, condición u observaciones de una línea.
func (uc *DraftUseCase) UpdateItem(ctx context.Context, operatorID, id, code string, in dto.UpdateItemRequest) (*dto.DraftResponse, error) {
	var out *dto.DraftResponse
	err := uc.mutate(ctx, operatorID, id, func(d *loan.Draft) (bool, error) {
		if d.Cart.Find(code) == nil {
			return false, fmt.Errorf("%w: %s", domain.ErrItemNotInDraft, code)
		}
		if in.Quantity != nil {
			if _, err := d.Cart.SetQuantity(code, *in.Quantity); err != nil {
				return false, err
			}
		}
		if in.ExitConditionID != nil {
			if err := d.Cart.SetExitCondition(code, *in.ExitConditionID); err != nil {
				return false, err
			}
		}
		if in.ExitObservations != nil {
			if err := d.Cart.SetObservations(code, *in.ExitObservations); err != nil {
				return false, err
			}
		}
		out = uc.view(d, "")
		return true, nil
	})
	return out, err
}

// RemoveItem quita una línea del carrito.
func (uc *DraftUseCase) RemoveItem(ctx context.Context, operatorID, id, code string) (*dto.DraftResponse, error) {
	var out *dto.DraftResponse
	err := uc.mutate(ctx, operatorID, id, func(d *loan.Draft) (bool, error) {
		if err := d.Cart.Remove(code); err != nil {
			return false, err
		}
		out = uc.view(d, "")
		return true, nil
	})
	return out, err
}

// Submit arma y envía el préstamo. Si se crea, el borrador se elimina; si el backend pide
// confirmación por lista negra, el pedido queda retenido en el borrador.
func (uc *DraftUseCase) Submit(ctx context.Context, operatorID, id string) (*dto.SubmitResponse, error) {
	var out *dto.SubmitResponse
	err := uc.mutate(ctx, operatorID, id, func(d *loan.Draft) (bool, error) {
		res, err := uc.submitter.Submit(ctx, d)
		if err != nil {
			return false, err
		}
		if res.NeedsConfirmation() {
			out = &dto.SubmitResponse{RequiresConfirmation: true, Prompt: &dto.OverridePrompt{Message: res.Prompt}}
			return true, nil
		}
		out = uc.created(ctx, d, res)
		return false, nil
	})
	return out, err
}

// ConfirmOverride reenvía el pedido retenido sin bloqueo de lista negra.
func (uc *DraftUseCase) ConfirmOverride(ctx context.Context, operatorID, id string) (*dto.SubmitResponse, error) {
	var out *dto.SubmitResponse
	err := uc.mutate(ctx, operatorID, id, func(d *loan.Draft) (bool, error) {
		res, err := uc.submitter.Confirm(ctx, operatorID, d)
		if err != nil {
			// El pedido retenido ya se descartó; se persiste el borrador sin él.
			if saveErr := uc.sessions.SaveDraft(ctx, d); saveErr != nil {
				uc.log.Error().Err(saveErr).Str("draft_id", id).Msg("guardar borrador")
			}
			return false, err
		}
		out = uc.created(ctx, d, res)
		return false, nil
	})
	return out, err
}

// CancelOverride descarta el pedido retenido; el borrador sigue abierto para corregirlo.
func (uc *DraftUseCase) CancelOverride(ctx context.Context, operatorID, id string) (*dto.DraftResponse, error) {
	var out *dto.DraftResponse
	var compErr error
	err := uc.mutate(ctx, operatorID, id, func(d *loan.Draft) (bool, error) {
		if d.Pending == nil {
			return false, domain.ErrNoPendingOverride
		}
		compErr = uc.submitter.Cancel(ctx, operatorID, d)
		out = uc.view(d, "")
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if compErr != nil {
		out.Warning = compErr.Error()
	}
	return out, nil
}

func (uc *DraftUseCase) created(ctx context.Context, d *loan.Draft, res *SubmitOutcome) *dto.SubmitResponse {
	if err := uc.sessions.DeleteDraft(ctx, d.ID); err != nil {
		uc.log.Warn().Err(err).Str("draft_id", d.ID).Msg("no se pudo eliminar el borrador enviado")
	}
	uc.log.Info().Str("draft_id", d.ID).Int64("loan_id", res.Loan.ID).Str("code", res.Loan.Code).Msg("préstamo creado")
	return &dto.SubmitResponse{Loan: dto.ToLoanResponse(res.Loan), Next: dto.NextLoans}
}

func (uc *DraftUseCase) load(ctx context.Context, operatorID, id string) (*loan.Draft, error) {
	d, err := uc.sessions.GetDraft(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("leer borrador: %w", err)
	}
	if d == nil {
		return nil, domain.ErrNotFound
	}
	if d.OperatorID != operatorID {
		return nil, domain.ErrForbidden
	}
	return d, nil
}

// mutate ejecuta fn con el borrador bloqueado y lo guarda si fn devuelve save=true.
func (uc *DraftUseCase) mutate(ctx context.Context, operatorID, id string, fn func(d *loan.Draft) (save bool, err error)) error {
	unlock, err := uc.locks.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	d, err := uc.load(ctx, operatorID, id)
	if err != nil {
		return err
	}
	save, err := fn(d)
	if err != nil {
		return err
	}
	if !save {
		return nil
	}
	if err := uc.sessions.SaveDraft(ctx, d); err != nil {
		return fmt.Errorf("guardar borrador: %w", err)
	}
	return nil
}

func (uc *DraftUseCase) view(d *loan.Draft, warning string) *dto.DraftResponse {
	w := d.Window(uc.now())
	items := d.Cart.Items
	if items == nil {
		items = []loan.ScannedItem{}
	}
	resp := &dto.DraftResponse{
		ID:                  d.ID,
		Mode:                d.Mode,
		Requestor:           d.Requestor,
		RequestorError:      d.RequestorError,
		Reason:              d.Reason,
		AssociatedEvent:     d.AssociatedEvent,
		ExternalLocation:    d.ExternalLocation,
		Notes:               d.Notes,
		ScheduledReturnDate: d.ScheduledReturnDate,
		Window:              dto.WindowResponse{Min: w.Min, Max: w.Max},
		Items:               items,
		Warning:             warning,
	}
	if d.Pending != nil {
		resp.PendingOverride = &dto.OverridePrompt{Message: d.Pending.Message}
	}
	return resp
}
