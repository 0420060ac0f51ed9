package lending

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/prestamos-api/internal/application/ports"
	"github.com/jhoicas/prestamos-api/internal/domain"
	"github.com/jhoicas/prestamos-api/internal/domain/loan"
	"github.com/jhoicas/prestamos-api/pkg/logger"
)

// CompensationError algunas condiciones aplicadas no se pudieron revertir. Acompaña al error
// que originó la compensación (errors.Join), nunca lo reemplaza.
type CompensationError struct {
	Failed []loan.ConditionChange
	Errs   []error
}

func (e *CompensationError) Error() string {
	codes := make([]string, 0, len(e.Failed))
	for _, c := range e.Failed {
		codes = append(codes, c.Code)
	}
	return "no se pudo revertir la condición de: " + strings.Join(codes, ", ")
}

func (e *CompensationError) Unwrap() []error { return e.Errs }

// LoanBuilder prepara el pedido de creación: valida el borrador, confirma stock con el
// inventario y aplica la condición de salida de cada ítem.
type LoanBuilder struct {
	items ports.InventoryCatalog
	log   *logger.Logger
}

// NewLoanBuilder construye el builder.
func NewLoanBuilder(items ports.InventoryCatalog, log *logger.Logger) *LoanBuilder {
	return &LoanBuilder{items: items, log: log.Component("loan_builder")}
}

// Prepare devuelve el pedido listo para enviar y los cambios de condición ya aplicados.
// Si algo falla no queda ningún cambio aplicado (salvo los que la compensación no pudo revertir,
// informados como *CompensationError).
func (b *LoanBuilder) Prepare(ctx context.Context, d *loan.Draft, now time.Time) (loan.CreateRequest, []loan.ConditionChange, error) {
	// ── 1. Validación del formulario ──────────────────────────────────────────
	req, err := d.Build(now)
	if err != nil {
		return loan.CreateRequest{}, nil, err
	}

	// ── 2. Stock actual: el carrito pudo quedar desactualizado ───────────────
	current := make(map[int64]int64, len(d.Cart.Items))
	for _, it := range d.Cart.Items {
		fresh, err := b.items.GetByID(ctx, it.ItemID)
		if err != nil {
			return loan.CreateRequest{}, nil, fmt.Errorf("consultar stock de %s: %w", it.Code, err)
		}
		if fresh == nil {
			return loan.CreateRequest{}, nil, fmt.Errorf("%w: el ítem %s ya no existe", domain.ErrNotFound, it.Code)
		}
		if it.Quantity > fresh.Stock {
			return loan.CreateRequest{}, nil, &domain.StaleStockError{
				Code: it.Code, Name: it.Name, Requested: it.Quantity, Available: fresh.Stock,
			}
		}
		current[it.ItemID] = fresh.ConditionID
	}

	// ── 3. Condición de salida, un ítem a la vez ──────────────────────────────
	applied := make([]loan.ConditionChange, 0, len(d.Cart.Items))
	for _, it := range d.Cart.Items {
		change := loan.ConditionChange{ItemID: it.ItemID, Code: it.Code, From: current[it.ItemID], To: it.ExitConditionID}
		if err := b.items.UpdateCondition(ctx, it.ItemID, it.ExitConditionID); err != nil {
			cause := fmt.Errorf("actualizar condición de %s: %w", it.Code, err)
			if compErr := b.Compensate(ctx, applied); compErr != nil {
				return loan.CreateRequest{}, nil, errors.Join(cause, compErr)
			}
			return loan.CreateRequest{}, nil, cause
		}
		applied = append(applied, change)
	}
	return req, applied, nil
}

// Compensate devuelve cada ítem a su condición previa, en orden inverso. Sigue aunque un
// paso falle; los fallos se registran y se devuelven juntos.
func (b *LoanBuilder) Compensate(ctx context.Context, applied []loan.ConditionChange) error {
	ctx = context.WithoutCancel(ctx)
	var failed []loan.ConditionChange
	var errs []error
	for i := len(applied) - 1; i >= 0; i-- {
		c := applied[i]
		if c.From == c.To || c.From == 0 {
			continue
		}
		if err := b.items.UpdateCondition(ctx, c.ItemID, c.From); err != nil {
			b.log.Error().Err(err).
				Str("code", c.Code).Int64("item_id", c.ItemID).Int64("condition_id", c.From).
				Msg("no se pudo revertir la condición del ítem")
			failed = append(failed, c)
			errs = append(errs, err)
			continue
		}
		b.log.Info().Str("code", c.Code).Int64("condition_id", c.From).Msg("condición revertida")
	}
	if len(failed) == 0 {
		return nil
	}
	return &CompensationError{Failed: failed, Errs: errs}
}
