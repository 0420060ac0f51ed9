// Package report documentos derivados de los préstamos: acta en PDF e historial en Excel.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/prestamos-api/internal/application/dto"
	"github.com/jhoicas/prestamos-api/internal/application/ports"
	"github.com/jhoicas/prestamos-api/internal/domain"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
	"github.com/jhoicas/prestamos-api/pkg/logger"
)

// ReportUseCase genera el acta de préstamo y el historial de una persona.
type ReportUseCase struct {
	loans      ports.LoanGateway
	persons    ports.PersonDirectory
	items      ports.InventoryCatalog
	conditions ports.ConditionCatalog
	acta       ports.ActaGenerator
	exporter   ports.HistoryExporter
	now        func() time.Time
	log        *logger.Logger
}

// NewReportUseCase construye el caso de uso inyectando todas sus dependencias.
func NewReportUseCase(
	loans ports.LoanGateway,
	persons ports.PersonDirectory,
	items ports.InventoryCatalog,
	conditions ports.ConditionCatalog,
	acta ports.ActaGenerator,
	exporter ports.HistoryExporter,
	now func() time.Time,
	log *logger.Logger,
) *ReportUseCase {
	return &ReportUseCase{
		loans:      loans,
		persons:    persons,
		items:      items,
		conditions: conditions,
		acta:       acta,
		exporter:   exporter,
		now:        now,
		log:        log.Component("reports"),
	}
}

// Acta genera el acta de préstamo.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si el préstamo no existe.
//   - domain.ErrInvalidInput     si el préstamo fue rechazado o cancelado.
func (uc *ReportUseCase) Acta(ctx context.Context, loanID int64) ([]byte, string, error) {
	// ── 1. Préstamo ───────────────────────────────────────────────────────────
	l, err := uc.loans.Get(ctx, loanID)
	if err != nil {
		return nil, "", fmt.Errorf("acta: obtener préstamo: %w", err)
	}
	if l == nil {
		return nil, "", domain.ErrNotFound
	}
	if l.Status == entity.LoanStatusRejected || l.Status == entity.LoanStatusCancelled {
		return nil, "", fmt.Errorf("%w: el préstamo está en estado %s", domain.ErrInvalidInput, l.Status)
	}

	// ── 2. Solicitante ────────────────────────────────────────────────────────
	p, err := uc.persons.GetByID(ctx, l.RequestorID)
	if err != nil {
		return nil, "", fmt.Errorf("acta: obtener solicitante: %w", err)
	}
	if p == nil {
		return nil, "", fmt.Errorf("%w: solicitante %d", domain.ErrNotFound, l.RequestorID)
	}

	// ── 3. Condiciones (solo para mostrar el nombre) ──────────────────────────
	condNames := map[int64]string{}
	if conds, err := uc.conditions.List(ctx); err != nil {
		uc.log.Warn().Err(err).Msg("catálogo de condiciones no disponible para el acta")
	} else {
		for _, c := range conds {
			condNames[c.ID] = c.Name
		}
	}

	// ── 4. Líneas con valor patrimonial ───────────────────────────────────────
	lines := make([]dto.ActaLine, 0, len(l.Details))
	total := decimal.Zero
	for _, d := range l.Details {
		item, err := uc.items.GetByID(ctx, d.ItemID)
		if err != nil {
			return nil, "", fmt.Errorf("acta: obtener ítem %d: %w", d.ItemID, err)
		}
		line := dto.ActaLine{
			Quantity:     d.Quantity,
			Condition:    condNames[d.ExitConditionID],
			Observations: d.ExitObservations,
			UnitValue:    decimal.Zero,
			Subtotal:     decimal.Zero,
		}
		if item != nil {
			line.Code = item.Code
			line.Name = item.Name
			line.UnitValue = item.Value
			line.Subtotal = item.Value.Mul(decimal.NewFromInt(int64(d.Quantity)))
		} else {
			line.Code = fmt.Sprintf("#%d", d.ItemID)
		}
		total = total.Add(line.Subtotal)
		lines = append(lines, line)
	}

	data := dto.ActaData{
		LoanCode:            l.Code,
		Status:              string(l.Status),
		RequestDate:         l.RequestDate,
		ScheduledReturnDate: l.ScheduledReturnDate,
		Reason:              l.Reason,
		AssociatedEvent:     l.AssociatedEvent,
		ExternalLocation:    l.ExternalLocation,
		Notes:               l.Notes,
		Requestor: dto.ActaPerson{
			FullName: p.FullName(),
			DNI:      p.DNI,
			Type:     p.Type,
			Email:    p.Email,
			Phone:    p.Phone,
		},
		Lines:       lines,
		Total:       total,
		GeneratedAt: uc.now(),
	}

	// ── 5. PDF ────────────────────────────────────────────────────────────────
	pdfBytes, err := uc.acta.Generate(data)
	if err != nil {
		return nil, "", fmt.Errorf("acta: generar PDF: %w", err)
	}
	return pdfBytes, fmt.Sprintf("acta-%s.pdf", safeName(l.Code, l.ID)), nil
}

// History historial de préstamos de la persona con ese DNI, del más reciente al más antiguo.
func (uc *ReportUseCase) History(ctx context.Context, dni string) (*dto.PersonHistoryResponse, error) {
	dni = strings.TrimSpace(dni)
	if dni == "" {
		return nil, fmt.Errorf("%w: DNI requerido", domain.ErrInvalidInput)
	}
	p, err := uc.persons.FindByDNI(ctx, dni)
	if err != nil {
		return nil, fmt.Errorf("historial: buscar persona: %w", err)
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	loans, err := uc.loans.HistoryByDNI(ctx, dni)
	if err != nil {
		return nil, fmt.Errorf("historial: %w", err)
	}

	entries := make([]dto.HistoryEntry, 0, len(loans))
	for _, l := range loans {
		units := 0
		for _, d := range l.Details {
			units += d.Quantity
		}
		entries = append(entries, dto.HistoryEntry{
			LoanID:              l.ID,
			Code:                l.Code,
			Status:              string(l.Status),
			RequestDate:         l.RequestDate,
			ScheduledReturnDate: l.ScheduledReturnDate,
			ActualReturnDate:    l.ActualReturnDate,
			Reason:              l.Reason,
			Items:               len(l.Details),
			Units:               units,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].RequestDate.After(entries[j].RequestDate)
	})
	return &dto.PersonHistoryResponse{
		DNI:       p.DNI,
		FullName:  p.FullName(),
		Defaulter: p.Defaulter,
		Entries:   entries,
	}, nil
}

// ExportHistory historial como libro .xlsx.
func (uc *ReportUseCase) ExportHistory(ctx context.Context, dni string) ([]byte, string, error) {
	h, err := uc.History(ctx, dni)
	if err != nil {
		return nil, "", err
	}
	data, err := uc.exporter.Export(dto.HistoryExport{History: *h, GeneratedAt: uc.now()})
	if err != nil {
		return nil, "", fmt.Errorf("historial: exportar: %w", err)
	}
	return data, fmt.Sprintf("historial-%s.xlsx", h.DNI), nil
}

func safeName(code string, id int64) string {
	code = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return -1
	}, code)
	if code == "" {
		return fmt.Sprintf("%d", id)
	}
	return code
}
