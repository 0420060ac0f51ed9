// Package store estado del listado de préstamos por operador.
package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jhoicas/prestamos-api/internal/application/dto"
	"github.com/jhoicas/prestamos-api/internal/application/ports"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
	"github.com/jhoicas/prestamos-api/pkg/logger"
)

// ListPatch cambios pedidos sobre la vista; los nil se mantienen.
type ListPatch struct {
	Status *string
	Search *string
	Page   *int
	Limit  *int
}

// Empty indica que no se pidió ningún cambio.
func (p ListPatch) Empty() bool {
	return p.Status == nil && p.Search == nil && p.Page == nil && p.Limit == nil
}

// transient lo que no sobrevive a un reinicio: registros, totales, carga y último error.
type transient struct {
	records []entity.Loan
	total   int
	pages   int
	loading bool
	err     string
}

// LoanListStore contenedor por operador. Solo ports.LoanQuery (filtros, página y tamaño)
// cruza el límite de persistencia.
type LoanListStore struct {
	loans ports.LoanGateway
	views ports.ListViewRepository
	log   *logger.Logger

	mu    sync.Mutex
	state map[string]*transient
}

// NewLoanListStore construye el store.
func NewLoanListStore(loans ports.LoanGateway, views ports.ListViewRepository, log *logger.Logger) *LoanListStore {
	return &LoanListStore{
		loans: loans,
		views: views,
		log:   log.Component("loan_list"),
		state: make(map[string]*transient),
	}
}

// View devuelve la vista persistida del operador (o la de defecto).
func (s *LoanListStore) View(ctx context.Context, operatorID string) (ports.LoanQuery, error) {
	q, err := s.views.Get(ctx, operatorID)
	if err != nil {
		return ports.LoanQuery{}, fmt.Errorf("leer vista: %w", err)
	}
	if q == nil {
		return ports.LoanQuery{}.Normalize(), nil
	}
	return q.Normalize(), nil
}

// Apply aplica el patch a la vista persistida. Cambiar un filtro vuelve a la página 1.
func (s *LoanListStore) Apply(ctx context.Context, operatorID string, patch ListPatch) (ports.LoanQuery, error) {
	q, err := s.View(ctx, operatorID)
	if err != nil {
		return q, err
	}
	if patch.Empty() {
		return q, nil
	}
	filtersChanged := false
	if patch.Status != nil {
		st := entity.LoanStatus(strings.ToUpper(strings.TrimSpace(*patch.Status)))
		filtersChanged = filtersChanged || st != q.Status
		q.Status = st
	}
	if patch.Search != nil {
		search := strings.TrimSpace(*patch.Search)
		filtersChanged = filtersChanged || search != q.Search
		q.Search = search
	}
	if patch.Limit != nil {
		q.Limit = *patch.Limit
	}
	if patch.Page != nil {
		q.Page = *patch.Page
	} else if filtersChanged {
		q.Page = 1
	}
	q = q.Normalize()
	if err := s.views.Save(ctx, operatorID, q); err != nil {
		return q, fmt.Errorf("guardar vista: %w", err)
	}
	return q, nil
}

// Refresh consulta el backend con la vista persistida. Un fallo queda registrado en el
// estado transitorio y también se devuelve.
func (s *LoanListStore) Refresh(ctx context.Context, operatorID string) (*dto.LoanListResponse, error) {
	q, err := s.View(ctx, operatorID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	t := s.transientFor(operatorID)
	t.loading = true
	s.mu.Unlock()

	page, err := s.loans.List(ctx, q)

	s.mu.Lock()
	t.loading = false
	if err != nil {
		t.err = err.Error()
	} else {
		t.err = ""
		t.records = page.Loans
		t.total = page.Total
		t.pages = page.Pages
	}
	out := s.snapshot(q, t)
	s.mu.Unlock()

	if err != nil {
		s.log.Warn().Err(err).Str("operator_id", operatorID).Msg("listado de préstamos falló")
		return out, err
	}
	return out, nil
}

// Snapshot estado actual sin consultar el backend.
func (s *LoanListStore) Snapshot(ctx context.Context, operatorID string) (*dto.LoanListResponse, error) {
	q, err := s.View(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(q, s.transientFor(operatorID)), nil
}

// Forget descarta el estado transitorio del operador.
func (s *LoanListStore) Forget(operatorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state, operatorID)
}

func (s *LoanListStore) transientFor(operatorID string) *transient {
	t, ok := s.state[operatorID]
	if !ok {
		t = &transient{}
		s.state[operatorID] = t
	}
	return t
}

func (s *LoanListStore) snapshot(q ports.LoanQuery, t *transient) *dto.LoanListResponse {
	items := make([]dto.LoanResponse, 0, len(t.records))
	for i := range t.records {
		items = append(items, *dto.ToLoanResponse(&t.records[i]))
	}
	return &dto.LoanListResponse{
		Status:  q.Status,
		Search:  q.Search,
		Items:   items,
		Page:    dto.PageResponse{Page: q.Page, Limit: q.Limit, Total: t.total, Pages: t.pages},
		Loading: t.loading,
		Error:   t.err,
	}
}

// Get un préstamo puntual; no altera la vista.
func (s *LoanListStore) Get(ctx context.Context, id int64) (*dto.LoanResponse, error) {
	l, err := s.loans.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener préstamo: %w", err)
	}
	return dto.ToLoanResponse(l), nil
}
