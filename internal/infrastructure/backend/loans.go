package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jhoicas/prestamos-api/internal/application/ports"
	"github.com/jhoicas/prestamos-api/internal/domain"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
	"github.com/jhoicas/prestamos-api/internal/domain/loan"
)

// LoanGateway implementa ports.LoanGateway.
type LoanGateway struct {
	c *Client
}

// NewLoanGateway crea el adaptador de préstamos.
func NewLoanGateway(c *Client) *LoanGateway {
	return &LoanGateway{c: c}
}

var _ ports.LoanGateway = (*LoanGateway)(nil)

func (g *LoanGateway) List(ctx context.Context, q ports.LoanQuery) (*ports.LoanPage, error) {
	q = q.Normalize()
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("limit", strconv.Itoa(q.Limit))
	if q.Status != "" {
		params.Set("status", string(q.Status))
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}

	var page wireLoanPage
	if err := g.c.call(ctx, http.MethodGet, "/loans", params, nil, &page); err != nil {
		return nil, err
	}
	out := &ports.LoanPage{Loans: make([]entity.Loan, 0, len(page.Loans)), Total: page.Total, Pages: page.Pages}
	for _, w := range page.Loans {
		out.Loans = append(out.Loans, w.toEntity())
	}
	if out.Pages == 0 && out.Total > 0 {
		out.Pages = (out.Total + q.Limit - 1) / q.Limit
	}
	return out, nil
}

func (g *LoanGateway) Get(ctx context.Context, id int64) (*entity.Loan, error) {
	var w *wireLoan
	err := g.c.call(ctx, http.MethodGet, "/loans/"+strconv.FormatInt(id, 10), nil, nil, &w)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if w == nil {
		return nil, nil
	}
	l := w.toEntity()
	return &l, nil
}

// Create no convierte success=false en error: el llamador necesita los mensajes para
// detectar el rechazo por lista negra.
func (g *LoanGateway) Create(ctx context.Context, req loan.CreateRequest) (*ports.CreateOutcome, error) {
	env, err := g.c.do(ctx, http.MethodPost, "/loans", nil, toWireCreate(req))
	if err != nil {
		return nil, err
	}
	out := &ports.CreateOutcome{Success: env.ok(), Messages: env.Message.Content}
	if out.Success && env.hasData() {
		var w wireLoan
		if err := decodeData(env, &w); err != nil {
			return nil, err
		}
		l := w.toEntity()
		out.Loan = &l
	}
	return out, nil
}

func (g *LoanGateway) Return(ctx context.Context, req loan.ReturnRequest) error {
	return g.c.call(ctx, http.MethodPost, "/loans/return", nil, toWireReturn(req), nil)
}

// HistoryByDNI devuelve lista vacía si la persona no tiene préstamos.
func (g *LoanGateway) HistoryByDNI(ctx context.Context, dni string) ([]entity.Loan, error) {
	var ws []wireLoan
	if err := g.c.call(ctx, http.MethodGet, "/loans/historial/"+pathEscape(dni), nil, nil, &ws); err != nil {
		if isNotFound(err) {
			return []entity.Loan{}, nil
		}
		return nil, err
	}
	out := make([]entity.Loan, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toEntity())
	}
	return out, nil
}

// isNotFound: 404 HTTP. Un success=false en un GET por id también se trata como inexistente.
func isNotFound(err error) bool {
	if errors.Is(err, domain.ErrNotFound) {
		return true
	}
	var re *domain.RemoteError
	return errors.As(err, &re) && re.Status == http.StatusOK
}
