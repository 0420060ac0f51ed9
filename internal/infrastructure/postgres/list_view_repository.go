package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/prestamos-api/internal/application/ports"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
)

var _ ports.ListViewRepository = (*ListViewRepo)(nil)

// ListViewRepo guarda la parte persistida del listado de préstamos: una fila por operador.
type ListViewRepo struct {
	pool *pgxpool.Pool
}

func NewListViewRepository(pool *pgxpool.Pool) *ListViewRepo {
	return &ListViewRepo{pool: pool}
}

// Get devuelve (nil, nil) si el operador no tiene vista guardada.
func (r *ListViewRepo) Get(ctx context.Context, operatorID string) (*ports.LoanQuery, error) {
	query := `
		SELECT status, search, page, page_limit
		FROM loan_list_views WHERE operator_id = $1`
	var (
		q      ports.LoanQuery
		status string
	)
	err := r.pool.QueryRow(ctx, query, operatorID).Scan(&status, &q.Search, &q.Page, &q.Limit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get loan list view: %w", err)
	}
	q.Status = entity.LoanStatus(status)
	q = q.Normalize()
	return &q, nil
}

// Save reemplaza la vista del operador.
func (r *ListViewRepo) Save(ctx context.Context, operatorID string, q ports.LoanQuery) error {
	q = q.Normalize()
	query := `
		INSERT INTO loan_list_views (operator_id, status, search, page, page_limit, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (operator_id) DO UPDATE SET
			status = EXCLUDED.status,
			search = EXCLUDED.search,
			page = EXCLUDED.page,
			page_limit = EXCLUDED.page_limit,
			updated_at = EXCLUDED.updated_at`
	if _, err := r.pool.Exec(ctx, query, operatorID, string(q.Status), q.Search, q.Page, q.Limit); err != nil {
		return fmt.Errorf("save loan list view: %w", err)
	}
	return nil
}
