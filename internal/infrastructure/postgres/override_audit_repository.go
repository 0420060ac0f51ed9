package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/prestamos-api/internal/application/ports"
	"github.com/jhoicas/prestamos-api/internal/domain"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
)

var _ ports.OverrideAuditRepository = (*OverrideAuditRepo)(nil)

// OverrideAuditRepo bitácora de decisiones sobre solicitantes en lista negra. Solo inserta.
type OverrideAuditRepo struct {
	pool *pgxpool.Pool
}

func NewOverrideAuditRepository(pool *pgxpool.Pool) *OverrideAuditRepo {
	return &OverrideAuditRepo{pool: pool}
}

// Record persiste el registro; genera el ID si viene vacío.
func (r *OverrideAuditRepo) Record(ctx context.Context, a *entity.OverrideAudit) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	query := `
		INSERT INTO override_audits (id, operator_id, draft_id, requestor_id, dni, message, outcome, loan_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.pool.Exec(ctx, query,
		a.ID, a.OperatorID, a.DraftID, a.RequestorID, a.DNI, a.Message, string(a.Outcome), a.LoanID, a.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert override audit: %w", err)
	}
	return nil
}

// ListByRequestor últimos registros de un solicitante, del más reciente al más antiguo.
func (r *OverrideAuditRepo) ListByRequestor(ctx context.Context, requestorID int64, limit int) ([]*entity.OverrideAudit, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := `
		SELECT id, operator_id, draft_id, requestor_id, dni, message, outcome, loan_id, created_at
		FROM override_audits
		WHERE requestor_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := r.pool.Query(ctx, query, requestorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list override audits: %w", err)
	}
	defer rows.Close()

	var out []*entity.OverrideAudit
	for rows.Next() {
		var (
			a       entity.OverrideAudit
			id      uuid.UUID
			outcome string
		)
		if err := rows.Scan(&id, &a.OperatorID, &a.DraftID, &a.RequestorID, &a.DNI, &a.Message, &outcome, &a.LoanID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan override audit: %w", err)
		}
		a.ID = id.String()
		a.Outcome = entity.OverrideOutcome(outcome)
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list override audits: %w", err)
	}
	return out, nil
}
