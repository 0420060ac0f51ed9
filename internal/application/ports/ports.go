package ports

import (
	"context"

	"github.com/jhoicas/prestamos-api/internal/application/dto"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
	"github.com/jhoicas/prestamos-api/internal/domain/loan"
)

// PersonDirectory personas registradas en el backend institucional.
type PersonDirectory interface {
	// FindByDNI devuelve (nil, nil) si no existe ninguna persona con ese DNI.
	// Un error indica que la búsqueda misma falló (red, 5xx).
	FindByDNI(ctx context.Context, dni string) (*entity.Person, error)
	GetByID(ctx context.Context, id int64) (*entity.Person, error)
	SetDefaulter(ctx context.Context, id int64, defaulter bool) error
}

// InventoryCatalog ítems del inventario. GetByCode/GetByID devuelven (nil, nil) si no existen.
type InventoryCatalog interface {
	GetByCode(ctx context.Context, code string) (*entity.Item, error)
	GetByID(ctx context.Context, id int64) (*entity.Item, error)
	UpdateCondition(ctx context.Context, id, conditionID int64) error
}

// ConditionCatalog catálogo de condiciones físicas.
type ConditionCatalog interface {
	List(ctx context.Context) ([]entity.Condition, error)
}

// LoanQuery filtros y página del listado de préstamos.
type LoanQuery struct {
	Status entity.LoanStatus `json:"status"`
	Search string            `json:"search"`
	Page   int               `json:"page"`
	Limit  int               `json:"limit"`
}

// Normalize aplica página 1 y 10 por página cuando faltan, con tope de 100.
func (q LoanQuery) Normalize() LoanQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if !q.Status.Valid() {
		q.Status = ""
	}
	return q
}

// LoanPage una página de préstamos.
type LoanPage struct {
	Loans []entity.Loan
	Total int
	Pages int
}

// CreateOutcome respuesta estructurada de la creación. Success=false con HTTP 2xx es un
// rechazo de negocio; los rechazos HTTP llegan como error (*domain.RemoteError).
type CreateOutcome struct {
	Success  bool
	Messages []string
	Loan     *entity.Loan
}

// LoanGateway operaciones de préstamo del backend.
type LoanGateway interface {
	List(ctx context.Context, q LoanQuery) (*LoanPage, error)
	// Get devuelve (nil, nil) si el préstamo no existe.
	Get(ctx context.Context, id int64) (*entity.Loan, error)
	Create(ctx context.Context, req loan.CreateRequest) (*CreateOutcome, error)
	Return(ctx context.Context, req loan.ReturnRequest) error
	HistoryByDNI(ctx context.Context, dni string) ([]entity.Loan, error)
}

// SessionStore estado de trabajo de los operadores con expiración.
// Get* devuelven (nil, nil) si la sesión no existe o expiró.
type SessionStore interface {
	SaveDraft(ctx context.Context, d *loan.Draft) error
	GetDraft(ctx context.Context, id string) (*loan.Draft, error)
	DeleteDraft(ctx context.Context, id string) error
	SaveReturnSession(ctx context.Context, s *loan.ReturnSession) error
	GetReturnSession(ctx context.Context, id string) (*loan.ReturnSession, error)
	DeleteReturnSession(ctx context.Context, id string) error
}

// ListViewRepository parte persistida del listado por operador.
type ListViewRepository interface {
	// Get devuelve (nil, nil) si el operador nunca guardó una vista.
	Get(ctx context.Context, operatorID string) (*LoanQuery, error)
	Save(ctx context.Context, operatorID string, q LoanQuery) error
}

// OverrideAuditRepository bitácora de préstamos a personas en lista negra.
type OverrideAuditRepository interface {
	Record(ctx context.Context, a *entity.OverrideAudit) error
	ListByRequestor(ctx context.Context, requestorID int64, limit int) ([]*entity.OverrideAudit, error)
}

// ActaGenerator genera el acta de préstamo en PDF.
type ActaGenerator interface {
	Generate(data dto.ActaData) ([]byte, error)
}

// HistoryExporter exporta el historial de préstamos de una persona.
type HistoryExporter interface {
	Export(data dto.HistoryExport) ([]byte, error)
}
