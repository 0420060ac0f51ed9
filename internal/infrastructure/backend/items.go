package backend

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/jhoicas/prestamos-api/internal/application/ports"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
)

// InventoryCatalog implementa ports.InventoryCatalog sobre /items.
type InventoryCatalog struct {
	c *Client
}

func NewInventoryCatalog(c *Client) *InventoryCatalog {
	return &InventoryCatalog{c: c}
}

var _ ports.InventoryCatalog = (*InventoryCatalog)(nil)

func (i *InventoryCatalog) GetByCode(ctx context.Context, code string) (*entity.Item, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	return i.get(ctx, "/items/code/"+pathEscape(code))
}

func (i *InventoryCatalog) GetByID(ctx context.Context, id int64) (*entity.Item, error) {
	return i.get(ctx, "/items/"+strconv.FormatInt(id, 10))
}

func (i *InventoryCatalog) get(ctx context.Context, path string) (*entity.Item, error) {
	var w *wireItem
	if err := i.c.call(ctx, http.MethodGet, path, nil, nil, &w); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if w == nil {
		return nil, nil
	}
	return w.toEntity(), nil
}

func (i *InventoryCatalog) UpdateCondition(ctx context.Context, id, conditionID int64) error {
	body := struct {
		ConditionID int64 `json:"conditionId"`
	}{conditionID}
	return i.c.call(ctx, http.MethodPatch, "/items/"+strconv.FormatInt(id, 10)+"/condition", nil, body, nil)
}

// ConditionCatalog implementa ports.ConditionCatalog.
type ConditionCatalog struct {
	c *Client
}

func NewConditionCatalog(c *Client) *ConditionCatalog {
	return &ConditionCatalog{c: c}
}

var _ ports.ConditionCatalog = (*ConditionCatalog)(nil)

func (cc *ConditionCatalog) List(ctx context.Context) ([]entity.Condition, error) {
	var ws []wireCondition
	if err := cc.c.call(ctx, http.MethodGet, "/conditions", nil, nil, &ws); err != nil {
		return nil, err
	}
	out := make([]entity.Condition, 0, len(ws))
	for _, w := range ws {
		out = append(out, entity.Condition(w))
	}
	return out, nil
}
