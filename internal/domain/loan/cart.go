package loan

import (
	"fmt"

	"github.com/jhoicas/prestamos-api/internal/domain"
	"github.com/jhoicas/prestamos-api/internal/domain/entity"
)

const (
	// MaxTextLength límite de razón, notas y observaciones.
	MaxTextLength = 250
	// MaxQuantity techo absoluto de cantidad, independiente del stock.
	MaxQuantity = 9_999_999
)

// ScannedItem un ítem del carrito de préstamo.
type ScannedItem struct {
	ItemID           int64  `json:"item_id"`
	Code             string `json:"code"`
	Name             string `json:"name"`
	ExitConditionID  int64  `json:"exit_condition_id"`
	ExitObservations string `json:"exit_observations"`
	Quantity         int    `json:"quantity"`
	Stock            int    `json:"stock"`
}

// Cart conjunto de ítems en construcción, ordenado por llegada.
type Cart struct {
	Items []ScannedItem `json:"items"`
}

func (c *Cart) index(code string) int {
	for i := range c.Items {
		if c.Items[i].Code == code {
			return i
		}
	}
	return -1
}

// Find devuelve el ítem con ese código, o nil.
func (c *Cart) Find(code string) *ScannedItem {
	if i := c.index(code); i >= 0 {
		return &c.Items[i]
	}
	return nil
}

// Add agrega un ítem con cantidad 1 y condición de salida igual a su condición actual.
// Si la condición del ítem no existe en el catálogo se usa la primera disponible y se
// devuelve un aviso no bloqueante.
func (c *Cart) Add(item entity.Item, conditions []entity.Condition) (warning string, err error) {
	if c.index(item.Code) >= 0 {
		return "", fmt.Errorf("%w: %s", domain.ErrDuplicateItem, item.Code)
	}
	if !item.AvailableForLoan {
		return "", fmt.Errorf("%w: %s", domain.ErrItemUnavailable, item.Code)
	}
	if item.Stock < 1 {
		return "", fmt.Errorf("%w: %s sin stock", domain.ErrItemUnavailable, item.Code)
	}

	condID := item.ConditionID
	if !hasCondition(conditions, condID) {
		if len(conditions) > 0 {
			warning = fmt.Sprintf("no se encontró la condición %d del ítem %s; se usará %q",
				item.ConditionID, item.Code, conditions[0].Name)
			condID = conditions[0].ID
		} else {
			warning = fmt.Sprintf("no hay condiciones registradas; seleccione la condición de salida de %s", item.Code)
			condID = 0
		}
	}

	c.Items = append(c.Items, ScannedItem{
		ItemID:          item.ID,
		Code:            item.Code,
		Name:            item.Name,
		ExitConditionID: condID,
		Quantity:        1,
		Stock:           item.Stock,
	})
	return warning, nil
}

func hasCondition(conditions []entity.Condition, id int64) bool {
	if id == 0 {
		return false
	}
	for _, c := range conditions {
		if c.ID == id {
			return true
		}
	}
	return false
}

// SetQuantity ajusta la cantidad al rango [1, stock]. Valores sobre MaxQuantity se rechazan
// sin modificar el ítem. Devuelve la cantidad efectiva.
func (c *Cart) SetQuantity(code string, qty int) (int, error) {
	it := c.Find(code)
	if it == nil {
		return 0, fmt.Errorf("%w: %s", domain.ErrItemNotInDraft, code)
	}
	if qty > MaxQuantity {
		return it.Quantity, fmt.Errorf("%w: %d", domain.ErrQuantityTooLarge, MaxQuantity)
	}
	if qty > it.Stock {
		qty = it.Stock
	}
	if qty < 1 {
		qty = 1
	}
	it.Quantity = qty
	return qty, nil
}

// SetExitCondition fija la condición de salida.
func (c *Cart) SetExitCondition(code string, conditionID int64) error {
	it := c.Find(code)
	if it == nil {
		return fmt.Errorf("%w: %s", domain.ErrItemNotInDraft, code)
	}
	if conditionID <= 0 {
		return domain.ErrInvalidInput
	}
	it.ExitConditionID = conditionID
	return nil
}

// SetObservations fija las observaciones de salida, recortadas a MaxTextLength caracteres.
func (c *Cart) SetObservations(code, text string) error {
	it := c.Find(code)
	if it == nil {
		return fmt.Errorf("%w: %s", domain.ErrItemNotInDraft, code)
	}
	it.ExitObservations = truncate(text, MaxTextLength)
	return nil
}

// Remove quita un ítem del carrito.
func (c *Cart) Remove(code string) error {
	i := c.index(code)
	if i < 0 {
		return fmt.Errorf("%w: %s", domain.ErrItemNotInDraft, code)
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
