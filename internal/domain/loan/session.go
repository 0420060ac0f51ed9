package loan

import "time"

// ReturnSession flujo de devolución abierto por un operador, junto con el estado del
// control de moroso del solicitante.
type ReturnSession struct {
	ID         string           `json:"id"`
	OperatorID string           `json:"operator_id"`
	Flow       *ReturnFlow      `json:"flow"`
	Defaulter  DefaulterControl `json:"defaulter"`
	CreatedAt  time.Time        `json:"created_at"`
}
