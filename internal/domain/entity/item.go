package entity

import "github.com/shopspring/decimal"

// Item representa un bien del inventario institucional (solo lectura para el flujo de préstamos,
// salvo la condición, que se actualiza al prestar).
type Item struct {
	ID               int64
	Code             string // código de barras
	Name             string
	Stock            int
	ConditionID      int64
	AvailableForLoan bool
	Value            decimal.Decimal // valor patrimonial, usado en el acta
}

// Condition estado físico de un bien (Bueno, Regular, Dañado…).
type Condition struct {
	ID   int64
	Name string
}
