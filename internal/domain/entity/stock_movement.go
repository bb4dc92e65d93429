package entity

import "time"

// Tipos de movimiento del ledger de inventario.
const (
	MovementTypeSale       = "sale"
	MovementTypePurchase   = "purchase"
	MovementTypeAdjustment = "adjustment"
)

// StockMovement es una fila inmutable del ledger (append-only). Toda mutación
// de InventoryItem.CurrentStock tiene exactamente una fila aquí, con el
// invariante NewStock = max(0, PreviousStock + QuantityChange).
type StockMovement struct {
	ID             string
	ItemID         string
	Type           string
	QuantityChange int64 // con signo: negativo para ventas, positivo para compras
	PreviousStock  int64
	NewStock       int64
	Reference      string // id de orden externa, factura o nota de ajuste
	Note           string
	CreatedBy      string
	CreatedAt      time.Time
}
