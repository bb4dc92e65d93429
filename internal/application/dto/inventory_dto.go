package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest es el cuerpo de POST /api/inventory/movements
// (ajuste manual). quantity_change lleva signo.
type RegisterMovementRequest struct {
	ItemID         string           `json:"item_id"`
	Type           string           `json:"type"` // sale, purchase, adjustment
	QuantityChange int64            `json:"quantity_change"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"` // solo compras: recalcula el promedio ponderado
	Reference      string           `json:"reference"`
	Note           string           `json:"note"`
}

// InventoryItemDTO es un artículo de inventario en respuestas HTTP.
type InventoryItemDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	SupplierName  string `json:"supplier_name,omitempty"`
	ExternalID    string `json:"external_id,omitempty"`
	ItemType      string `json:"item_type"`
	UnitType      string `json:"unit_type"`
	PackSize      int    `json:"pack_size"`
	CurrentStock  int64           `json:"current_stock"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	AutoDecrement bool            `json:"auto_decrement"`
}

// StockMovementDTO es una fila del ledger en respuestas HTTP.
type StockMovementDTO struct {
	ID             string    `json:"id"`
	ItemID         string    `json:"item_id"`
	Type           string    `json:"type"`
	QuantityChange int64     `json:"quantity_change"`
	PreviousStock  int64     `json:"previous_stock"`
	NewStock       int64     `json:"new_stock"`
	Reference      string    `json:"reference"`
	Note           string    `json:"note"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
}
