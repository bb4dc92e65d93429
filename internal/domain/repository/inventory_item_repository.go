package repository

import (
	"github.com/shopspring/decimal"

	"github.com/cafetero/cafeteria-api/internal/domain/entity"
)

// InventoryItemRepository define el puerto de artículos de inventario.
// UpdateStock solo debe invocarse desde el ledger, dentro de una transacción
// que también inserte el StockMovement correspondiente.
type InventoryItemRepository interface {
	GetByID(id string) (*entity.InventoryItem, error)
	GetByExternalID(externalID string) (*entity.InventoryItem, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) para aplicar movimientos.
	GetForUpdate(id string) (*entity.InventoryItem, error)
	// ListActive devuelve los artículos no borrados lógicamente.
	ListActive() ([]*entity.InventoryItem, error)
	UpdateStock(id string, newStock int64) error
	UpdateUnitCost(id string, cost decimal.Decimal) error
	// UpdateExternalID fija el mapeo al catálogo del POS (herramienta de remapeo).
	UpdateExternalID(id, externalID string) error
}
