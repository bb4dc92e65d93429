package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de artículo de inventario. Determinan cómo una venta afecta el stock:
// prepackaged/supply descuentan automáticamente; prepared e ingredient sin
// auto_decrement requieren deducción manual vía receta.
const (
	ItemTypeIngredient  = "ingredient"  // materia prima (café en grano, leche)
	ItemTypePrepackaged = "prepackaged" // vendible tal cual (botella, snack)
	ItemTypePrepared    = "prepared"    // elaborado en barra (requiere receta)
	ItemTypeSupply      = "supply"      // insumo no vendible per se (vasos, servilletas)
)

// InventoryItem es la ficha de inventario interna. CurrentStock se mantiene en
// unidades enteras y solo cambia a través del ledger de movimientos: nunca se
// actualiza sin su StockMovement correspondiente.
type InventoryItem struct {
	ID            string
	Name          string
	SupplierName  string
	ExternalID    string // id del objeto de catálogo en el POS (vacío = sin mapear)
	ItemType      string
	UnitType      string // "unidad", "g", "ml", ...
	PackSize      int    // >= 1; unidades por empaque del proveedor
	CurrentStock  int64  // nunca negativo
	UnitCost      decimal.Decimal
	AutoDecrement bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time // soft delete; nunca se borra físicamente
}

// Active indica si el artículo sigue vigente (no borrado lógicamente).
func (i *InventoryItem) Active() bool { return i.DeletedAt == nil }

// AutoImpact indica si una venta de este artículo descuenta stock sin
// intervención humana.
func (i *InventoryItem) AutoImpact() bool {
	return i.AutoDecrement || i.ItemType == ItemTypePrepackaged || i.ItemType == ItemTypeSupply
}
