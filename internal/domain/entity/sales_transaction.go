package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Clasificación del efecto de una línea vendida sobre el inventario.
const (
	ImpactTypeAuto    = "auto"    // descuento automático aplicado por el sync
	ImpactTypeManual  = "manual"  // requiere deducción manual vía receta
	ImpactTypeIgnored = "ignored" // sin artículo resuelto o no contabilizable
)

// SalesTransaction es el espejo local de una orden completada en el POS.
// ExternalOrderID es la clave de idempotencia: una orden externa se ingiere
// a lo sumo una vez.
type SalesTransaction struct {
	ID              string
	ExternalOrderID string
	SyncRunID       string
	OrderedAt       time.Time
	Total           decimal.Decimal
	Currency        string
	CreatedAt       time.Time
	Items           []SalesTransactionItem
}

// SalesTransactionItem es una línea de la orden con su clasificación de
// impacto y, si resolvió, el artículo de inventario afectado.
type SalesTransactionItem struct {
	ID              string
	TransactionID   string
	ExternalLineID  string
	CatalogObjectID string // id de variación en el POS
	Name            string
	Quantity        int64
	UnitPrice       decimal.Decimal
	ImpactType      string
	InventoryItemID string // vacío si no resolvió
	// ConsumptionApplied marca que la deducción manual vía receta ya se aplicó
	// (líneas manual); evita descontar dos veces la misma línea.
	ConsumptionApplied bool
}
