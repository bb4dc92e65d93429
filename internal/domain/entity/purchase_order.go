package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de orden de compra. Solo sent y confirmed son candidatas al
// matching factura ↔ orden.
const (
	PurchaseOrderStatusDraft     = "draft"
	PurchaseOrderStatusSent      = "sent"
	PurchaseOrderStatusConfirmed = "confirmed"
	PurchaseOrderStatusReceived  = "received"
)

// PurchaseOrder es una orden de compra a proveedor.
type PurchaseOrder struct {
	ID           string
	SupplierName string
	OrderDate    time.Time
	TotalAmount  decimal.Decimal
	Status       string
	CreatedAt    time.Time
	Lines        []PurchaseOrderLine
}

// PurchaseOrderLine es una línea de la orden.
type PurchaseOrderLine struct {
	ID          string
	OrderID     string
	Description string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
}

// Estados de un match factura ↔ orden.
const (
	MatchStatusSuggested = "suggested"
	MatchStatusConfirmed = "confirmed"
)

// OrderInvoiceMatch es la salida persistida del matching de órdenes: a lo
// sumo un registro por par (factura, orden); el check de existencia evita
// auto-confirmaciones duplicadas.
type OrderInvoiceMatch struct {
	ID               string
	InvoiceID        string
	PurchaseOrderID  string
	Confidence       float64
	QuantityVariance decimal.Decimal
	AmountVariance   decimal.Decimal
	Status           string
	CreatedAt        time.Time
}
