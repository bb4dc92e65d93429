package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de factura de proveedor.
const (
	InvoiceStatusPending   = "pending"
	InvoiceStatusConfirmed = "confirmed"
)

// SupplierInvoice es una factura de proveedor ya extraída (el OCR es un
// proveedor externo: aquí llega texto estructurado). Las facturas confirmed
// alimentan el valor de compras del cierre de periodo, por su fecha efectiva
// (ConfirmedAt, o InvoiceDate si no hay confirmación registrada).
type SupplierInvoice struct {
	ID           string
	SupplierName string
	InvoiceDate  time.Time
	TotalAmount  decimal.Decimal
	Currency     string
	Status       string
	ConfirmedAt  *time.Time
	CreatedAt    time.Time
	Items        []InvoiceItem
}

// EffectiveDate es la fecha con la que la factura cuenta para costeo.
func (i *SupplierInvoice) EffectiveDate() time.Time {
	if i.ConfirmedAt != nil {
		return *i.ConfirmedAt
	}
	return i.InvoiceDate
}

// InvoiceItem es una línea de la factura. MatchedItemID, MatchConfidence y
// MatchMethod son salida del motor de matching; quedan vacíos si nadie
// confirmó una sugerencia.
type InvoiceItem struct {
	ID              string
	InvoiceID       string
	Description     string
	SupplierCode    string // código del artículo según el proveedor
	Quantity        decimal.Decimal
	Unit            string
	UnitPrice       decimal.Decimal
	LineTotal       decimal.Decimal
	MatchedItemID   string
	MatchConfidence float64
	MatchMethod     string
}
