package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cafetero/cafeteria-api/internal/domain/entity"
)

// SupplierInvoiceRepository define el puerto de facturas de proveedor.
type SupplierInvoiceRepository interface {
	GetByID(id string) (*entity.SupplierInvoice, error)
	Create(inv *entity.SupplierInvoice) error
	// UpdateItemMatch persiste la salida del motor de matching en la línea.
	UpdateItemMatch(itemID, matchedItemID string, confidence float64, method string) error
	// MarkConfirmed registra la confirmación; la fecha efectiva alimenta el
	// costeo del periodo.
	MarkConfirmed(id string, at time.Time) error
	// SumConfirmedInRange suma total_amount de facturas confirmed cuya fecha
	// efectiva (confirmed_at, o invoice_date si es null) cae en [from, to].
	SumConfirmedInRange(from, to time.Time) (decimal.Decimal, error)
}
