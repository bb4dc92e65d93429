package repository

import (
	"time"

	"github.com/cafetero/cafeteria-api/internal/domain/entity"
)

// PurchaseOrderRepository define el puerto de órdenes de compra y de los
// matches factura ↔ orden.
type PurchaseOrderRepository interface {
	GetByID(id string) (*entity.PurchaseOrder, error)
	Create(po *entity.PurchaseOrder) error
	// ListCandidates devuelve órdenes del proveedor (case-insensitive) en
	// estado sent/confirmed con order_date dentro de [from, to], con líneas.
	ListCandidates(supplierName string, from, to time.Time) ([]*entity.PurchaseOrder, error)
	// MatchExists evita auto-confirmaciones duplicadas del mismo par.
	MatchExists(invoiceID, orderID string) (bool, error)
	CreateMatch(m *entity.OrderInvoiceMatch) error
	ListMatchesByInvoice(invoiceID string) ([]*entity.OrderInvoiceMatch, error)
}
