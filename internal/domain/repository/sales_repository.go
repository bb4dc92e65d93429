package repository

import "github.com/cafetero/cafeteria-api/internal/domain/entity"

// SalesRepository define el puerto de transacciones de venta espejadas.
// Las transacciones son append-only; solo ConsumptionApplied de una línea
// manual cambia después de la inserción.
type SalesRepository interface {
	// ExistsByExternalOrderID es el check de idempotencia del sync.
	ExistsByExternalOrderID(externalOrderID string) (bool, error)
	// CreateTransaction inserta la transacción con todas sus líneas.
	CreateTransaction(tx *entity.SalesTransaction) error
	GetTransactionByID(id string) (*entity.SalesTransaction, error)
	GetItemByID(itemID string) (*entity.SalesTransactionItem, error)
	MarkConsumptionApplied(itemID string) error
	// ListUnresolvedLines devuelve una línea representativa por id de catálogo
	// externo sin artículo de inventario resuelto (entrada de la herramienta
	// de remapeo).
	ListUnresolvedLines() ([]*entity.SalesTransactionItem, error)
}
