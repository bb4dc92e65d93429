package repository

import "github.com/cafetero/cafeteria-api/internal/domain/entity"

// StockMovementRepository define el puerto del ledger append-only.
// No hay Update ni Delete: los movimientos son inmutables.
type StockMovementRepository interface {
	Create(mov *entity.StockMovement) error
	// ListByItem devuelve los movimientos más recientes del artículo.
	ListByItem(itemID string, limit int) ([]*entity.StockMovement, error)
}
