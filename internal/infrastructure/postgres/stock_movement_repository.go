package postgres

import (
	"context"
	"fmt"

	"github.com/cafetero/cafeteria-api/internal/domain/entity"
	"github.com/cafetero/cafeteria-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación del ledger append-only sobre PostgreSQL.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador del ledger. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create inserta un movimiento. No hay Update ni Delete: el ledger es inmutable.
func (r *StockMovementRepo) Create(mov *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements
			(id, item_id, movement_type, quantity_change, previous_stock, new_stock,
			 reference, note, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())`
	_, err := r.q.Exec(context.Background(), query,
		mov.ID, mov.ItemID, mov.Type, mov.QuantityChange, mov.PreviousStock, mov.NewStock,
		nullIfEmpty(mov.Reference), nullIfEmpty(mov.Note), nullIfEmpty(mov.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// ListByItem devuelve los movimientos más recientes del artículo.
func (r *StockMovementRepo) ListByItem(itemID string, limit int) ([]*entity.StockMovement, error) {
	query := `
		SELECT id, item_id, movement_type, quantity_change, previous_stock, new_stock,
		       COALESCE(reference, ''), COALESCE(note, ''), COALESCE(created_by, ''), created_at
		FROM stock_movements
		WHERE item_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := r.q.Query(context.Background(), query, itemID, limit)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()

	var movs []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		if err := rows.Scan(
			&m.ID, &m.ItemID, &m.Type, &m.QuantityChange, &m.PreviousStock, &m.NewStock,
			&m.Reference, &m.Note, &m.CreatedBy, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		movs = append(movs, &m)
	}
	return movs, rows.Err()
}
