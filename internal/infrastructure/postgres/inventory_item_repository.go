package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/cafetero/cafeteria-api/internal/domain"
	"github.com/cafetero/cafeteria-api/internal/domain/entity"
	"github.com/cafetero/cafeteria-api/internal/domain/repository"
)

var _ repository.InventoryItemRepository = (*InventoryItemRepo)(nil)

const inventoryItemColumns = `
	id, name, supplier_name, external_id, item_type, unit_type, pack_size,
	current_stock, unit_cost, auto_decrement, created_at, updated_at, deleted_at`

// InventoryItemRepo implementación de InventoryItemRepository sobre PostgreSQL (usable con pool o tx).
type InventoryItemRepo struct {
	q Querier
}

// NewInventoryItemRepository construye el adaptador de artículos. Pasar pool o tx (Querier).
func NewInventoryItemRepository(q Querier) *InventoryItemRepo {
	return &InventoryItemRepo{q: q}
}

// GetByID obtiene un artículo por id (nil si no existe).
func (r *InventoryItemRepo) GetByID(id string) (*entity.InventoryItem, error) {
	query := `SELECT` + inventoryItemColumns + `
		FROM inventory_items WHERE id = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id), "get inventory item")
}

// GetByExternalID obtiene un artículo por su id de catálogo del POS (nil si no hay mapeo).
func (r *InventoryItemRepo) GetByExternalID(externalID string) (*entity.InventoryItem, error) {
	query := `SELECT` + inventoryItemColumns + `
		FROM inventory_items WHERE external_id = $1 AND deleted_at IS NULL`
	return r.scanOne(r.q.QueryRow(context.Background(), query, externalID), "get inventory item by external id")
}

// GetForUpdate obtiene el artículo y bloquea la fila (SELECT FOR UPDATE).
func (r *InventoryItemRepo) GetForUpdate(id string) (*entity.InventoryItem, error) {
	query := `SELECT` + inventoryItemColumns + `
		FROM inventory_items WHERE id = $1
		FOR UPDATE`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id), "get inventory item for update")
}

// ListActive devuelve los artículos no borrados lógicamente, por nombre.
func (r *InventoryItemRepo) ListActive() ([]*entity.InventoryItem, error) {
	query := `SELECT` + inventoryItemColumns + `
		FROM inventory_items WHERE deleted_at IS NULL
		ORDER BY name`
	rows, err := r.q.Query(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("list inventory items: %w", err)
	}
	defer rows.Close()

	var items []*entity.InventoryItem
	for rows.Next() {
		var it entity.InventoryItem
		var externalID *string
		if err := rows.Scan(
			&it.ID, &it.Name, &it.SupplierName, &externalID, &it.ItemType, &it.UnitType,
			&it.PackSize, &it.CurrentStock, &it.UnitCost, &it.AutoDecrement,
			&it.CreatedAt, &it.UpdatedAt, &it.DeletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		if externalID != nil {
			it.ExternalID = *externalID
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

// UpdateStock fija el stock actual. Solo el ledger debe invocarlo, dentro de
// la transacción que inserta el movimiento.
func (r *InventoryItemRepo) UpdateStock(id string, newStock int64) error {
	query := `UPDATE inventory_items SET current_stock = $2, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, id, newStock)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateUnitCost fija el costo promedio ponderado del artículo.
func (r *InventoryItemRepo) UpdateUnitCost(id string, cost decimal.Decimal) error {
	query := `UPDATE inventory_items SET unit_cost = $2, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, id, cost)
	if err != nil {
		return fmt.Errorf("update unit cost: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateExternalID fija el mapeo al catálogo del POS. El índice único sobre
// external_id convierte un id ya tomado en domain.ErrDuplicate.
func (r *InventoryItemRepo) UpdateExternalID(id, externalID string) error {
	query := `UPDATE inventory_items SET external_id = $2, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, id, nullIfEmpty(externalID))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: external_id ya mapeado", domain.ErrDuplicate)
		}
		return fmt.Errorf("update external id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *InventoryItemRepo) scanOne(row pgx.Row, op string) (*entity.InventoryItem, error) {
	var it entity.InventoryItem
	var externalID *string
	err := row.Scan(
		&it.ID, &it.Name, &it.SupplierName, &externalID, &it.ItemType, &it.UnitType,
		&it.PackSize, &it.CurrentStock, &it.UnitCost, &it.AutoDecrement,
		&it.CreatedAt, &it.UpdatedAt, &it.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if externalID != nil {
		it.ExternalID = *externalID
	}
	return &it, nil
}
