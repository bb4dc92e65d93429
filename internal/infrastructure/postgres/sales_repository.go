package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cafetero/cafeteria-api/internal/domain"
	"github.com/cafetero/cafeteria-api/internal/domain/entity"
	"github.com/cafetero/cafeteria-api/internal/domain/repository"
)

var _ repository.SalesRepository = (*SalesRepo)(nil)

// SalesRepo implementación de SalesRepository sobre PostgreSQL.
type SalesRepo struct {
	q Querier
}

// NewSalesRepository construye el adaptador de transacciones de venta.
func NewSalesRepository(q Querier) *SalesRepo {
	return &SalesRepo{q: q}
}

// ExistsByExternalOrderID es el check de idempotencia del sync.
func (r *SalesRepo) ExistsByExternalOrderID(externalOrderID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM sales_transactions WHERE external_order_id = $1)`
	var exists bool
	if err := r.q.QueryRow(context.Background(), query, externalOrderID).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists sales transaction: %w", err)
	}
	return exists, nil
}

// CreateTransaction inserta la transacción con todas sus líneas. La
// constraint única sobre external_order_id convierte una orden repetida en
// domain.ErrDuplicate.
func (r *SalesRepo) CreateTransaction(tx *entity.SalesTransaction) error {
	query := `
		INSERT INTO sales_transactions
			(id, external_order_id, sync_run_id, ordered_at, total, currency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`
	_, err := r.q.Exec(context.Background(), query,
		tx.ID, tx.ExternalOrderID, nullIfEmpty(tx.SyncRunID), tx.OrderedAt, tx.Total, tx.Currency,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: orden externa ya ingerida", domain.ErrDuplicate)
		}
		return fmt.Errorf("create sales transaction: %w", err)
	}

	itemQuery := `
		INSERT INTO sales_transaction_items
			(id, transaction_id, external_line_id, catalog_object_id, name, quantity,
			 unit_price, impact_type, inventory_item_id, consumption_applied)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for _, it := range tx.Items {
		_, err := r.q.Exec(context.Background(), itemQuery,
			it.ID, tx.ID, nullIfEmpty(it.ExternalLineID), nullIfEmpty(it.CatalogObjectID),
			it.Name, it.Quantity, it.UnitPrice, it.ImpactType,
			nullIfEmpty(it.InventoryItemID), it.ConsumptionApplied,
		)
		if err != nil {
			return fmt.Errorf("create sales transaction item: %w", err)
		}
	}
	return nil
}

// GetTransactionByID obtiene la transacción con sus líneas (nil si no existe).
func (r *SalesRepo) GetTransactionByID(id string) (*entity.SalesTransaction, error) {
	query := `
		SELECT id, external_order_id, COALESCE(sync_run_id, ''), ordered_at, total, currency, created_at
		FROM sales_transactions WHERE id = $1`
	var tx entity.SalesTransaction
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&tx.ID, &tx.ExternalOrderID, &tx.SyncRunID, &tx.OrderedAt, &tx.Total, &tx.Currency, &tx.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sales transaction: %w", err)
	}

	itemQuery := `
		SELECT id, transaction_id, COALESCE(external_line_id, ''), COALESCE(catalog_object_id, ''),
		       name, quantity, unit_price, impact_type, COALESCE(inventory_item_id, ''), consumption_applied
		FROM sales_transaction_items WHERE transaction_id = $1
		ORDER BY id`
	rows, err := r.q.Query(context.Background(), itemQuery, id)
	if err != nil {
		return nil, fmt.Errorf("list sales transaction items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.SalesTransactionItem
		if err := rows.Scan(
			&it.ID, &it.TransactionID, &it.ExternalLineID, &it.CatalogObjectID,
			&it.Name, &it.Quantity, &it.UnitPrice, &it.ImpactType,
			&it.InventoryItemID, &it.ConsumptionApplied,
		); err != nil {
			return nil, fmt.Errorf("scan sales transaction item: %w", err)
		}
		tx.Items = append(tx.Items, it)
	}
	return &tx, rows.Err()
}

// GetItemByID obtiene una línea de venta por id (nil si no existe).
func (r *SalesRepo) GetItemByID(itemID string) (*entity.SalesTransactionItem, error) {
	query := `
		SELECT id, transaction_id, COALESCE(external_line_id, ''), COALESCE(catalog_object_id, ''),
		       name, quantity, unit_price, impact_type, COALESCE(inventory_item_id, ''), consumption_applied
		FROM sales_transaction_items WHERE id = $1`
	var it entity.SalesTransactionItem
	err := r.q.QueryRow(context.Background(), query, itemID).Scan(
		&it.ID, &it.TransactionID, &it.ExternalLineID, &it.CatalogObjectID,
		&it.Name, &it.Quantity, &it.UnitPrice, &it.ImpactType,
		&it.InventoryItemID, &it.ConsumptionApplied,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sales transaction item: %w", err)
	}
	return &it, nil
}

// MarkConsumptionApplied marca la línea manual como ya deducida.
func (r *SalesRepo) MarkConsumptionApplied(itemID string) error {
	query := `UPDATE sales_transaction_items SET consumption_applied = true WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, itemID)
	if err != nil {
		return fmt.Errorf("mark consumption applied: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListUnresolvedLines devuelve una línea representativa por catalog_object_id
// sin artículo de inventario resuelto.
func (r *SalesRepo) ListUnresolvedLines() ([]*entity.SalesTransactionItem, error) {
	query := `
		SELECT DISTINCT ON (catalog_object_id)
		       id, transaction_id, COALESCE(external_line_id, ''), catalog_object_id,
		       name, quantity, unit_price, impact_type, COALESCE(inventory_item_id, ''), consumption_applied
		FROM sales_transaction_items
		WHERE catalog_object_id IS NOT NULL
		  AND (inventory_item_id IS NULL OR inventory_item_id = '')
		ORDER BY catalog_object_id, id`
	rows, err := r.q.Query(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("list unresolved lines: %w", err)
	}
	defer rows.Close()

	var items []*entity.SalesTransactionItem
	for rows.Next() {
		var it entity.SalesTransactionItem
		if err := rows.Scan(
			&it.ID, &it.TransactionID, &it.ExternalLineID, &it.CatalogObjectID,
			&it.Name, &it.Quantity, &it.UnitPrice, &it.ImpactType,
			&it.InventoryItemID, &it.ConsumptionApplied,
		); err != nil {
			return nil, fmt.Errorf("scan unresolved line: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}
