package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cafetero/cafeteria-api/internal/domain"
	"github.com/cafetero/cafeteria-api/internal/domain/entity"
	"github.com/cafetero/cafeteria-api/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo implementación de PurchaseOrderRepository sobre PostgreSQL.
type PurchaseOrderRepo struct {
	q Querier
}

// NewPurchaseOrderRepository construye el adaptador de órdenes de compra.
func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

// GetByID obtiene la orden con sus líneas (nil si no existe).
func (r *PurchaseOrderRepo) GetByID(id string) (*entity.PurchaseOrder, error) {
	query := `
		SELECT id, supplier_name, order_date, total_amount, status, created_at
		FROM purchase_orders WHERE id = $1`
	var po entity.PurchaseOrder
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&po.ID, &po.SupplierName, &po.OrderDate, &po.TotalAmount, &po.Status, &po.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	lines, err := r.loadLines(po.ID)
	if err != nil {
		return nil, err
	}
	po.Lines = lines
	return &po, nil
}

// Create inserta la orden con sus líneas.
func (r *PurchaseOrderRepo) Create(po *entity.PurchaseOrder) error {
	query := `
		INSERT INTO purchase_orders (id, supplier_name, order_date, total_amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`
	_, err := r.q.Exec(context.Background(), query,
		po.ID, po.SupplierName, po.OrderDate, po.TotalAmount, po.Status,
	)
	if err != nil {
		return fmt.Errorf("create purchase order: %w", err)
	}

	lineQuery := `
		INSERT INTO purchase_order_lines (id, order_id, description, quantity, unit_cost)
		VALUES ($1, $2, $3, $4, $5)`
	for _, l := range po.Lines {
		_, err := r.q.Exec(context.Background(), lineQuery, l.ID, po.ID, l.Description, l.Quantity, l.UnitCost)
		if err != nil {
			return fmt.Errorf("create purchase order line: %w", err)
		}
	}
	return nil
}

// ListCandidates devuelve órdenes del proveedor (case-insensitive) en estado
// sent/confirmed con order_date dentro de [from, to], con líneas.
func (r *PurchaseOrderRepo) ListCandidates(supplierName string, from, to time.Time) ([]*entity.PurchaseOrder, error) {
	query := `
		SELECT id, supplier_name, order_date, total_amount, status, created_at
		FROM purchase_orders
		WHERE lower(supplier_name) = lower($1)
		  AND status IN ($2, $3)
		  AND order_date >= $4 AND order_date <= $5
		ORDER BY order_date DESC`
	rows, err := r.q.Query(context.Background(), query,
		supplierName, entity.PurchaseOrderStatusSent, entity.PurchaseOrderStatusConfirmed, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list candidate orders: %w", err)
	}
	defer rows.Close()

	var orders []*entity.PurchaseOrder
	for rows.Next() {
		var po entity.PurchaseOrder
		if err := rows.Scan(&po.ID, &po.SupplierName, &po.OrderDate, &po.TotalAmount, &po.Status, &po.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan purchase order: %w", err)
		}
		orders = append(orders, &po)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, po := range orders {
		lines, err := r.loadLines(po.ID)
		if err != nil {
			return nil, err
		}
		po.Lines = lines
	}
	return orders, nil
}

// MatchExists evita auto-confirmaciones duplicadas del mismo par.
func (r *PurchaseOrderRepo) MatchExists(invoiceID, orderID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM order_invoice_matches WHERE invoice_id = $1 AND purchase_order_id = $2)`
	var exists bool
	if err := r.q.QueryRow(context.Background(), query, invoiceID, orderID).Scan(&exists); err != nil {
		return false, fmt.Errorf("match exists: %w", err)
	}
	return exists, nil
}

// CreateMatch inserta el match factura ↔ orden.
func (r *PurchaseOrderRepo) CreateMatch(m *entity.OrderInvoiceMatch) error {
	query := `
		INSERT INTO order_invoice_matches
			(id, invoice_id, purchase_order_id, confidence, quantity_variance, amount_variance, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())`
	_, err := r.q.Exec(context.Background(), query,
		m.ID, m.InvoiceID, m.PurchaseOrderID, m.Confidence, m.QuantityVariance, m.AmountVariance, m.Status,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: match ya registrado para el par", domain.ErrDuplicate)
		}
		return fmt.Errorf("create order invoice match: %w", err)
	}
	return nil
}

// ListMatchesByInvoice devuelve los matches registrados de una factura.
func (r *PurchaseOrderRepo) ListMatchesByInvoice(invoiceID string) ([]*entity.OrderInvoiceMatch, error) {
	query := `
		SELECT id, invoice_id, purchase_order_id, confidence, quantity_variance, amount_variance, status, created_at
		FROM order_invoice_matches
		WHERE invoice_id = $1
		ORDER BY created_at DESC`
	rows, err := r.q.Query(context.Background(), query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list order invoice matches: %w", err)
	}
	defer rows.Close()

	var matches []*entity.OrderInvoiceMatch
	for rows.Next() {
		var m entity.OrderInvoiceMatch
		if err := rows.Scan(
			&m.ID, &m.InvoiceID, &m.PurchaseOrderID, &m.Confidence,
			&m.QuantityVariance, &m.AmountVariance, &m.Status, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order invoice match: %w", err)
		}
		matches = append(matches, &m)
	}
	return matches, rows.Err()
}

func (r *PurchaseOrderRepo) loadLines(orderID string) ([]entity.PurchaseOrderLine, error) {
	query := `
		SELECT id, order_id, description, quantity, unit_cost
		FROM purchase_order_lines
		WHERE order_id = $1
		ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list purchase order lines: %w", err)
	}
	defer rows.Close()

	var lines []entity.PurchaseOrderLine
	for rows.Next() {
		var l entity.PurchaseOrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.Description, &l.Quantity, &l.UnitCost); err != nil {
			return nil, fmt.Errorf("scan purchase order line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
