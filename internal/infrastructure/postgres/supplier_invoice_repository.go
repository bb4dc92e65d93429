package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/cafetero/cafeteria-api/internal/domain"
	"github.com/cafetero/cafeteria-api/internal/domain/entity"
	"github.com/cafetero/cafeteria-api/internal/domain/repository"
)

var _ repository.SupplierInvoiceRepository = (*SupplierInvoiceRepo)(nil)

// SupplierInvoiceRepo implementación de SupplierInvoiceRepository sobre PostgreSQL.
type SupplierInvoiceRepo struct {
	q Querier
}

// NewSupplierInvoiceRepository construye el adaptador de facturas de proveedor.
func NewSupplierInvoiceRepository(q Querier) *SupplierInvoiceRepo {
	return &SupplierInvoiceRepo{q: q}
}

// GetByID obtiene la factura con sus líneas (nil si no existe).
func (r *SupplierInvoiceRepo) GetByID(id string) (*entity.SupplierInvoice, error) {
	query := `
		SELECT id, supplier_name, invoice_date, total_amount, currency, status, confirmed_at, created_at
		FROM supplier_invoices WHERE id = $1`
	var inv entity.SupplierInvoice
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&inv.ID, &inv.SupplierName, &inv.InvoiceDate, &inv.TotalAmount,
		&inv.Currency, &inv.Status, &inv.ConfirmedAt, &inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get supplier invoice: %w", err)
	}

	itemQuery := `
		SELECT id, invoice_id, description, COALESCE(supplier_code, ''), quantity, COALESCE(unit, ''),
		       unit_price, line_total, COALESCE(matched_item_id, ''), COALESCE(match_confidence, 0),
		       COALESCE(match_method, '')
		FROM supplier_invoice_items
		WHERE invoice_id = $1
		ORDER BY id`
	rows, err := r.q.Query(context.Background(), itemQuery, id)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.InvoiceItem
		if err := rows.Scan(
			&it.ID, &it.InvoiceID, &it.Description, &it.SupplierCode, &it.Quantity, &it.Unit,
			&it.UnitPrice, &it.LineTotal, &it.MatchedItemID, &it.MatchConfidence, &it.MatchMethod,
		); err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		inv.Items = append(inv.Items, it)
	}
	return &inv, rows.Err()
}

// Create inserta la factura con sus líneas.
func (r *SupplierInvoiceRepo) Create(inv *entity.SupplierInvoice) error {
	query := `
		INSERT INTO supplier_invoices
			(id, supplier_name, invoice_date, total_amount, currency, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`
	_, err := r.q.Exec(context.Background(), query,
		inv.ID, inv.SupplierName, inv.InvoiceDate, inv.TotalAmount, inv.Currency, inv.Status,
	)
	if err != nil {
		return fmt.Errorf("create supplier invoice: %w", err)
	}

	itemQuery := `
		INSERT INTO supplier_invoice_items
			(id, invoice_id, description, supplier_code, quantity, unit, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, it := range inv.Items {
		_, err := r.q.Exec(context.Background(), itemQuery,
			it.ID, inv.ID, it.Description, nullIfEmpty(it.SupplierCode),
			it.Quantity, nullIfEmpty(it.Unit), it.UnitPrice, it.LineTotal,
		)
		if err != nil {
			return fmt.Errorf("create invoice item: %w", err)
		}
	}
	return nil
}

// UpdateItemMatch persiste la salida del motor de matching en la línea.
func (r *SupplierInvoiceRepo) UpdateItemMatch(itemID, matchedItemID string, confidence float64, method string) error {
	query := `
		UPDATE supplier_invoice_items
		SET matched_item_id = $2, match_confidence = $3, match_method = $4
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, itemID, matchedItemID, confidence, method)
	if err != nil {
		return fmt.Errorf("update item match: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkConfirmed registra la confirmación. El WHERE sobre status evita
// confirmar dos veces.
func (r *SupplierInvoiceRepo) MarkConfirmed(id string, at time.Time) error {
	query := `
		UPDATE supplier_invoices SET status = $2, confirmed_at = $3
		WHERE id = $1 AND status = $4`
	tag, err := r.q.Exec(context.Background(), query,
		id, entity.InvoiceStatusConfirmed, at, entity.InvoiceStatusPending,
	)
	if err != nil {
		return fmt.Errorf("mark invoice confirmed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: la factura ya está confirmada", domain.ErrConflict)
	}
	return nil
}

// SumConfirmedInRange suma total_amount de facturas confirmed cuya fecha
// efectiva (confirmed_at, o invoice_date si es null) cae en [from, to].
func (r *SupplierInvoiceRepo) SumConfirmedInRange(from, to time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(total_amount), 0)
		FROM supplier_invoices
		WHERE status = $1
		  AND COALESCE(confirmed_at, invoice_date) >= $2
		  AND COALESCE(confirmed_at, invoice_date) <= $3`
	var total decimal.Decimal
	err := r.q.QueryRow(context.Background(), query, entity.InvoiceStatusConfirmed, from, to).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum confirmed invoices: %w", err)
	}
	return total, nil
}
