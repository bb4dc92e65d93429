package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cafetero/cafeteria-api/internal/application/costing"
	"github.com/cafetero/cafeteria-api/internal/application/inventory"
	"github.com/cafetero/cafeteria-api/internal/domain/repository"
)

// Ensure TxRunner implements inventory.TxRunner and costing.ClosingTxRunner.
var _ inventory.TxRunner = (*TxRunner)(nil)
var _ costing.ClosingTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	itemRepo repository.InventoryItemRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	itemRepo := NewInventoryItemRepository(tx)
	movRepo := NewStockMovementRepository(tx)

	if err := fn(itemRepo, movRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunClose inicia una transacción con los repos del cierre de periodo
// (snapshot, reporte y transición de estado quedan en la misma tx).
func (r *TxRunner) RunClose(ctx context.Context, fn func(
	periods repository.PeriodRepository,
	reports repository.ReportRepository,
	items repository.InventoryItemRepository,
	invoices repository.SupplierInvoiceRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	periodRepo := NewPeriodRepository(tx)
	reportRepo := NewReportRepository(tx)
	itemRepo := NewInventoryItemRepository(tx)
	invoiceRepo := NewSupplierInvoiceRepository(tx)

	if err := fn(periodRepo, reportRepo, itemRepo, invoiceRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
