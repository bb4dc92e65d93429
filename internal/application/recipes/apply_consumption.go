package recipes

import (
	"context"
	"fmt"

	"github.com/cafetero/cafeteria-api/internal/application/dto"
	appinv "github.com/cafetero/cafeteria-api/internal/application/inventory"
	"github.com/cafetero/cafeteria-api/internal/domain"
	"github.com/cafetero/cafeteria-api/internal/domain/entity"
	"github.com/cafetero/cafeteria-api/internal/domain/repository"
)

// Applier descuenta inventario para líneas de venta de impacto manual
// explotando la receta de la sellable vendida.
type Applier struct {
	sales   repository.SalesRepository
	catalog repository.CatalogRepository
	recipes *UseCase
	ledger  *appinv.LedgerUseCase
}

// NewApplier construye el aplicador de consumos.
func NewApplier(sales repository.SalesRepository, catalog repository.CatalogRepository, recipes *UseCase, ledger *appinv.LedgerUseCase) *Applier {
	return &Applier{sales: sales, catalog: catalog, recipes: recipes, ledger: ledger}
}

// ApplyResult resume la aplicación de consumo de una línea de venta.
type ApplyResult struct {
	LineID    string                    `json:"line_id"`
	Lines     []dto.ConsumptionLineDTO  `json:"consumption"`
	Movements []*entity.StockMovement   `json:"movements"`
	Errors    []appinv.ItemResult       `json:"errors,omitempty"`
}

// ApplyToLine resuelve el consumo de una línea de venta manual y registra
// los descuentos en el ledger. Es idempotente: una línea ya aplicada
// devuelve domain.ErrConflict. Las cantidades fraccionarias se truncan al
// entero inferior porque el ledger cuenta unidades enteras.
func (a *Applier) ApplyToLine(ctx context.Context, lineID, createdBy string) (*ApplyResult, error) {
	if lineID == "" {
		return nil, domain.ErrInvalidInput
	}

	line, err := a.sales.GetItemByID(lineID)
	if err != nil {
		return nil, fmt.Errorf("cargar línea de venta: %w", err)
	}
	if line == nil {
		return nil, domain.ErrNotFound
	}
	if line.ImpactType != entity.ImpactTypeManual {
		return nil, fmt.Errorf("%w: la línea no es de impacto manual", domain.ErrInvalidInput)
	}
	if line.ConsumptionApplied {
		return nil, fmt.Errorf("%w: el consumo de la línea ya fue aplicado", domain.ErrConflict)
	}

	sellable, err := a.catalog.GetSellableByExternalID(line.CatalogObjectID)
	if err != nil {
		return nil, fmt.Errorf("resolver sellable: %w", err)
	}
	if sellable == nil {
		return nil, domain.ErrNotFound
	}

	tx, err := a.sales.GetTransactionByID(line.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("cargar transacción: %w", err)
	}
	if tx == nil {
		return nil, domain.ErrNotFound
	}

	consumption, err := a.recipes.ResolveConsumption(ctx, sellable.ID, tx.OrderedAt, line.Quantity)
	if err != nil {
		return nil, err
	}

	var decs []appinv.Decrement
	for _, c := range consumption {
		qty := c.Qty.IntPart()
		if qty <= 0 {
			continue
		}
		decs = append(decs, appinv.Decrement{
			ItemID:   c.InventoryItemID,
			Quantity: qty,
			Note:     "consumo por receta",
		})
	}

	result := &ApplyResult{LineID: lineID, Lines: consumption}
	batch := a.ledger.ApplyDecrements(ctx, entity.MovementTypeSale, "line:"+lineID, createdBy, decs)
	for _, r := range batch {
		if r.Applied() {
			result.Movements = append(result.Movements, r.Movement)
		} else {
			result.Errors = append(result.Errors, r)
		}
	}
	if len(result.Errors) > 0 {
		return result, nil
	}

	if err := a.sales.MarkConsumptionApplied(lineID); err != nil {
		return result, fmt.Errorf("marcar línea como aplicada: %w", err)
	}
	return result, nil
}
