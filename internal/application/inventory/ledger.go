package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cafetero/cafeteria-api/internal/domain"
	"github.com/cafetero/cafeteria-api/internal/domain/entity"
	domaininv "github.com/cafetero/cafeteria-api/internal/domain/inventory"
	"github.com/cafetero/cafeteria-api/internal/domain/repository"
)

// LedgerUseCase aplica movimientos al ledger de inventario de forma
// transaccional, con bloqueo de fila (SELECT FOR UPDATE). Es el único camino
// para mutar current_stock: una mutación, una fila de movimiento.
type LedgerUseCase struct {
	txRunner TxRunner
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(txRunner TxRunner) *LedgerUseCase {
	return &LedgerUseCase{txRunner: txRunner}
}

// MovementInput es la entrada para aplicar un movimiento. QuantityChange
// lleva signo (negativo para ventas). UnitCost solo aplica en compras:
// recalcula el costo promedio ponderado del artículo.
type MovementInput struct {
	ItemID         string
	Type           string
	QuantityChange int64
	UnitCost       *decimal.Decimal
	Reference      string
	Note           string
	CreatedBy      string
}

// ApplyMovement bloquea la fila del artículo, aplica el delta con piso en
// cero (el stock nunca queda negativo) y registra el movimiento, todo en una
// transacción. Devuelve el movimiento creado.
func (uc *LedgerUseCase) ApplyMovement(ctx context.Context, input MovementInput) (*entity.StockMovement, error) {
	switch input.Type {
	case entity.MovementTypeSale, entity.MovementTypePurchase, entity.MovementTypeAdjustment:
	default:
		return nil, fmt.Errorf("tipo de movimiento %q: %w", input.Type, domain.ErrInvalidInput)
	}
	if input.ItemID == "" || input.QuantityChange == 0 {
		return nil, domain.ErrInvalidInput
	}

	var created *entity.StockMovement
	err := uc.txRunner.Run(ctx, func(
		itemRepo repository.InventoryItemRepository,
		movRepo repository.StockMovementRepository,
	) error {
		item, err := itemRepo.GetForUpdate(input.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}

		prev := item.CurrentStock
		next := prev + input.QuantityChange
		if next < 0 {
			next = 0
		}

		if input.Type == entity.MovementTypePurchase && input.UnitCost != nil && input.QuantityChange > 0 {
			newCost := domaininv.WeightedAverageCost(
				decimal.NewFromInt(prev), item.UnitCost,
				decimal.NewFromInt(input.QuantityChange), *input.UnitCost,
			)
			if err := itemRepo.UpdateUnitCost(item.ID, newCost); err != nil {
				return err
			}
		}

		if err := itemRepo.UpdateStock(item.ID, next); err != nil {
			return err
		}

		mov := &entity.StockMovement{
			ID:             uuid.New().String(),
			ItemID:         item.ID,
			Type:           input.Type,
			QuantityChange: input.QuantityChange,
			PreviousStock:  prev,
			NewStock:       next,
			Reference:      input.Reference,
			Note:           input.Note,
			CreatedBy:      input.CreatedBy,
			CreatedAt:      time.Now(),
		}
		if err := movRepo.Create(mov); err != nil {
			return err
		}
		created = mov
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Decrement es un descuento agregado por artículo (sync de ventas o
// deducción por receta).
type Decrement struct {
	ItemID   string
	Quantity int64 // positivo; se aplica como delta negativo
	Note     string
}

// ItemResult es el resultado por artículo de un lote de descuentos.
type ItemResult struct {
	ItemID   string
	Movement *entity.StockMovement
	Err      error
}

// Applied indica si el descuento de este artículo quedó aplicado.
func (r ItemResult) Applied() bool { return r.Err == nil }

// ApplyDecrements aplica un lote de descuentos, cada uno en su propia
// transacción. Una falla individual se registra en su ItemResult y el lote
// continúa: no hay rollback del lote completo (aplicación parcial asumida;
// cada descuento es seguro por sí mismo gracias a su fila de ledger).
func (uc *LedgerUseCase) ApplyDecrements(ctx context.Context, movType, reference, createdBy string, decs []Decrement) []ItemResult {
	results := make([]ItemResult, 0, len(decs))
	for _, d := range decs {
		if d.Quantity <= 0 {
			results = append(results, ItemResult{ItemID: d.ItemID, Err: domain.ErrInvalidInput})
			continue
		}
		mov, err := uc.ApplyMovement(ctx, MovementInput{
			ItemID:         d.ItemID,
			Type:           movType,
			QuantityChange: -d.Quantity,
			Reference:      reference,
			Note:           d.Note,
			CreatedBy:      createdBy,
		})
		results = append(results, ItemResult{ItemID: d.ItemID, Movement: mov, Err: err})
	}
	return results
}
