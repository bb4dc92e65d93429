package recipes

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cafetero/cafeteria-api/internal/application/dto"
	"github.com/cafetero/cafeteria-api/internal/domain"
	"github.com/cafetero/cafeteria-api/internal/domain/entity"
)

// CreateRecipeVersion crea una nueva versión de receta para un producto.
// Las ventanas de vigencia de las versiones de un producto no pueden
// solaparse: si la nueva ventana intersecta una existente devuelve
// domain.ErrConflict.
func (uc *UseCase) CreateRecipeVersion(ctx context.Context, req dto.CreateRecipeRequest) (*entity.ProductRecipe, error) {
	if req.ProductID == "" || len(req.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if req.EffectiveTo != nil && !req.EffectiveTo.After(req.EffectiveFrom) {
		return nil, fmt.Errorf("%w: effective_to debe ser posterior a effective_from", domain.ErrInvalidInput)
	}
	yield := req.YieldQty
	if yield.LessThanOrEqual(decimal.Zero) {
		yield = decimal.NewFromInt(1)
	}

	product, err := uc.catalog.GetProductByID(req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("cargar producto: %w", err)
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	existing, err := uc.recipes.ListByProduct(req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("listar versiones: %w", err)
	}
	version := 1
	for _, r := range existing {
		if r.Version >= version {
			version = r.Version + 1
		}
		if windowsOverlap(req.EffectiveFrom, req.EffectiveTo, r.EffectiveFrom, r.EffectiveTo) {
			return nil, fmt.Errorf("%w: la ventana se solapa con la versión %d", domain.ErrConflict, r.Version)
		}
	}

	recipe := &entity.ProductRecipe{
		ID:            uuid.NewString(),
		ProductID:     req.ProductID,
		Version:       version,
		YieldQty:      yield,
		YieldUnit:     req.YieldUnit,
		EffectiveFrom: req.EffectiveFrom,
		EffectiveTo:   req.EffectiveTo,
	}
	for i, in := range req.Lines {
		if in.InventoryItemID == "" || in.Qty.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: línea %d inválida", domain.ErrInvalidInput, i+1)
		}
		if in.LossPct.LessThan(decimal.Zero) || in.LossPct.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("%w: loss_pct fuera de rango en línea %d", domain.ErrInvalidInput, i+1)
		}
		recipe.Lines = append(recipe.Lines, entity.RecipeLine{
			ID:              uuid.NewString(),
			RecipeID:        recipe.ID,
			InventoryItemID: in.InventoryItemID,
			Qty:             in.Qty,
			Unit:            in.Unit,
			LossPct:         in.LossPct,
			Position:        i,
		})
	}

	if err := uc.recipes.CreateRecipe(recipe); err != nil {
		return nil, fmt.Errorf("guardar receta: %w", err)
	}
	return recipe, nil
}

// CreateOverride registra un override de receta para una sellable. Un solo
// override puede estar vigente por sellable en un instante dado.
func (uc *UseCase) CreateOverride(ctx context.Context, req dto.CreateOverrideRequest) (*entity.SellableRecipeOverride, error) {
	if req.SellableID == "" || len(req.Ops) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if req.EffectiveTo != nil && !req.EffectiveTo.After(req.EffectiveFrom) {
		return nil, fmt.Errorf("%w: effective_to debe ser posterior a effective_from", domain.ErrInvalidInput)
	}

	sellable, err := uc.catalog.GetSellableByID(req.SellableID)
	if err != nil {
		return nil, fmt.Errorf("cargar sellable: %w", err)
	}
	if sellable == nil {
		return nil, domain.ErrNotFound
	}

	current, err := uc.recipes.GetActiveOverride(req.SellableID, req.EffectiveFrom)
	if err != nil {
		return nil, fmt.Errorf("cargar override vigente: %w", err)
	}
	if current != nil {
		return nil, fmt.Errorf("%w: ya existe un override vigente para la sellable", domain.ErrConflict)
	}

	ov := &entity.SellableRecipeOverride{
		ID:            uuid.NewString(),
		SellableID:    req.SellableID,
		EffectiveFrom: req.EffectiveFrom,
		EffectiveTo:   req.EffectiveTo,
	}
	for i, in := range req.Ops {
		op, err := buildOp(in)
		if err != nil {
			return nil, fmt.Errorf("%w (op %d)", err, i+1)
		}
		op.ID = uuid.NewString()
		op.OverrideID = ov.ID
		op.Position = i
		ov.Ops = append(ov.Ops, op)
	}

	if err := uc.recipes.CreateOverride(ov); err != nil {
		return nil, fmt.Errorf("guardar override: %w", err)
	}
	return ov, nil
}

func buildOp(in dto.OverrideOpInput) (entity.OverrideOp, error) {
	op := entity.OverrideOp{
		Type:                  in.Type,
		TargetInventoryItemID: in.TargetInventoryItemID,
		NewInventoryItemID:    in.NewInventoryItemID,
		Qty:                   in.Qty,
		Unit:                  in.Unit,
		LossPct:               in.LossPct,
		Factor:                in.Factor,
	}
	switch op.Type {
	case entity.OverrideOpAdd:
		if op.NewInventoryItemID == "" || op.Qty == nil || op.Qty.LessThanOrEqual(decimal.Zero) {
			return op, fmt.Errorf("%w: add requiere item y cantidad positiva", domain.ErrInvalidInput)
		}
	case entity.OverrideOpRemove:
		if op.TargetInventoryItemID == "" {
			return op, fmt.Errorf("%w: remove requiere item objetivo", domain.ErrInvalidInput)
		}
	case entity.OverrideOpReplace:
		if op.TargetInventoryItemID == "" || op.NewInventoryItemID == "" {
			return op, fmt.Errorf("%w: replace requiere item objetivo y reemplazo", domain.ErrInvalidInput)
		}
	case entity.OverrideOpMultiplier:
		if op.Factor == nil || op.Factor.LessThanOrEqual(decimal.Zero) {
			return op, fmt.Errorf("%w: multiplier requiere factor positivo", domain.ErrInvalidInput)
		}
	default:
		return op, fmt.Errorf("%w: tipo de operación desconocido %q", domain.ErrInvalidInput, in.Type)
	}
	return op, nil
}

func windowsOverlap(aFrom time.Time, aTo *time.Time, bFrom time.Time, bTo *time.Time) bool {
	if aTo != nil && !aTo.After(bFrom) {
		return false
	}
	if bTo != nil && !bTo.After(aFrom) {
		return false
	}
	return true
}
