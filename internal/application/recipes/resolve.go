// Package recipes implementa el motor de recetas/BOM: versiones por
// producto, overrides por sellable y la explosión de una unidad vendida en
// cantidades consumidas de materia prima.
package recipes

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cafetero/cafeteria-api/internal/application/dto"
	"github.com/cafetero/cafeteria-api/internal/domain"
	"github.com/cafetero/cafeteria-api/internal/domain/entity"
	"github.com/cafetero/cafeteria-api/internal/domain/repository"
)

// UseCase resuelve consumos y administra recetas y overrides.
type UseCase struct {
	recipes repository.RecipeRepository
	catalog repository.CatalogRepository
}

// NewUseCase construye el caso de uso.
func NewUseCase(recipes repository.RecipeRepository, catalog repository.CatalogRepository) *UseCase {
	return &UseCase{recipes: recipes, catalog: catalog}
}

// ResolveConsumption explota soldQty unidades de la sellable en cantidades
// de materia prima según la receta vigente en asOf, con el override de la
// sellable aplicado si existe. Sin receta vigente devuelve
// domain.ErrNoRecipe: el caller lo reporta como "sin receta", no es fatal.
func (uc *UseCase) ResolveConsumption(ctx context.Context, sellableID string, asOf time.Time, soldQty int64) ([]dto.ConsumptionLineDTO, error) {
	if sellableID == "" || soldQty <= 0 {
		return nil, domain.ErrInvalidInput
	}

	sellable, err := uc.catalog.GetSellableByID(sellableID)
	if err != nil {
		return nil, fmt.Errorf("cargar sellable: %w", err)
	}
	if sellable == nil {
		return nil, domain.ErrNotFound
	}

	recipe, err := uc.recipes.GetActiveRecipe(sellable.ProductID, asOf)
	if err != nil {
		return nil, fmt.Errorf("cargar receta vigente: %w", err)
	}
	if recipe == nil {
		return nil, domain.ErrNoRecipe
	}

	lines := recipe.Lines
	override, err := uc.recipes.GetActiveOverride(sellableID, asOf)
	if err != nil {
		return nil, fmt.Errorf("cargar override vigente: %w", err)
	}
	if override != nil {
		lines = ApplyOverrideOps(lines, override.Ops)
	}

	return scaleLines(lines, recipe.YieldQty, soldQty), nil
}

// ApplyOverrideOps aplica las operaciones del override en orden almacenado
// sobre una copia de las líneas base. Es determinista: la misma secuencia
// sobre la misma base produce siempre el mismo resultado.
func ApplyOverrideOps(base []entity.RecipeLine, ops []entity.OverrideOp) []entity.RecipeLine {
	lines := make([]entity.RecipeLine, len(base))
	copy(lines, base)

	for _, op := range ops {
		switch op.Type {
		case entity.OverrideOpAdd:
			nl := entity.RecipeLine{InventoryItemID: op.NewInventoryItemID, Unit: op.Unit}
			if op.Qty != nil {
				nl.Qty = *op.Qty
			}
			if op.LossPct != nil {
				nl.LossPct = *op.LossPct
			}
			lines = append(lines, nl)

		case entity.OverrideOpRemove:
			lines = removeLine(lines, op.TargetInventoryItemID)

		case entity.OverrideOpReplace:
			idx := indexOfLine(lines, op.TargetInventoryItemID)
			if idx < 0 {
				continue
			}
			// Qty/Unit/LossPct no provistos se heredan de la línea removida.
			nl := lines[idx]
			nl.InventoryItemID = op.NewInventoryItemID
			if op.Qty != nil {
				nl.Qty = *op.Qty
			}
			if op.Unit != "" {
				nl.Unit = op.Unit
			}
			if op.LossPct != nil {
				nl.LossPct = *op.LossPct
			}
			lines[idx] = nl

		case entity.OverrideOpMultiplier:
			if op.Factor == nil {
				continue
			}
			for i := range lines {
				if op.TargetInventoryItemID == "" || lines[i].InventoryItemID == op.TargetInventoryItemID {
					lines[i].Qty = lines[i].Qty.Mul(*op.Factor)
				}
			}
		}
	}
	return lines
}

func removeLine(lines []entity.RecipeLine, itemID string) []entity.RecipeLine {
	out := lines[:0]
	for _, l := range lines {
		if l.InventoryItemID != itemID {
			out = append(out, l)
		}
	}
	return out
}

func indexOfLine(lines []entity.RecipeLine, itemID string) int {
	for i, l := range lines {
		if l.InventoryItemID == itemID {
			return i
		}
	}
	return -1
}

// scaleLines escala por soldQty/yield y luego infla cada línea por
// 1/(1−loss_pct) para cubrir la merma de preparación.
func scaleLines(lines []entity.RecipeLine, yieldQty decimal.Decimal, soldQty int64) []dto.ConsumptionLineDTO {
	if yieldQty.LessThanOrEqual(decimal.Zero) {
		yieldQty = decimal.NewFromInt(1)
	}
	factor := decimal.NewFromInt(soldQty).Div(yieldQty)
	one := decimal.NewFromInt(1)

	out := make([]dto.ConsumptionLineDTO, 0, len(lines))
	for _, l := range lines {
		qty := l.Qty.Mul(factor)
		if l.LossPct.GreaterThan(decimal.Zero) && l.LossPct.LessThan(one) {
			qty = qty.Div(one.Sub(l.LossPct))
		}
		out = append(out, dto.ConsumptionLineDTO{
			InventoryItemID: l.InventoryItemID,
			Qty:             qty.Round(4),
			Unit:            l.Unit,
		})
	}
	return out
}
