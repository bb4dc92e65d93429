package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateRecipeRequest es el cuerpo de POST /api/products/:id/recipes.
type CreateRecipeRequest struct {
	ProductID     string             `json:"-"` // viene del path
	YieldQty      decimal.Decimal    `json:"yield_qty"`
	YieldUnit     string             `json:"yield_unit"`
	EffectiveFrom time.Time          `json:"effective_from"`
	EffectiveTo   *time.Time         `json:"effective_to,omitempty"`
	Lines         []RecipeLineInput  `json:"lines"`
}

// RecipeLineInput es una línea del BOM en la creación de receta.
type RecipeLineInput struct {
	InventoryItemID string          `json:"inventory_item_id"`
	Qty             decimal.Decimal `json:"qty"`
	Unit            string          `json:"unit"`
	LossPct         decimal.Decimal `json:"loss_pct"`
}

// CreateOverrideRequest es el cuerpo de POST /api/sellables/:id/overrides.
type CreateOverrideRequest struct {
	SellableID    string            `json:"-"` // viene del path
	EffectiveFrom time.Time         `json:"effective_from"`
	EffectiveTo   *time.Time        `json:"effective_to,omitempty"`
	Ops           []OverrideOpInput `json:"ops"`
}

// OverrideOpInput es una operación del override en orden de aplicación.
type OverrideOpInput struct {
	Type                  string           `json:"type"` // add, remove, replace, multiplier
	TargetInventoryItemID string           `json:"target_inventory_item_id,omitempty"`
	NewInventoryItemID    string           `json:"new_inventory_item_id,omitempty"`
	Qty                   *decimal.Decimal `json:"qty,omitempty"`
	Unit                  string           `json:"unit,omitempty"`
	LossPct               *decimal.Decimal `json:"loss_pct,omitempty"`
	Factor                *decimal.Decimal `json:"factor,omitempty"`
}

// RecipeDTO es una versión de receta en respuestas HTTP.
type RecipeDTO struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"product_id"`
	Version       int             `json:"version"`
	YieldQty      decimal.Decimal `json:"yield_qty"`
	YieldUnit     string          `json:"yield_unit"`
	EffectiveFrom time.Time       `json:"effective_from"`
	EffectiveTo   *time.Time      `json:"effective_to,omitempty"`
	Lines         []RecipeLineDTO `json:"lines"`
}

// RecipeLineDTO es una línea del BOM en respuestas HTTP.
type RecipeLineDTO struct {
	InventoryItemID string          `json:"inventory_item_id"`
	Qty             decimal.Decimal `json:"qty"`
	Unit            string          `json:"unit"`
	LossPct         decimal.Decimal `json:"loss_pct"`
	Position        int             `json:"position"`
}

// OverrideDTO es un override de receta en respuestas HTTP.
type OverrideDTO struct {
	ID            string           `json:"id"`
	SellableID    string           `json:"sellable_id"`
	EffectiveFrom time.Time        `json:"effective_from"`
	EffectiveTo   *time.Time       `json:"effective_to,omitempty"`
	Ops           []OverrideOpInput `json:"ops"`
}

// ConsumptionLineDTO es una línea de consumo resuelta: cuánta materia prima
// consume la cantidad vendida, ya escalada por rendimiento y merma.
type ConsumptionLineDTO struct {
	InventoryItemID string          `json:"inventory_item_id"`
	Qty             decimal.Decimal `json:"qty"`
	Unit            string          `json:"unit"`
}

// ItemErrorDTO reporta el fallo de un artículo dentro de un lote de
// descuentos.
type ItemErrorDTO struct {
	ItemID string `json:"item_id"`
	Error  string `json:"error"`
}

// ApplyConsumptionResultDTO es la respuesta de la aplicación de consumo de
// una línea de venta manual.
type ApplyConsumptionResultDTO struct {
	LineID      string               `json:"line_id"`
	Consumption []ConsumptionLineDTO `json:"consumption"`
	Movements   []StockMovementDTO   `json:"movements"`
	ItemErrors  []ItemErrorDTO       `json:"item_errors,omitempty"`
}
