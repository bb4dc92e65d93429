package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductRecipe es una versión del BOM de un Product: cuánta materia prima
// consume una tanda de YieldQty unidades. Las ventanas [EffectiveFrom,
// EffectiveTo) de un mismo producto no se solapan; la validación es en el
// momento de la inserción, no una constraint de BD.
type ProductRecipe struct {
	ID            string
	ProductID     string
	Version       int
	YieldQty      decimal.Decimal // > 0; unidades vendibles que produce la receta
	YieldUnit     string
	EffectiveFrom time.Time
	EffectiveTo   *time.Time // nil = vigente sin límite
	CreatedAt     time.Time
	Lines         []RecipeLine
}

// RecipeLine es una línea del BOM: artículo consumido, cantidad por tanda y
// porcentaje de merma de preparación (0 <= LossPct < 1).
type RecipeLine struct {
	ID              string
	RecipeID        string
	InventoryItemID string
	Qty             decimal.Decimal
	Unit            string
	LossPct         decimal.Decimal
	Position        int // orden estable de las líneas
}

// Tipos de operación de override sobre la receta base.
const (
	OverrideOpAdd        = "add"
	OverrideOpRemove     = "remove"
	OverrideOpReplace    = "replace"
	OverrideOpMultiplier = "multiplier"
)

// SellableRecipeOverride modifica la receta base del Product para una
// Sellable concreta dentro de una ventana de tiempo (ej. "Latte Grande lleva
// doble shot"). Las ops se aplican en orden de Position.
type SellableRecipeOverride struct {
	ID            string
	SellableID    string
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
	CreatedAt     time.Time
	Ops           []OverrideOp
}

// OverrideOp es una operación individual del override:
//
//	add:        agrega una línea (NewInventoryItemID, Qty, Unit, LossPct)
//	remove:     elimina la línea de TargetInventoryItemID
//	replace:    elimina la línea target e inserta NewInventoryItemID
//	            (Qty/Unit/LossPct opcionales; si faltan se heredan)
//	multiplier: escala la Qty de la línea target (o de todas si no hay target)
type OverrideOp struct {
	ID                    string
	OverrideID            string
	Type                  string
	TargetInventoryItemID string
	NewInventoryItemID    string
	Qty                   *decimal.Decimal
	Unit                  string
	LossPct               *decimal.Decimal
	Factor                *decimal.Decimal
	Position              int
}
