package repository

import (
	"time"

	"github.com/cafetero/cafeteria-api/internal/domain/entity"
)

// RecipeRepository define el puerto de recetas versionadas y overrides.
type RecipeRepository interface {
	// ListByProduct devuelve todas las versiones (con líneas) del producto,
	// ordenadas por effective_from; se usa para validar solapes al insertar.
	ListByProduct(productID string) ([]*entity.ProductRecipe, error)
	CreateRecipe(r *entity.ProductRecipe) error
	// GetActiveRecipe devuelve la versión cuya ventana [effective_from,
	// effective_to) contiene asOf; nil si no hay.
	GetActiveRecipe(productID string, asOf time.Time) (*entity.ProductRecipe, error)
	CreateOverride(o *entity.SellableRecipeOverride) error
	// GetActiveOverride devuelve el override vigente de la sellable (nil si no hay).
	GetActiveOverride(sellableID string, asOf time.Time) (*entity.SellableRecipeOverride, error)
}
