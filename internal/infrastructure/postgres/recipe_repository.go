package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cafetero/cafeteria-api/internal/domain/entity"
	"github.com/cafetero/cafeteria-api/internal/domain/repository"
)

var _ repository.RecipeRepository = (*RecipeRepo)(nil)

// RecipeRepo implementación de RecipeRepository sobre PostgreSQL.
type RecipeRepo struct {
	q Querier
}

// NewRecipeRepository construye el adaptador de recetas.
func NewRecipeRepository(q Querier) *RecipeRepo {
	return &RecipeRepo{q: q}
}

// ListByProduct devuelve todas las versiones (con líneas) del producto.
func (r *RecipeRepo) ListByProduct(productID string) ([]*entity.ProductRecipe, error) {
	query := `
		SELECT id, product_id, version, yield_qty, yield_unit, effective_from, effective_to, created_at
		FROM product_recipes
		WHERE product_id = $1
		ORDER BY effective_from`
	rows, err := r.q.Query(context.Background(), query, productID)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []*entity.ProductRecipe
	for rows.Next() {
		var rec entity.ProductRecipe
		if err := rows.Scan(
			&rec.ID, &rec.ProductID, &rec.Version, &rec.YieldQty, &rec.YieldUnit,
			&rec.EffectiveFrom, &rec.EffectiveTo, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		recipes = append(recipes, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, rec := range recipes {
		lines, err := r.loadLines(rec.ID)
		if err != nil {
			return nil, err
		}
		rec.Lines = lines
	}
	return recipes, nil
}

// CreateRecipe inserta la versión con sus líneas.
func (r *RecipeRepo) CreateRecipe(rec *entity.ProductRecipe) error {
	query := `
		INSERT INTO product_recipes
			(id, product_id, version, yield_qty, yield_unit, effective_from, effective_to, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())`
	_, err := r.q.Exec(context.Background(), query,
		rec.ID, rec.ProductID, rec.Version, rec.YieldQty, nullIfEmpty(rec.YieldUnit),
		rec.EffectiveFrom, rec.EffectiveTo,
	)
	if err != nil {
		return fmt.Errorf("create recipe: %w", err)
	}

	lineQuery := `
		INSERT INTO recipe_lines (id, recipe_id, inventory_item_id, qty, unit, loss_pct, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, l := range rec.Lines {
		_, err := r.q.Exec(context.Background(), lineQuery,
			l.ID, rec.ID, l.InventoryItemID, l.Qty, nullIfEmpty(l.Unit), l.LossPct, l.Position,
		)
		if err != nil {
			return fmt.Errorf("create recipe line: %w", err)
		}
	}
	return nil
}

// GetActiveRecipe devuelve la versión cuya ventana [effective_from,
// effective_to) contiene asOf (nil si no hay).
func (r *RecipeRepo) GetActiveRecipe(productID string, asOf time.Time) (*entity.ProductRecipe, error) {
	query := `
		SELECT id, product_id, version, yield_qty, yield_unit, effective_from, effective_to, created_at
		FROM product_recipes
		WHERE product_id = $1
		  AND effective_from <= $2
		  AND (effective_to IS NULL OR effective_to > $2)
		ORDER BY effective_from DESC
		LIMIT 1`
	var rec entity.ProductRecipe
	err := r.q.QueryRow(context.Background(), query, productID, asOf).Scan(
		&rec.ID, &rec.ProductID, &rec.Version, &rec.YieldQty, &rec.YieldUnit,
		&rec.EffectiveFrom, &rec.EffectiveTo, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active recipe: %w", err)
	}
	lines, err := r.loadLines(rec.ID)
	if err != nil {
		return nil, err
	}
	rec.Lines = lines
	return &rec, nil
}

// CreateOverride inserta el override con sus operaciones en orden.
func (r *RecipeRepo) CreateOverride(o *entity.SellableRecipeOverride) error {
	query := `
		INSERT INTO sellable_recipe_overrides (id, sellable_id, effective_from, effective_to, created_at)
		VALUES ($1, $2, $3, $4, now())`
	_, err := r.q.Exec(context.Background(), query, o.ID, o.SellableID, o.EffectiveFrom, o.EffectiveTo)
	if err != nil {
		return fmt.Errorf("create override: %w", err)
	}

	opQuery := `
		INSERT INTO override_ops
			(id, override_id, op_type, target_inventory_item_id, new_inventory_item_id,
			 qty, unit, loss_pct, factor, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for _, op := range o.Ops {
		_, err := r.q.Exec(context.Background(), opQuery,
			op.ID, o.ID, op.Type, nullIfEmpty(op.TargetInventoryItemID), nullIfEmpty(op.NewInventoryItemID),
			op.Qty, nullIfEmpty(op.Unit), op.LossPct, op.Factor, op.Position,
		)
		if err != nil {
			return fmt.Errorf("create override op: %w", err)
		}
	}
	return nil
}

// GetActiveOverride devuelve el override vigente de la sellable con sus ops
// en orden de position (nil si no hay).
func (r *RecipeRepo) GetActiveOverride(sellableID string, asOf time.Time) (*entity.SellableRecipeOverride, error) {
	query := `
		SELECT id, sellable_id, effective_from, effective_to, created_at
		FROM sellable_recipe_overrides
		WHERE sellable_id = $1
		  AND effective_from <= $2
		  AND (effective_to IS NULL OR effective_to > $2)
		ORDER BY effective_from DESC
		LIMIT 1`
	var o entity.SellableRecipeOverride
	err := r.q.QueryRow(context.Background(), query, sellableID, asOf).Scan(
		&o.ID, &o.SellableID, &o.EffectiveFrom, &o.EffectiveTo, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active override: %w", err)
	}

	opQuery := `
		SELECT id, override_id, op_type, COALESCE(target_inventory_item_id, ''),
		       COALESCE(new_inventory_item_id, ''), qty, COALESCE(unit, ''), loss_pct, factor, position
		FROM override_ops
		WHERE override_id = $1
		ORDER BY position`
	rows, err := r.q.Query(context.Background(), opQuery, o.ID)
	if err != nil {
		return nil, fmt.Errorf("list override ops: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var op entity.OverrideOp
		if err := rows.Scan(
			&op.ID, &op.OverrideID, &op.Type, &op.TargetInventoryItemID,
			&op.NewInventoryItemID, &op.Qty, &op.Unit, &op.LossPct, &op.Factor, &op.Position,
		); err != nil {
			return nil, fmt.Errorf("scan override op: %w", err)
		}
		o.Ops = append(o.Ops, op)
	}
	return &o, rows.Err()
}

func (r *RecipeRepo) loadLines(recipeID string) ([]entity.RecipeLine, error) {
	query := `
		SELECT id, recipe_id, inventory_item_id, qty, COALESCE(unit, ''), loss_pct, position
		FROM recipe_lines
		WHERE recipe_id = $1
		ORDER BY position`
	rows, err := r.q.Query(context.Background(), query, recipeID)
	if err != nil {
		return nil, fmt.Errorf("list recipe lines: %w", err)
	}
	defer rows.Close()

	var lines []entity.RecipeLine
	for rows.Next() {
		var l entity.RecipeLine
		if err := rows.Scan(&l.ID, &l.RecipeID, &l.InventoryItemID, &l.Qty, &l.Unit, &l.LossPct, &l.Position); err != nil {
			return nil, fmt.Errorf("scan recipe line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
