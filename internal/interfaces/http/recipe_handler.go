package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cafetero/cafeteria-api/internal/application/dto"
	"github.com/cafetero/cafeteria-api/internal/application/recipes"
	"github.com/cafetero/cafeteria-api/internal/domain/entity"
)

// RecipeHandler maneja las peticiones HTTP de recetas, overrides y consumo
// (protegido).
type RecipeHandler struct {
	uc      *recipes.UseCase
	applier *recipes.Applier
}

// NewRecipeHandler construye el handler.
func NewRecipeHandler(uc *recipes.UseCase, applier *recipes.Applier) *RecipeHandler {
	return &RecipeHandler{uc: uc, applier: applier}
}

// CreateRecipe godoc
// @Summary      Crear nueva versión de receta para un producto
// @Tags         recipes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID del producto"
// @Param        body  body  dto.CreateRecipeRequest  true  "Receta con líneas"
// @Success      201   {object}  dto.RecipeDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products/{id}/recipes [post]
func (h *RecipeHandler) CreateRecipe(c *fiber.Ctx) error {
	var in dto.CreateRecipeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	in.ProductID = c.Params("id")
	recipe, err := h.uc.CreateRecipeVersion(c.Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(recipeToDTO(recipe))
}

// CreateOverride godoc
// @Summary      Crear override de receta para una sellable
// @Tags         recipes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID de la sellable"
// @Param        body  body  dto.CreateOverrideRequest  true  "Override con ops en orden"
// @Success      201   {object}  dto.OverrideDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sellables/{id}/overrides [post]
func (h *RecipeHandler) CreateOverride(c *fiber.Ctx) error {
	var in dto.CreateOverrideRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	in.SellableID = c.Params("id")
	override, err := h.uc.CreateOverride(c.Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(overrideToDTO(override))
}

// ResolveConsumption godoc
// @Summary      Resolver el consumo de materia prima de una sellable
// @Tags         recipes
// @Security     Bearer
// @Produce      json
// @Param        id     path   string  true   "ID de la sellable"
// @Param        qty    query  int     false  "Cantidad vendida (default 1)"
// @Param        as_of  query  string  false  "Fecha RFC3339 (default ahora)"
// @Success      200  {array}   dto.ConsumptionLineDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sellables/{id}/consumption [get]
func (h *RecipeHandler) ResolveConsumption(c *fiber.Ctx) error {
	qty := int64(c.QueryInt("qty", 1))
	if qty <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "qty debe ser > 0"})
	}
	asOf := time.Now()
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "as_of debe ser RFC3339"})
		}
		asOf = parsed
	}
	lines, err := h.uc.ResolveConsumption(c.Context(), c.Params("id"), asOf, qty)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(lines)
}

// ApplyConsumption godoc
// @Summary      Aplicar el consumo de una línea de venta manual al ledger
// @Tags         recipes
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la línea de venta"
// @Success      200  {object}  dto.ApplyConsumptionResultDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales/lines/{id}/apply-consumption [post]
func (h *RecipeHandler) ApplyConsumption(c *fiber.Ctx) error {
	result, err := h.applier.ApplyToLine(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return fail(c, err)
	}
	out := dto.ApplyConsumptionResultDTO{
		LineID:      result.LineID,
		Consumption: result.Lines,
		Movements:   make([]dto.StockMovementDTO, 0, len(result.Movements)),
	}
	for _, m := range result.Movements {
		out.Movements = append(out.Movements, movementToDTO(m))
	}
	for _, r := range result.Errors {
		if r.Err != nil {
			out.ItemErrors = append(out.ItemErrors, dto.ItemErrorDTO{ItemID: r.ItemID, Error: r.Err.Error()})
		}
	}
	return c.JSON(out)
}

func recipeToDTO(r *entity.ProductRecipe) dto.RecipeDTO {
	out := dto.RecipeDTO{
		ID:            r.ID,
		ProductID:     r.ProductID,
		Version:       r.Version,
		YieldQty:      r.YieldQty,
		YieldUnit:     r.YieldUnit,
		EffectiveFrom: r.EffectiveFrom,
		EffectiveTo:   r.EffectiveTo,
		Lines:         make([]dto.RecipeLineDTO, 0, len(r.Lines)),
	}
	for _, ln := range r.Lines {
		out.Lines = append(out.Lines, dto.RecipeLineDTO{
			InventoryItemID: ln.InventoryItemID,
			Qty:             ln.Qty,
			Unit:            ln.Unit,
			LossPct:         ln.LossPct,
			Position:        ln.Position,
		})
	}
	return out
}

func overrideToDTO(o *entity.SellableRecipeOverride) dto.OverrideDTO {
	out := dto.OverrideDTO{
		ID:            o.ID,
		SellableID:    o.SellableID,
		EffectiveFrom: o.EffectiveFrom,
		EffectiveTo:   o.EffectiveTo,
		Ops:           make([]dto.OverrideOpInput, 0, len(o.Ops)),
	}
	for _, op := range o.Ops {
		out.Ops = append(out.Ops, dto.OverrideOpInput{
			Type:                  op.Type,
			TargetInventoryItemID: op.TargetInventoryItemID,
			NewInventoryItemID:    op.NewInventoryItemID,
			Qty:                   op.Qty,
			Unit:                  op.Unit,
			LossPct:               op.LossPct,
			Factor:                op.Factor,
		})
	}
	return out
}
