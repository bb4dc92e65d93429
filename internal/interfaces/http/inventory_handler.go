package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cafetero/cafeteria-api/internal/application/dto"
	"github.com/cafetero/cafeteria-api/internal/application/inventory"
	"github.com/cafetero/cafeteria-api/internal/domain/entity"
	"github.com/cafetero/cafeteria-api/internal/domain/repository"
)

// InventoryHandler maneja las peticiones HTTP del ledger de inventario
// (protegido).
type InventoryHandler struct {
	ledger    *inventory.LedgerUseCase
	items     repository.InventoryItemRepository
	movements repository.StockMovementRepository
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.LedgerUseCase, items repository.InventoryItemRepository, movements repository.StockMovementRepository) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, items: items, movements: movements}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento manual de inventario
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "Movimiento (quantity_change con signo)"
// @Success      201   {object}  dto.StockMovementDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	mov, err := h.ledger.ApplyMovement(c.Context(), inventory.MovementInput{
		ItemID:         in.ItemID,
		Type:           in.Type,
		QuantityChange: in.QuantityChange,
		UnitCost:       in.UnitCost,
		Reference:      in.Reference,
		Note:           in.Note,
		CreatedBy:      GetUserID(c),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(movementToDTO(mov))
}

// ListItems godoc
// @Summary      Listar artículos de inventario activos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.InventoryItemDTO
// @Router       /api/inventory/items [get]
func (h *InventoryHandler) ListItems(c *fiber.Ctx) error {
	items, err := h.items.ListActive()
	if err != nil {
		return fail(c, err)
	}
	out := make([]dto.InventoryItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, dto.InventoryItemDTO{
			ID:            it.ID,
			Name:          it.Name,
			SupplierName:  it.SupplierName,
			ExternalID:    it.ExternalID,
			ItemType:      it.ItemType,
			UnitType:      it.UnitType,
			PackSize:      it.PackSize,
			CurrentStock:  it.CurrentStock,
			UnitCost:      it.UnitCost,
			AutoDecrement: it.AutoDecrement,
		})
	}
	return c.JSON(out)
}

// ListMovements godoc
// @Summary      Listar movimientos de un artículo (más recientes primero)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id     path   string  true   "ID del artículo"
// @Param        limit  query  int     false  "Máximo de filas (default 50)"
// @Success      200  {array}   dto.StockMovementDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id}/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id es requerido"})
	}
	item, err := h.items.GetByID(id)
	if err != nil {
		return fail(c, err)
	}
	if item == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "artículo no encontrado"})
	}
	limit := c.QueryInt("limit", 50)
	movs, err := h.movements.ListByItem(id, limit)
	if err != nil {
		return fail(c, err)
	}
	out := make([]dto.StockMovementDTO, 0, len(movs))
	for _, m := range movs {
		out = append(out, movementToDTO(m))
	}
	return c.JSON(out)
}

func movementToDTO(m *entity.StockMovement) dto.StockMovementDTO {
	return dto.StockMovementDTO{
		ID:             m.ID,
		ItemID:         m.ItemID,
		Type:           m.Type,
		QuantityChange: m.QuantityChange,
		PreviousStock:  m.PreviousStock,
		NewStock:       m.NewStock,
		Reference:      m.Reference,
		Note:           m.Note,
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt,
	}
}
