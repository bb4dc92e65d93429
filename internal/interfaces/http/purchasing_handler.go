package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cafetero/cafeteria-api/internal/application/dto"
	"github.com/cafetero/cafeteria-api/internal/application/purchasing"
	"github.com/cafetero/cafeteria-api/internal/domain/entity"
)

// PurchasingHandler maneja las peticiones HTTP de facturas de proveedor,
// órdenes de compra y matching (protegido).
type PurchasingHandler struct {
	uc *purchasing.UseCase
}

// NewPurchasingHandler construye el handler.
func NewPurchasingHandler(uc *purchasing.UseCase) *PurchasingHandler {
	return &PurchasingHandler{uc: uc}
}

// ── Facturas ──

// CreateInvoice godoc
// @Summary      Registrar factura de proveedor extraída
// @Tags         purchasing
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateInvoiceRequest  true  "Factura con líneas"
// @Success      201   {object}  dto.InvoiceDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/invoices [post]
func (h *PurchasingHandler) CreateInvoice(c *fiber.Ctx) error {
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	inv, err := h.uc.CreateInvoice(c.Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(invoiceToDTO(inv))
}

// GetInvoice godoc
// @Summary      Obtener factura por ID
// @Tags         purchasing
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [get]
func (h *PurchasingHandler) GetInvoice(c *fiber.Ctx) error {
	inv, err := h.uc.GetInvoice(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(invoiceToDTO(inv))
}

// ── Matching ──

// SuggestMatches godoc
// @Summary      Sugerir artículos de inventario por línea de factura
// @Tags         purchasing
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {array}   dto.LineSuggestionsDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/match-suggestions [get]
func (h *PurchasingHandler) SuggestMatches(c *fiber.Ctx) error {
	suggestions, err := h.uc.SuggestItemMatches(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(suggestions)
}

// ApplyMatch godoc
// @Summary      Confirmar manualmente el match de una línea
// @Tags         purchasing
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id      path  string  true  "ID de la factura"
// @Param        itemId  path  string  true  "ID de la línea"
// @Param        body    body  dto.ApplyMatchRequest  true  "Artículo elegido"
// @Success      204  "Sin contenido"
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/items/{itemId}/match [post]
func (h *PurchasingHandler) ApplyMatch(c *fiber.Ctx) error {
	var in dto.ApplyMatchRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.InventoryItemID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "inventory_item_id es requerido"})
	}
	if err := h.uc.ApplyItemMatch(c.Context(), c.Params("id"), c.Params("itemId"), in.InventoryItemID); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MatchOrders godoc
// @Summary      Buscar y registrar el match factura ↔ orden de compra
// @Tags         purchasing
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.OrderMatchResultDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/match-order [post]
func (h *PurchasingHandler) MatchOrders(c *fiber.Ctx) error {
	result, err := h.uc.MatchInvoiceToOrders(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(result)
}

// ListOrderMatches godoc
// @Summary      Listar matches factura ↔ orden registrados
// @Tags         purchasing
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {array}   dto.OrderMatchDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/matches [get]
func (h *PurchasingHandler) ListOrderMatches(c *fiber.Ctx) error {
	matches, err := h.uc.ListOrderMatches(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(matches)
}

// ConfirmInvoice godoc
// @Summary      Confirmar factura y registrar compras en el ledger
// @Tags         purchasing
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.ConfirmInvoiceResultDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/confirm [post]
func (h *PurchasingHandler) ConfirmInvoice(c *fiber.Ctx) error {
	result, err := h.uc.ConfirmInvoice(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(result)
}

// ── Órdenes de compra ──

// CreateOrder godoc
// @Summary      Registrar orden de compra
// @Tags         purchasing
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePurchaseOrderRequest  true  "Orden con líneas"
// @Success      201   {object}  dto.PurchaseOrderDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/purchase-orders [post]
func (h *PurchasingHandler) CreateOrder(c *fiber.Ctx) error {
	var in dto.CreatePurchaseOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	po, err := h.uc.CreatePurchaseOrder(c.Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(orderToDTO(po))
}

func invoiceToDTO(inv *entity.SupplierInvoice) dto.InvoiceDTO {
	out := dto.InvoiceDTO{
		ID:           inv.ID,
		SupplierName: inv.SupplierName,
		InvoiceDate:  inv.InvoiceDate,
		TotalAmount:  inv.TotalAmount,
		Currency:     inv.Currency,
		Status:       inv.Status,
		ConfirmedAt:  inv.ConfirmedAt,
		Items:        make([]dto.InvoiceItemDTO, 0, len(inv.Items)),
	}
	for _, it := range inv.Items {
		out.Items = append(out.Items, dto.InvoiceItemDTO{
			ID:              it.ID,
			Description:     it.Description,
			SupplierCode:    it.SupplierCode,
			Quantity:        it.Quantity,
			Unit:            it.Unit,
			UnitPrice:       it.UnitPrice,
			LineTotal:       it.LineTotal,
			MatchedItemID:   it.MatchedItemID,
			MatchConfidence: it.MatchConfidence,
			MatchMethod:     it.MatchMethod,
		})
	}
	return out
}

func orderToDTO(po *entity.PurchaseOrder) dto.PurchaseOrderDTO {
	out := dto.PurchaseOrderDTO{
		ID:           po.ID,
		SupplierName: po.SupplierName,
		OrderDate:    po.OrderDate,
		TotalAmount:  po.TotalAmount,
		Status:       po.Status,
		Lines:        make([]dto.PurchaseOrderLineDTO, 0, len(po.Lines)),
	}
	for _, ln := range po.Lines {
		out.Lines = append(out.Lines, dto.PurchaseOrderLineDTO{
			ID:          ln.ID,
			Description: ln.Description,
			Quantity:    ln.Quantity,
			UnitCost:    ln.UnitCost,
		})
	}
	return out
}
