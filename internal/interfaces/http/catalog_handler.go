package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cafetero/cafeteria-api/internal/application/catalog"
	"github.com/cafetero/cafeteria-api/internal/application/dto"
)

// CatalogHandler maneja las peticiones HTTP de la capa de catálogo
// (protegido).
type CatalogHandler struct {
	resolver *catalog.Resolver
}

// NewCatalogHandler construye el handler.
func NewCatalogHandler(resolver *catalog.Resolver) *CatalogHandler {
	return &CatalogHandler{resolver: resolver}
}

// Refresh godoc
// @Summary      Refrescar objetos de catálogo desde el POS
// @Tags         catalog
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RefreshCatalogRequest  true  "IDs externos a refrescar (máx. 100)"
// @Success      200   {object}  dto.RefreshCatalogResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/catalog/refresh [post]
func (h *CatalogHandler) Refresh(c *fiber.Ctx) error {
	var in dto.RefreshCatalogRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if len(in.ExternalIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "external_ids es requerido"})
	}
	n, err := h.resolver.RefreshFromPOS(c.Context(), in.ExternalIDs)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.RefreshCatalogResponse{Upserted: n})
}

// InvalidateCache godoc
// @Summary      Invalidar la caché de resolución de catálogo
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Param        external_id  query  string  false  "ID externo puntual; sin él se invalida todo"
// @Success      204  "Sin contenido"
// @Router       /api/catalog/cache [delete]
func (h *CatalogHandler) InvalidateCache(c *fiber.Ctx) error {
	if extID := c.Query("external_id"); extID != "" {
		h.resolver.Invalidate(extID)
	} else {
		h.resolver.InvalidateAll()
	}
	return c.SendStatus(fiber.StatusNoContent)
}
