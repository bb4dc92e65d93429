package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cafetero/cafeteria-api/internal/application/dto"
	"github.com/cafetero/cafeteria-api/internal/application/salesync"
)

// SyncHandler maneja las peticiones HTTP de sincronización de ventas
// (protegido).
type SyncHandler struct {
	uc *salesync.UseCase
}

// NewSyncHandler construye el handler.
func NewSyncHandler(uc *salesync.UseCase) *SyncHandler {
	return &SyncHandler{uc: uc}
}

// Run godoc
// @Summary      Ejecutar una sincronización de ventas contra el POS
// @Tags         sync
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SyncRequest  false  "dry_run: clasifica sin persistir"
// @Success      200   {object}  dto.SyncResult
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/sync/sales [post]
func (h *SyncHandler) Run(c *fiber.Ctx) error {
	var in dto.SyncRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	result, err := h.uc.Run(c.Context(), in.DryRun)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(result)
}

// ListRuns godoc
// @Summary      Listar corridas de sincronización recientes
// @Tags         sync
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "Máximo de corridas (default 20)"
// @Success      200  {array}  dto.SyncRunDTO
// @Router       /api/sync/runs [get]
func (h *SyncHandler) ListRuns(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	runs, err := h.uc.ListRecent(limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(runs)
}
