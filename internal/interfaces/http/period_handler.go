package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cafetero/cafeteria-api/internal/application/costing"
	"github.com/cafetero/cafeteria-api/internal/application/dto"
	"github.com/cafetero/cafeteria-api/internal/domain/entity"
)

// PeriodHandler maneja las peticiones HTTP de periodos contables y cierres
// (protegido).
type PeriodHandler struct {
	uc *costing.UseCase
}

// NewPeriodHandler construye el handler.
func NewPeriodHandler(uc *costing.UseCase) *PeriodHandler {
	return &PeriodHandler{uc: uc}
}

// Create godoc
// @Summary      Crear periodo contable
// @Tags         periods
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePeriodRequest  true  "Tipo y ventana del periodo"
// @Success      201   {object}  dto.PeriodDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/periods [post]
func (h *PeriodHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePeriodRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	period, err := h.uc.CreatePeriod(c.Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(periodToDTO(period))
}

// List godoc
// @Summary      Listar periodos (más recientes primero)
// @Tags         periods
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "Máximo de periodos (default 50)"
// @Success      200  {array}  dto.PeriodDTO
// @Router       /api/periods [get]
func (h *PeriodHandler) List(c *fiber.Ctx) error {
	periods, err := h.uc.ListPeriods(c.Context(), c.QueryInt("limit", 50))
	if err != nil {
		return fail(c, err)
	}
	out := make([]dto.PeriodDTO, 0, len(periods))
	for _, p := range periods {
		out = append(out, periodToDTO(p))
	}
	return c.JSON(out)
}

// Close godoc
// @Summary      Cerrar periodo y calcular COGS periódico
// @Tags         periods
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del periodo"
// @Success      200  {object}  dto.PeriodReportDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/periods/{id}/close [post]
func (h *PeriodHandler) Close(c *fiber.Ctx) error {
	report, err := h.uc.ClosePeriod(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(reportToDTO(report))
}

// GetReport godoc
// @Summary      Obtener reporte de cierre de un periodo
// @Tags         periods
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del periodo"
// @Success      200  {object}  dto.PeriodReportDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/periods/{id}/report [get]
func (h *PeriodHandler) GetReport(c *fiber.Ctx) error {
	report, err := h.uc.GetReport(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(reportToDTO(report))
}

// GetReportPDF godoc
// @Summary      Descargar el reporte de cierre en PDF
// @Tags         periods
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del periodo"
// @Success      200  {file}    file
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/periods/{id}/report/pdf [get]
func (h *PeriodHandler) GetReportPDF(c *fiber.Ctx) error {
	pdfBytes, err := h.uc.RenderReportPDF(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="cierre-periodo.pdf"`)
	return c.Send(pdfBytes)
}

func periodToDTO(p *entity.Period) dto.PeriodDTO {
	return dto.PeriodDTO{
		ID:       p.ID,
		Type:     p.Type,
		StartsAt: p.StartsAt,
		EndsAt:   p.EndsAt,
		Status:   p.Status,
		ClosedAt: p.ClosedAt,
		ClosedBy: p.ClosedBy,
	}
}

func reportToDTO(r *entity.PeriodReport) dto.PeriodReportDTO {
	return dto.PeriodReportDTO{
		PeriodID:            r.PeriodID,
		BeginInventoryValue: r.BeginInventoryValue,
		EndInventoryValue:   r.EndInventoryValue,
		PurchasesValue:      r.PurchasesValue,
		CogsValue:           r.CogsValue,
		Currency:            r.Currency,
	}
}
