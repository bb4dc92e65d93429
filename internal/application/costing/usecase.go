// Package costing implementa el motor de costeo por periodos: creación de
// periodos contables, cierre de una sola vía con snapshot de valoración y
// cálculo de COGS, y el reporte resultante.
package costing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cafetero/cafeteria-api/pkg/logger"

	"github.com/cafetero/cafeteria-api/internal/application/dto"
	"github.com/cafetero/cafeteria-api/internal/domain"
	"github.com/cafetero/cafeteria-api/internal/domain/entity"
	invdomain "github.com/cafetero/cafeteria-api/internal/domain/inventory"
	"github.com/cafetero/cafeteria-api/internal/domain/repository"
)

// ClosingTxRunner ejecuta el cierre de periodo dentro de una transacción:
// snapshot, reporte y transición open → closed se confirman juntos o no se
// confirma nada.
type ClosingTxRunner interface {
	RunClose(ctx context.Context, fn func(
		periods repository.PeriodRepository,
		reports repository.ReportRepository,
		items repository.InventoryItemRepository,
		invoices repository.SupplierInvoiceRepository,
	) error) error
}

// ReportPDFGenerator renderiza el reporte de cierre como PDF.
type ReportPDFGenerator interface {
	Generate(period *entity.Period, report *entity.PeriodReport, valuations []*entity.InventoryValuation) ([]byte, error)
}

// UseCase administra periodos contables y sus cierres.
type UseCase struct {
	periods  repository.PeriodRepository
	reports  repository.ReportRepository
	txRunner ClosingTxRunner
	pdf      ReportPDFGenerator
	currency string
	log      *logger.Logger
}

// NewUseCase construye el caso de uso. currency es la moneda reportada en
// los cierres (los montos ya vienen en esa moneda).
func NewUseCase(periods repository.PeriodRepository, reports repository.ReportRepository, txRunner ClosingTxRunner, pdf ReportPDFGenerator, currency string, log *logger.Logger) *UseCase {
	return &UseCase{periods: periods, reports: reports, txRunner: txRunner, pdf: pdf, currency: currency, log: log}
}

// CreatePeriod crea un periodo abierto. EndsAt debe ser posterior a StartsAt.
func (uc *UseCase) CreatePeriod(ctx context.Context, req dto.CreatePeriodRequest) (*entity.Period, error) {
	switch req.Type {
	case entity.PeriodTypeWeekly, entity.PeriodTypeMonthly, entity.PeriodTypeAnnual, entity.PeriodTypeCustom:
	default:
		return nil, fmt.Errorf("%w: tipo de periodo desconocido %q", domain.ErrInvalidInput, req.Type)
	}
	if !req.EndsAt.After(req.StartsAt) {
		return nil, fmt.Errorf("%w: ends_at debe ser posterior a starts_at", domain.ErrInvalidInput)
	}

	p := &entity.Period{
		ID:       uuid.NewString(),
		Type:     req.Type,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
		Status:   entity.PeriodStatusOpen,
	}
	if err := uc.periods.Create(p); err != nil {
		return nil, fmt.Errorf("crear periodo: %w", err)
	}
	return p, nil
}

// ListPeriods devuelve los periodos más recientes.
func (uc *UseCase) ListPeriods(ctx context.Context, limit int) ([]*entity.Period, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return uc.periods.List(limit)
}

// ClosePeriod cierra el periodo y produce su reporte:
//
//	inicial  = valor final del último periodo cerrado anterior (0 si no hay)
//	final    = Σ valor en mano de los artículos activos, con snapshot por artículo
//	compras  = Σ facturas confirmadas con fecha efectiva dentro del periodo
//	COGS     = round2(inicial + compras − final)
//
// Todo ocurre en una transacción; un periodo ya cerrado devuelve
// domain.ErrPeriodClosed sin tocar nada.
func (uc *UseCase) ClosePeriod(ctx context.Context, periodID, closedBy string) (*entity.PeriodReport, error) {
	if periodID == "" {
		return nil, domain.ErrInvalidInput
	}

	var report *entity.PeriodReport
	err := uc.txRunner.RunClose(ctx, func(
		periods repository.PeriodRepository,
		reports repository.ReportRepository,
		items repository.InventoryItemRepository,
		invoices repository.SupplierInvoiceRepository,
	) error {
		period, err := periods.GetForUpdate(periodID)
		if err != nil {
			return fmt.Errorf("cargar periodo: %w", err)
		}
		if period == nil {
			return domain.ErrNotFound
		}
		if period.Status == entity.PeriodStatusClosed {
			return domain.ErrPeriodClosed
		}

		begin := decimal.Zero
		prev, err := periods.LatestClosedEndingBefore(period.StartsAt)
		if err != nil {
			return fmt.Errorf("buscar periodo anterior: %w", err)
		}
		if prev != nil {
			prevReport, err := reports.GetByPeriodID(prev.ID)
			if err != nil {
				return fmt.Errorf("cargar reporte anterior: %w", err)
			}
			if prevReport != nil {
				begin = prevReport.EndInventoryValue
			}
		}

		active, err := items.ListActive()
		if err != nil {
			return fmt.Errorf("listar artículos: %w", err)
		}
		end := decimal.Zero
		valuations := make([]*entity.InventoryValuation, 0, len(active))
		for _, item := range active {
			value := invdomain.ValueOnHand(item)
			end = end.Add(value)
			valuations = append(valuations, &entity.InventoryValuation{
				ID:       uuid.NewString(),
				PeriodID: period.ID,
				ItemID:   item.ID,
				Quantity: item.CurrentStock,
				UnitCost: item.UnitCost,
				Value:    value,
				Method:   entity.ValuationMethodWeightedAverage,
			})
		}
		end = invdomain.Round2(end)

		purchases, err := invoices.SumConfirmedInRange(period.StartsAt, period.EndsAt)
		if err != nil {
			return fmt.Errorf("sumar compras del periodo: %w", err)
		}
		purchases = invdomain.Round2(purchases)

		report = &entity.PeriodReport{
			ID:                  uuid.NewString(),
			PeriodID:            period.ID,
			BeginInventoryValue: invdomain.Round2(begin),
			EndInventoryValue:   end,
			PurchasesValue:      purchases,
			CogsValue:           invdomain.PeriodicCOGS(begin, purchases, end),
			Currency:            uc.currency,
		}
		if err := reports.CreateValuations(valuations); err != nil {
			return fmt.Errorf("guardar snapshot de valoración: %w", err)
		}
		if err := reports.CreateReport(report); err != nil {
			return fmt.Errorf("guardar reporte: %w", err)
		}
		if err := periods.MarkClosed(period.ID, time.Now(), closedBy); err != nil {
			return fmt.Errorf("cerrar periodo: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("period_id", periodID).
		Str("cogs", report.CogsValue.String()).
		Str("closed_by", closedBy).
		Msg("Periodo cerrado")
	return report, nil
}

// GetReport devuelve el reporte de un periodo cerrado.
func (uc *UseCase) GetReport(ctx context.Context, periodID string) (*entity.PeriodReport, error) {
	report, err := uc.reports.GetByPeriodID(periodID)
	if err != nil {
		return nil, fmt.Errorf("cargar reporte: %w", err)
	}
	if report == nil {
		return nil, domain.ErrNotFound
	}
	return report, nil
}

// RenderReportPDF genera el PDF del reporte de cierre de un periodo.
func (uc *UseCase) RenderReportPDF(ctx context.Context, periodID string) ([]byte, error) {
	if uc.pdf == nil {
		return nil, fmt.Errorf("%w: generador de PDF no configurado", domain.ErrConfiguration)
	}
	period, err := uc.periods.GetByID(periodID)
	if err != nil {
		return nil, fmt.Errorf("cargar periodo: %w", err)
	}
	if period == nil {
		return nil, domain.ErrNotFound
	}
	report, err := uc.GetReport(ctx, periodID)
	if err != nil {
		return nil, err
	}
	valuations, err := uc.reports.ListValuations(periodID)
	if err != nil {
		return nil, fmt.Errorf("listar snapshot: %w", err)
	}
	return uc.pdf.Generate(period, report, valuations)
}
