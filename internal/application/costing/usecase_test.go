package costing_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cafetero/cafeteria-api/internal/application/costing"
	"github.com/cafetero/cafeteria-api/internal/application/dto"
	"github.com/cafetero/cafeteria-api/internal/domain"
	"github.com/cafetero/cafeteria-api/internal/domain/entity"
	"github.com/cafetero/cafeteria-api/internal/domain/repository"
	"github.com/cafetero/cafeteria-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
// ──────────────────────────────────────────────────────────────────────────────

type memPeriods struct {
	rows map[string]*entity.Period
}

func (m *memPeriods) Create(p *entity.Period) error {
	m.rows[p.ID] = p
	return nil
}
func (m *memPeriods) GetByID(id string) (*entity.Period, error)      { return m.rows[id], nil }
func (m *memPeriods) GetForUpdate(id string) (*entity.Period, error) { return m.rows[id], nil }
func (m *memPeriods) List(limit int) ([]*entity.Period, error) {
	var out []*entity.Period
	for _, p := range m.rows {
		out = append(out, p)
	}
	return out, nil
}
func (m *memPeriods) MarkClosed(id string, closedAt time.Time, closedBy string) error {
	p, ok := m.rows[id]
	if !ok || p.Status != entity.PeriodStatusOpen {
		return domain.ErrPeriodClosed
	}
	p.Status = entity.PeriodStatusClosed
	p.ClosedAt = &closedAt
	p.ClosedBy = closedBy
	return nil
}
func (m *memPeriods) LatestClosedEndingBefore(t time.Time) (*entity.Period, error) {
	var best *entity.Period
	for _, p := range m.rows {
		if p.Status != entity.PeriodStatusClosed || p.EndsAt.After(t) {
			continue
		}
		if best == nil || p.EndsAt.After(best.EndsAt) {
			best = p
		}
	}
	return best, nil
}

type memReports struct {
	reports    map[string]*entity.PeriodReport // por period_id
	valuations []*entity.InventoryValuation
}

func (m *memReports) CreateReport(r *entity.PeriodReport) error {
	if _, exists := m.reports[r.PeriodID]; exists {
		return domain.ErrDuplicate
	}
	m.reports[r.PeriodID] = r
	return nil
}
func (m *memReports) GetByPeriodID(periodID string) (*entity.PeriodReport, error) {
	return m.reports[periodID], nil
}
func (m *memReports) CreateValuations(vs []*entity.InventoryValuation) error {
	m.valuations = append(m.valuations, vs...)
	return nil
}
func (m *memReports) ListValuations(periodID string) ([]*entity.InventoryValuation, error) {
	var out []*entity.InventoryValuation
	for _, v := range m.valuations {
		if v.PeriodID == periodID {
			out = append(out, v)
		}
	}
	return out, nil
}

type stockItems struct {
	rows []*entity.InventoryItem
}

func (s *stockItems) GetByID(string) (*entity.InventoryItem, error)         { return nil, nil }
func (s *stockItems) GetByExternalID(string) (*entity.InventoryItem, error) { return nil, nil }
func (s *stockItems) GetForUpdate(string) (*entity.InventoryItem, error)    { return nil, nil }
func (s *stockItems) ListActive() ([]*entity.InventoryItem, error)          { return s.rows, nil }
func (s *stockItems) UpdateStock(string, int64) error                       { return nil }
func (s *stockItems) UpdateUnitCost(string, decimal.Decimal) error          { return nil }
func (s *stockItems) UpdateExternalID(string, string) error                 { return nil }

type purchasesStub struct {
	total decimal.Decimal
}

func (p *purchasesStub) GetByID(string) (*entity.SupplierInvoice, error)       { return nil, nil }
func (p *purchasesStub) Create(*entity.SupplierInvoice) error                  { return nil }
func (p *purchasesStub) UpdateItemMatch(string, string, float64, string) error { return nil }
func (p *purchasesStub) MarkConfirmed(string, time.Time) error                 { return nil }
func (p *purchasesStub) SumConfirmedInRange(from, to time.Time) (decimal.Decimal, error) {
	return p.total, nil
}

// fakeCloser ejecuta el cierre sin transacción real.
type fakeCloser struct {
	periods  *memPeriods
	reports  *memReports
	items    *stockItems
	invoices *purchasesStub
}

func (f *fakeCloser) RunClose(_ context.Context, fn func(
	repository.PeriodRepository,
	repository.ReportRepository,
	repository.InventoryItemRepository,
	repository.SupplierInvoiceRepository,
) error) error {
	return fn(f.periods, f.reports, f.items, f.invoices)
}

type costingFixture struct {
	uc      *costing.UseCase
	periods *memPeriods
	reports *memReports
	items   *stockItems
	compras *purchasesStub
}

func newCostingFixture() *costingFixture {
	periods := &memPeriods{rows: map[string]*entity.Period{}}
	reports := &memReports{reports: map[string]*entity.PeriodReport{}}
	items := &stockItems{}
	compras := &purchasesStub{total: decimal.Zero}
	closer := &fakeCloser{periods: periods, reports: reports, items: items, invoices: compras}
	log := logger.Nop()
	uc := costing.NewUseCase(periods, reports, closer, nil, "COP", log)
	return &costingFixture{uc: uc, periods: periods, reports: reports, items: items, compras: compras}
}

var (
	pStart = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	pEnd   = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
)

func openPeriod(id string) *entity.Period {
	return &entity.Period{
		ID: id, Type: entity.PeriodTypeMonthly,
		StartsAt: pStart, EndsAt: pEnd,
		Status: entity.PeriodStatusOpen,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// ClosePeriod
// ──────────────────────────────────────────────────────────────────────────────

// COGS = inicial + compras − final, con snapshot por artículo.
func TestClosePeriod_CalculaCOGS(t *testing.T) {
	f := newCostingFixture()
	f.periods.rows["p1"] = openPeriod("p1")

	// periodo anterior cerrado cuyo reporte aporta el inicial (100)
	prevEnd := pStart
	f.periods.rows["p0"] = &entity.Period{
		ID: "p0", Type: entity.PeriodTypeMonthly,
		StartsAt: prevEnd.AddDate(0, -1, 0), EndsAt: prevEnd,
		Status: entity.PeriodStatusClosed,
	}
	f.reports.reports["p0"] = &entity.PeriodReport{
		PeriodID: "p0", EndInventoryValue: decimal.NewFromInt(100),
	}

	// inventario actual: 20 × 3.00 + 10 × 2.00 = 80
	f.items.rows = []*entity.InventoryItem{
		{ID: "a", CurrentStock: 20, UnitCost: decimal.NewFromInt(3)},
		{ID: "b", CurrentStock: 10, UnitCost: decimal.NewFromInt(2)},
	}
	f.compras.total = decimal.NewFromInt(250)

	report, err := f.uc.ClosePeriod(context.Background(), "p1", "gerente-1")

	require.NoError(t, err)
	assert.True(t, report.BeginInventoryValue.Equal(decimal.NewFromInt(100)))
	assert.True(t, report.EndInventoryValue.Equal(decimal.NewFromInt(80)))
	assert.True(t, report.PurchasesValue.Equal(decimal.NewFromInt(250)))
	assert.True(t, report.CogsValue.Equal(decimal.NewFromInt(270)), "100 + 250 − 80 = 270, obtuvo %s", report.CogsValue)
	assert.Equal(t, "COP", report.Currency)

	// snapshot por artículo, inmutable
	vals, _ := f.reports.ListValuations("p1")
	require.Len(t, vals, 2)
	assert.Equal(t, entity.ValuationMethodWeightedAverage, vals[0].Method)

	// transición open → closed con auditoría
	assert.Equal(t, entity.PeriodStatusClosed, f.periods.rows["p1"].Status)
	assert.Equal(t, "gerente-1", f.periods.rows["p1"].ClosedBy)
}

// Sin periodo anterior cerrado el inicial es cero; un COGS negativo es
// válido y se reporta tal cual.
func TestClosePeriod_COGSNegativoEsValido(t *testing.T) {
	f := newCostingFixture()
	f.periods.rows["p1"] = openPeriod("p1")
	f.items.rows = []*entity.InventoryItem{
		{ID: "a", CurrentStock: 100, UnitCost: decimal.NewFromInt(5)}, // final = 500
	}
	f.compras.total = decimal.NewFromInt(120)

	report, err := f.uc.ClosePeriod(context.Background(), "p1", "gerente-1")

	require.NoError(t, err)
	assert.True(t, report.BeginInventoryValue.IsZero())
	assert.True(t, report.CogsValue.Equal(decimal.NewFromInt(-380)), "0 + 120 − 500 = −380, obtuvo %s", report.CogsValue)
}

// El cierre es de una sola vía: cerrar dos veces devuelve ErrPeriodClosed y
// el reporte original queda intacto.
func TestClosePeriod_SegundoCierreFalla(t *testing.T) {
	f := newCostingFixture()
	f.periods.rows["p1"] = openPeriod("p1")

	first, err := f.uc.ClosePeriod(context.Background(), "p1", "gerente-1")
	require.NoError(t, err)

	_, err = f.uc.ClosePeriod(context.Background(), "p1", "gerente-2")
	assert.ErrorIs(t, err, domain.ErrPeriodClosed)

	got, _ := f.reports.GetByPeriodID("p1")
	assert.Equal(t, first.ID, got.ID, "el reporte original no se toca")
	assert.Equal(t, "gerente-1", f.periods.rows["p1"].ClosedBy)
}

// Periodo inexistente devuelve ErrNotFound.
func TestClosePeriod_PeriodoInexistente(t *testing.T) {
	f := newCostingFixture()

	_, err := f.uc.ClosePeriod(context.Background(), "fantasma", "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// CreatePeriod / GetReport
// ──────────────────────────────────────────────────────────────────────────────

func TestCreatePeriod_ValidaVentanaYTipo(t *testing.T) {
	f := newCostingFixture()

	_, err := f.uc.CreatePeriod(context.Background(), dto.CreatePeriodRequest{
		Type: "quincenal", StartsAt: pStart, EndsAt: pEnd,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.CreatePeriod(context.Background(), dto.CreatePeriodRequest{
		Type: entity.PeriodTypeMonthly, StartsAt: pEnd, EndsAt: pStart,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	p, err := f.uc.CreatePeriod(context.Background(), dto.CreatePeriodRequest{
		Type: entity.PeriodTypeMonthly, StartsAt: pStart, EndsAt: pEnd,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.PeriodStatusOpen, p.Status)
}

func TestGetReport_SinReporteEsNotFound(t *testing.T) {
	f := newCostingFixture()
	f.periods.rows["p1"] = openPeriod("p1")

	_, err := f.uc.GetReport(context.Background(), "p1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// RenderReportPDF
// ──────────────────────────────────────────────────────────────────────────────

type stubPDF struct {
	valuations int
}

func (s *stubPDF) Generate(_ *entity.Period, _ *entity.PeriodReport, vs []*entity.InventoryValuation) ([]byte, error) {
	s.valuations = len(vs)
	return []byte("%PDF-1.7"), nil
}

func TestRenderReportPDF_DelegaEnElGenerador(t *testing.T) {
	f := newCostingFixture()
	f.periods.rows["p1"] = openPeriod("p1")
	f.items.rows = []*entity.InventoryItem{
		{ID: "a", CurrentStock: 5, UnitCost: decimal.NewFromInt(2)},
	}
	_, err := f.uc.ClosePeriod(context.Background(), "p1", "gerente-1")
	require.NoError(t, err)

	pdf := &stubPDF{}
	uc := costing.NewUseCase(f.periods, f.reports, nil, pdf, "COP", logger.Nop())

	bytes, err := uc.RenderReportPDF(context.Background(), "p1")

	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7"), bytes)
	assert.Equal(t, 1, pdf.valuations, "el PDF incluye el snapshot por artículo")
}

func TestRenderReportPDF_SinGeneradorConfigurado(t *testing.T) {
	f := newCostingFixture() // pdf nil

	_, err := f.uc.RenderReportPDF(context.Background(), "p1")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
