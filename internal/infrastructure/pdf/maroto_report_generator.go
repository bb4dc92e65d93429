// Package pdf implementa la generación del reporte de cierre de periodo.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Reporte de cierre  │  Tipo + ventana del periodo   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: Inicial / Compras / Final / COGS                  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Artículo | Cantidad | Costo Unit | Valor            │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/cafetero/cafeteria-api/internal/application/costing"
	"github.com/cafetero/cafeteria-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ costing.ReportPDFGenerator = (*MarotoReportGenerator)(nil)

// MarotoReportGenerator implementa costing.ReportPDFGenerator usando Maroto v2.
type MarotoReportGenerator struct{}

// NewMarotoReportGenerator construye el generador.
func NewMarotoReportGenerator() *MarotoReportGenerator { return &MarotoReportGenerator{} }

// Generate genera el PDF del reporte y devuelve sus bytes.
func (g *MarotoReportGenerator) Generate(
	period *entity.Period,
	report *entity.PeriodReport,
	valuations []*entity.InventoryValuation,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte de cierre de periodo", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(period))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range valuationRows(valuations) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(report))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título (izq) y tipo + ventana del periodo (der).
func headerRow(period *entity.Period) core.Row {
	window := fmt.Sprintf("%s — %s",
		period.StartsAt.Format("02/01/2006"),
		period.EndsAt.Format("02/01/2006"),
	)
	return row.New(16).Add(
		col.New(7).Add(
			text.New("REPORTE DE CIERRE DE PERIODO", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Valoración a costo promedio ponderado", props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("Periodo "+period.Type, props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 1,
			}),
			text.New(window, props.Text{
				Size: 9, Align: align.Right, Top: 8, Color: colorGray,
			}),
		),
	)
}

// summaryRow: los cuatro valores del cierre en una banda.
func summaryRow(report *entity.PeriodReport) core.Row {
	cell := func(label, value string) core.Col {
		return col.New(3).Add(
			text.New(label, props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Center,
				Color: colorGray, Top: 1,
			}),
			text.New(value, props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Center,
				Color: colorPrimary, Top: 7,
			}),
		)
	}
	return row.New(16).Add(
		cell("Inventario inicial", money(report.BeginInventoryValue.StringFixed(2), report.Currency)),
		cell("Compras", money(report.PurchasesValue.StringFixed(2), report.Currency)),
		cell("Inventario final", money(report.EndInventoryValue.StringFixed(2), report.Currency)),
		cell("COGS", money(report.CogsValue.StringFixed(2), report.Currency)),
	)
}

// tableHeaderRow: cabecera de la tabla de snapshot de valoración.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Artículo", 6, align.Left),
		h("Cantidad", 2, align.Right),
		h("Costo Unit.", 2, align.Right),
		h("Valor", 2, align.Right),
	)
}

// valuationRows: una fila por artículo del snapshot.
func valuationRows(valuations []*entity.InventoryValuation) []core.Row {
	result := make([]core.Row, 0, len(valuations))
	for _, v := range valuations {
		result = append(result, row.New(6).Add(
			col.New(6).Add(text.New(
				v.ItemID,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				fmt.Sprintf("%d", v.Quantity),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(2).Add(text.New(
				v.UnitCost.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(2).Add(text.New(
				v.Value.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// footerRow: fórmula aplicada, para auditoría del número.
func footerRow(report *entity.PeriodReport) core.Row {
	formula := fmt.Sprintf("COGS = %s + %s − %s = %s",
		report.BeginInventoryValue.StringFixed(2),
		report.PurchasesValue.StringFixed(2),
		report.EndInventoryValue.StringFixed(2),
		report.CogsValue.StringFixed(2),
	)
	return row.New(8).Add(col.New(12).Add(
		text.New(formula, props.Text{Size: 7, Color: colorGray, Top: 2}),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func money(v, currency string) string {
	if currency == "" {
		return v
	}
	return v + " " + currency
}
