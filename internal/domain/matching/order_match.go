package matching

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cafetero/cafeteria-api/internal/domain/entity"
)

// Parámetros del matching factura ↔ orden de compra.
const (
	orderMatchWindowDays  = 30
	orderMatchThreshold   = 0.3
	OrderAutoConfirmLevel = 0.7 // las confirmaciones automáticas exigen este mínimo
)

// OrderMatch es un candidato puntuado de orden de compra para una factura.
type OrderMatch struct {
	PurchaseOrderID  string
	Confidence       float64
	Reasons          []string
	QuantityVariance decimal.Decimal // Σqty factura − Σqty orden
	AmountVariance   decimal.Decimal // total factura − total orden
}

// MatchOrder puntúa las órdenes candidatas contra una factura. El proveedor
// es obligatorio: un candidato de otro proveedor jamás aparece en el
// resultado. Solo se consideran órdenes sent/confirmed con fecha a ±30 días.
func MatchOrder(supplierName string, invoiceDate time.Time, invoiceTotal decimal.Decimal, invoiceLines []InvoiceLine, candidates []*entity.PurchaseOrder) []OrderMatch {
	normSupplier := Normalize(supplierName)
	var out []OrderMatch

	for _, po := range candidates {
		if normSupplier == "" || Normalize(po.SupplierName) != normSupplier {
			continue
		}
		if po.Status != entity.PurchaseOrderStatusSent && po.Status != entity.PurchaseOrderStatusConfirmed {
			continue
		}
		gap := invoiceDate.Sub(po.OrderDate)
		if gap < 0 {
			gap = -gap
		}
		if gap > orderMatchWindowDays*24*time.Hour {
			continue
		}

		conf := 0.4
		reasons := []string{"mismo proveedor"}

		switch {
		case gap <= 7*24*time.Hour:
			conf += 0.2
			reasons = append(reasons, "fecha a ≤7 días")
		case gap <= 14*24*time.Hour:
			conf += 0.1
			reasons = append(reasons, "fecha a ≤14 días")
		}

		if !po.TotalAmount.IsZero() {
			diffPct := invoiceTotal.Sub(po.TotalAmount).Abs().Div(po.TotalAmount)
			switch {
			case diffPct.LessThanOrEqual(decimal.NewFromFloat(0.05)):
				conf += 0.2
				reasons = append(reasons, "monto dentro del 5%")
			case diffPct.LessThanOrEqual(decimal.NewFromFloat(0.15)):
				conf += 0.1
				reasons = append(reasons, "monto dentro del 15%")
			}
		}

		matchedLines := countMatchedLines(invoiceLines, po.Lines)
		denom := len(po.Lines)
		if len(invoiceLines) > denom {
			denom = len(invoiceLines)
		}
		if denom > 0 {
			ratio := float64(matchedLines) / float64(denom)
			conf += 0.2 * ratio
			reasons = append(reasons, fmt.Sprintf("%d/%d líneas coinciden", matchedLines, denom))
		}

		if conf < orderMatchThreshold {
			continue
		}

		out = append(out, OrderMatch{
			PurchaseOrderID:  po.ID,
			Confidence:       clamp01(conf),
			Reasons:          reasons,
			QuantityVariance: sumInvoiceQty(invoiceLines).Sub(sumOrderQty(po.Lines)),
			AmountVariance:   invoiceTotal.Sub(po.TotalAmount),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}

// countMatchedLines usa contención del primer token entre descripciones:
// una línea de factura cuenta si su primer token aparece en alguna línea de
// la orden (o al revés). Heurística deliberadamente simple.
func countMatchedLines(invoiceLines []InvoiceLine, orderLines []entity.PurchaseOrderLine) int {
	n := 0
	for _, il := range invoiceLines {
		if lineMatchesAny(il.Description, orderLines) {
			n++
		}
	}
	return n
}

func lineMatchesAny(desc string, orderLines []entity.PurchaseOrderLine) bool {
	tokens := Tokenize(desc)
	if len(tokens) == 0 {
		return false
	}
	first := tokens[0]
	for _, ol := range orderLines {
		normOl := Normalize(ol.Description)
		if strings.Contains(normOl, first) {
			return true
		}
		olTokens := strings.Fields(normOl)
		if len(olTokens) > 0 && strings.Contains(Normalize(desc), olTokens[0]) {
			return true
		}
	}
	return false
}

func sumInvoiceQty(lines []InvoiceLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Quantity)
	}
	return total
}

func sumOrderQty(lines []entity.PurchaseOrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Quantity)
	}
	return total
}
