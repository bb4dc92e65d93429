package matching_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cafetero/cafeteria-api/internal/domain/entity"
	"github.com/cafetero/cafeteria-api/internal/domain/matching"
)

// ──────────────────────────────────────────────────────────────────────────────
// Matching factura ↔ orden de compra
// ──────────────────────────────────────────────────────────────────────────────

func po(id, supplier string, date time.Time, total int64, status string) *entity.PurchaseOrder {
	return &entity.PurchaseOrder{
		ID:           id,
		SupplierName: supplier,
		OrderDate:    date,
		TotalAmount:  decimal.NewFromInt(total),
		Status:       status,
	}
}

// El proveedor es obligatorio: una orden de otro proveedor jamás aparece,
// aunque fecha y monto calcen perfecto.
func TestMatchOrder_ProveedorEsObligatorio(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	candidates := []*entity.PurchaseOrder{
		po("otro-proveedor", "Lácteos Andinos", date, 100000, entity.PurchaseOrderStatusSent),
	}

	out := matching.MatchOrder("Café del Huila", date, decimal.NewFromInt(100000), nil, candidates)

	assert.Empty(t, out, "órdenes de otro proveedor nunca son candidatas")
}

// Mismo proveedor, fecha a ≤7 días y monto dentro del 5% supera el nivel de
// auto-confirmación.
func TestMatchOrder_CandidatoFuerteSuperaAutoConfirmacion(t *testing.T) {
	invoiceDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	candidates := []*entity.PurchaseOrder{
		po("fuerte", "Café del Huila", invoiceDate.AddDate(0, 0, -2), 100000, entity.PurchaseOrderStatusSent),
	}

	out := matching.MatchOrder("cafe del huila", invoiceDate, decimal.NewFromInt(102000), nil, candidates)

	require.Len(t, out, 1)
	assert.Equal(t, "fuerte", out[0].PurchaseOrderID)
	assert.GreaterOrEqual(t, out[0].Confidence, matching.OrderAutoConfirmLevel)
}

// Las órdenes draft y received no son candidatas aunque todo lo demás calce.
func TestMatchOrder_SoloSentYConfirmed(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	candidates := []*entity.PurchaseOrder{
		po("borrador", "Proveedor X", date, 50000, entity.PurchaseOrderStatusDraft),
		po("recibida", "Proveedor X", date, 50000, entity.PurchaseOrderStatusReceived),
		po("enviada", "Proveedor X", date, 50000, entity.PurchaseOrderStatusSent),
	}

	out := matching.MatchOrder("Proveedor X", date, decimal.NewFromInt(50000), nil, candidates)

	require.Len(t, out, 1)
	assert.Equal(t, "enviada", out[0].PurchaseOrderID)
}

// Fuera de la ventana de ±30 días la orden no es candidata.
func TestMatchOrder_FueraDeVentanaDeTreintaDias(t *testing.T) {
	invoiceDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	candidates := []*entity.PurchaseOrder{
		po("vieja", "Proveedor X", invoiceDate.AddDate(0, 0, -45), 50000, entity.PurchaseOrderStatusSent),
	}

	out := matching.MatchOrder("Proveedor X", invoiceDate, decimal.NewFromInt(50000), nil, candidates)

	assert.Empty(t, out)
}

// El resultado viene ordenado por confianza descendente y las varianzas de
// monto llevan signo (factura − orden).
func TestMatchOrder_OrdenDescendenteYVarianzas(t *testing.T) {
	invoiceDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	candidates := []*entity.PurchaseOrder{
		po("lejana", "Proveedor X", invoiceDate.AddDate(0, 0, -20), 80000, entity.PurchaseOrderStatusSent),
		po("cercana", "Proveedor X", invoiceDate.AddDate(0, 0, -1), 50000, entity.PurchaseOrderStatusSent),
	}

	out := matching.MatchOrder("Proveedor X", invoiceDate, decimal.NewFromInt(49000), nil, candidates)

	require.Len(t, out, 2)
	assert.Equal(t, "cercana", out[0].PurchaseOrderID)
	assert.GreaterOrEqual(t, out[0].Confidence, out[1].Confidence)
	assert.True(t, out[0].AmountVariance.Equal(decimal.NewFromInt(-1000)), "varianza = factura − orden")
	for _, m := range out {
		assert.GreaterOrEqual(t, m.Confidence, 0.0)
		assert.LessOrEqual(t, m.Confidence, 1.0)
	}
}
