package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/cafetero/cafeteria-api/internal/domain/entity"
)

// Round2 redondea a 2 decimales. Todo valor monetario se redondea en cada
// frontera de cálculo para que la deriva de punto flotante no se acumule
// entre periodos.
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// WeightedAverageCost implementa costo promedio ponderado (servicio de dominio):
// NuevoCosto = ((StockActual × CostoActual) + (CantEntrada × CostoEntrada)) / (StockActual + CantEntrada)
func WeightedAverageCost(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	sum := stockActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return num.Div(sum)
}

// PeriodicCOGS calcula el costo de ventas del periodo:
// COGS = round2(inventario inicial + compras − inventario final).
// Un COGS negativo es válido (el inventario creció más que las compras
// registradas) y no se recorta.
func PeriodicCOGS(begin, purchases, end decimal.Decimal) decimal.Decimal {
	return Round2(begin.Add(purchases).Sub(end))
}

// ValueOnHand valora un artículo a costo promedio: stock × costo unitario,
// redondeado a 2 decimales.
func ValueOnHand(item *entity.InventoryItem) decimal.Decimal {
	return Round2(decimal.NewFromInt(item.CurrentStock).Mul(item.UnitCost))
}
