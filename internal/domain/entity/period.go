package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos y estados de periodo contable.
const (
	PeriodTypeWeekly  = "weekly"
	PeriodTypeMonthly = "monthly"
	PeriodTypeAnnual  = "annual"
	PeriodTypeCustom  = "custom"

	PeriodStatusOpen   = "open"
	PeriodStatusClosed = "closed"
)

// Period es una ventana contable. La transición open → closed es de una sola
// vía: un periodo cerrado nunca se reabre, y su Report es definitivo.
type Period struct {
	ID        string
	Type      string
	StartsAt  time.Time
	EndsAt    time.Time // invariante: EndsAt > StartsAt
	Status    string
	ClosedAt  *time.Time
	ClosedBy  string
	CreatedAt time.Time
}

// PeriodReport es el resultado del cierre, uno a uno con su Period cerrado.
// CogsValue = round2(Begin + Purchases − End); puede ser negativo.
type PeriodReport struct {
	ID                  string
	PeriodID            string
	BeginInventoryValue decimal.Decimal
	EndInventoryValue   decimal.Decimal
	PurchasesValue      decimal.Decimal
	CogsValue           decimal.Decimal
	Currency            string
	CreatedAt           time.Time
}

// Método de valoración registrado en los snapshots.
const ValuationMethodWeightedAverage = "weighted_average"

// InventoryValuation es el snapshot por artículo tomado en el cierre de un
// periodo. Se crea una sola vez y nunca se muta.
type InventoryValuation struct {
	ID        string
	PeriodID  string
	ItemID    string
	Quantity  int64
	UnitCost  decimal.Decimal
	Value     decimal.Decimal // Quantity × UnitCost, redondeado a 2 decimales
	Method    string
	CreatedAt time.Time
}
