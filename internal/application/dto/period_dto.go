package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreatePeriodRequest es el cuerpo de POST /api/periods.
type CreatePeriodRequest struct {
	Type     string    `json:"type"` // weekly, monthly, annual, custom
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

// PeriodDTO es un periodo en respuestas HTTP.
type PeriodDTO struct {
	ID       string     `json:"id"`
	Type     string     `json:"type"`
	StartsAt time.Time  `json:"starts_at"`
	EndsAt   time.Time  `json:"ends_at"`
	Status   string     `json:"status"`
	ClosedAt *time.Time `json:"closed_at,omitempty"`
	ClosedBy string     `json:"closed_by,omitempty"`
}

// PeriodReportDTO es el reporte de cierre.
type PeriodReportDTO struct {
	PeriodID            string          `json:"period_id"`
	BeginInventoryValue decimal.Decimal `json:"begin_inventory_value"`
	EndInventoryValue   decimal.Decimal `json:"end_inventory_value"`
	PurchasesValue      decimal.Decimal `json:"purchases_value"`
	CogsValue           decimal.Decimal `json:"cogs_value"`
	Currency            string          `json:"currency"`
}
