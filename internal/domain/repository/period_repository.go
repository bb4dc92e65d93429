package repository

import (
	"time"

	"github.com/cafetero/cafeteria-api/internal/domain/entity"
)

// PeriodRepository define el puerto de periodos contables.
type PeriodRepository interface {
	Create(p *entity.Period) error
	GetByID(id string) (*entity.Period, error)
	// GetForUpdate bloquea la fila del periodo durante el cierre.
	GetForUpdate(id string) (*entity.Period, error)
	List(limit int) ([]*entity.Period, error)
	// MarkClosed ejecuta la transición open → closed (una sola vía).
	MarkClosed(id string, closedAt time.Time, closedBy string) error
	// LatestClosedEndingBefore devuelve el periodo cerrado más reciente cuyo
	// fin es <= t (nil si no hay); su reporte aporta el valor inicial del
	// siguiente cierre.
	LatestClosedEndingBefore(t time.Time) (*entity.Period, error)
}

// ReportRepository define el puerto de reportes de cierre y snapshots de
// valoración. Ambos son append-only, creados atómicamente con el cierre.
type ReportRepository interface {
	CreateReport(r *entity.PeriodReport) error
	GetByPeriodID(periodID string) (*entity.PeriodReport, error)
	CreateValuations(vs []*entity.InventoryValuation) error
	ListValuations(periodID string) ([]*entity.InventoryValuation, error)
}
