package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cafetero/cafeteria-api/internal/domain"
	"github.com/cafetero/cafeteria-api/internal/domain/entity"
	"github.com/cafetero/cafeteria-api/internal/domain/repository"
)

var _ repository.PeriodRepository = (*PeriodRepo)(nil)
var _ repository.ReportRepository = (*ReportRepo)(nil)

// PeriodRepo implementación de PeriodRepository sobre PostgreSQL.
type PeriodRepo struct {
	q Querier
}

// NewPeriodRepository construye el adaptador de periodos.
func NewPeriodRepository(q Querier) *PeriodRepo {
	return &PeriodRepo{q: q}
}

// Create inserta un periodo abierto.
func (r *PeriodRepo) Create(p *entity.Period) error {
	query := `
		INSERT INTO periods (id, period_type, starts_at, ends_at, status, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`
	_, err := r.q.Exec(context.Background(), query, p.ID, p.Type, p.StartsAt, p.EndsAt, p.Status)
	if err != nil {
		return fmt.Errorf("create period: %w", err)
	}
	return nil
}

// GetByID obtiene un periodo por id (nil si no existe).
func (r *PeriodRepo) GetByID(id string) (*entity.Period, error) {
	query := `
		SELECT id, period_type, starts_at, ends_at, status, closed_at, COALESCE(closed_by, ''), created_at
		FROM periods WHERE id = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id), "get period")
}

// GetForUpdate bloquea la fila del periodo durante el cierre.
func (r *PeriodRepo) GetForUpdate(id string) (*entity.Period, error) {
	query := `
		SELECT id, period_type, starts_at, ends_at, status, closed_at, COALESCE(closed_by, ''), created_at
		FROM periods WHERE id = $1
		FOR UPDATE`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id), "get period for update")
}

// List devuelve los periodos más recientes.
func (r *PeriodRepo) List(limit int) ([]*entity.Period, error) {
	query := `
		SELECT id, period_type, starts_at, ends_at, status, closed_at, COALESCE(closed_by, ''), created_at
		FROM periods
		ORDER BY starts_at DESC
		LIMIT $1`
	rows, err := r.q.Query(context.Background(), query, limit)
	if err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	defer rows.Close()

	var periods []*entity.Period
	for rows.Next() {
		var p entity.Period
		if err := rows.Scan(&p.ID, &p.Type, &p.StartsAt, &p.EndsAt, &p.Status, &p.ClosedAt, &p.ClosedBy, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan period: %w", err)
		}
		periods = append(periods, &p)
	}
	return periods, rows.Err()
}

// MarkClosed ejecuta la transición open → closed. El WHERE sobre status
// garantiza que un periodo cerrado nunca se cierre dos veces aunque dos
// cierres compitan.
func (r *PeriodRepo) MarkClosed(id string, closedAt time.Time, closedBy string) error {
	query := `
		UPDATE periods SET status = $2, closed_at = $3, closed_by = $4
		WHERE id = $1 AND status = $5`
	tag, err := r.q.Exec(context.Background(), query,
		id, entity.PeriodStatusClosed, closedAt, nullIfEmpty(closedBy), entity.PeriodStatusOpen,
	)
	if err != nil {
		return fmt.Errorf("mark period closed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPeriodClosed
	}
	return nil
}

// LatestClosedEndingBefore devuelve el periodo cerrado más reciente cuyo fin
// es <= t (nil si no hay).
func (r *PeriodRepo) LatestClosedEndingBefore(t time.Time) (*entity.Period, error) {
	query := `
		SELECT id, period_type, starts_at, ends_at, status, closed_at, COALESCE(closed_by, ''), created_at
		FROM periods
		WHERE status = $1 AND ends_at <= $2
		ORDER BY ends_at DESC
		LIMIT 1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, entity.PeriodStatusClosed, t), "latest closed period")
}

func (r *PeriodRepo) scanOne(row pgx.Row, op string) (*entity.Period, error) {
	var p entity.Period
	err := row.Scan(&p.ID, &p.Type, &p.StartsAt, &p.EndsAt, &p.Status, &p.ClosedAt, &p.ClosedBy, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

// ReportRepo implementación de ReportRepository sobre PostgreSQL.
type ReportRepo struct {
	q Querier
}

// NewReportRepository construye el adaptador de reportes de cierre.
func NewReportRepository(q Querier) *ReportRepo {
	return &ReportRepo{q: q}
}

// CreateReport inserta el reporte de cierre (uno a uno con su periodo).
func (r *ReportRepo) CreateReport(rep *entity.PeriodReport) error {
	query := `
		INSERT INTO period_reports
			(id, period_id, begin_inventory_value, end_inventory_value, purchases_value, cogs_value, currency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())`
	_, err := r.q.Exec(context.Background(), query,
		rep.ID, rep.PeriodID, rep.BeginInventoryValue, rep.EndInventoryValue,
		rep.PurchasesValue, rep.CogsValue, rep.Currency,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: el periodo ya tiene reporte", domain.ErrDuplicate)
		}
		return fmt.Errorf("create period report: %w", err)
	}
	return nil
}

// GetByPeriodID obtiene el reporte de un periodo (nil si no hay).
func (r *ReportRepo) GetByPeriodID(periodID string) (*entity.PeriodReport, error) {
	query := `
		SELECT id, period_id, begin_inventory_value, end_inventory_value, purchases_value, cogs_value, currency, created_at
		FROM period_reports WHERE period_id = $1`
	var rep entity.PeriodReport
	err := r.q.QueryRow(context.Background(), query, periodID).Scan(
		&rep.ID, &rep.PeriodID, &rep.BeginInventoryValue, &rep.EndInventoryValue,
		&rep.PurchasesValue, &rep.CogsValue, &rep.Currency, &rep.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get period report: %w", err)
	}
	return &rep, nil
}

// CreateValuations inserta el snapshot de valoración del cierre.
func (r *ReportRepo) CreateValuations(vs []*entity.InventoryValuation) error {
	query := `
		INSERT INTO inventory_valuations
			(id, period_id, item_id, quantity, unit_cost, value, method, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())`
	for _, v := range vs {
		_, err := r.q.Exec(context.Background(), query,
			v.ID, v.PeriodID, v.ItemID, v.Quantity, v.UnitCost, v.Value, v.Method,
		)
		if err != nil {
			return fmt.Errorf("create valuation: %w", err)
		}
	}
	return nil
}

// ListValuations devuelve el snapshot de un periodo.
func (r *ReportRepo) ListValuations(periodID string) ([]*entity.InventoryValuation, error) {
	query := `
		SELECT id, period_id, item_id, quantity, unit_cost, value, method, created_at
		FROM inventory_valuations
		WHERE period_id = $1
		ORDER BY item_id`
	rows, err := r.q.Query(context.Background(), query, periodID)
	if err != nil {
		return nil, fmt.Errorf("list valuations: %w", err)
	}
	defer rows.Close()

	var vals []*entity.InventoryValuation
	for rows.Next() {
		var v entity.InventoryValuation
		if err := rows.Scan(&v.ID, &v.PeriodID, &v.ItemID, &v.Quantity, &v.UnitCost, &v.Value, &v.Method, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan valuation: %w", err)
		}
		vals = append(vals, &v)
	}
	return vals, rows.Err()
}
