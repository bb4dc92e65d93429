package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cafetero/cafeteria-api/internal/domain/entity"
	"github.com/cafetero/cafeteria-api/internal/domain/repository"
)

var _ repository.SyncRunRepository = (*SyncRunRepo)(nil)

const syncRunColumns = `
	id, status, COALESCE(cursor, ''), last_order_at, started_at, finished_at,
	COALESCE(error_message, ''), orders_fetched, orders_ingested, orders_skipped,
	auto_decrements, manual_lines, ignored_lines, movements_created`

// SyncRunRepo implementación de SyncRunRepository sobre PostgreSQL.
type SyncRunRepo struct {
	q Querier
}

// NewSyncRunRepository construye el adaptador de corridas de sync.
func NewSyncRunRepository(q Querier) *SyncRunRepo {
	return &SyncRunRepo{q: q}
}

// Create inserta la corrida en pending, antes de cualquier llamada externa.
func (r *SyncRunRepo) Create(run *entity.SyncRun) error {
	query := `
		INSERT INTO sync_runs (id, status, started_at)
		VALUES ($1, $2, $3)`
	_, err := r.q.Exec(context.Background(), query, run.ID, run.Status, run.StartedAt)
	if err != nil {
		return fmt.Errorf("create sync run: %w", err)
	}
	return nil
}

// Update persiste el estado final de la corrida con sus contadores.
func (r *SyncRunRepo) Update(run *entity.SyncRun) error {
	query := `
		UPDATE sync_runs SET
			status = $2, cursor = $3, last_order_at = $4, finished_at = $5,
			error_message = $6, orders_fetched = $7, orders_ingested = $8,
			orders_skipped = $9, auto_decrements = $10, manual_lines = $11,
			ignored_lines = $12, movements_created = $13
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query,
		run.ID, run.Status, nullIfEmpty(run.Cursor), run.LastOrderAt, run.FinishedAt,
		nullIfEmpty(run.ErrorMessage), run.OrdersFetched, run.OrdersIngested,
		run.OrdersSkipped, run.AutoDecrements, run.ManualLines,
		run.IgnoredLines, run.MovementsCreated,
	)
	if err != nil {
		return fmt.Errorf("update sync run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update sync run: corrida %s no existe", run.ID)
	}
	return nil
}

// LatestSuccess devuelve la última corrida success (nil si no hay). Su cursor
// y last_order_at son el punto de reanudación autoritativo.
func (r *SyncRunRepo) LatestSuccess() (*entity.SyncRun, error) {
	query := `SELECT` + syncRunColumns + `
		FROM sync_runs
		WHERE status = $1
		ORDER BY finished_at DESC
		LIMIT 1`
	run, err := r.scanOne(r.q.QueryRow(context.Background(), query, entity.SyncRunStatusSuccess))
	if err != nil {
		return nil, fmt.Errorf("latest success sync run: %w", err)
	}
	return run, nil
}

// ListRecent devuelve las corridas más recientes.
func (r *SyncRunRepo) ListRecent(limit int) ([]*entity.SyncRun, error) {
	query := `SELECT` + syncRunColumns + `
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT $1`
	rows, err := r.q.Query(context.Background(), query, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*entity.SyncRun
	for rows.Next() {
		var run entity.SyncRun
		if err := rows.Scan(
			&run.ID, &run.Status, &run.Cursor, &run.LastOrderAt, &run.StartedAt,
			&run.FinishedAt, &run.ErrorMessage, &run.OrdersFetched, &run.OrdersIngested,
			&run.OrdersSkipped, &run.AutoDecrements, &run.ManualLines,
			&run.IgnoredLines, &run.MovementsCreated,
		); err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

func (r *SyncRunRepo) scanOne(row pgx.Row) (*entity.SyncRun, error) {
	var run entity.SyncRun
	err := row.Scan(
		&run.ID, &run.Status, &run.Cursor, &run.LastOrderAt, &run.StartedAt,
		&run.FinishedAt, &run.ErrorMessage, &run.OrdersFetched, &run.OrdersIngested,
		&run.OrdersSkipped, &run.AutoDecrements, &run.ManualLines,
		&run.IgnoredLines, &run.MovementsCreated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}
