package dto

import "time"

// SyncRequest es el cuerpo de POST /api/sync/sales.
type SyncRequest struct {
	DryRun bool `json:"dry_run"`
}

// SyncResult resume una corrida (real o dry-run) para el caller.
type SyncResult struct {
	RunID            string     `json:"run_id,omitempty"` // vacío en dry-run
	DryRun           bool       `json:"dry_run"`
	OrdersFetched    int        `json:"orders_fetched"`
	OrdersIngested   int        `json:"orders_ingested"`
	OrdersSkipped    int        `json:"orders_skipped"`
	AutoDecrements   int64      `json:"auto_decrements"` // unidades
	ManualLines      int64      `json:"manual_lines"`    // unidades
	IgnoredLines     int64      `json:"ignored_lines"`   // unidades
	MovementsCreated int        `json:"movements_created"`
	LastOrderAt      *time.Time `json:"last_order_at,omitempty"`
	// ItemErrors lista fallas por artículo al aplicar descuentos; la corrida
	// continúa con el resto (aplicación parcial documentada).
	ItemErrors []string `json:"item_errors,omitempty"`
}

// SyncRunDTO es una corrida en GET /api/sync/runs.
type SyncRunDTO struct {
	ID               string     `json:"id"`
	Status           string     `json:"status"`
	StartedAt        time.Time  `json:"started_at"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
	LastOrderAt      *time.Time `json:"last_order_at,omitempty"`
	OrdersFetched    int        `json:"orders_fetched"`
	OrdersIngested   int        `json:"orders_ingested"`
	OrdersSkipped    int        `json:"orders_skipped"`
	AutoDecrements   int64      `json:"auto_decrements"`
	ManualLines      int64      `json:"manual_lines"`
	IgnoredLines     int64      `json:"ignored_lines"`
	MovementsCreated int        `json:"movements_created"`
	ErrorMessage     string     `json:"error_message,omitempty"`
}
