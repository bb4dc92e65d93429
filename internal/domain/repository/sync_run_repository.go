package repository

import "github.com/cafetero/cafeteria-api/internal/domain/entity"

// SyncRunRepository define el puerto de corridas de sincronización.
type SyncRunRepository interface {
	Create(run *entity.SyncRun) error
	Update(run *entity.SyncRun) error
	// LatestSuccess devuelve la última corrida success (nil si no hay):
	// ORDER BY finished_at DESC LIMIT 1. Su cursor es el punto de reanudación.
	LatestSuccess() (*entity.SyncRun, error)
	ListRecent(limit int) ([]*entity.SyncRun, error)
}
