package entity

import "time"

// Estados de una corrida de sincronización de ventas.
const (
	SyncRunStatusPending = "pending"
	SyncRunStatusSuccess = "success"
	SyncRunStatusError   = "error"
)

// SyncRun registra una invocación del motor de sincronización de ventas.
// La fila se crea en pending antes de cualquier llamada externa. Solo el
// cursor de la última corrida success es autoritativo para reanudar; una
// corrida en error no toca el cursor, de modo que el reintento repite la
// misma ventana.
type SyncRun struct {
	ID           string
	Status       string
	Cursor       string     // cursor externo al completar la corrida
	LastOrderAt  *time.Time // created_at de la orden más reciente observada
	StartedAt    time.Time
	FinishedAt   *time.Time
	ErrorMessage string

	// Contadores agregados de la corrida.
	OrdersFetched    int
	OrdersIngested   int
	OrdersSkipped    int   // ya existentes (idempotencia)
	AutoDecrements   int64 // unidades descontadas automáticamente
	ManualLines      int64 // unidades que esperan deducción manual vía receta
	IgnoredLines     int64 // unidades sin artículo de inventario resuelto
	MovementsCreated int
}
