package salesync

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cafetero/cafeteria-api/internal/domain"
)

// POSLineItem es una línea de orden del POS ya validada en la frontera.
type POSLineItem struct {
	UID             string
	Name            string
	CatalogObjectID string // id de variación; vacío = línea ad-hoc sin catálogo
	Quantity        int64
	UnitPrice       decimal.Decimal
}

// POSOrder es una orden completada del POS ya validada en la frontera.
type POSOrder struct {
	ID        string
	CreatedAt time.Time
	Total     decimal.Decimal
	Currency  string
	LineItems []POSLineItem
}

// POSOrderPage es una página del endpoint de búsqueda de órdenes.
// NextCursor vacío indica última página.
type POSOrderPage struct {
	Orders     []POSOrder
	NextCursor string
}

// POSClient es el puerto hacia el endpoint de búsqueda de órdenes del POS:
// paginado por cursor, filtrado por created_at >= since, orden ascendente.
// since en cero significa "desde el principio".
type POSClient interface {
	SearchCompletedOrders(ctx context.Context, since time.Time, cursor string) (POSOrderPage, error)
}

// RunLocker es el lock de nivel corrida: evita que dos sincronizaciones
// concurrentes lean el mismo cursor y dupliquen descuentos. Devuelve la
// función de liberación, o domain.ErrSyncInProgress si el lock está tomado.
type RunLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// MutexLocker es el RunLocker en proceso (despliegues de una sola réplica y
// tests). Para varias réplicas se usa el lock distribuido sobre Redis.
type MutexLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewMutexLocker construye el locker en proceso.
func NewMutexLocker() *MutexLocker {
	return &MutexLocker{held: make(map[string]bool)}
}

// Acquire implementa RunLocker. El TTL se ignora: el lock vive hasta release.
func (l *MutexLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, domain.ErrSyncInProgress
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}, nil
}
