// Package redis implementa el lock distribuido de nivel corrida sobre
// Redis. En despliegues de varias réplicas evita que dos sincronizaciones
// lean el mismo cursor y dupliquen descuentos.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"

	"github.com/cafetero/cafeteria-api/pkg/logger"

	"github.com/cafetero/cafeteria-api/internal/application/salesync"
	"github.com/cafetero/cafeteria-api/internal/domain"
)

var _ salesync.RunLocker = (*RunLocker)(nil)

// RunLocker implementa salesync.RunLocker con redislock.
type RunLocker struct {
	locker *redislock.Client
	log    *logger.Logger
}

// NewRunLocker construye el locker sobre un cliente Redis ya conectado.
func NewRunLocker(client *goredis.Client, log *logger.Logger) *RunLocker {
	return &RunLocker{locker: redislock.New(client), log: log}
}

// Acquire toma el lock con el TTL dado, sin reintentos: si otra corrida lo
// tiene, devuelve domain.ErrSyncInProgress de inmediato.
func (l *RunLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lock, err := l.locker.Obtain(ctx, key, ttl, nil)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, domain.ErrSyncInProgress
		}
		return nil, fmt.Errorf("obtener lock %s: %w", key, err)
	}
	return func() {
		if err := lock.Release(context.Background()); err != nil {
			l.log.Warn().Err(err).Str("key", key).Msg("No se pudo liberar el lock")
		}
	}, nil
}
