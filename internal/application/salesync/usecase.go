// Package salesync implementa el motor de sincronización de ventas:
// ingesta idempotente de órdenes completadas del POS, clasificación de
// impacto por línea y descuento condicional en el ledger.
package salesync

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	appcatalog "github.com/cafetero/cafeteria-api/internal/application/catalog"
	"github.com/cafetero/cafeteria-api/internal/application/dto"
	appinventory "github.com/cafetero/cafeteria-api/internal/application/inventory"
	"github.com/cafetero/cafeteria-api/internal/domain"
	"github.com/cafetero/cafeteria-api/internal/domain/entity"
	"github.com/cafetero/cafeteria-api/internal/domain/repository"
	"github.com/cafetero/cafeteria-api/pkg/logger"
)

// lockKey identifica el lock de corrida en el backend de locks.
const lockKey = "salesync:run"

// Config parametriza el motor.
type Config struct {
	// Overlap es el retroceso aplicado al timestamp de reanudación para
	// tolerar clock skew y órdenes visibles tarde en el origen.
	Overlap time.Duration
	// LockTTL acota la vida del lock de corrida si el proceso muere sin
	// liberarlo.
	LockTTL time.Duration
}

// DefaultConfig son los valores de producción: 60 s de solape, 5 min de TTL.
func DefaultConfig() Config {
	return Config{Overlap: 60 * time.Second, LockTTL: 5 * time.Minute}
}

// UseCase es el motor de sincronización. No serializa nada internamente más
// allá del RunLocker; cada invocación corre hasta completar o fallar.
type UseCase struct {
	runs     repository.SyncRunRepository
	sales    repository.SalesRepository
	resolver *appcatalog.Resolver
	ledger   *appinventory.LedgerUseCase
	pos      POSClient
	locker   RunLocker
	log      *logger.Logger
	cfg      Config
}

// NewUseCase construye el motor.
func NewUseCase(
	runs repository.SyncRunRepository,
	sales repository.SalesRepository,
	resolver *appcatalog.Resolver,
	ledger *appinventory.LedgerUseCase,
	pos POSClient,
	locker RunLocker,
	log *logger.Logger,
	cfg Config,
) *UseCase {
	return &UseCase{
		runs: runs, sales: sales, resolver: resolver, ledger: ledger,
		pos: pos, locker: locker, log: log, cfg: cfg,
	}
}

// Run ejecuta una corrida completa: reanuda desde la última corrida success
// (con solape hacia atrás), pagina el POS hasta agotar el cursor, ingiere
// órdenes de forma idempotente y aplica los descuentos automáticos
// agregados por artículo. En dry-run clasifica y devuelve métricas sin
// persistir nada.
func (uc *UseCase) Run(ctx context.Context, dryRun bool) (*dto.SyncResult, error) {
	if uc.pos == nil {
		return nil, fmt.Errorf("cliente POS: %w", domain.ErrConfiguration)
	}

	// Lock de nivel corrida: dos invocaciones concurrentes no deben leer el
	// mismo cursor. El dry-run no escribe, así que no compite.
	if !dryRun {
		release, err := uc.locker.Acquire(ctx, lockKey, uc.cfg.LockTTL)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	since, err := uc.resumePoint()
	if err != nil {
		return nil, err
	}

	run := &entity.SyncRun{
		ID:        uuid.New().String(),
		Status:    entity.SyncRunStatusPending,
		StartedAt: time.Now(),
	}
	if !dryRun {
		// La fila se crea antes de cualquier llamada externa.
		if err := uc.runs.Create(run); err != nil {
			return nil, fmt.Errorf("crear sync run: %w", err)
		}
	}

	result, runErr := uc.execute(ctx, run, since, dryRun)
	if runErr != nil {
		if !dryRun {
			uc.failRun(run, runErr)
		}
		return nil, runErr
	}

	if !dryRun {
		now := time.Now()
		run.Status = entity.SyncRunStatusSuccess
		run.FinishedAt = &now
		if err := uc.runs.Update(run); err != nil {
			return nil, fmt.Errorf("cerrar sync run: %w", err)
		}
		result.RunID = run.ID
	}
	return result, nil
}

// resumePoint calcula el timestamp desde el cual pedir órdenes: el de la
// orden más reciente de la última corrida success, menos el solape. Cero si
// nunca hubo una corrida exitosa.
func (uc *UseCase) resumePoint() (time.Time, error) {
	last, err := uc.runs.LatestSuccess()
	if err != nil {
		return time.Time{}, fmt.Errorf("última corrida success: %w", err)
	}
	if last == nil || last.LastOrderAt == nil {
		return time.Time{}, nil
	}
	return last.LastOrderAt.Add(-uc.cfg.Overlap), nil
}

func (uc *UseCase) execute(ctx context.Context, run *entity.SyncRun, since time.Time, dryRun bool) (*dto.SyncResult, error) {
	orders, lastCursor, err := uc.fetchAll(ctx, since)
	if err != nil {
		return nil, err
	}

	result := &dto.SyncResult{DryRun: dryRun}
	result.OrdersFetched = len(orders)

	// Agregado de descuentos automáticos: un solo descuento por artículo por
	// corrida, sumando todas las órdenes nuevas.
	autoTotals := make(map[string]int64)
	var lastOrderAt time.Time

	for _, order := range orders {
		if order.CreatedAt.After(lastOrderAt) {
			lastOrderAt = order.CreatedAt
		}
		exists, err := uc.sales.ExistsByExternalOrderID(order.ID)
		if err != nil {
			return nil, fmt.Errorf("check de idempotencia: %w", err)
		}
		if exists {
			result.OrdersSkipped++
			continue
		}

		tx, err := uc.classifyOrder(run.ID, order, result, autoTotals)
		if err != nil {
			return nil, err
		}
		if !dryRun {
			if err := uc.sales.CreateTransaction(tx); err != nil {
				return nil, fmt.Errorf("insertar transacción %s: %w", order.ID, err)
			}
		}
		result.OrdersIngested++
	}

	if !dryRun && len(autoTotals) > 0 {
		uc.applyAutoDecrements(ctx, run.ID, autoTotals, result)
	}

	if !lastOrderAt.IsZero() {
		result.LastOrderAt = &lastOrderAt
		run.LastOrderAt = &lastOrderAt
	}
	run.Cursor = lastCursor
	run.OrdersFetched = result.OrdersFetched
	run.OrdersIngested = result.OrdersIngested
	run.OrdersSkipped = result.OrdersSkipped
	run.AutoDecrements = result.AutoDecrements
	run.ManualLines = result.ManualLines
	run.IgnoredLines = result.IgnoredLines
	run.MovementsCreated = result.MovementsCreated
	return result, nil
}

// fetchAll sigue el cursor hasta que el POS no devuelva más páginas. No se
// asume ningún tamaño de página. Devuelve además el último cursor no vacío
// observado, que queda registrado en la corrida como checkpoint.
func (uc *UseCase) fetchAll(ctx context.Context, since time.Time) ([]POSOrder, string, error) {
	var all []POSOrder
	cursor := ""
	lastCursor := ""
	for {
		page, err := uc.pos.SearchCompletedOrders(ctx, since, cursor)
		if err != nil {
			return nil, "", err
		}
		all = append(all, page.Orders...)
		if page.NextCursor == "" {
			return all, lastCursor, nil
		}
		cursor = page.NextCursor
		lastCursor = page.NextCursor
	}
}

// classifyOrder arma la transacción espejo clasificando cada línea:
// auto (descuenta el sync), manual (espera deducción por receta) o ignored
// (sin artículo resuelto o no contabilizable).
func (uc *UseCase) classifyOrder(runID string, order POSOrder, result *dto.SyncResult, autoTotals map[string]int64) (*entity.SalesTransaction, error) {
	tx := &entity.SalesTransaction{
		ID:              uuid.New().String(),
		ExternalOrderID: order.ID,
		SyncRunID:       runID,
		OrderedAt:       order.CreatedAt,
		Total:           order.Total,
		Currency:        order.Currency,
		CreatedAt:       time.Now(),
	}

	for _, line := range order.LineItems {
		item, err := uc.resolver.ResolveInventoryItem(line.CatalogObjectID)
		if err != nil {
			return nil, err
		}

		txItem := entity.SalesTransactionItem{
			ID:              uuid.New().String(),
			TransactionID:   tx.ID,
			ExternalLineID:  line.UID,
			CatalogObjectID: line.CatalogObjectID,
			Name:            line.Name,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
		}

		switch {
		case item == nil:
			txItem.ImpactType = entity.ImpactTypeIgnored
			result.IgnoredLines += line.Quantity
		case item.AutoImpact():
			txItem.ImpactType = entity.ImpactTypeAuto
			txItem.InventoryItemID = item.ID
			autoTotals[item.ID] += line.Quantity
			result.AutoDecrements += line.Quantity
		case item.ItemType == entity.ItemTypePrepared, item.ItemType == entity.ItemTypeIngredient:
			txItem.ImpactType = entity.ImpactTypeManual
			txItem.InventoryItemID = item.ID
			result.ManualLines += line.Quantity
		default:
			txItem.ImpactType = entity.ImpactTypeIgnored
			txItem.InventoryItemID = item.ID
			result.IgnoredLines += line.Quantity
		}
		tx.Items = append(tx.Items, txItem)
	}
	return tx, nil
}

// applyAutoDecrements aplica el agregado por artículo en orden determinista.
// Una falla individual no detiene el lote: se registra y se sigue con el
// resto (cada descuento es seguro por su propia fila de ledger).
func (uc *UseCase) applyAutoDecrements(ctx context.Context, runID string, autoTotals map[string]int64, result *dto.SyncResult) {
	itemIDs := make([]string, 0, len(autoTotals))
	for id := range autoTotals {
		itemIDs = append(itemIDs, id)
	}
	sort.Strings(itemIDs)

	decs := make([]appinventory.Decrement, 0, len(itemIDs))
	for _, id := range itemIDs {
		decs = append(decs, appinventory.Decrement{
			ItemID:   id,
			Quantity: autoTotals[id],
			Note:     "ventas POS sincronizadas",
		})
	}

	for _, res := range uc.ledger.ApplyDecrements(ctx, entity.MovementTypeSale, "sync:"+runID, "salesync", decs) {
		if res.Applied() {
			result.MovementsCreated++
			continue
		}
		msg := fmt.Sprintf("artículo %s: %v", res.ItemID, res.Err)
		result.ItemErrors = append(result.ItemErrors, msg)
		uc.log.Error().Str("item_id", res.ItemID).Err(res.Err).Msg("descuento automático falló")
	}
}

// failRun marca la corrida en error sin tocar el cursor: el siguiente
// intento reanuda desde la última corrida success y repite la ventana.
func (uc *UseCase) failRun(run *entity.SyncRun, cause error) {
	now := time.Now()
	run.Status = entity.SyncRunStatusError
	run.FinishedAt = &now
	run.ErrorMessage = cause.Error()
	run.Cursor = ""
	run.LastOrderAt = nil
	if err := uc.runs.Update(run); err != nil {
		uc.log.Error().Err(err).Str("run_id", run.ID).Msg("no se pudo marcar la corrida en error")
	}
}

// ListRecent devuelve las corridas más recientes para la API.
func (uc *UseCase) ListRecent(limit int) ([]dto.SyncRunDTO, error) {
	if limit <= 0 {
		limit = 20
	}
	runs, err := uc.runs.ListRecent(limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SyncRunDTO, 0, len(runs))
	for _, r := range runs {
		out = append(out, dto.SyncRunDTO{
			ID:               r.ID,
			Status:           r.Status,
			StartedAt:        r.StartedAt,
			FinishedAt:       r.FinishedAt,
			LastOrderAt:      r.LastOrderAt,
			OrdersFetched:    r.OrdersFetched,
			OrdersIngested:   r.OrdersIngested,
			OrdersSkipped:    r.OrdersSkipped,
			AutoDecrements:   r.AutoDecrements,
			ManualLines:      r.ManualLines,
			IgnoredLines:     r.IgnoredLines,
			MovementsCreated: r.MovementsCreated,
			ErrorMessage:     r.ErrorMessage,
		})
	}
	return out, nil
}
