package salesync_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcatalog "github.com/cafetero/cafeteria-api/internal/application/catalog"
	appinv "github.com/cafetero/cafeteria-api/internal/application/inventory"
	"github.com/cafetero/cafeteria-api/internal/application/salesync"
	"github.com/cafetero/cafeteria-api/internal/domain"
	"github.com/cafetero/cafeteria-api/internal/domain/entity"
	"github.com/cafetero/cafeteria-api/internal/domain/repository"
	"github.com/cafetero/cafeteria-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
// ──────────────────────────────────────────────────────────────────────────────

type memItems struct {
	byID map[string]*entity.InventoryItem
}

func (m *memItems) GetByID(id string) (*entity.InventoryItem, error) { return m.byID[id], nil }
func (m *memItems) GetByExternalID(extID string) (*entity.InventoryItem, error) {
	for _, it := range m.byID {
		if it.ExternalID == extID {
			return it, nil
		}
	}
	return nil, nil
}
func (m *memItems) GetForUpdate(id string) (*entity.InventoryItem, error) { return m.byID[id], nil }
func (m *memItems) ListActive() ([]*entity.InventoryItem, error) {
	var out []*entity.InventoryItem
	for _, it := range m.byID {
		out = append(out, it)
	}
	return out, nil
}
func (m *memItems) UpdateStock(id string, newStock int64) error {
	it, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	it.CurrentStock = newStock
	return nil
}
func (m *memItems) UpdateUnitCost(id string, cost decimal.Decimal) error { return nil }
func (m *memItems) UpdateExternalID(id, extID string) error             { return nil }

type memMovs struct {
	rows []*entity.StockMovement
}

func (m *memMovs) Create(mov *entity.StockMovement) error {
	m.rows = append(m.rows, mov)
	return nil
}
func (m *memMovs) ListByItem(itemID string, limit int) ([]*entity.StockMovement, error) {
	return nil, nil
}

type memTx struct {
	items *memItems
	movs  *memMovs
}

func (f *memTx) Run(_ context.Context, fn func(repository.InventoryItemRepository, repository.StockMovementRepository) error) error {
	return fn(f.items, f.movs)
}

type memCatalog struct{}

func (memCatalog) GetProductByID(string) (*entity.Product, error)          { return nil, nil }
func (memCatalog) GetProductByExternalID(string) (*entity.Product, error)  { return nil, nil }
func (memCatalog) CreateProduct(*entity.Product) error                     { return nil }
func (memCatalog) GetSellableByID(string) (*entity.Sellable, error)        { return nil, nil }
func (memCatalog) GetSellableByExternalID(string) (*entity.Sellable, error) { return nil, nil }
func (memCatalog) CreateSellable(*entity.Sellable) error                   { return nil }

type memRuns struct {
	rows []*entity.SyncRun
}

func (m *memRuns) Create(run *entity.SyncRun) error {
	cp := *run
	m.rows = append(m.rows, &cp)
	return nil
}
func (m *memRuns) Update(run *entity.SyncRun) error {
	for i, r := range m.rows {
		if r.ID == run.ID {
			cp := *run
			m.rows[i] = &cp
			return nil
		}
	}
	return domain.ErrNotFound
}
func (m *memRuns) LatestSuccess() (*entity.SyncRun, error) {
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].Status == entity.SyncRunStatusSuccess {
			return m.rows[i], nil
		}
	}
	return nil, nil
}
func (m *memRuns) ListRecent(limit int) ([]*entity.SyncRun, error) {
	out := make([]*entity.SyncRun, 0, limit)
	for i := len(m.rows) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.rows[i])
	}
	return out, nil
}

type memSales struct {
	txs []*entity.SalesTransaction
}

func (m *memSales) ExistsByExternalOrderID(extID string) (bool, error) {
	for _, tx := range m.txs {
		if tx.ExternalOrderID == extID {
			return true, nil
		}
	}
	return false, nil
}
func (m *memSales) CreateTransaction(tx *entity.SalesTransaction) error {
	m.txs = append(m.txs, tx)
	return nil
}
func (m *memSales) GetTransactionByID(id string) (*entity.SalesTransaction, error) {
	for _, tx := range m.txs {
		if tx.ID == id {
			return tx, nil
		}
	}
	return nil, nil
}
func (m *memSales) GetItemByID(itemID string) (*entity.SalesTransactionItem, error) {
	for _, tx := range m.txs {
		for i := range tx.Items {
			if tx.Items[i].ID == itemID {
				return &tx.Items[i], nil
			}
		}
	}
	return nil, nil
}
func (m *memSales) MarkConsumptionApplied(itemID string) error { return nil }
func (m *memSales) ListUnresolvedLines() ([]*entity.SalesTransactionItem, error) {
	return nil, nil
}

// fakePOS sirve páginas en orden; failAt > 0 falla al pedir esa página
// (1-indexado).
type fakePOS struct {
	pages  []salesync.POSOrderPage
	failAt int
	calls  int
}

func (f *fakePOS) SearchCompletedOrders(_ context.Context, _ time.Time, cursor string) (salesync.POSOrderPage, error) {
	f.calls++
	if f.failAt > 0 && f.calls == f.failAt {
		return salesync.POSOrderPage{}, domain.ErrExternalAPI
	}
	idx := 0
	for i, p := range f.pages {
		if p.NextCursor != "" && p.NextCursor == cursor {
			idx = i + 1
			break
		}
	}
	if idx >= len(f.pages) {
		return salesync.POSOrderPage{}, nil
	}
	return f.pages[idx], nil
}

type heldLocker struct{}

func (heldLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	return nil, domain.ErrSyncInProgress
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

type fixture struct {
	uc    *salesync.UseCase
	items *memItems
	movs  *memMovs
	runs  *memRuns
	sales *memSales
}

func newFixture(t *testing.T, pos salesync.POSClient, locker salesync.RunLocker) *fixture {
	t.Helper()
	items := &memItems{byID: map[string]*entity.InventoryItem{
		"agua": {ID: "agua", Name: "Agua Embotellada", ExternalID: "ext-agua", ItemType: entity.ItemTypePrepackaged, CurrentStock: 24},
		"latte": {ID: "latte", Name: "Latte", ExternalID: "ext-latte", ItemType: entity.ItemTypePrepared, CurrentStock: 0},
	}}
	movs := &memMovs{}
	runs := &memRuns{}
	sales := &memSales{}
	if locker == nil {
		locker = salesync.NewMutexLocker()
	}
	resolver := appcatalog.NewResolver(items, memCatalog{}, nil, 0)
	ledger := appinv.NewLedgerUseCase(&memTx{items: items, movs: movs})
	log := logger.Nop()
	uc := salesync.NewUseCase(runs, sales, resolver, ledger, pos, locker, log, salesync.DefaultConfig())
	return &fixture{uc: uc, items: items, movs: movs, runs: runs, sales: sales}
}

func mixedOrder() salesync.POSOrder {
	return salesync.POSOrder{
		ID:        "order-1",
		CreatedAt: time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC),
		Total:     decimal.NewFromInt(18500),
		Currency:  "COP",
		LineItems: []salesync.POSLineItem{
			{UID: "l1", Name: "Latte Grande", CatalogObjectID: "ext-latte", Quantity: 1, UnitPrice: decimal.NewFromInt(7500)},
			{UID: "l2", Name: "Agua Embotellada", CatalogObjectID: "ext-agua", Quantity: 3, UnitPrice: decimal.NewFromInt(3000)},
			{UID: "l3", Name: "Promo del día", CatalogObjectID: "ext-desconocido", Quantity: 1, UnitPrice: decimal.NewFromInt(2000)},
		},
	}
}

func onePage(orders ...salesync.POSOrder) *fakePOS {
	return &fakePOS{pages: []salesync.POSOrderPage{{Orders: orders}}}
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

// Una orden mixta: la línea prepackaged descuenta automáticamente (un solo
// movimiento agregado), la prepared queda manual y la no resuelta queda
// ignorada sin tocar stock.
func TestRun_ClasificacionMixta(t *testing.T) {
	f := newFixture(t, onePage(mixedOrder()), nil)

	result, err := f.uc.Run(context.Background(), false)

	require.NoError(t, err)
	assert.Equal(t, 1, result.OrdersFetched)
	assert.Equal(t, 1, result.OrdersIngested)
	assert.EqualValues(t, 3, result.AutoDecrements, "3 unidades de agua descontadas")
	assert.EqualValues(t, 1, result.ManualLines, "el latte espera deducción por receta")
	assert.EqualValues(t, 1, result.IgnoredLines, "la línea sin mapeo queda ignorada")
	assert.Equal(t, 1, result.MovementsCreated, "un solo movimiento agregado por artículo")

	require.Len(t, f.movs.rows, 1)
	assert.EqualValues(t, -3, f.movs.rows[0].QuantityChange)
	assert.EqualValues(t, 21, f.items.byID["agua"].CurrentStock)
	assert.EqualValues(t, 0, f.items.byID["latte"].CurrentStock, "las líneas manuales no tocan stock")

	require.Len(t, f.sales.txs, 1)
	require.Len(t, f.sales.txs[0].Items, 3)
	assert.Equal(t, entity.ImpactTypeManual, f.sales.txs[0].Items[0].ImpactType)
	assert.Equal(t, entity.ImpactTypeAuto, f.sales.txs[0].Items[1].ImpactType)
	assert.Equal(t, entity.ImpactTypeIgnored, f.sales.txs[0].Items[2].ImpactType)
}

// La misma orden externa se ingiere a lo sumo una vez: la segunda corrida la
// salta y no duplica descuentos.
func TestRun_SegundaCorridaEsIdempotente(t *testing.T) {
	f := newFixture(t, onePage(mixedOrder()), nil)

	_, err := f.uc.Run(context.Background(), false)
	require.NoError(t, err)
	second, err := f.uc.Run(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, second.OrdersSkipped)
	assert.Equal(t, 0, second.OrdersIngested)
	assert.EqualValues(t, 0, second.AutoDecrements)
	assert.Len(t, f.movs.rows, 1, "sin movimientos nuevos en la segunda corrida")
	assert.Len(t, f.sales.txs, 1)
	assert.EqualValues(t, 21, f.items.byID["agua"].CurrentStock)
}

// El dry-run clasifica y devuelve métricas sin persistir nada: ni corrida,
// ni transacciones, ni movimientos.
func TestRun_DryRunNoPersisteNada(t *testing.T) {
	f := newFixture(t, onePage(mixedOrder()), nil)

	result, err := f.uc.Run(context.Background(), true)

	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Empty(t, result.RunID)
	assert.EqualValues(t, 3, result.AutoDecrements, "las métricas sí se calculan")
	assert.Empty(t, f.runs.rows)
	assert.Empty(t, f.sales.txs)
	assert.Empty(t, f.movs.rows)
	assert.EqualValues(t, 24, f.items.byID["agua"].CurrentStock)
}

// Dos órdenes con el mismo artículo auto producen un único movimiento con la
// suma de unidades.
func TestRun_AgregaDescuentosPorArticulo(t *testing.T) {
	o1 := salesync.POSOrder{
		ID: "o1", CreatedAt: time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC), Currency: "COP",
		LineItems: []salesync.POSLineItem{{UID: "a", CatalogObjectID: "ext-agua", Quantity: 2, Name: "Agua"}},
	}
	o2 := salesync.POSOrder{
		ID: "o2", CreatedAt: time.Date(2026, 5, 2, 9, 5, 0, 0, time.UTC), Currency: "COP",
		LineItems: []salesync.POSLineItem{{UID: "b", CatalogObjectID: "ext-agua", Quantity: 5, Name: "Agua"}},
	}
	f := newFixture(t, onePage(o1, o2), nil)

	result, err := f.uc.Run(context.Background(), false)

	require.NoError(t, err)
	assert.EqualValues(t, 7, result.AutoDecrements)
	assert.Equal(t, 1, result.MovementsCreated)
	require.Len(t, f.movs.rows, 1)
	assert.EqualValues(t, -7, f.movs.rows[0].QuantityChange)
}

// Si el POS falla a mitad de la paginación, la corrida queda en error sin
// cursor: el siguiente intento repite la misma ventana.
func TestRun_ErrorDePaginacionNoAvanzaCursor(t *testing.T) {
	pos := &fakePOS{
		pages: []salesync.POSOrderPage{
			{Orders: []salesync.POSOrder{mixedOrder()}, NextCursor: "pag2"},
			{Orders: nil},
		},
		failAt: 2,
	}
	f := newFixture(t, pos, nil)

	_, err := f.uc.Run(context.Background(), false)

	require.ErrorIs(t, err, domain.ErrExternalAPI)
	require.Len(t, f.runs.rows, 1, "la fila de corrida se crea antes de llamar al POS")
	assert.Equal(t, entity.SyncRunStatusError, f.runs.rows[0].Status)
	assert.Empty(t, f.runs.rows[0].Cursor)
	assert.Nil(t, f.runs.rows[0].LastOrderAt)
	assert.Empty(t, f.sales.txs, "nada se ingiere si la paginación no se completó")
	assert.Empty(t, f.movs.rows)
}

// Con el lock tomado, la corrida ni siquiera toca el POS.
func TestRun_LockEnCursoRechazaLaCorrida(t *testing.T) {
	pos := onePage(mixedOrder())
	f := newFixture(t, pos, heldLocker{})

	_, err := f.uc.Run(context.Background(), false)

	require.ErrorIs(t, err, domain.ErrSyncInProgress)
	assert.Zero(t, pos.calls)
	assert.Empty(t, f.runs.rows)
}

// La reanudación parte de la orden más reciente de la última corrida
// success, menos el solape configurado.
func TestRun_ReanudaConSolape(t *testing.T) {
	orderAt := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	probe := &sincePOS{}
	f := newFixture(t, probe, nil)
	finished := orderAt.Add(time.Minute)
	f.runs.rows = append(f.runs.rows, &entity.SyncRun{
		ID: "previa", Status: entity.SyncRunStatusSuccess,
		LastOrderAt: &orderAt, FinishedAt: &finished,
	})

	_, err := f.uc.Run(context.Background(), false)

	require.NoError(t, err)
	want := orderAt.Add(-salesync.DefaultConfig().Overlap)
	assert.True(t, probe.since.Equal(want), "since = última orden − solape; obtuvo %s", probe.since)
}

// sincePOS registra el since recibido y devuelve una página vacía.
type sincePOS struct {
	since time.Time
}

func (s *sincePOS) SearchCompletedOrders(_ context.Context, since time.Time, _ string) (salesync.POSOrderPage, error) {
	s.since = since
	return salesync.POSOrderPage{}, nil
}
