package inventory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinv "github.com/cafetero/cafeteria-api/internal/application/inventory"
	"github.com/cafetero/cafeteria-api/internal/domain"
	"github.com/cafetero/cafeteria-api/internal/domain/entity"
	"github.com/cafetero/cafeteria-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
// ──────────────────────────────────────────────────────────────────────────────

type memItemRepo struct {
	items map[string]*entity.InventoryItem
}

func newMemItemRepo(items ...*entity.InventoryItem) *memItemRepo {
	m := &memItemRepo{items: make(map[string]*entity.InventoryItem)}
	for _, it := range items {
		m.items[it.ID] = it
	}
	return m
}

func (m *memItemRepo) GetByID(id string) (*entity.InventoryItem, error) { return m.items[id], nil }
func (m *memItemRepo) GetByExternalID(externalID string) (*entity.InventoryItem, error) {
	for _, it := range m.items {
		if it.ExternalID == externalID {
			return it, nil
		}
	}
	return nil, nil
}
func (m *memItemRepo) GetForUpdate(id string) (*entity.InventoryItem, error) { return m.items[id], nil }
func (m *memItemRepo) ListActive() ([]*entity.InventoryItem, error) {
	var out []*entity.InventoryItem
	for _, it := range m.items {
		if it.Active() {
			out = append(out, it)
		}
	}
	return out, nil
}
func (m *memItemRepo) UpdateStock(id string, newStock int64) error {
	it, ok := m.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	it.CurrentStock = newStock
	return nil
}
func (m *memItemRepo) UpdateUnitCost(id string, cost decimal.Decimal) error {
	it, ok := m.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	it.UnitCost = cost
	return nil
}
func (m *memItemRepo) UpdateExternalID(id, externalID string) error {
	it, ok := m.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	it.ExternalID = externalID
	return nil
}

type memMovementRepo struct {
	movements []*entity.StockMovement
}

func (m *memMovementRepo) Create(mov *entity.StockMovement) error {
	m.movements = append(m.movements, mov)
	return nil
}
func (m *memMovementRepo) ListByItem(itemID string, limit int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for i := len(m.movements) - 1; i >= 0 && len(out) < limit; i-- {
		if m.movements[i].ItemID == itemID {
			out = append(out, m.movements[i])
		}
	}
	return out, nil
}

// fakeTxRunner entrega siempre los mismos repos en memoria; no hay rollback
// real, los tests verifican la semántica del caso de uso, no la transacción.
type fakeTxRunner struct {
	items *memItemRepo
	movs  *memMovementRepo
}

func (f *fakeTxRunner) Run(_ context.Context, fn func(
	itemRepo repository.InventoryItemRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	return fn(f.items, f.movs)
}

func newLedger(items ...*entity.InventoryItem) (*appinv.LedgerUseCase, *memItemRepo, *memMovementRepo) {
	itemRepo := newMemItemRepo(items...)
	movRepo := &memMovementRepo{}
	return appinv.NewLedgerUseCase(&fakeTxRunner{items: itemRepo, movs: movRepo}), itemRepo, movRepo
}

// ──────────────────────────────────────────────────────────────────────────────
// ApplyMovement
// ──────────────────────────────────────────────────────────────────────────────

// Toda mutación de stock produce exactamente una fila de movimiento con
// previous/new coherentes.
func TestApplyMovement_UnaMutacionUnaFila(t *testing.T) {
	uc, items, movs := newLedger(&entity.InventoryItem{ID: "latte-beans", CurrentStock: 10})

	mov, err := uc.ApplyMovement(context.Background(), appinv.MovementInput{
		ItemID:         "latte-beans",
		Type:           entity.MovementTypeSale,
		QuantityChange: -3,
		Reference:      "order:ext-1",
		CreatedBy:      "sync",
	})

	require.NoError(t, err)
	require.NotNil(t, mov)
	assert.EqualValues(t, 10, mov.PreviousStock)
	assert.EqualValues(t, 7, mov.NewStock)
	assert.EqualValues(t, 7, items.items["latte-beans"].CurrentStock)
	assert.Len(t, movs.movements, 1, "exactamente una fila de ledger por mutación")
}

// El stock tiene piso en cero: un descuento mayor al stock disponible deja
// el stock en 0 y el movimiento registra el delta pedido.
func TestApplyMovement_PisoEnCero(t *testing.T) {
	uc, items, _ := newLedger(&entity.InventoryItem{ID: "i1", CurrentStock: 2})

	mov, err := uc.ApplyMovement(context.Background(), appinv.MovementInput{
		ItemID:         "i1",
		Type:           entity.MovementTypeSale,
		QuantityChange: -5,
	})

	require.NoError(t, err)
	assert.EqualValues(t, 2, mov.PreviousStock)
	assert.EqualValues(t, 0, mov.NewStock, "el stock nunca queda negativo")
	assert.EqualValues(t, -5, mov.QuantityChange, "el movimiento conserva el delta pedido")
	assert.EqualValues(t, 0, items.items["i1"].CurrentStock)
}

// Una compra con costo unitario recalcula el promedio ponderado.
func TestApplyMovement_CompraRecalculaPromedioPonderado(t *testing.T) {
	uc, items, _ := newLedger(&entity.InventoryItem{
		ID:           "i1",
		CurrentStock: 10,
		UnitCost:     decimal.NewFromInt(2),
	})

	cost := decimal.NewFromInt(4)
	_, err := uc.ApplyMovement(context.Background(), appinv.MovementInput{
		ItemID:         "i1",
		Type:           entity.MovementTypePurchase,
		QuantityChange: 10,
		UnitCost:       &cost,
	})

	require.NoError(t, err)
	assert.True(t, items.items["i1"].UnitCost.Equal(decimal.NewFromInt(3)),
		"(10×2 + 10×4) / 20 = 3, obtuvo %s", items.items["i1"].UnitCost)
	assert.EqualValues(t, 20, items.items["i1"].CurrentStock)
}

// Tipo desconocido o delta cero son entrada inválida.
func TestApplyMovement_EntradaInvalida(t *testing.T) {
	uc, _, _ := newLedger(&entity.InventoryItem{ID: "i1", CurrentStock: 5})

	_, err := uc.ApplyMovement(context.Background(), appinv.MovementInput{
		ItemID: "i1", Type: "transferencia", QuantityChange: 1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.ApplyMovement(context.Background(), appinv.MovementInput{
		ItemID: "i1", Type: entity.MovementTypeSale, QuantityChange: 0,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// Artículo inexistente devuelve ErrNotFound.
func TestApplyMovement_ArticuloInexistente(t *testing.T) {
	uc, _, _ := newLedger()

	_, err := uc.ApplyMovement(context.Background(), appinv.MovementInput{
		ItemID: "fantasma", Type: entity.MovementTypeSale, QuantityChange: -1,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// ApplyDecrements (lotes)
// ──────────────────────────────────────────────────────────────────────────────

// Una falla individual no detiene el lote: cada artículo reporta su propio
// resultado y los demás descuentos quedan aplicados.
func TestApplyDecrements_AplicacionParcial(t *testing.T) {
	uc, items, movs := newLedger(
		&entity.InventoryItem{ID: "ok-1", CurrentStock: 10},
		&entity.InventoryItem{ID: "ok-2", CurrentStock: 10},
	)

	results := uc.ApplyDecrements(context.Background(), entity.MovementTypeSale, "sync:run-1", "sync", []appinv.Decrement{
		{ItemID: "ok-1", Quantity: 2},
		{ItemID: "no-existe", Quantity: 1},
		{ItemID: "ok-2", Quantity: 3},
	})

	require.Len(t, results, 3)
	assert.True(t, results[0].Applied())
	assert.ErrorIs(t, results[1].Err, domain.ErrNotFound)
	assert.True(t, results[2].Applied())

	assert.EqualValues(t, 8, items.items["ok-1"].CurrentStock)
	assert.EqualValues(t, 7, items.items["ok-2"].CurrentStock)
	assert.Len(t, movs.movements, 2, "solo los descuentos aplicados dejan fila de ledger")
}

// Cantidades no positivas se rechazan por artículo sin tocar el resto.
func TestApplyDecrements_CantidadInvalida(t *testing.T) {
	uc, _, movs := newLedger(&entity.InventoryItem{ID: "i1", CurrentStock: 10})

	results := uc.ApplyDecrements(context.Background(), entity.MovementTypeSale, "ref", "tester", []appinv.Decrement{
		{ItemID: "i1", Quantity: 0},
	})

	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, domain.ErrInvalidInput)
	assert.Empty(t, movs.movements)
}
