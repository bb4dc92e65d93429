package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cafetero/cafeteria-api/internal/domain"
	"github.com/cafetero/cafeteria-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria. El test es de caja blanca para inyectar el reloj del
// cache sin exponerlo en la API.
// ──────────────────────────────────────────────────────────────────────────────

type countingItems struct {
	byExternal map[string]*entity.InventoryItem
	lookups    int
}

func (c *countingItems) GetByID(string) (*entity.InventoryItem, error) { return nil, nil }
func (c *countingItems) GetByExternalID(extID string) (*entity.InventoryItem, error) {
	c.lookups++
	return c.byExternal[extID], nil
}
func (c *countingItems) GetForUpdate(string) (*entity.InventoryItem, error) { return nil, nil }
func (c *countingItems) ListActive() ([]*entity.InventoryItem, error)       { return nil, nil }
func (c *countingItems) UpdateStock(string, int64) error                    { return nil }
func (c *countingItems) UpdateUnitCost(string, decimal.Decimal) error       { return nil }
func (c *countingItems) UpdateExternalID(string, string) error              { return nil }

type stubCatalog struct {
	products  map[string]*entity.Product
	sellables map[string]*entity.Sellable
	created   int
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{products: map[string]*entity.Product{}, sellables: map[string]*entity.Sellable{}}
}

func (s *stubCatalog) GetProductByID(string) (*entity.Product, error) { return nil, nil }
func (s *stubCatalog) GetProductByExternalID(extID string) (*entity.Product, error) {
	return s.products[extID], nil
}
func (s *stubCatalog) CreateProduct(p *entity.Product) error {
	s.products[p.ExternalID] = p
	s.created++
	return nil
}
func (s *stubCatalog) GetSellableByID(string) (*entity.Sellable, error) { return nil, nil }
func (s *stubCatalog) GetSellableByExternalID(extID string) (*entity.Sellable, error) {
	return s.sellables[extID], nil
}
func (s *stubCatalog) CreateSellable(sl *entity.Sellable) error {
	s.sellables[sl.ExternalID] = sl
	s.created++
	return nil
}

type stubPOSCatalog struct {
	objects []CatalogObject
	err     error
	batches [][]string
}

func (s *stubPOSCatalog) BatchRetrieveCatalogObjects(_ context.Context, ids []string) ([]CatalogObject, error) {
	s.batches = append(s.batches, ids)
	return s.objects, s.err
}

// ──────────────────────────────────────────────────────────────────────────────
// Cache TTL
// ──────────────────────────────────────────────────────────────────────────────

// Dentro del TTL, la segunda resolución sale del cache sin tocar la BD.
func TestResolveInventoryItem_CacheDentroDelTTL(t *testing.T) {
	items := &countingItems{byExternal: map[string]*entity.InventoryItem{
		"ext-1": {ID: "i1", Name: "Agua", ExternalID: "ext-1"},
	}}
	r := NewResolver(items, newStubCatalog(), nil, 10*time.Minute)
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return base }

	first, err := r.ResolveInventoryItem("ext-1")
	require.NoError(t, err)
	require.NotNil(t, first)

	r.now = func() time.Time { return base.Add(5 * time.Minute) }
	second, err := r.ResolveInventoryItem("ext-1")
	require.NoError(t, err)
	assert.Equal(t, "i1", second.ID)
	assert.Equal(t, 1, items.lookups, "la segunda resolución debe salir del cache")
}

// Vencido el TTL, la entrada se reconsulta.
func TestResolveInventoryItem_ExpiraConElTTL(t *testing.T) {
	items := &countingItems{byExternal: map[string]*entity.InventoryItem{
		"ext-1": {ID: "i1", ExternalID: "ext-1"},
	}}
	r := NewResolver(items, newStubCatalog(), nil, 10*time.Minute)
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return base }

	_, err := r.ResolveInventoryItem("ext-1")
	require.NoError(t, err)

	r.now = func() time.Time { return base.Add(11 * time.Minute) }
	_, err = r.ResolveInventoryItem("ext-1")
	require.NoError(t, err)
	assert.Equal(t, 2, items.lookups, "vencido el TTL se vuelve a la BD")
}

// "Sin mapeo" también se cachea (cache negativo): líneas desconocidas del
// sync no golpean la BD una y otra vez.
func TestResolveInventoryItem_CacheNegativo(t *testing.T) {
	items := &countingItems{byExternal: map[string]*entity.InventoryItem{}}
	r := NewResolver(items, newStubCatalog(), nil, 10*time.Minute)

	for i := 0; i < 3; i++ {
		item, err := r.ResolveInventoryItem("ext-desconocido")
		require.NoError(t, err)
		assert.Nil(t, item)
	}
	assert.Equal(t, 1, items.lookups)
}

// Invalidate descarta la entrada puntual; la siguiente resolución ve el
// mapeo corregido.
func TestInvalidate_DescartaEntrada(t *testing.T) {
	items := &countingItems{byExternal: map[string]*entity.InventoryItem{}}
	r := NewResolver(items, newStubCatalog(), nil, 10*time.Minute)

	item, err := r.ResolveInventoryItem("ext-1")
	require.NoError(t, err)
	require.Nil(t, item)

	// se corrige el mapeo fuera del resolver
	items.byExternal["ext-1"] = &entity.InventoryItem{ID: "i1", ExternalID: "ext-1"}
	r.Invalidate("ext-1")

	item, err = r.ResolveInventoryItem("ext-1")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "i1", item.ID)
}

// TTL <= 0 desactiva el cache por completo.
func TestResolveInventoryItem_SinTTLNoCachea(t *testing.T) {
	items := &countingItems{byExternal: map[string]*entity.InventoryItem{}}
	r := NewResolver(items, newStubCatalog(), nil, 0)

	_, _ = r.ResolveInventoryItem("ext-1")
	_, _ = r.ResolveInventoryItem("ext-1")
	assert.Equal(t, 2, items.lookups)
}

// ──────────────────────────────────────────────────────────────────────────────
// RefreshFromPOS
// ──────────────────────────────────────────────────────────────────────────────

// Las variaciones nuevas crean Product padre y Sellable; los items sueltos
// se ignoran (solo las variaciones son vendibles).
func TestRefreshFromPOS_CreaProductoYSellable(t *testing.T) {
	cat := newStubCatalog()
	pos := &stubPOSCatalog{objects: []CatalogObject{
		{ID: "var-1", Type: "variation", Name: "Grande", ParentID: "item-1", ParentName: "Latte"},
		{ID: "item-1", Type: "item", Name: "Latte"},
	}}
	r := NewResolver(&countingItems{byExternal: map[string]*entity.InventoryItem{}}, cat, pos, 0)

	created, err := r.RefreshFromPOS(context.Background(), []string{"var-1", "item-1"})

	require.NoError(t, err)
	assert.Equal(t, 2, created, "un Product y una Sellable")
	require.NotNil(t, cat.sellables["var-1"])
	assert.Equal(t, "Latte - Grande", cat.sellables["var-1"].DisplayName)
	require.NotNil(t, cat.products["item-1"])
}

// El refresco parte los ids en lotes de a lo sumo 100 (límite del POS).
func TestRefreshFromPOS_ParteEnLotes(t *testing.T) {
	pos := &stubPOSCatalog{}
	r := NewResolver(&countingItems{byExternal: map[string]*entity.InventoryItem{}}, newStubCatalog(), pos, 0)

	ids := make([]string, 150)
	for i := range ids {
		ids[i] = "id"
	}
	_, err := r.RefreshFromPOS(context.Background(), ids)

	require.NoError(t, err)
	require.Len(t, pos.batches, 2)
	assert.Len(t, pos.batches[0], 100)
	assert.Len(t, pos.batches[1], 50)
}

// Errores del POS se propagan como error del API externo cuando el cliente
// los marca así.
func TestRefreshFromPOS_PropagaErrorDelPOS(t *testing.T) {
	pos := &stubPOSCatalog{err: domain.ErrExternalAPI}
	r := NewResolver(&countingItems{byExternal: map[string]*entity.InventoryItem{}}, newStubCatalog(), pos, 0)

	_, err := r.RefreshFromPOS(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, domain.ErrExternalAPI)
}
