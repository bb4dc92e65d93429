package pos_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cafetero/cafeteria-api/internal/domain"
	"github.com/cafetero/cafeteria-api/internal/infrastructure/pos"
	"github.com/cafetero/cafeteria-api/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *pos.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	log := logger.Nop()
	return pos.NewClient(srv.URL, "token-prueba", "loc-1", 5*time.Second, log)
}

// ───────────────────────────── órdenes ─────────────────────────────

func TestSearchCompletedOrders_ParseaPaginaCompleta(t *testing.T) {
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/orders/search", r.URL.Path)
		require.Equal(t, "Bearer token-prueba", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{
			"orders": [{
				"id": "order-1",
				"created_at": "2026-05-10T14:00:00Z",
				"state": "COMPLETED",
				"total_money": {"amount": 1550, "currency": "COP"},
				"line_items": [{
					"uid": "l1",
					"name": "Latte Grande",
					"catalog_object_id": "ext-latte",
					"quantity": "2.5",
					"base_price_money": {"amount": 620, "currency": "COP"}
				}]
			}],
			"cursor": "pagina-2"
		}`))
	})

	since := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	page, err := c.SearchCompletedOrders(context.Background(), since, "")

	require.NoError(t, err)
	assert.Equal(t, "pagina-2", page.NextCursor)
	require.Len(t, page.Orders, 1)

	order := page.Orders[0]
	assert.Equal(t, "order-1", order.ID)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("15.50")), "centavos → decimal, obtuvo %s", order.Total)
	assert.Equal(t, "COP", order.Currency)

	require.Len(t, order.LineItems, 1)
	line := order.LineItems[0]
	assert.Equal(t, "ext-latte", line.CatalogObjectID)
	assert.Equal(t, int64(2), line.Quantity, "cantidades decimales se truncan a unidades enteras")
	assert.True(t, line.UnitPrice.Equal(decimal.RequireFromString("6.20")))

	// el request lleva filtro por fecha y ubicación
	assert.Equal(t, []any{"loc-1"}, gotBody["location_ids"])
	_, hasCursor := gotBody["cursor"]
	assert.False(t, hasCursor, "primera página sin cursor")
}

func TestSearchCompletedOrders_EnviaCursorDeContinuacion(t *testing.T) {
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"orders": [], "cursor": ""}`))
	})

	page, err := c.SearchCompletedOrders(context.Background(), time.Time{}, "pagina-2")

	require.NoError(t, err)
	assert.Empty(t, page.NextCursor, "cursor vacío indica última página")
	assert.Equal(t, "pagina-2", gotBody["cursor"])
}

func TestSearchCompletedOrders_ErrorHTTPEsExternalAPI(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"errors": [{"detail": "mantenimiento"}]}`))
	})

	_, err := c.SearchCompletedOrders(context.Background(), time.Time{}, "")
	assert.ErrorIs(t, err, domain.ErrExternalAPI)
}

// Un payload que no valida en la frontera es ErrInvalidInput, nunca un
// crash más adentro del pipeline.
func TestSearchCompletedOrders_PayloadInvalido(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"orden sin id", `{"orders": [{"created_at": "2026-05-10T14:00:00Z"}]}`},
		{"created_at ilegible", `{"orders": [{"id": "o1", "created_at": "ayer"}]}`},
		{"cantidad negativa", `{"orders": [{"id": "o1", "created_at": "2026-05-10T14:00:00Z",
			"line_items": [{"uid": "l1", "name": "x", "quantity": "-1"}]}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := tc.body
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			})

			_, err := c.SearchCompletedOrders(context.Background(), time.Time{}, "")
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

// ───────────────────────────── catálogo ─────────────────────────────

func TestBatchRetrieveCatalogObjects_ResuelveVariacionesConPadre(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/catalog/batch-retrieve", r.URL.Path)
		w.Write([]byte(`{
			"objects": [
				{"id": "var-1", "type": "ITEM_VARIATION",
				 "item_variation_data": {"item_id": "item-1", "name": "Grande"}},
				{"id": "item-2", "type": "ITEM", "item_data": {"name": "Brownie"}}
			],
			"related_objects": [
				{"id": "item-1", "type": "ITEM", "item_data": {"name": "Latte"}}
			]
		}`))
	})

	objects, err := c.BatchRetrieveCatalogObjects(context.Background(), []string{"var-1", "item-2"})

	require.NoError(t, err)
	require.Len(t, objects, 2)

	assert.Equal(t, "variation", objects[0].Type)
	assert.Equal(t, "Grande", objects[0].Name)
	assert.Equal(t, "item-1", objects[0].ParentID)
	assert.Equal(t, "Latte", objects[0].ParentName)

	assert.Equal(t, "item", objects[1].Type)
	assert.Equal(t, "Brownie", objects[1].Name)
}

func TestBatchRetrieveCatalogObjects_SinIDsNoLlamaAlPOS(t *testing.T) {
	llamadas := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		llamadas++
		w.Write([]byte(`{}`))
	})

	objects, err := c.BatchRetrieveCatalogObjects(context.Background(), nil)

	require.NoError(t, err)
	assert.Nil(t, objects)
	assert.Zero(t, llamadas)
}

func TestBatchRetrieveCatalogObjects_RechazaLotesGrandes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no debe llegar al POS")
	})

	ids := make([]string, 101)
	for i := range ids {
		ids[i] = "x"
	}
	_, err := c.BatchRetrieveCatalogObjects(context.Background(), ids)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
