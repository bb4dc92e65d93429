// Package pos implementa el cliente HTTP hacia el POS externo: búsqueda
// paginada de órdenes completadas y lookup de catálogo por lotes. Todo
// payload se valida una sola vez en la frontera y se convierte a tipos
// internos fuertes; lo que no valida es domain.ErrInvalidInput, nunca un
// crash más adentro del pipeline.
package pos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cafetero/cafeteria-api/pkg/logger"

	"github.com/cafetero/cafeteria-api/internal/application/catalog"
	"github.com/cafetero/cafeteria-api/internal/application/salesync"
	"github.com/cafetero/cafeteria-api/internal/domain"
)

var _ salesync.POSClient = (*Client)(nil)
var _ catalog.POSCatalogClient = (*Client)(nil)

// Client es el cliente HTTP del POS.
type Client struct {
	baseURL    string
	token      string
	locationID string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient construye el cliente. El token va como Bearer en cada request.
func NewClient(baseURL, token, locationID string, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		locationID: locationID,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// ───────────────────────── payloads de la frontera ─────────────────────────

type moneyPayload struct {
	Amount   *int64 `json:"amount"` // unidades menores (centavos)
	Currency string `json:"currency"`
}

type lineItemPayload struct {
	UID             string        `json:"uid"`
	Name            string        `json:"name"`
	CatalogObjectID string        `json:"catalog_object_id"`
	Quantity        string        `json:"quantity"`
	BasePriceMoney  *moneyPayload `json:"base_price_money"`
}

type orderPayload struct {
	ID         string            `json:"id"`
	CreatedAt  string            `json:"created_at"`
	State      string            `json:"state"`
	TotalMoney *moneyPayload     `json:"total_money"`
	LineItems  []lineItemPayload `json:"line_items"`
}

type searchOrdersResponse struct {
	Orders []orderPayload `json:"orders"`
	Cursor string         `json:"cursor"`
}

type catalogObjectPayload struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	ItemData *struct {
		Name string `json:"name"`
	} `json:"item_data"`
	ItemVariationData *struct {
		ItemID string `json:"item_id"`
		Name   string `json:"name"`
	} `json:"item_variation_data"`
}

type batchRetrieveResponse struct {
	Objects        []catalogObjectPayload `json:"objects"`
	RelatedObjects []catalogObjectPayload `json:"related_objects"`
}

// ───────────────────────────── órdenes ─────────────────────────────

// SearchCompletedOrders pide una página de órdenes completadas con
// created_at >= since, en orden ascendente. Cursor vacío pide la primera
// página; NextCursor vacío en la respuesta indica última página.
func (c *Client) SearchCompletedOrders(ctx context.Context, since time.Time, cursor string) (salesync.POSOrderPage, error) {
	body := map[string]any{
		"location_ids": []string{c.locationID},
		"query": map[string]any{
			"filter": map[string]any{
				"state_filter": map[string]any{"states": []string{"COMPLETED"}},
			},
			"sort": map[string]any{"sort_field": "CREATED_AT", "sort_order": "ASC"},
		},
	}
	if !since.IsZero() {
		body["query"].(map[string]any)["filter"].(map[string]any)["date_time_filter"] = map[string]any{
			"created_at": map[string]any{"start_at": since.UTC().Format(time.RFC3339)},
		}
	}
	if cursor != "" {
		body["cursor"] = cursor
	}

	var resp searchOrdersResponse
	if err := c.post(ctx, "/v2/orders/search", body, &resp); err != nil {
		return salesync.POSOrderPage{}, err
	}

	page := salesync.POSOrderPage{NextCursor: resp.Cursor}
	for i, op := range resp.Orders {
		order, err := parseOrder(op)
		if err != nil {
			return salesync.POSOrderPage{}, fmt.Errorf("orden %d de la página: %w", i, err)
		}
		page.Orders = append(page.Orders, order)
	}
	return page, nil
}

// parseOrder valida el payload y lo convierte al tipo interno. id y
// created_at son obligatorios; una línea sin cantidad parseable es inválida.
func parseOrder(op orderPayload) (salesync.POSOrder, error) {
	if op.ID == "" {
		return salesync.POSOrder{}, fmt.Errorf("%w: orden sin id", domain.ErrInvalidInput)
	}
	createdAt, err := time.Parse(time.RFC3339, op.CreatedAt)
	if err != nil {
		return salesync.POSOrder{}, fmt.Errorf("%w: created_at inválido en orden %s", domain.ErrInvalidInput, op.ID)
	}

	order := salesync.POSOrder{
		ID:        op.ID,
		CreatedAt: createdAt,
	}
	if op.TotalMoney != nil && op.TotalMoney.Amount != nil {
		order.Total = decimal.New(*op.TotalMoney.Amount, -2)
		order.Currency = op.TotalMoney.Currency
	}

	for _, lp := range op.LineItems {
		qty, err := parseQuantity(lp.Quantity)
		if err != nil {
			return salesync.POSOrder{}, fmt.Errorf("%w: cantidad %q inválida en orden %s", domain.ErrInvalidInput, lp.Quantity, op.ID)
		}
		line := salesync.POSLineItem{
			UID:             lp.UID,
			Name:            lp.Name,
			CatalogObjectID: lp.CatalogObjectID,
			Quantity:        qty,
		}
		if lp.BasePriceMoney != nil && lp.BasePriceMoney.Amount != nil {
			line.UnitPrice = decimal.New(*lp.BasePriceMoney.Amount, -2)
		}
		order.LineItems = append(order.LineItems, line)
	}
	return order, nil
}

// parseQuantity acepta cantidades decimales del POS y las trunca al entero
// inferior; el inventario se cuenta en unidades enteras.
func parseQuantity(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("vacía")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negativa")
	}
	return d.IntPart(), nil
}

// ───────────────────────────── catálogo ─────────────────────────────

// BatchRetrieveCatalogObjects obtiene objetos de catálogo por id. El caller
// (Resolver) ya divide en lotes de a lo sumo 100 ids; aquí se verifica el
// límite impuesto por el POS de todos modos.
func (c *Client) BatchRetrieveCatalogObjects(ctx context.Context, ids []string) ([]catalog.CatalogObject, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > 100 {
		return nil, fmt.Errorf("%w: máximo 100 ids por lote", domain.ErrInvalidInput)
	}

	body := map[string]any{
		"object_ids":              ids,
		"include_related_objects": true,
	}
	var resp batchRetrieveResponse
	if err := c.post(ctx, "/v2/catalog/batch-retrieve", body, &resp); err != nil {
		return nil, err
	}

	// Los items padres llegan en related_objects; se indexan por id para
	// completar ParentName de las variaciones.
	parents := make(map[string]string)
	for _, ro := range append(resp.Objects, resp.RelatedObjects...) {
		if ro.ItemData != nil {
			parents[ro.ID] = ro.ItemData.Name
		}
	}

	var objects []catalog.CatalogObject
	for _, op := range resp.Objects {
		obj, err := parseCatalogObject(op, parents)
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func parseCatalogObject(op catalogObjectPayload, parents map[string]string) (catalog.CatalogObject, error) {
	if op.ID == "" {
		return catalog.CatalogObject{}, fmt.Errorf("%w: objeto de catálogo sin id", domain.ErrInvalidInput)
	}
	switch {
	case op.ItemVariationData != nil:
		return catalog.CatalogObject{
			ID:         op.ID,
			Type:       "variation",
			Name:       op.ItemVariationData.Name,
			ParentID:   op.ItemVariationData.ItemID,
			ParentName: parents[op.ItemVariationData.ItemID],
		}, nil
	case op.ItemData != nil:
		return catalog.CatalogObject{
			ID:   op.ID,
			Type: "item",
			Name: op.ItemData.Name,
		}, nil
	default:
		return catalog.CatalogObject{}, fmt.Errorf("%w: objeto %s sin datos de item ni variación", domain.ErrInvalidInput, op.ID)
	}
}

// ───────────────────────────── transporte ─────────────────────────────

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("serializar request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("crear request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrExternalAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.log.Error().
			Int("status", resp.StatusCode).
			Str("path", path).
			Str("body", string(raw)).
			Msg("Respuesta de error del POS")
		return fmt.Errorf("%w: POS respondió %d en %s", domain.ErrExternalAPI, resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: respuesta no decodificable de %s: %v", domain.ErrExternalAPI, path, err)
	}
	return nil
}
