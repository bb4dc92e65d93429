// Package catalog implementa la capa de mapeo de catálogo: traduce
// identificadores externos del POS (item/variation) a identidades internas
// (Product/Sellable/InventoryItem).
package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cafetero/cafeteria-api/internal/domain"
	"github.com/cafetero/cafeteria-api/internal/domain/entity"
	"github.com/cafetero/cafeteria-api/internal/domain/repository"
)

// batchRetrieveLimit es el máximo de ids por llamada al endpoint de catálogo
// del POS (límite impuesto externamente).
const batchRetrieveLimit = 100

// CatalogObject es un objeto de catálogo del POS ya validado en la frontera.
// Para una variación, ParentID/ParentName describen su item padre.
type CatalogObject struct {
	ID         string
	Type       string // "item" | "variation"
	Name       string
	ParentID   string
	ParentName string
}

// POSCatalogClient es el puerto hacia el endpoint de catálogo del POS.
type POSCatalogClient interface {
	BatchRetrieveCatalogObjects(ctx context.Context, ids []string) ([]CatalogObject, error)
}

type cachedItem struct {
	item      *entity.InventoryItem // nil = id externo sin mapear (cache negativo)
	expiresAt time.Time
}

type cachedSellable struct {
	sellable  *entity.Sellable
	expiresAt time.Time
}

// Resolver resuelve ids externos con un cache TTL explícito, propiedad del
// caller (nada de estado global de proceso). Invalidate permite descartar
// una entrada tras corregir un mapeo.
type Resolver struct {
	items   repository.InventoryItemRepository
	catalog repository.CatalogRepository
	pos     POSCatalogClient // puede ser nil; RefreshFromPOS lo exige
	ttl     time.Duration
	now     func() time.Time

	mu        sync.Mutex
	itemCache map[string]cachedItem
	sellCache map[string]cachedSellable
}

// NewResolver construye el resolver. ttl <= 0 desactiva el cache.
func NewResolver(items repository.InventoryItemRepository, cat repository.CatalogRepository, pos POSCatalogClient, ttl time.Duration) *Resolver {
	return &Resolver{
		items:     items,
		catalog:   cat,
		pos:       pos,
		ttl:       ttl,
		now:       time.Now,
		itemCache: make(map[string]cachedItem),
		sellCache: make(map[string]cachedSellable),
	}
}

// ResolveInventoryItem devuelve el artículo de inventario mapeado al id de
// catálogo externo, o nil (sin error) si no hay mapeo. "Sin mapeo" también
// se cachea para no golpear la BD por cada línea desconocida del sync.
func (r *Resolver) ResolveInventoryItem(extID string) (*entity.InventoryItem, error) {
	if extID == "" {
		return nil, nil
	}
	r.mu.Lock()
	if e, ok := r.itemCache[extID]; ok && r.now().Before(e.expiresAt) {
		r.mu.Unlock()
		return e.item, nil
	}
	r.mu.Unlock()

	item, err := r.items.GetByExternalID(extID)
	if err != nil {
		return nil, fmt.Errorf("resolver artículo por id externo: %w", err)
	}
	if r.ttl > 0 {
		r.mu.Lock()
		r.itemCache[extID] = cachedItem{item: item, expiresAt: r.now().Add(r.ttl)}
		r.mu.Unlock()
	}
	return item, nil
}

// ResolveSellable devuelve la Sellable mapeada a la variación externa, o nil
// si no existe localmente.
func (r *Resolver) ResolveSellable(extID string) (*entity.Sellable, error) {
	if extID == "" {
		return nil, nil
	}
	r.mu.Lock()
	if e, ok := r.sellCache[extID]; ok && r.now().Before(e.expiresAt) {
		r.mu.Unlock()
		return e.sellable, nil
	}
	r.mu.Unlock()

	s, err := r.catalog.GetSellableByExternalID(extID)
	if err != nil {
		return nil, fmt.Errorf("resolver sellable por id externo: %w", err)
	}
	if r.ttl > 0 {
		r.mu.Lock()
		r.sellCache[extID] = cachedSellable{sellable: s, expiresAt: r.now().Add(r.ttl)}
		r.mu.Unlock()
	}
	return s, nil
}

// Invalidate descarta las entradas de cache de un id externo.
func (r *Resolver) Invalidate(extID string) {
	r.mu.Lock()
	delete(r.itemCache, extID)
	delete(r.sellCache, extID)
	r.mu.Unlock()
}

// InvalidateAll vacía el cache completo.
func (r *Resolver) InvalidateAll() {
	r.mu.Lock()
	r.itemCache = make(map[string]cachedItem)
	r.sellCache = make(map[string]cachedSellable)
	r.mu.Unlock()
}

// RefreshFromPOS consulta el catálogo del POS por lotes acotados (≤100 ids)
// y crea los Product/Sellable que falten localmente. Devuelve cuántos
// registros creó.
func (r *Resolver) RefreshFromPOS(ctx context.Context, ids []string) (int, error) {
	if r.pos == nil {
		return 0, fmt.Errorf("refresh de catálogo: cliente POS: %w", domain.ErrConfiguration)
	}
	created := 0
	for start := 0; start < len(ids); start += batchRetrieveLimit {
		end := start + batchRetrieveLimit
		if end > len(ids) {
			end = len(ids)
		}
		objects, err := r.pos.BatchRetrieveCatalogObjects(ctx, ids[start:end])
		if err != nil {
			return created, err
		}
		for _, obj := range objects {
			if obj.Type != "variation" {
				continue
			}
			n, err := r.ensureSellable(obj)
			if err != nil {
				return created, err
			}
			created += n
		}
	}
	return created, nil
}

// ensureSellable crea el Product padre y la Sellable si no existen.
func (r *Resolver) ensureSellable(obj CatalogObject) (int, error) {
	created := 0
	product, err := r.catalog.GetProductByExternalID(obj.ParentID)
	if err != nil {
		return 0, err
	}
	if product == nil {
		now := time.Now()
		product = &entity.Product{
			ID:         uuid.New().String(),
			ExternalID: obj.ParentID,
			Name:       obj.ParentName,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := r.catalog.CreateProduct(product); err != nil {
			return 0, err
		}
		created++
	}

	sellable, err := r.catalog.GetSellableByExternalID(obj.ID)
	if err != nil {
		return created, err
	}
	if sellable == nil {
		now := time.Now()
		display := strings.TrimSpace(obj.ParentName + " - " + obj.Name)
		if err := r.catalog.CreateSellable(&entity.Sellable{
			ID:            uuid.New().String(),
			ProductID:     product.ID,
			ExternalID:    obj.ID,
			VariationName: obj.Name,
			DisplayName:   display,
			CreatedAt:     now,
			UpdatedAt:     now,
		}); err != nil {
			return created, err
		}
		created++
		r.Invalidate(obj.ID)
	}
	return created, nil
}
