package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cafetero/cafeteria-api/internal/domain"
	"github.com/cafetero/cafeteria-api/internal/domain/entity"
	"github.com/cafetero/cafeteria-api/internal/domain/repository"
)

var _ repository.CatalogRepository = (*CatalogRepo)(nil)

// CatalogRepo implementación de CatalogRepository sobre PostgreSQL.
type CatalogRepo struct {
	q Querier
}

// NewCatalogRepository construye el adaptador del espejo de catálogo.
func NewCatalogRepository(q Querier) *CatalogRepo {
	return &CatalogRepo{q: q}
}

// GetProductByID obtiene un producto por id (nil si no existe).
func (r *CatalogRepo) GetProductByID(id string) (*entity.Product, error) {
	query := `
		SELECT id, external_id, name, created_at, updated_at, deleted_at
		FROM products WHERE id = $1`
	return r.scanProduct(r.q.QueryRow(context.Background(), query, id), "get product")
}

// GetProductByExternalID obtiene un producto por su id de item en el POS.
func (r *CatalogRepo) GetProductByExternalID(externalID string) (*entity.Product, error) {
	query := `
		SELECT id, external_id, name, created_at, updated_at, deleted_at
		FROM products WHERE external_id = $1 AND deleted_at IS NULL`
	return r.scanProduct(r.q.QueryRow(context.Background(), query, externalID), "get product by external id")
}

// CreateProduct inserta un producto espejado del catálogo del POS.
func (r *CatalogRepo) CreateProduct(p *entity.Product) error {
	query := `
		INSERT INTO products (id, external_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())`
	_, err := r.q.Exec(context.Background(), query, p.ID, p.ExternalID, p.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: producto con external_id %s", domain.ErrDuplicate, p.ExternalID)
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// GetSellableByID obtiene una sellable por id (nil si no existe).
func (r *CatalogRepo) GetSellableByID(id string) (*entity.Sellable, error) {
	query := `
		SELECT id, product_id, external_id, variation_name, display_name, created_at, updated_at, deleted_at
		FROM sellables WHERE id = $1`
	return r.scanSellable(r.q.QueryRow(context.Background(), query, id), "get sellable")
}

// GetSellableByExternalID obtiene una sellable por su id de variación en el POS.
func (r *CatalogRepo) GetSellableByExternalID(externalID string) (*entity.Sellable, error) {
	query := `
		SELECT id, product_id, external_id, variation_name, display_name, created_at, updated_at, deleted_at
		FROM sellables WHERE external_id = $1 AND deleted_at IS NULL`
	return r.scanSellable(r.q.QueryRow(context.Background(), query, externalID), "get sellable by external id")
}

// CreateSellable inserta una sellable espejada.
func (r *CatalogRepo) CreateSellable(s *entity.Sellable) error {
	query := `
		INSERT INTO sellables (id, product_id, external_id, variation_name, display_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())`
	_, err := r.q.Exec(context.Background(), query, s.ID, s.ProductID, s.ExternalID, s.VariationName, s.DisplayName)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: sellable con external_id %s", domain.ErrDuplicate, s.ExternalID)
		}
		return fmt.Errorf("create sellable: %w", err)
	}
	return nil
}

func (r *CatalogRepo) scanProduct(row pgx.Row, op string) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.ExternalID, &p.Name, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

func (r *CatalogRepo) scanSellable(row pgx.Row, op string) (*entity.Sellable, error) {
	var s entity.Sellable
	err := row.Scan(&s.ID, &s.ProductID, &s.ExternalID, &s.VariationName, &s.DisplayName, &s.CreatedAt, &s.UpdatedAt, &s.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &s, nil
}
