package repository

import "github.com/cafetero/cafeteria-api/internal/domain/entity"

// CatalogRepository define el puerto de la capa de mapeo de catálogo
// (Product/Sellable espejo del item/variation del POS).
type CatalogRepository interface {
	GetProductByID(id string) (*entity.Product, error)
	GetProductByExternalID(externalID string) (*entity.Product, error)
	CreateProduct(p *entity.Product) error
	GetSellableByID(id string) (*entity.Sellable, error)
	GetSellableByExternalID(externalID string) (*entity.Sellable, error)
	CreateSellable(s *entity.Sellable) error
}
