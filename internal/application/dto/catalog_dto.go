package dto

// RefreshCatalogRequest es el cuerpo de POST /api/catalog/refresh: ids de
// objetos de catálogo del POS a traer en lote.
type RefreshCatalogRequest struct {
	ExternalIDs []string `json:"external_ids"`
}

// RefreshCatalogResponse resume el refresco de catálogo.
type RefreshCatalogResponse struct {
	Upserted int `json:"upserted"`
}
