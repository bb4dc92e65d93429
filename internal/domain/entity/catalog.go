package entity

import "time"

// Product es la familia vendible ("item" en el POS): "Latte", "Croissant".
// Se crea por sincronización de catálogo y solo se borra lógicamente.
type Product struct {
	ID         string
	ExternalID string // id del item en el POS
	Name       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  *time.Time
}

// Sellable es la variante comprable de un Product ("variation" en el POS):
// "Latte — Grande". Toda Sellable referencia exactamente un Product.
type Sellable struct {
	ID            string
	ProductID     string
	ExternalID    string // id de la variación en el POS
	VariationName string
	DisplayName   string // nombre legible: producto + variación
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}
