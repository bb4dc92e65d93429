package matching_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cafetero/cafeteria-api/internal/domain/entity"
	"github.com/cafetero/cafeteria-api/internal/domain/matching"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

func item(id, name string) *entity.InventoryItem {
	return &entity.InventoryItem{ID: id, Name: name, ItemType: entity.ItemTypeIngredient, UnitType: "unidad", PackSize: 1}
}

func matchLine(desc string) matching.InvoiceLine {
	return matching.InvoiceLine{Description: desc, Quantity: decimal.NewFromInt(1)}
}

func suggest(line matching.InvoiceLine, candidates []*entity.InventoryItem) []matching.ItemMatch {
	return matching.MatchInvoiceItem(line, candidates, matching.DefaultItemMatchOptions(),
		matching.TokenFuzzy{}, matching.EditDistance{})
}

// ──────────────────────────────────────────────────────────────────────────────
// Matching de líneas de factura
// ──────────────────────────────────────────────────────────────────────────────

// Una descripción idéntica (ignorando mayúsculas y acentos) produce
// confianza 1.0 con método exact.
func TestMatchInvoiceItem_DescripcionIdenticaEsExacta(t *testing.T) {
	candidates := []*entity.InventoryItem{
		item("i1", "Café en Grano Oscuro"),
		item("i2", "Leche Entera"),
	}
	out := suggest(matchLine("cafe en grano oscuro"), candidates)

	require.NotEmpty(t, out, "debe haber al menos una sugerencia")
	assert.Equal(t, "i1", out[0].InventoryItemID)
	assert.Equal(t, matching.MethodExact, out[0].Method)
	assert.Equal(t, 1.0, out[0].Confidence)
}

// El código del proveedor que coincide con el id externo del artículo
// produce confianza 0.95 con método sku.
func TestMatchInvoiceItem_CodigoProveedorCoincideConIDExterno(t *testing.T) {
	c := item("i1", "Vasos 12oz")
	c.ExternalID = "SKU-999"
	line := matching.InvoiceLine{Description: "descripción que no se parece", SupplierCode: "SKU-999", Quantity: decimal.NewFromInt(3)}

	out := suggest(line, []*entity.InventoryItem{c})

	require.Len(t, out, 1)
	assert.Equal(t, matching.MethodSKU, out[0].Method)
	assert.Equal(t, 0.95, out[0].Confidence)
}

// Una descripción parecida pero no idéntica cae en fuzzy, nunca por encima
// del tope 0.95: un exact siempre gana.
func TestMatchInvoiceItem_FuzzyNuncaSuperaAExact(t *testing.T) {
	candidates := []*entity.InventoryItem{
		item("exacto", "Croissant Mantequilla"),
		item("parecido", "Croissant Mantequila"), // typo deliberado
	}
	out := suggest(matchLine("Croissant Mantequilla"), candidates)

	require.GreaterOrEqual(t, len(out), 2)
	assert.Equal(t, "exacto", out[0].InventoryItemID)
	assert.Equal(t, 1.0, out[0].Confidence)
	assert.Less(t, out[1].Confidence, out[0].Confidence, "el fuzzy debe quedar por debajo del exact")
	assert.LessOrEqual(t, out[1].Confidence, 0.95)
}

// El bonus de proveedor sube la confianza del fuzzy; con todo y bonus la
// confianza queda en [0, 1].
func TestMatchInvoiceItem_BonusDeProveedor(t *testing.T) {
	same := item("mismo", "Azucar Morena Organica")
	same.SupplierName = "Dulces del Valle"
	other := item("otro", "Azucar Morena Organica Bolsa")

	line := matching.InvoiceLine{
		Description:  "Azucar Morena Organic",
		SupplierName: "Dulces del Valle",
		Quantity:     decimal.NewFromInt(1),
	}
	out := suggest(line, []*entity.InventoryItem{same, other})

	require.NotEmpty(t, out)
	assert.Equal(t, "mismo", out[0].InventoryItemID, "el candidato del mismo proveedor debe rankear primero")
	for _, m := range out {
		assert.GreaterOrEqual(t, m.Confidence, 0.0)
		assert.LessOrEqual(t, m.Confidence, 1.0)
	}
}

// Sin parecido alguno, el resultado es lista vacía, no error.
func TestMatchInvoiceItem_SinCandidatosParecidosDevuelveVacio(t *testing.T) {
	out := suggest(matchLine("tornillos galvanizados"), []*entity.InventoryItem{
		item("i1", "Leche Entera"),
		item("i2", "Croissant"),
	})
	assert.Empty(t, out)
}

// Nunca se devuelven más de MaxSuggestions sugerencias, ordenadas por
// confianza descendente.
func TestMatchInvoiceItem_RespetaMaxSuggestions(t *testing.T) {
	candidates := []*entity.InventoryItem{
		item("i1", "Cafe Grano Oscuro"),
		item("i2", "Cafe Grano Claro"),
		item("i3", "Cafe Grano Medio"),
		item("i4", "Cafe Grano Descafeinado"),
		item("i5", "Cafe Grano Mezcla"),
		item("i6", "Cafe Grano Premium"),
		item("i7", "Cafe Grano Organico"),
	}
	out := suggest(matchLine("Cafe Grano"), candidates)

	assert.LessOrEqual(t, len(out), 5)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].Confidence, out[i].Confidence, "el orden debe ser por confianza descendente")
	}
}

// PackEquivalent es informativo: con PackSize > 1 reporta la cantidad en
// empaques sin tocar la confianza.
func TestMatchInvoiceItem_PackEquivalentInformativo(t *testing.T) {
	c := item("i1", "Vasos 12oz")
	c.PackSize = 50
	line := matching.InvoiceLine{Description: "Vasos 12oz", Quantity: decimal.NewFromInt(200)}

	out := suggest(line, []*entity.InventoryItem{c})

	require.Len(t, out, 1)
	require.NotNil(t, out[0].PackEquivalent)
	assert.True(t, out[0].PackEquivalent.Equal(decimal.NewFromInt(4)), "200 unidades / pack de 50 = 4 empaques")
	assert.Equal(t, 1.0, out[0].Confidence)
}
