package matching

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cafetero/cafeteria-api/internal/domain/entity"
)

// Métodos de matching, en orden de prioridad.
const (
	MethodExact      = "exact"
	MethodSKU        = "sku"
	MethodFuzzy      = "fuzzy"
	MethodSimilarity = "similarity"
)

// Topes de confianza por método.
const (
	confidenceExact   = 1.0
	confidenceSKU     = 0.95
	fuzzyCap          = 0.95
	similarityCap     = 0.90
	unitTypeBoost     = 0.05
)

// InvoiceLine es la línea de factura a emparejar (ya extraída por el
// proveedor de OCR externo).
type InvoiceLine struct {
	Description  string
	SupplierCode string
	SupplierName string
	Unit         string
	Quantity     decimal.Decimal
}

// ItemMatchOptions parametriza el matching de líneas.
type ItemMatchOptions struct {
	SimilarityFloor float64 // piso de similitud para fuzzy y fallback
	SupplierBoost   float64 // bonus si el proveedor coincide
	MaxSuggestions  int
}

// DefaultItemMatchOptions son los valores de producción.
func DefaultItemMatchOptions() ItemMatchOptions {
	return ItemMatchOptions{SimilarityFloor: 0.6, SupplierBoost: 0.10, MaxSuggestions: 5}
}

// ItemMatch es una sugerencia puntuada. PackEquivalent es informativo: si el
// candidato tiene PackSize > 1 reporta la cantidad aproximada en empaques,
// sin alterar la semántica de unidades que usa el ledger (la convención del
// sistema es siempre conteo de unidades).
type ItemMatch struct {
	InventoryItemID string
	Confidence      float64
	Method          string
	Reasons         []string
	PackEquivalent  *decimal.Decimal
}

// MatchInvoiceItem empareja una línea de factura contra los candidatos, en
// orden de prioridad exact → sku → fuzzy → similarity, deduplicando por
// candidato. "Sin resultados" devuelve lista vacía, nunca error.
func MatchInvoiceItem(line InvoiceLine, candidates []*entity.InventoryItem, opts ItemMatchOptions, fuzzy, fallback Similarity) []ItemMatch {
	if opts.MaxSuggestions <= 0 {
		opts.MaxSuggestions = DefaultItemMatchOptions().MaxSuggestions
	}
	normDesc := Normalize(line.Description)
	normSupplier := Normalize(line.SupplierName)
	normUnit := Normalize(line.Unit)

	matched := make(map[string]bool, len(candidates))
	var out []ItemMatch
	add := func(c *entity.InventoryItem, conf float64, method string, reasons []string) {
		if matched[c.ID] {
			return
		}
		matched[c.ID] = true
		out = append(out, ItemMatch{
			InventoryItemID: c.ID,
			Confidence:      clamp01(conf),
			Method:          method,
			Reasons:         reasons,
			PackEquivalent:  packEquivalent(line.Quantity, c.PackSize),
		})
	}

	// 1. Igualdad exacta de descripciones (case/acento-insensible).
	for _, c := range candidates {
		if normDesc != "" && Normalize(c.Name) == normDesc {
			add(c, confidenceExact, MethodExact, []string{"descripción idéntica"})
		}
	}

	// 2. Código del proveedor == identificador externo del candidato.
	if line.SupplierCode != "" {
		for _, c := range candidates {
			if c.ExternalID != "" && c.ExternalID == line.SupplierCode {
				add(c, confidenceSKU, MethodSKU, []string{"código de proveedor coincide con id externo"})
			}
		}
	}

	// 3. Fuzzy por tokens con piso configurable, con bonus por proveedor y
	// por tipo de unidad; tope 0.95 para que nunca desplace a un exact.
	for _, c := range candidates {
		if matched[c.ID] {
			continue
		}
		score := fuzzy.Score(line.Description, c.Name)
		if score < opts.SimilarityFloor {
			continue
		}
		conf := score
		reasons := []string{fmt.Sprintf("similitud de tokens %.2f", score)}
		if normSupplier != "" && Normalize(c.SupplierName) == normSupplier {
			conf += opts.SupplierBoost
			reasons = append(reasons, "mismo proveedor")
		}
		if normUnit != "" && Normalize(c.UnitType) == normUnit {
			conf += unitTypeBoost
			reasons = append(reasons, "misma unidad")
		}
		if conf > fuzzyCap {
			conf = fuzzyCap
		}
		add(c, conf, MethodFuzzy, reasons)
	}

	// 4. Respaldo por similitud de cadenas sobre lo aún no emparejado.
	for _, c := range candidates {
		if matched[c.ID] {
			continue
		}
		score := fallback.Score(line.Description, c.Name)
		if score < opts.SimilarityFloor {
			continue
		}
		conf := score
		if conf > similarityCap {
			conf = similarityCap
		}
		add(c, conf, MethodSimilarity, []string{fmt.Sprintf("similitud de cadena %.2f", score)})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	if len(out) > opts.MaxSuggestions {
		out = out[:opts.MaxSuggestions]
	}
	return out
}

// packEquivalent reporta cantidad de línea / pack_size cuando aplica.
func packEquivalent(qty decimal.Decimal, packSize int) *decimal.Decimal {
	if packSize <= 1 || qty.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	eq := qty.Div(decimal.NewFromInt(int64(packSize))).Round(2)
	return &eq
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
