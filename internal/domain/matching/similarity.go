// Package matching implementa el motor de matching con puntaje de confianza:
// línea de factura → artículo de inventario y factura → orden de compra.
// Es lógica pura de dominio: recibe candidatos ya cargados y nunca toca la BD.
package matching

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Similarity es la capacidad de comparar dos cadenas y devolver un puntaje
// en [0,1]. Las implementaciones se inyectan en la construcción (no hay carga
// perezosa de backends): si falta el backend, falla el arranque, no la
// primera llamada.
type Similarity interface {
	Score(a, b string) float64
}

// stripDiacritics elimina marcas diacríticas (café → cafe) para que el
// matching sea estable ante acentos inconsistentes en facturas.
var stripDiacritics = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Normalize baja a minúsculas, quita acentos y colapsa espacios. Toda
// comparación del motor pasa por aquí.
func Normalize(s string) string {
	out, _, err := transform.String(stripDiacritics, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// Tokenize divide una descripción normalizada en tokens.
func Tokenize(s string) []string {
	return strings.Fields(Normalize(s))
}

// TokenFuzzy compara por tokens: para cada token de una cadena busca su mejor
// pareja por distancia de Levenshtein en la otra, y promedia en ambos
// sentidos. Tolera reordenamientos ("Beans Dark Roast" ≈ "Dark Roast Beans").
type TokenFuzzy struct{}

// Score implementa Similarity.
func (TokenFuzzy) Score(a, b string) float64 {
	ta, tb := Tokenize(a), Tokenize(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	return (bestPairAverage(ta, tb) + bestPairAverage(tb, ta)) / 2
}

func bestPairAverage(from, to []string) float64 {
	var sum float64
	for _, t := range from {
		best := 0.0
		for _, u := range to {
			if r := levenshteinRatio(t, u); r > best {
				best = r
			}
		}
		sum += best
	}
	return sum / float64(len(from))
}

// levenshteinRatio convierte la distancia de edición en similitud [0,1].
func levenshteinRatio(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

// EditDistance es el backend de respaldo sobre cadenas completas
// (Jaro-Winkler); captura parecidos que el matching por tokens se pierde.
type EditDistance struct{}

// Score implementa Similarity.
func (EditDistance) Score(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	return smetrics.JaroWinkler(na, nb, 0.7, 4)
}
