// Package remap implementa la lógica de la herramienta offline de remapeo:
// propone qué artículo de inventario debe adoptar cada id de catálogo
// externo sin resolver, detecta propuestas en conflicto y, solo bajo orden
// explícita, aplica las propuestas limpias.
package remap

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/cafetero/cafeteria-api/pkg/logger"

	"github.com/cafetero/cafeteria-api/internal/domain/entity"
	"github.com/cafetero/cafeteria-api/internal/domain/matching"
	"github.com/cafetero/cafeteria-api/internal/domain/repository"
)

// Umbral mínimo de confianza para proponer un remapeo por similitud. Más
// conservador que el matching de facturas: la herramienta escribe mapeos
// permanentes.
const proposalFloor = 0.8

// Proposal es una propuesta de adopción: el artículo tomaría el id de
// catálogo externo para que futuros syncs lo resuelvan solos.
type Proposal struct {
	ExternalID      string
	LineName        string
	InventoryItemID string
	ItemName        string
	Confidence      float64
	Method          string
	Conflict        bool // true: otro artículo reclama el mismo id; ninguno se aplica
}

// Proposer calcula y aplica propuestas de remapeo.
type Proposer struct {
	sales    repository.SalesRepository
	items    repository.InventoryItemRepository
	fuzzy    matching.Similarity
	fallback matching.Similarity
	log      *logger.Logger
}

// NewProposer construye la herramienta con comparadores fijos.
func NewProposer(sales repository.SalesRepository, items repository.InventoryItemRepository, fuzzy, fallback matching.Similarity, log *logger.Logger) *Proposer {
	return &Proposer{sales: sales, items: items, fuzzy: fuzzy, fallback: fallback, log: log}
}

// Propose cruza las líneas de venta sin resolver contra los artículos de
// inventario sin id externo. Cuando varios artículos terminan reclamando el
// mismo id externo (empate dentro de una línea, o líneas distintas con el
// mismo id de catálogo), todas esas propuestas quedan marcadas como
// conflicto y ninguna es aplicable. Lo mismo cuando un artículo quedaría
// adoptando más de un id externo.
func (p *Proposer) Propose(ctx context.Context) ([]Proposal, error) {
	lines, err := p.sales.ListUnresolvedLines()
	if err != nil {
		return nil, fmt.Errorf("listar líneas sin resolver: %w", err)
	}
	all, err := p.items.ListActive()
	if err != nil {
		return nil, fmt.Errorf("listar artículos: %w", err)
	}
	candidates := all[:0:0]
	for _, it := range all {
		if it.ExternalID == "" {
			candidates = append(candidates, it)
		}
	}

	opts := matching.DefaultItemMatchOptions()
	opts.SimilarityFloor = proposalFloor

	var proposals []Proposal
	seen := make(map[[2]string]bool) // id externo + artículo ya propuesto
	for _, line := range lines {
		if line.CatalogObjectID == "" || line.Name == "" {
			continue
		}
		matches := matching.MatchInvoiceItem(
			matching.InvoiceLine{Description: line.Name},
			candidates, opts, p.fuzzy, p.fallback,
		)
		if len(matches) == 0 {
			continue
		}
		top := matches[0]
		tied := []matching.ItemMatch{top}
		for _, m := range matches[1:] {
			if m.Confidence == top.Confidence {
				tied = append(tied, m)
			}
		}
		for _, m := range tied {
			key := [2]string{line.CatalogObjectID, m.InventoryItemID}
			if seen[key] {
				continue
			}
			seen[key] = true
			proposals = append(proposals, Proposal{
				ExternalID:      line.CatalogObjectID,
				LineName:        line.Name,
				InventoryItemID: m.InventoryItemID,
				ItemName:        itemName(all, m.InventoryItemID),
				Confidence:      m.Confidence,
				Method:          m.Method,
			})
		}
	}
	p.markConflicts(proposals)

	sort.SliceStable(proposals, func(i, j int) bool {
		if proposals[i].ExternalID != proposals[j].ExternalID {
			return proposals[i].ExternalID < proposals[j].ExternalID
		}
		return proposals[i].Confidence > proposals[j].Confidence
	})
	return proposals, nil
}

// markConflicts cruza las propuestas entre sí: un id externo reclamado por
// más de un artículo, o un artículo que reclamaría más de un id externo,
// deja todo su grupo en conflicto. Así dos líneas distintas con el mismo
// id de catálogo no pueden colgar ese id de dos filas de inventario.
func (p *Proposer) markConflicts(proposals []Proposal) {
	itemsPerExt := make(map[string]map[string]bool)
	extsPerItem := make(map[string]map[string]bool)
	for _, pr := range proposals {
		if itemsPerExt[pr.ExternalID] == nil {
			itemsPerExt[pr.ExternalID] = make(map[string]bool)
		}
		itemsPerExt[pr.ExternalID][pr.InventoryItemID] = true
		if extsPerItem[pr.InventoryItemID] == nil {
			extsPerItem[pr.InventoryItemID] = make(map[string]bool)
		}
		extsPerItem[pr.InventoryItemID][pr.ExternalID] = true
	}
	for i := range proposals {
		pr := &proposals[i]
		if len(itemsPerExt[pr.ExternalID]) > 1 || len(extsPerItem[pr.InventoryItemID]) > 1 {
			pr.Conflict = true
			p.log.Warn().
				Str("external_id", pr.ExternalID).
				Str("inventory_item_id", pr.InventoryItemID).
				Msg("Propuesta en conflicto: el mapeo no es uno a uno")
		}
	}
}

// Apply aplica las propuestas sin conflicto: el artículo adopta el id
// externo. Una propuesta cuyo id externo ya pertenece a otro artículo se
// ignora con aviso. Devuelve cuántas propuestas se aplicaron.
func (p *Proposer) Apply(ctx context.Context, proposals []Proposal) (int, error) {
	applied := 0
	for _, pr := range proposals {
		if pr.Conflict {
			continue
		}
		owner, err := p.items.GetByExternalID(pr.ExternalID)
		if err != nil {
			return applied, fmt.Errorf("verificar dueño de %s: %w", pr.ExternalID, err)
		}
		if owner != nil && owner.ID != pr.InventoryItemID {
			p.log.Warn().
				Str("external_id", pr.ExternalID).
				Str("inventory_item_id", owner.ID).
				Msg("Id externo ya adoptado por otro artículo; propuesta ignorada")
			continue
		}
		if err := p.items.UpdateExternalID(pr.InventoryItemID, pr.ExternalID); err != nil {
			return applied, fmt.Errorf("aplicar remapeo de %s: %w", pr.ExternalID, err)
		}
		applied++
		p.log.Info().
			Str("external_id", pr.ExternalID).
			Str("inventory_item_id", pr.InventoryItemID).
			Msg("Remapeo aplicado")
	}
	return applied, nil
}

// WriteCSV escribe las propuestas en formato CSV con encabezado.
func WriteCSV(w io.Writer, proposals []Proposal) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"external_id", "line_name", "inventory_item_id", "item_name", "confidence", "method", "conflict"}); err != nil {
		return err
	}
	for _, p := range proposals {
		row := []string{
			p.ExternalID,
			p.LineName,
			p.InventoryItemID,
			p.ItemName,
			fmt.Sprintf("%.2f", p.Confidence),
			p.Method,
			fmt.Sprintf("%t", p.Conflict),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func itemName(items []*entity.InventoryItem, id string) string {
	for _, it := range items {
		if it.ID == id {
			return it.Name
		}
	}
	return ""
}
