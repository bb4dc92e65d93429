// Package purchasing implementa el circuito de compras: sugerencias de
// match factura→artículo, conciliación factura→orden de compra y la
// confirmación de facturas con su entrada de inventario.
package purchasing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cafetero/cafeteria-api/pkg/logger"

	"github.com/cafetero/cafeteria-api/internal/application/dto"
	appinv "github.com/cafetero/cafeteria-api/internal/application/inventory"
	"github.com/cafetero/cafeteria-api/internal/domain"
	"github.com/cafetero/cafeteria-api/internal/domain/entity"
	"github.com/cafetero/cafeteria-api/internal/domain/matching"
	"github.com/cafetero/cafeteria-api/internal/domain/repository"
)

// UseCase orquesta matching y confirmación de facturas de proveedor.
// Los comparadores de similitud se inyectan al construir: el motor de
// matching nunca los elige en runtime.
type UseCase struct {
	invoices repository.SupplierInvoiceRepository
	orders   repository.PurchaseOrderRepository
	items    repository.InventoryItemRepository
	ledger   *appinv.LedgerUseCase
	fuzzy    matching.Similarity
	fallback matching.Similarity
	opts     matching.ItemMatchOptions
	log      *logger.Logger
}

// NewUseCase construye el caso de uso con comparadores fijos.
func NewUseCase(
	invoices repository.SupplierInvoiceRepository,
	orders repository.PurchaseOrderRepository,
	items repository.InventoryItemRepository,
	ledger *appinv.LedgerUseCase,
	fuzzy, fallback matching.Similarity,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		invoices: invoices,
		orders:   orders,
		items:    items,
		ledger:   ledger,
		fuzzy:    fuzzy,
		fallback: fallback,
		opts:     matching.DefaultItemMatchOptions(),
		log:      log,
	}
}

// SuggestItemMatches calcula sugerencias de artículo de inventario para
// cada línea de la factura, ordenadas por confianza descendente.
func (uc *UseCase) SuggestItemMatches(ctx context.Context, invoiceID string) ([]dto.LineSuggestionsDTO, error) {
	invoice, err := uc.invoices.GetByID(invoiceID)
	if err != nil {
		return nil, fmt.Errorf("cargar factura: %w", err)
	}
	if invoice == nil {
		return nil, domain.ErrNotFound
	}

	candidates, err := uc.items.ListActive()
	if err != nil {
		return nil, fmt.Errorf("listar artículos: %w", err)
	}

	out := make([]dto.LineSuggestionsDTO, 0, len(invoice.Items))
	for _, item := range invoice.Items {
		line := matching.InvoiceLine{
			Description:  item.Description,
			SupplierCode: item.SupplierCode,
			SupplierName: invoice.SupplierName,
			Unit:         item.Unit,
			Quantity:     item.Quantity,
		}
		matches := matching.MatchInvoiceItem(line, candidates, uc.opts, uc.fuzzy, uc.fallback)
		out = append(out, dto.LineSuggestionsDTO{
			InvoiceItemID: item.ID,
			Description:   item.Description,
			Suggestions:   toMatchDTOs(matches),
		})
	}
	return out, nil
}

// ApplyItemMatch fija manualmente el artículo de una línea de factura.
// Una confirmación manual siempre queda con confianza 1.0.
func (uc *UseCase) ApplyItemMatch(ctx context.Context, invoiceID, invoiceItemID, inventoryItemID string) error {
	if invoiceID == "" || invoiceItemID == "" || inventoryItemID == "" {
		return domain.ErrInvalidInput
	}
	invoice, err := uc.invoices.GetByID(invoiceID)
	if err != nil {
		return fmt.Errorf("cargar factura: %w", err)
	}
	if invoice == nil {
		return domain.ErrNotFound
	}
	if invoice.Status == entity.InvoiceStatusConfirmed {
		return fmt.Errorf("%w: la factura ya está confirmada", domain.ErrConflict)
	}
	item, err := uc.items.GetByID(inventoryItemID)
	if err != nil {
		return fmt.Errorf("cargar artículo: %w", err)
	}
	if item == nil || !item.Active() {
		return fmt.Errorf("%w: artículo de inventario inexistente o inactivo", domain.ErrInvalidInput)
	}
	return uc.invoices.UpdateItemMatch(invoiceItemID, inventoryItemID, 1.0, "manual")
}

// MatchInvoiceToOrders busca órdenes de compra candidatas para la factura
// y registra el mejor match como sugerido, o confirmado cuando la
// confianza alcanza el umbral de auto-confirmación.
func (uc *UseCase) MatchInvoiceToOrders(ctx context.Context, invoiceID string) (*dto.OrderMatchResultDTO, error) {
	invoice, err := uc.invoices.GetByID(invoiceID)
	if err != nil {
		return nil, fmt.Errorf("cargar factura: %w", err)
	}
	if invoice == nil {
		return nil, domain.ErrNotFound
	}

	from := invoice.InvoiceDate.AddDate(0, 0, -30)
	to := invoice.InvoiceDate.AddDate(0, 0, 30)
	candidates, err := uc.orders.ListCandidates(invoice.SupplierName, from, to)
	if err != nil {
		return nil, fmt.Errorf("listar órdenes candidatas: %w", err)
	}

	lines := make([]matching.InvoiceLine, 0, len(invoice.Items))
	for _, it := range invoice.Items {
		lines = append(lines, matching.InvoiceLine{
			Description:  it.Description,
			SupplierCode: it.SupplierCode,
			Unit:         it.Unit,
			Quantity:     it.Quantity,
		})
	}

	matches := matching.MatchOrder(invoice.SupplierName, invoice.InvoiceDate, invoice.TotalAmount, lines, candidates)

	result := &dto.OrderMatchResultDTO{InvoiceID: invoiceID}
	for _, m := range matches {
		result.Matches = append(result.Matches, dto.OrderMatchDTO{
			PurchaseOrderID:  m.PurchaseOrderID,
			Confidence:       m.Confidence,
			Reasons:          m.Reasons,
			QuantityVariance: m.QuantityVariance,
			AmountVariance:   m.AmountVariance,
		})
	}
	if len(matches) == 0 {
		return result, nil
	}

	best := matches[0]
	exists, err := uc.orders.MatchExists(invoiceID, best.PurchaseOrderID)
	if err != nil {
		return nil, fmt.Errorf("verificar match existente: %w", err)
	}
	if exists {
		return result, nil
	}

	status := entity.MatchStatusSuggested
	if best.Confidence >= matching.OrderAutoConfirmLevel {
		status = entity.MatchStatusConfirmed
	}
	rec := &entity.OrderInvoiceMatch{
		ID:               uuid.NewString(),
		InvoiceID:        invoiceID,
		PurchaseOrderID:  best.PurchaseOrderID,
		Confidence:       best.Confidence,
		QuantityVariance: best.QuantityVariance,
		AmountVariance:   best.AmountVariance,
		Status:           status,
	}
	if err := uc.orders.CreateMatch(rec); err != nil {
		return nil, fmt.Errorf("guardar match: %w", err)
	}
	result.Recorded = &dto.OrderMatchDTO{
		PurchaseOrderID:  best.PurchaseOrderID,
		Confidence:       best.Confidence,
		QuantityVariance: best.QuantityVariance,
		AmountVariance:   best.AmountVariance,
		Status:           status,
	}
	uc.log.Info().
		Str("invoice_id", invoiceID).
		Str("purchase_order_id", best.PurchaseOrderID).
		Float64("confidence", best.Confidence).
		Str("status", status).
		Msg("Match factura-orden registrado")
	return result, nil
}

// ListOrderMatches devuelve los matches factura ↔ orden registrados de una
// factura, tanto sugeridos como confirmados.
func (uc *UseCase) ListOrderMatches(ctx context.Context, invoiceID string) ([]dto.OrderMatchDTO, error) {
	invoice, err := uc.invoices.GetByID(invoiceID)
	if err != nil {
		return nil, fmt.Errorf("cargar factura: %w", err)
	}
	if invoice == nil {
		return nil, domain.ErrNotFound
	}
	matches, err := uc.orders.ListMatchesByInvoice(invoiceID)
	if err != nil {
		return nil, fmt.Errorf("listar matches: %w", err)
	}
	out := make([]dto.OrderMatchDTO, 0, len(matches))
	for _, m := range matches {
		out = append(out, dto.OrderMatchDTO{
			PurchaseOrderID:  m.PurchaseOrderID,
			Confidence:       m.Confidence,
			QuantityVariance: m.QuantityVariance,
			AmountVariance:   m.AmountVariance,
			Status:           m.Status,
		})
	}
	return out, nil
}

// ConfirmInvoice confirma la factura y registra entradas de inventario
// (movimientos de compra) para cada línea con artículo asignado. Las
// cantidades fraccionarias se truncan al entero inferior. Las líneas sin
// match no generan movimiento y se reportan en el resultado.
func (uc *UseCase) ConfirmInvoice(ctx context.Context, invoiceID, confirmedBy string) (*dto.ConfirmInvoiceResultDTO, error) {
	invoice, err := uc.invoices.GetByID(invoiceID)
	if err != nil {
		return nil, fmt.Errorf("cargar factura: %w", err)
	}
	if invoice == nil {
		return nil, domain.ErrNotFound
	}
	if invoice.Status == entity.InvoiceStatusConfirmed {
		return nil, fmt.Errorf("%w: la factura ya está confirmada", domain.ErrConflict)
	}

	result := &dto.ConfirmInvoiceResultDTO{InvoiceID: invoiceID}
	for _, item := range invoice.Items {
		if item.MatchedItemID == "" {
			result.UnmatchedLines = append(result.UnmatchedLines, item.ID)
			continue
		}
		qty := item.Quantity.IntPart()
		if qty <= 0 {
			result.UnmatchedLines = append(result.UnmatchedLines, item.ID)
			continue
		}
		var unitCost *decimal.Decimal
		if item.UnitPrice.GreaterThan(decimal.Zero) {
			c := item.UnitPrice
			unitCost = &c
		}
		_, err := uc.ledger.ApplyMovement(ctx, appinv.MovementInput{
			ItemID:         item.MatchedItemID,
			Type:           entity.MovementTypePurchase,
			QuantityChange: qty,
			UnitCost:       unitCost,
			Reference:      "invoice:" + invoiceID,
			Note:           "entrada por factura confirmada",
			CreatedBy:      confirmedBy,
		})
		if err != nil {
			result.LineErrors = append(result.LineErrors, dto.LineErrorDTO{
				InvoiceItemID: item.ID,
				Error:         err.Error(),
			})
			uc.log.Error().Err(err).
				Str("invoice_id", invoiceID).
				Str("invoice_item_id", item.ID).
				Msg("Error registrando entrada de inventario")
			continue
		}
		result.MovementsCreated++
	}

	if err := uc.invoices.MarkConfirmed(invoiceID, time.Now()); err != nil {
		return result, fmt.Errorf("marcar factura confirmada: %w", err)
	}
	result.Confirmed = true
	return result, nil
}

func toMatchDTOs(matches []matching.ItemMatch) []dto.ItemMatchDTO {
	out := make([]dto.ItemMatchDTO, 0, len(matches))
	for _, m := range matches {
		d := dto.ItemMatchDTO{
			InventoryItemID: m.InventoryItemID,
			Confidence:      m.Confidence,
			Method:          m.Method,
			Reasons:         m.Reasons,
		}
		if m.PackEquivalent != nil {
			d.PackEquivalent = m.PackEquivalent
		}
		out = append(out, d)
	}
	return out
}
