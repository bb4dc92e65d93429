package dto

import "github.com/shopspring/decimal"

// ItemMatchDTO es una sugerencia de matching para una línea de factura.
type ItemMatchDTO struct {
	InventoryItemID string           `json:"inventory_item_id"`
	Confidence      float64          `json:"confidence"`
	Method          string           `json:"method"`
	Reasons         []string         `json:"reasons"`
	PackEquivalent  *decimal.Decimal `json:"pack_equivalent,omitempty"`
}

// LineSuggestionsDTO agrupa las sugerencias de una línea.
type LineSuggestionsDTO struct {
	InvoiceItemID string         `json:"invoice_item_id"`
	Description   string         `json:"description"`
	Suggestions   []ItemMatchDTO `json:"suggestions"`
}

// OrderMatchDTO es un candidato puntuado de orden de compra.
type OrderMatchDTO struct {
	PurchaseOrderID  string          `json:"purchase_order_id"`
	Confidence       float64         `json:"confidence"`
	Reasons          []string        `json:"reasons,omitempty"`
	QuantityVariance decimal.Decimal `json:"quantity_variance"`
	AmountVariance   decimal.Decimal `json:"amount_variance"`
	Status           string          `json:"status,omitempty"`
}

// OrderMatchResultDTO es la respuesta de POST /api/invoices/:id/match-order.
// Recorded es el match persistido (sugerido o auto-confirmado); es nil
// cuando no hubo candidatos o el par ya estaba registrado.
type OrderMatchResultDTO struct {
	InvoiceID string          `json:"invoice_id"`
	Matches   []OrderMatchDTO `json:"matches"`
	Recorded  *OrderMatchDTO  `json:"recorded,omitempty"`
}

// ApplyMatchRequest es el cuerpo de la confirmación manual de una
// sugerencia de matching de línea.
type ApplyMatchRequest struct {
	InventoryItemID string `json:"inventory_item_id"`
}

// LineErrorDTO reporta el fallo de una línea dentro de un lote.
type LineErrorDTO struct {
	InvoiceItemID string `json:"invoice_item_id"`
	Error         string `json:"error"`
}

// ConfirmInvoiceResultDTO es la respuesta de POST /api/invoices/:id/confirm.
type ConfirmInvoiceResultDTO struct {
	InvoiceID        string         `json:"invoice_id"`
	Confirmed        bool           `json:"confirmed"`
	MovementsCreated int            `json:"movements_created"`
	UnmatchedLines   []string       `json:"unmatched_lines,omitempty"`
	LineErrors       []LineErrorDTO `json:"line_errors,omitempty"`
}
