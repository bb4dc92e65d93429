package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest es el cuerpo de POST /api/invoices. La factura llega
// ya extraída (texto estructurado); el matching viene después.
type CreateInvoiceRequest struct {
	SupplierName string             `json:"supplier_name"`
	InvoiceDate  time.Time          `json:"invoice_date"`
	TotalAmount  decimal.Decimal    `json:"total_amount"`
	Currency     string             `json:"currency"`
	Items        []InvoiceItemInput `json:"items"`
}

// InvoiceItemInput es una línea de la factura en la creación.
type InvoiceItemInput struct {
	Description  string          `json:"description"`
	SupplierCode string          `json:"supplier_code,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit,omitempty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

// CreatePurchaseOrderRequest es el cuerpo de POST /api/purchase-orders.
type CreatePurchaseOrderRequest struct {
	SupplierName string                   `json:"supplier_name"`
	OrderDate    time.Time                `json:"order_date"`
	TotalAmount  decimal.Decimal          `json:"total_amount"`
	Status       string                   `json:"status"` // draft si viene vacío
	Lines        []PurchaseOrderLineInput `json:"lines"`
}

// PurchaseOrderLineInput es una línea de la orden en la creación.
type PurchaseOrderLineInput struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

// InvoiceDTO es una factura de proveedor en respuestas HTTP.
type InvoiceDTO struct {
	ID           string           `json:"id"`
	SupplierName string           `json:"supplier_name"`
	InvoiceDate  time.Time        `json:"invoice_date"`
	TotalAmount  decimal.Decimal  `json:"total_amount"`
	Currency     string           `json:"currency"`
	Status       string           `json:"status"`
	ConfirmedAt  *time.Time       `json:"confirmed_at,omitempty"`
	Items        []InvoiceItemDTO `json:"items"`
}

// InvoiceItemDTO es una línea de factura en respuestas HTTP.
type InvoiceItemDTO struct {
	ID              string          `json:"id"`
	Description     string          `json:"description"`
	SupplierCode    string          `json:"supplier_code,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit,omitempty"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	LineTotal       decimal.Decimal `json:"line_total"`
	MatchedItemID   string          `json:"matched_item_id,omitempty"`
	MatchConfidence float64         `json:"match_confidence,omitempty"`
	MatchMethod     string          `json:"match_method,omitempty"`
}

// PurchaseOrderDTO es una orden de compra en respuestas HTTP.
type PurchaseOrderDTO struct {
	ID           string                 `json:"id"`
	SupplierName string                 `json:"supplier_name"`
	OrderDate    time.Time              `json:"order_date"`
	TotalAmount  decimal.Decimal        `json:"total_amount"`
	Status       string                 `json:"status"`
	Lines        []PurchaseOrderLineDTO `json:"lines"`
}

// PurchaseOrderLineDTO es una línea de orden en respuestas HTTP.
type PurchaseOrderLineDTO struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}
