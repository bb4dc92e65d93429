package purchasing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cafetero/cafeteria-api/internal/application/dto"
	"github.com/cafetero/cafeteria-api/internal/domain"
	"github.com/cafetero/cafeteria-api/internal/domain/entity"
)

// CreateInvoice registra una factura de proveedor ya extraída, en estado
// pending. La extracción (OCR) es de un proveedor externo: aquí solo llega
// texto estructurado.
func (uc *UseCase) CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest) (*entity.SupplierInvoice, error) {
	if req.SupplierName == "" || req.InvoiceDate.IsZero() {
		return nil, fmt.Errorf("supplier_name e invoice_date son requeridos: %w", domain.ErrInvalidInput)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("la factura necesita al menos una línea: %w", domain.ErrInvalidInput)
	}
	if req.TotalAmount.IsNegative() {
		return nil, fmt.Errorf("total_amount no puede ser negativo: %w", domain.ErrInvalidInput)
	}

	inv := &entity.SupplierInvoice{
		ID:           uuid.NewString(),
		SupplierName: req.SupplierName,
		InvoiceDate:  req.InvoiceDate,
		TotalAmount:  req.TotalAmount,
		Currency:     req.Currency,
		Status:       entity.InvoiceStatusPending,
		CreatedAt:    time.Now(),
	}
	for _, in := range req.Items {
		if in.Description == "" || in.Quantity.Sign() <= 0 {
			return nil, fmt.Errorf("cada línea necesita description y quantity > 0: %w", domain.ErrInvalidInput)
		}
		inv.Items = append(inv.Items, entity.InvoiceItem{
			ID:           uuid.NewString(),
			InvoiceID:    inv.ID,
			Description:  in.Description,
			SupplierCode: in.SupplierCode,
			Quantity:     in.Quantity,
			Unit:         in.Unit,
			UnitPrice:    in.UnitPrice,
			LineTotal:    in.LineTotal,
		})
	}
	if err := uc.invoices.Create(inv); err != nil {
		return nil, fmt.Errorf("crear factura: %w", err)
	}
	uc.log.Info().
		Str("invoice_id", inv.ID).
		Str("supplier", inv.SupplierName).
		Int("lines", len(inv.Items)).
		Msg("factura de proveedor registrada")
	return inv, nil
}

// GetInvoice devuelve la factura con sus líneas.
func (uc *UseCase) GetInvoice(ctx context.Context, invoiceID string) (*entity.SupplierInvoice, error) {
	inv, err := uc.invoices.GetByID(invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

// CreatePurchaseOrder registra una orden de compra. Solo las órdenes en
// estado sent o confirmed son candidatas al matching con facturas.
func (uc *UseCase) CreatePurchaseOrder(ctx context.Context, req dto.CreatePurchaseOrderRequest) (*entity.PurchaseOrder, error) {
	if req.SupplierName == "" || req.OrderDate.IsZero() {
		return nil, fmt.Errorf("supplier_name y order_date son requeridos: %w", domain.ErrInvalidInput)
	}
	status := req.Status
	if status == "" {
		status = entity.PurchaseOrderStatusDraft
	}
	switch status {
	case entity.PurchaseOrderStatusDraft, entity.PurchaseOrderStatusSent,
		entity.PurchaseOrderStatusConfirmed, entity.PurchaseOrderStatusReceived:
	default:
		return nil, fmt.Errorf("status de orden %q: %w", status, domain.ErrInvalidInput)
	}

	po := &entity.PurchaseOrder{
		ID:           uuid.NewString(),
		SupplierName: req.SupplierName,
		OrderDate:    req.OrderDate,
		TotalAmount:  req.TotalAmount,
		Status:       status,
		CreatedAt:    time.Now(),
	}
	for _, in := range req.Lines {
		if in.Description == "" || in.Quantity.Sign() <= 0 {
			return nil, fmt.Errorf("cada línea necesita description y quantity > 0: %w", domain.ErrInvalidInput)
		}
		po.Lines = append(po.Lines, entity.PurchaseOrderLine{
			ID:          uuid.NewString(),
			OrderID:     po.ID,
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitCost:    in.UnitCost,
		})
	}
	if err := uc.orders.Create(po); err != nil {
		return nil, fmt.Errorf("crear orden de compra: %w", err)
	}
	uc.log.Info().
		Str("order_id", po.ID).
		Str("supplier", po.SupplierName).
		Str("status", po.Status).
		Msg("orden de compra registrada")
	return po, nil
}
