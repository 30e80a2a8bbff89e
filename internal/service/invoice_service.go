package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"blackcoffe/internal/apperr"
	"blackcoffe/internal/domain"
	"blackcoffe/internal/money"
	"blackcoffe/internal/repository"
	"blackcoffe/internal/storefront"
)

// SettingsProvider is the storefront collaborator the invoice joins
// business contact data from.
type SettingsProvider interface {
	GetSettings(ctx context.Context) storefront.Settings
}

type InvoiceItem struct {
	Name      string          `json:"name"`
	Variant   string          `json:"variant,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type InvoiceBusiness struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Whatsapp  string `json:"whatsapp"`
	HoursText string `json:"hours_text"`
}

type Invoice struct {
	InvoiceNumber   string          `json:"invoice_number"`
	Date            time.Time       `json:"date"`
	CustomerName    string          `json:"customer_name"`
	CustomerNit     string          `json:"customer_nit,omitempty"`
	Items           []InvoiceItem   `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Shipping        decimal.Decimal `json:"shipping"`
	IvaRate         decimal.Decimal `json:"iva_rate"`
	IvaAmount       decimal.Decimal `json:"iva_amount"`
	Total           decimal.Decimal `json:"total"`
	Business        InvoiceBusiness `json:"business"`
	BusinessMessage string          `json:"business_message"`
}

// InvoiceService renders invoices from persisted orders. Amounts come
// from the order's price snapshots, never the live catalog.
type InvoiceService struct {
	orders   repository.OrderRepository
	settings SettingsProvider
}

func NewInvoiceService(orders repository.OrderRepository, settings SettingsProvider) *InvoiceService {
	return &InvoiceService{orders: orders, settings: settings}
}

// GetInvoice returns the order's invoice, assigning its sequential
// number on first access. Only the order's owner or staff may see it.
func (s *InvoiceService) GetInvoice(ctx context.Context, orderID, requesterID uuid.UUID, isStaff bool) (*Invoice, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Pedido no encontrado.")
		}
		return nil, apperr.Unavailable("No se pudo consultar el pedido.", err)
	}
	if !isStaff && order.UserID != requesterID {
		return nil, apperr.Forbidden("No autorizado para ver esta factura.")
	}

	items := make([]InvoiceItem, 0, len(order.Items))
	rawSubtotal := decimal.Zero
	for _, it := range order.Items {
		unitPrice := money.Round(it.UnitPrice)
		lineTotal := money.Mul(unitPrice, it.Quantity)
		items = append(items, InvoiceItem{
			Name:      it.ProductName,
			Variant:   it.Variant,
			Quantity:  it.Quantity,
			UnitPrice: unitPrice,
			LineTotal: lineTotal,
		})
		rawSubtotal = rawSubtotal.Add(lineTotal)
	}
	summary := BuildSummary(rawSubtotal)

	number, err := s.orders.AssignInvoiceNumber(ctx, order.ID)
	if err != nil {
		return nil, apperr.Unavailable("No se pudo asignar el numero de factura.", err)
	}

	settings := s.settings.GetSettings(ctx)
	return &Invoice{
		InvoiceNumber: number,
		Date:          order.CreatedAt,
		CustomerName:  order.CustomerName,
		CustomerNit:   resolveNit(order),
		Items:         items,
		Subtotal:      summary.Subtotal,
		Shipping:      summary.Shipping,
		IvaRate:       summary.IvaRate,
		IvaAmount:     summary.IvaAmount,
		Total:         summary.Total,
		Business: InvoiceBusiness{
			Name:      settings.Name,
			Address:   settings.Address,
			Phone:     settings.Phone,
			Whatsapp:  settings.Whatsapp,
			HoursText: settings.HoursText,
		},
		BusinessMessage: settings.BusinessMessage,
	}, nil
}

// resolveNit prefers the typed column. Orders imported from the old
// system carried the tax id inside notes as a "NIT:" tag, so fall back
// to parsing that (value runs to the next "|" or end of string).
func resolveNit(o *domain.Order) string {
	if o.CustomerNit != "" {
		return o.CustomerNit
	}
	const marker = "NIT:"
	idx := strings.Index(strings.ToUpper(o.Notes), marker)
	if idx < 0 {
		return ""
	}
	tail := o.Notes[idx+len(marker):]
	if cut := strings.Index(tail, "|"); cut >= 0 {
		tail = tail[:cut]
	}
	return strings.TrimSpace(tail)
}
