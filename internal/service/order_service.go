package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"blackcoffe/internal/apperr"
	"blackcoffe/internal/domain"
	"blackcoffe/internal/money"
	"blackcoffe/internal/repository"
)

// Pricing constants. Fixed for now; making them configurable is a
// product decision nobody has made yet.
var (
	ivaRate      = decimal.RequireFromString("0.12")
	shippingCost = decimal.Zero
)

// PreviewItem is one requested line before normalization.
type PreviewItem struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1,max=100"`
	Variant   string    `json:"variant" binding:"max=80"`
}

// PreviewLine is a priced line after duplicate-merging.
type PreviewLine struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Variant   string          `json:"variant,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Summary totals an order. Each field is rounded independently so
// rounding error stays bounded per field.
type Summary struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	Shipping  decimal.Decimal `json:"shipping"`
	IvaRate   decimal.Decimal `json:"iva_rate"`
	IvaAmount decimal.Decimal `json:"iva_amount"`
	Total     decimal.Decimal `json:"total"`
}

type PreviewResponse struct {
	Items   []PreviewLine `json:"items"`
	Summary Summary       `json:"summary"`
}

type PlaceOrderRequest struct {
	CustomerName    string        `json:"customer_name" binding:"required,min=2,max=120"`
	CustomerPhone   string        `json:"customer_phone" binding:"required,min=8,max=24"`
	CustomerNit     string        `json:"customer_nit" binding:"max=20"`
	ServiceType     string        `json:"service_type" binding:"max=50"`
	Notes           string        `json:"notes" binding:"max=500"`
	ClientReference string        `json:"client_reference" binding:"max=64"`
	Items           []PreviewItem `json:"items" binding:"required,min=1,dive"`
}

type PlaceOrderResponse struct {
	OrderID   uuid.UUID `json:"order_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	Summary   Summary   `json:"summary"`
}

// OrderService prices, places and transitions orders.
type OrderService struct {
	catalog repository.CatalogRepository
	orders  repository.OrderRepository
}

func NewOrderService(catalog repository.CatalogRepository, orders repository.OrderRepository) *OrderService {
	return &OrderService{catalog: catalog, orders: orders}
}

// Preview prices a candidate item list. Read-only: nothing is persisted
// and no counters move. Duplicate lines with the same product and
// variant are merged, so fragmented submissions price identically.
func (s *OrderService) Preview(ctx context.Context, items []PreviewItem) (*PreviewResponse, error) {
	if len(items) == 0 {
		return nil, apperr.Validation("El pedido debe incluir al menos un item.")
	}

	type key struct {
		productID uuid.UUID
		variant   string
	}
	index := make(map[key]int)
	normalized := make([]PreviewItem, 0, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, apperr.Validation("La cantidad debe ser al menos 1.")
		}
		k := key{productID: it.ProductID, variant: strings.TrimSpace(it.Variant)}
		if i, ok := index[k]; ok {
			normalized[i].Quantity += it.Quantity
			continue
		}
		index[k] = len(normalized)
		normalized = append(normalized, PreviewItem{ProductID: k.productID, Quantity: it.Quantity, Variant: k.variant})
	}

	ids := make([]uuid.UUID, 0, len(index))
	seen := make(map[uuid.UUID]bool)
	for _, it := range normalized {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}
	products, err := s.catalog.GetAvailableProducts(ctx, ids)
	if err != nil {
		return nil, apperr.Unavailable("No se pudo consultar el catalogo.", err)
	}

	lines := make([]PreviewLine, 0, len(normalized))
	rawSubtotal := decimal.Zero
	for _, it := range normalized {
		p, ok := products[it.ProductID]
		if !ok {
			return nil, apperr.NotFound(fmt.Sprintf("Producto no disponible: %s", it.ProductID))
		}
		unitPrice := money.Round(p.Price)
		lineTotal := money.Mul(unitPrice, it.Quantity)
		lines = append(lines, PreviewLine{
			ProductID: it.ProductID,
			Name:      p.Name,
			Variant:   it.Variant,
			Quantity:  it.Quantity,
			UnitPrice: unitPrice,
			LineTotal: lineTotal,
		})
		rawSubtotal = rawSubtotal.Add(lineTotal)
	}

	return &PreviewResponse{Items: lines, Summary: BuildSummary(rawSubtotal)}, nil
}

// BuildSummary derives the money summary from a sum of line totals.
// The total is subtotal + shipping + tax with each term rounded on its
// own, not a single rounding of subtotal*1.12.
func BuildSummary(rawSubtotal decimal.Decimal) Summary {
	subtotal := money.Round(rawSubtotal)
	iva := money.Round(subtotal.Mul(ivaRate))
	return Summary{
		Subtotal:  subtotal,
		Shipping:  shippingCost,
		IvaRate:   ivaRate,
		IvaAmount: iva,
		Total:     money.Round(money.Sum(subtotal, shippingCost, iva)),
	}
}

// Create places an order. Pricing is always re-derived through Preview
// from the live catalog; client-supplied totals are never trusted. With
// a client_reference set, retries return the originally placed order.
func (s *OrderService) Create(ctx context.Context, userID uuid.UUID, req PlaceOrderRequest) (*PlaceOrderResponse, error) {
	if userID == uuid.Nil {
		return nil, apperr.Auth("Debes iniciar sesion para crear pedidos.")
	}

	if req.ClientReference != "" {
		existing, err := s.orders.GetByExternalRef(ctx, req.ClientReference)
		switch {
		case err == nil:
			return placedResponse(existing), nil
		case !errors.Is(err, repository.ErrNotFound):
			return nil, apperr.Unavailable("No se pudo consultar el pedido.", err)
		}
	}

	preview, err := s.Preview(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		UserID:        userID,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		CustomerNit:   strings.TrimSpace(req.CustomerNit),
		ServiceType:   strings.TrimSpace(req.ServiceType),
		Notes:         strings.TrimSpace(req.Notes),
		Status:        domain.OrderPendiente,
		TotalAmount:   preview.Summary.Total,
		ExternalRef:   req.ClientReference,
	}
	for _, line := range preview.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:   line.ProductID,
			ProductName: line.Name,
			Variant:     line.Variant,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
	}

	if err := s.orders.Create(ctx, order); err != nil {
		if errors.Is(err, repository.ErrConflict) && req.ClientReference != "" {
			// a concurrent retry won the insert; surface its order
			existing, lookupErr := s.orders.GetByExternalRef(ctx, req.ClientReference)
			if lookupErr == nil {
				return placedResponse(existing), nil
			}
		}
		return nil, apperr.Unavailable("No se pudo guardar el pedido.", err)
	}

	return &PlaceOrderResponse{
		OrderID:   order.ID,
		Status:    string(order.Status),
		CreatedAt: order.CreatedAt,
		Summary:   preview.Summary,
	}, nil
}

// placedResponse rebuilds the placement response from a persisted
// order, pricing from its item snapshots.
func placedResponse(o *domain.Order) *PlaceOrderResponse {
	raw := decimal.Zero
	for _, it := range o.Items {
		raw = raw.Add(money.Mul(money.Round(it.UnitPrice), it.Quantity))
	}
	return &PlaceOrderResponse{
		OrderID:   o.ID,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
		Summary:   BuildSummary(raw),
	}
}

// UpdateStatus moves an order along the status graph. Unknown names and
// illegal transitions are rejected.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus string) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Pedido no encontrado.")
		}
		return apperr.Unavailable("No se pudo consultar el pedido.", err)
	}

	parsed, ok := domain.ParseOrderStatus(newStatus)
	if !ok {
		return apperr.Validation("Estado de pedido invalido.")
	}
	if !order.Status.CanTransition(parsed) {
		return apperr.Validation(fmt.Sprintf("Transicion de estado invalida: %s -> %s.", order.Status, parsed))
	}

	if err := s.orders.UpdateStatus(ctx, orderID, order.Status, parsed); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return apperr.NotFound("Pedido no encontrado.")
		case errors.Is(err, repository.ErrConflict):
			return apperr.Conflict("El pedido cambio de estado, intenta de nuevo.")
		}
		return apperr.Unavailable("No se pudo actualizar el pedido.", err)
	}
	return nil
}

// GetMyOrders lists the caller's orders, newest first.
func (s *OrderService) GetMyOrders(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	if userID == uuid.Nil {
		return nil, apperr.Auth("Debes iniciar sesion para ver tus pedidos.")
	}
	out, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Unavailable("No se pudieron consultar los pedidos.", err)
	}
	return out, nil
}
