package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry; Price is the live menu price, not what an
// existing order pays (orders keep their own snapshot).
type Product struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	IsAvailable bool            `json:"is_available"`
}

// OrderItem captures the unit price at placement time. It is immutable
// after creation so invoices reflect what the customer actually paid.
type OrderItem struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Variant     string          `json:"variant,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Order is the aggregate root for a placed order.
type Order struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	CustomerNit   string          `json:"customer_nit,omitempty"`
	ServiceType   string          `json:"service_type,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	Status        OrderStatus     `json:"status"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	ExternalRef   string          `json:"-"`
	CreatedAt     time.Time       `json:"created_at"`
	Items         []OrderItem     `json:"items"`
}

// CafeTable is a physical table reservations are made against.
type CafeTable struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Capacity int       `json:"capacity"`
	IsActive bool      `json:"is_active"`
}

type Reservation struct {
	ID            uuid.UUID         `json:"id"`
	UserID        uuid.UUID         `json:"user_id"`
	TableID       uuid.UUID         `json:"table_id"`
	TableName     string            `json:"table_name"`
	ReservationAt time.Time         `json:"reservation_at"`
	PartySize     int               `json:"party_size"`
	Status        ReservationStatus `json:"status"`
	Notes         string            `json:"notes,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}
