package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is a finalized invoice. It is immutable once created.
type Order struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	SelectionID   *uuid.UUID      `json:"selection_id,omitempty" db:"selection_id"`
	CustomerName  string          `json:"customer_name,omitempty" db:"customer_name"`
	CustomerPhone string          `json:"customer_phone,omitempty" db:"customer_phone"`
	Items         []OrderItem     `json:"items"`
	TotalPrice    decimal.Decimal `json:"total_price" db:"total_price"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// OrderItem is a line of an order with the price it was sold at
type OrderItem struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OrderID   uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID uuid.UUID       `json:"product_id" db:"product_id"`
	Name      string          `json:"name" db:"name"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Quantity  int             `json:"quantity" db:"quantity"`
}

// Expense is a recorded business cost. Read-only input to reporting.
type Expense struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Date      time.Time       `json:"date" db:"date"`
	Category  string          `json:"category" db:"category"`
	Note      string          `json:"note,omitempty" db:"note"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
