package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SelectionStatus is the lifecycle state of a customer selection
type SelectionStatus string

const (
	SelectionPending   SelectionStatus = "pending"
	SelectionProcessed SelectionStatus = "processed"
)

var selectionNext = map[SelectionStatus]map[SelectionStatus]bool{
	SelectionPending:   {SelectionProcessed: true},
	SelectionProcessed: {},
}

// CanTransition reports whether a selection may move from one status to another.
// processed is terminal.
func CanTransition(from, to SelectionStatus) bool {
	return selectionNext[from][to]
}

// CartItem is a product line captured when it was first added to a cart.
// Name and Price are snapshots and are never re-read from the catalog.
type CartItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// LineTotal returns price × quantity
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CustomerSelection is a submitted cart awaiting conversion into an order
type CustomerSelection struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	CustomerName  string          `json:"customer_name" db:"customer_name"`
	CustomerPhone string          `json:"customer_phone" db:"customer_phone"`
	CustomerEmail string          `json:"customer_email,omitempty" db:"customer_email"`
	Items         []CartItem      `json:"items" db:"items"`
	Status        SelectionStatus `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty" db:"processed_at"`
}

// IsPending reports whether the selection can still be claimed
func (s *CustomerSelection) IsPending() bool {
	return s.Status == SelectionPending
}

// Total returns the sum of the selection's line totals
func (s *CustomerSelection) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}
