package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"merchant-desk/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = domain.ErrOrderNotFound
	// ErrSelectionAlreadyInvoiced is returned when an order already references the selection
	ErrSelectionAlreadyInvoiced = errors.New("selection already has an order")
)

// OrderRepository persists orders together with their line items
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	// List returns every order with its items, oldest first
	List(ctx context.Context) ([]*domain.Order, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create writes the order and its items in one transaction
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, selection_id, customer_name, customer_phone, total_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		order.ID,
		order.SelectionID,
		order.CustomerName,
		order.CustomerPhone,
		order.TotalPrice,
		order.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSelectionAlreadyInvoiced
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, line_no, product_id, name, price, quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, item.ID, item.OrderID, i, item.ProductID, item.Name, item.Price, item.Quantity)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}

	return nil
}

const orderColumns = `id, selection_id, customer_name, customer_phone, total_price, created_at`

func scanOrder(row rowScanner) (*domain.Order, error) {
	order := &domain.Order{Items: []domain.OrderItem{}}
	var (
		selectionID uuid.NullUUID
		name, phone sql.NullString
	)
	if err := row.Scan(&order.ID, &selectionID, &name, &phone, &order.TotalPrice, &order.CreatedAt); err != nil {
		return nil, err
	}
	if selectionID.Valid {
		id := selectionID.UUID
		order.SelectionID = &id
	}
	order.CustomerName = name.String
	order.CustomerPhone = phone.String
	return order, nil
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	if err := r.attachItems(ctx, map[uuid.UUID]*domain.Order{order.ID: order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at ASC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	byID := make(map[uuid.UUID]*domain.Order)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
		byID[order.ID] = order
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if len(orders) == 0 {
		return orders, nil
	}
	if err := r.attachItems(ctx, byID); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) attachItems(ctx context.Context, orders map[uuid.UUID]*domain.Order) error {
	ids := make([]string, 0, len(orders))
	for id := range orders {
		ids = append(ids, id.String())
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, name, price, quantity
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, line_no
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if order, ok := orders[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating order items: %w", err)
	}
	return nil
}
