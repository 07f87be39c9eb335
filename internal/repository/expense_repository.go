package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"merchant-desk/internal/domain"
)

// ExpenseRepository stores recorded expenses. Expenses are never updated.
type ExpenseRepository interface {
	Create(ctx context.Context, expense *domain.Expense) error
	// List returns expenses ordered by date; zero bounds are open
	List(ctx context.Context, from, to time.Time) ([]*domain.Expense, error)
}

type expenseRepository struct {
	db *sql.DB
}

// NewExpenseRepository creates a new instance of ExpenseRepository
func NewExpenseRepository(db *sql.DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

func (r *expenseRepository) Create(ctx context.Context, expense *domain.Expense) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, amount, date, category, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		expense.ID,
		expense.Amount,
		expense.Date,
		expense.Category,
		expense.Note,
		expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

func (r *expenseRepository) List(ctx context.Context, from, to time.Time) ([]*domain.Expense, error) {
	query := `
		SELECT id, amount, date, category, note, created_at
		FROM expenses
		WHERE ($1::timestamptz IS NULL OR date >= $1)
		  AND ($2::timestamptz IS NULL OR date <= $2)
		ORDER BY date ASC, id
	`

	rows, err := r.db.QueryContext(ctx, query, nullTime(from), nullTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []*domain.Expense{}
	for rows.Next() {
		expense := &domain.Expense{}
		var note sql.NullString
		if err := rows.Scan(
			&expense.ID,
			&expense.Amount,
			&expense.Date,
			&expense.Category,
			&note,
			&expense.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expense.Note = note.String
		expenses = append(expenses, expense)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}

	return expenses, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
