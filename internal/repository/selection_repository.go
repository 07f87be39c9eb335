package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"merchant-desk/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrSelectionNotFound = domain.ErrSelectionNotFound
	ErrAlreadyProcessed  = domain.ErrAlreadyProcessed
)

// SelectionRepository stores customer selections and owns the pending → processed claim
type SelectionRepository interface {
	Create(ctx context.Context, selection *domain.CustomerSelection) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.CustomerSelection, error)
	// ListPending returns pending selections, newest first
	ListPending(ctx context.Context) ([]*domain.CustomerSelection, error)
	// Claim atomically moves a pending selection to processed and returns the updated row.
	// It returns ErrAlreadyProcessed when another caller got there first.
	Claim(ctx context.Context, id uuid.UUID, processedAt time.Time) (*domain.CustomerSelection, error)
}

type selectionRepository struct {
	db *sql.DB
}

// NewSelectionRepository creates a new instance of SelectionRepository
func NewSelectionRepository(db *sql.DB) SelectionRepository {
	return &selectionRepository{db: db}
}

const selectionColumns = `id, customer_name, customer_phone, customer_email, items, status, created_at, processed_at`

func scanSelection(row rowScanner) (*domain.CustomerSelection, error) {
	selection := &domain.CustomerSelection{}
	var (
		email       sql.NullString
		items       []byte
		processedAt sql.NullTime
	)
	err := row.Scan(
		&selection.ID,
		&selection.CustomerName,
		&selection.CustomerPhone,
		&email,
		&items,
		&selection.Status,
		&selection.CreatedAt,
		&processedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &selection.Items); err != nil {
		return nil, fmt.Errorf("failed to decode selection items: %w", err)
	}
	selection.CustomerEmail = email.String
	if processedAt.Valid {
		t := processedAt.Time
		selection.ProcessedAt = &t
	}
	return selection, nil
}

func (r *selectionRepository) Create(ctx context.Context, selection *domain.CustomerSelection) error {
	items, err := json.Marshal(selection.Items)
	if err != nil {
		return fmt.Errorf("failed to encode selection items: %w", err)
	}

	query := `
		INSERT INTO customer_selections (` + selectionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		selection.ID,
		selection.CustomerName,
		selection.CustomerPhone,
		sql.NullString{String: selection.CustomerEmail, Valid: selection.CustomerEmail != ""},
		items,
		selection.Status,
		selection.CreatedAt,
		selection.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create selection: %w", err)
	}

	return nil
}

func (r *selectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.CustomerSelection, error) {
	query := `SELECT ` + selectionColumns + ` FROM customer_selections WHERE id = $1`

	selection, err := scanSelection(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSelectionNotFound
		}
		return nil, fmt.Errorf("failed to find selection by ID: %w", err)
	}

	return selection, nil
}

func (r *selectionRepository) ListPending(ctx context.Context) ([]*domain.CustomerSelection, error) {
	query := `
		SELECT ` + selectionColumns + `
		FROM customer_selections
		WHERE status = $1
		ORDER BY created_at DESC, id
	`

	rows, err := r.db.QueryContext(ctx, query, domain.SelectionPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending selections: %w", err)
	}
	defer rows.Close()

	selections := []*domain.CustomerSelection{}
	for rows.Next() {
		selection, err := scanSelection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan selection: %w", err)
		}
		selections = append(selections, selection)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating selections: %w", err)
	}

	return selections, nil
}

func (r *selectionRepository) Claim(ctx context.Context, id uuid.UUID, processedAt time.Time) (*domain.CustomerSelection, error) {
	query := `
		UPDATE customer_selections
		SET status = $3, processed_at = $4
		WHERE id = $1 AND status = $2
		RETURNING ` + selectionColumns

	selection, err := scanSelection(r.db.QueryRowContext(
		ctx,
		query,
		id,
		domain.SelectionPending,
		domain.SelectionProcessed,
		processedAt,
	))
	if err == nil {
		return selection, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to claim selection: %w", err)
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM customer_selections WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check selection: %w", err)
	}
	if !exists {
		return nil, ErrSelectionNotFound
	}
	return nil, ErrAlreadyProcessed
}
