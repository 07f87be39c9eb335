package repository

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"merchant-desk/internal/domain"

	"github.com/google/uuid"
)

// The in-memory stores back the demo server mode and tests. Every
// method copies values in and out so callers never share state with the store.

// MemorySelectionRepository is a SelectionRepository guarded by a single mutex
type MemorySelectionRepository struct {
	mu         sync.Mutex
	selections map[uuid.UUID]*domain.CustomerSelection
}

func NewMemorySelectionRepository() *MemorySelectionRepository {
	return &MemorySelectionRepository{selections: make(map[uuid.UUID]*domain.CustomerSelection)}
}

func cloneSelection(s *domain.CustomerSelection) *domain.CustomerSelection {
	c := *s
	c.Items = slices.Clone(s.Items)
	if s.ProcessedAt != nil {
		t := *s.ProcessedAt
		c.ProcessedAt = &t
	}
	return &c
}

func (m *MemorySelectionRepository) Create(_ context.Context, selection *domain.CustomerSelection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selections[selection.ID] = cloneSelection(selection)
	return nil
}

func (m *MemorySelectionRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.CustomerSelection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.selections[id]
	if !ok {
		return nil, ErrSelectionNotFound
	}
	return cloneSelection(s), nil
}

func (m *MemorySelectionRepository) ListPending(_ context.Context) ([]*domain.CustomerSelection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending := []*domain.CustomerSelection{}
	for _, s := range m.selections {
		if s.IsPending() {
			pending = append(pending, cloneSelection(s))
		}
	}
	slices.SortFunc(pending, func(a, b *domain.CustomerSelection) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return pending, nil
}

func (m *MemorySelectionRepository) Claim(_ context.Context, id uuid.UUID, processedAt time.Time) (*domain.CustomerSelection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.selections[id]
	if !ok {
		return nil, ErrSelectionNotFound
	}
	if !domain.CanTransition(s.Status, domain.SelectionProcessed) {
		return nil, ErrAlreadyProcessed
	}
	s.Status = domain.SelectionProcessed
	s.ProcessedAt = &processedAt
	return cloneSelection(s), nil
}

// MemoryOrderRepository is an OrderRepository kept in insertion order
type MemoryOrderRepository struct {
	mu     sync.Mutex
	orders []*domain.Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{}
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Items = slices.Clone(o.Items)
	return &c
}

func (m *MemoryOrderRepository) Create(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if order.SelectionID != nil {
		for _, existing := range m.orders {
			if existing.SelectionID != nil && *existing.SelectionID == *order.SelectionID {
				return ErrSelectionAlreadyInvoiced
			}
		}
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	m.orders = append(m.orders, cloneOrder(order))
	return nil
}

func (m *MemoryOrderRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			return cloneOrder(o), nil
		}
	}
	return nil, ErrOrderNotFound
}

func (m *MemoryOrderRepository) List(_ context.Context) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, cloneOrder(o))
	}
	slices.SortStableFunc(out, func(a, b *domain.Order) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

// MemoryExpenseRepository is an ExpenseRepository
type MemoryExpenseRepository struct {
	mu       sync.Mutex
	expenses []domain.Expense
}

func NewMemoryExpenseRepository() *MemoryExpenseRepository {
	return &MemoryExpenseRepository{}
}

func (m *MemoryExpenseRepository) Create(_ context.Context, expense *domain.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expenses = append(m.expenses, *expense)
	return nil
}

func (m *MemoryExpenseRepository) List(_ context.Context, from, to time.Time) ([]*domain.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Expense{}
	for _, e := range m.expenses {
		if !from.IsZero() && e.Date.Before(from) {
			continue
		}
		if !to.IsZero() && e.Date.After(to) {
			continue
		}
		out = append(out, &e)
	}
	slices.SortStableFunc(out, func(a, b *domain.Expense) int { return a.Date.Compare(b.Date) })
	return out, nil
}

// MemoryProductRepository is a ProductRepository without pagination cost concerns
type MemoryProductRepository struct {
	mu       sync.Mutex
	products map[uuid.UUID]domain.Product
}

func NewMemoryProductRepository(products ...*domain.Product) *MemoryProductRepository {
	m := &MemoryProductRepository{products: make(map[uuid.UUID]domain.Product)}
	for _, p := range products {
		m.products[p.ID] = *p
	}
	return m
}

func (m *MemoryProductRepository) Create(_ context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[product.ID] = *product
	return nil
}

func (m *MemoryProductRepository) Update(_ context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[product.ID]; !ok {
		return ErrProductNotFound
	}
	m.products[product.ID] = *product
	return nil
}

func (m *MemoryProductRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *MemoryProductRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &p, nil
}

func (m *MemoryProductRepository) sorted(keep func(domain.Product) bool) []*domain.Product {
	out := []*domain.Product{}
	for _, p := range m.products {
		if keep(p) {
			out = append(out, &p)
		}
	}
	slices.SortFunc(out, func(a, b *domain.Product) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

func paginate(products []*domain.Product, page, pageSize int) []*domain.Product {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if pageSize <= 0 || start >= len(products) {
		return []*domain.Product{}
	}
	return products[start:min(start+pageSize, len(products))]
}

// List ignores sortBy and always returns newest first
func (m *MemoryProductRepository) List(_ context.Context, filter ProductFilter, page, pageSize int, _ string, _ SortOrder) ([]*domain.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sorted(func(p domain.Product) bool {
		if filter.CategoryID != nil && p.CategoryID != *filter.CategoryID {
			return false
		}
		return !filter.AvailableOnly || p.IsAvailable
	})
	return paginate(all, page, pageSize), len(all), nil
}

func (m *MemoryProductRepository) ListAvailable(_ context.Context) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(p domain.Product) bool { return p.IsAvailable }), nil
}

func (m *MemoryProductRepository) Search(_ context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(strings.TrimSpace(query))
	all := m.sorted(func(p domain.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Description), q)
	})
	return paginate(all, page, pageSize), len(all), nil
}

// MemoryCategoryRepository is a CategoryRepository
type MemoryCategoryRepository struct {
	mu         sync.Mutex
	categories map[uuid.UUID]domain.Category
}

func NewMemoryCategoryRepository() *MemoryCategoryRepository {
	return &MemoryCategoryRepository{categories: make(map[uuid.UUID]domain.Category)}
}

func (m *MemoryCategoryRepository) Create(_ context.Context, category *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.Name == category.Name {
			return ErrCategoryAlreadyExists
		}
	}
	m.categories[category.ID] = *category
	return nil
}

func (m *MemoryCategoryRepository) List(_ context.Context) ([]*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Category{}
	for _, c := range m.categories {
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *domain.Category) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (m *MemoryCategoryRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, ErrCategoryNotFound
	}
	return &c, nil
}

func (m *MemoryCategoryRepository) FindByName(_ context.Context, name string) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, ErrCategoryNotFound
}

// MemoryAccountRepository is an AccountRepository keyed by email
type MemoryAccountRepository struct {
	mu       sync.Mutex
	accounts map[string]domain.Account
}

func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{accounts: make(map[string]domain.Account)}
}

func (m *MemoryAccountRepository) Create(_ context.Context, account *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.accounts[account.Email]; exists {
		return ErrAccountAlreadyExists
	}
	m.accounts[account.Email] = *account
	return nil
}

func (m *MemoryAccountRepository) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &a, nil
}

func (m *MemoryAccountRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, ErrAccountNotFound
}

// MemoryRefreshTokenRepository is a RefreshTokenRepository keyed by token string
type MemoryRefreshTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]domain.RefreshToken
}

func NewMemoryRefreshTokenRepository() *MemoryRefreshTokenRepository {
	return &MemoryRefreshTokenRepository{tokens: make(map[string]domain.RefreshToken)}
}

func (m *MemoryRefreshTokenRepository) Create(_ context.Context, token *domain.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token.Token] = *token
	return nil
}

func (m *MemoryRefreshTokenRepository) FindByToken(_ context.Context, token string) (*domain.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[token]
	if !ok {
		return nil, ErrRefreshTokenNotFound
	}
	if t.Revoked {
		return nil, ErrRefreshTokenRevoked
	}
	return &t, nil
}

func (m *MemoryRefreshTokenRepository) Revoke(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[token]
	if !ok {
		return ErrRefreshTokenNotFound
	}
	t.Revoked = true
	m.tokens[token] = t
	return nil
}

func (m *MemoryRefreshTokenRepository) RevokeAllForAccount(_ context.Context, accountID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, t := range m.tokens {
		if t.AccountID == accountID {
			t.Revoked = true
			m.tokens[key] = t
		}
	}
	return nil
}

var (
	_ AccountRepository      = (*MemoryAccountRepository)(nil)
	_ RefreshTokenRepository = (*MemoryRefreshTokenRepository)(nil)
	_ SelectionRepository    = (*MemorySelectionRepository)(nil)
	_ OrderRepository        = (*MemoryOrderRepository)(nil)
	_ ExpenseRepository      = (*MemoryExpenseRepository)(nil)
	_ ProductRepository      = (*MemoryProductRepository)(nil)
	_ CategoryRepository     = (*MemoryCategoryRepository)(nil)
)
