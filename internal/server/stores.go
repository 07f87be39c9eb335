package server

import (
	"database/sql"

	"merchant-desk/internal/repository"
)

// Stores bundles the repositories the HTTP surface runs on
type Stores struct {
	Accounts      repository.AccountRepository
	RefreshTokens repository.RefreshTokenRepository
	Products      repository.ProductRepository
	Categories    repository.CategoryRepository
	Selections    repository.SelectionRepository
	Orders        repository.OrderRepository
	Expenses      repository.ExpenseRepository
}

// PostgresStores backs every repository with db
func PostgresStores(db *sql.DB) Stores {
	return Stores{
		Accounts:      repository.NewAccountRepository(db),
		RefreshTokens: repository.NewRefreshTokenRepository(db),
		Products:      repository.NewProductRepository(db),
		Categories:    repository.NewCategoryRepository(db),
		Selections:    repository.NewSelectionRepository(db),
		Orders:        repository.NewOrderRepository(db),
		Expenses:      repository.NewExpenseRepository(db),
	}
}

// MemoryStores keeps everything in process memory; state is lost on exit
func MemoryStores() Stores {
	return Stores{
		Accounts:      repository.NewMemoryAccountRepository(),
		RefreshTokens: repository.NewMemoryRefreshTokenRepository(),
		Products:      repository.NewMemoryProductRepository(),
		Categories:    repository.NewMemoryCategoryRepository(),
		Selections:    repository.NewMemorySelectionRepository(),
		Orders:        repository.NewMemoryOrderRepository(),
		Expenses:      repository.NewMemoryExpenseRepository(),
	}
}
