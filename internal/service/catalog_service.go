package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"merchant-desk/internal/catalog"
	"merchant-desk/internal/domain"
	"merchant-desk/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductInput carries the owner-editable product fields
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryID  uuid.UUID
	ImageURL    string
	IsAvailable bool
}

// CategorySeed is one category with its products, as read from a seed file
type CategorySeed struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Products    []ProductSeed `yaml:"products"`
}

type ProductSeed struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Price       decimal.Decimal `yaml:"price"`
	ImageURL    string          `yaml:"image_url"`
	Hidden      bool            `yaml:"hidden"`
}

// SeedResult counts what ImportCatalog wrote
type SeedResult struct {
	CategoriesCreated int
	ProductsCreated   int
}

// CatalogService is the merchant's product catalog
type CatalogService interface {
	// ListAvailable returns orderable products whose name contains query
	ListAvailable(ctx context.Context, query string) ([]*domain.Product, error)
	// GetAvailableProduct treats hidden products as missing
	GetAvailableProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListProducts(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error)
	CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	CreateCategory(ctx context.Context, name, description string) (*domain.Category, error)
	ImportCatalog(ctx context.Context, seeds []CategorySeed) (SeedResult, error)
}

type catalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(products repository.ProductRepository, categories repository.CategoryRepository) CatalogService {
	return &catalogService{products: products, categories: categories}
}

func (s *catalogService) ListAvailable(ctx context.Context, query string) ([]*domain.Product, error) {
	products, err := s.products.ListAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list available products: %w", err)
	}
	return catalog.FilterByName(products, query), nil
}

func (s *catalogService) GetAvailableProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsAvailable {
		return nil, domain.ErrProductNotFound
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	if strings.TrimSpace(query) != "" {
		return s.products.Search(ctx, query, page, pageSize)
	}
	return s.products.List(ctx, repository.ProductFilter{}, page, pageSize, "created_at", repository.SortOrderDesc)
}

func validateProductInput(input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return domain.NewValidationError("name", "name is required")
	}
	if input.Price.IsNegative() {
		return domain.NewValidationError("price", domain.MsgPriceNonNegative)
	}
	return nil
}

func (s *catalogService) ensureCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return domain.NewValidationError("category_id", "category does not exist")
		}
		return fmt.Errorf("failed to load category: %w", err)
	}
	return nil
}

func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	now := time.Now()
	product := &domain.Product{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Price:       input.Price,
		CategoryID:  input.CategoryID,
		ImageURL:    input.ImageURL,
		IsAvailable: input.IsAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.CategoryID != input.CategoryID {
		if err := s.ensureCategory(ctx, input.CategoryID); err != nil {
			return nil, err
		}
	}

	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.Price = input.Price
	product.CategoryID = input.CategoryID
	product.ImageURL = input.ImageURL
	product.IsAvailable = input.IsAvailable
	product.UpdatedAt = time.Now()

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.products.Delete(ctx, id)
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.List(ctx)
}

func (s *catalogService) CreateCategory(ctx context.Context, name, description string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name", "name is required")
	}

	category := &domain.Category{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now(),
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// ImportCatalog creates missing categories by name and adds every seeded product.
// Re-running it adds the products again; categories are reused.
func (s *catalogService) ImportCatalog(ctx context.Context, seeds []CategorySeed) (SeedResult, error) {
	var result SeedResult

	for _, seed := range seeds {
		category, err := s.categories.FindByName(ctx, strings.TrimSpace(seed.Name))
		if errors.Is(err, repository.ErrCategoryNotFound) {
			category, err = s.CreateCategory(ctx, seed.Name, seed.Description)
			if err == nil {
				result.CategoriesCreated++
			}
		}
		if err != nil {
			return result, fmt.Errorf("category %q: %w", seed.Name, err)
		}

		for _, p := range seed.Products {
			_, err := s.CreateProduct(ctx, ProductInput{
				Name:        p.Name,
				Description: p.Description,
				Price:       p.Price,
				CategoryID:  category.ID,
				ImageURL:    p.ImageURL,
				IsAvailable: !p.Hidden,
			})
			if err != nil {
				return result, fmt.Errorf("product %q: %w", p.Name, err)
			}
			result.ProductsCreated++
		}
	}

	return result, nil
}
