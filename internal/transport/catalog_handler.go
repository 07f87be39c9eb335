package transport

import (
	"net/http"

	"merchant-desk/internal/catalog"
	"merchant-desk/internal/domain"
	"merchant-desk/internal/middleware"
	"merchant-desk/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRequest is the owner's create/update payload
type ProductRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  string          `json:"category_id" validate:"required,uuid"`
	ImageURL    string          `json:"image_url" validate:"omitempty,url"`
	IsAvailable *bool           `json:"is_available"`
}

func (p ProductRequest) input() (service.ProductInput, error) {
	categoryID, err := bodyID("category_id", p.CategoryID)
	if err != nil {
		return service.ProductInput{}, err
	}
	available := true
	if p.IsAvailable != nil {
		available = *p.IsAvailable
	}
	return service.ProductInput{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		CategoryID:  categoryID,
		ImageURL:    p.ImageURL,
		IsAvailable: available,
	}, nil
}

// CategoryRequest creates a category
type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

// CategoryGroup is one category with its orderable products, as shown to customers
type CategoryGroup struct {
	Category *domain.Category  `json:"category"`
	Products []*domain.Product `json:"products"`
}

// ProductPage is one page of the owner's product list
type ProductPage struct {
	Products []*domain.Product `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// CatalogHandler serves the customer-facing catalog and owner catalog management
type CatalogHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// RegisterRoutes mounts public reads and owner-only writes under /api/catalog
func (h *CatalogHandler) RegisterRoutes(r chi.Router, ownerOnly ...func(http.Handler) http.Handler) {
	r.Route("/api/catalog", func(r chi.Router) {
		r.Get("/products", h.ListAvailable)
		r.Get("/products/{id}", h.GetProduct)
		r.Get("/categories", h.ListCategories)
		r.Get("/menu", h.Menu)

		r.Group(func(r chi.Router) {
			r.Use(ownerOnly...)
			r.Get("/manage/products", h.ListAll)
			r.Post("/products", h.CreateProduct)
			r.Put("/products/{id}", h.UpdateProduct)
			r.Delete("/products/{id}", h.DeleteProduct)
			r.Post("/categories", h.CreateCategory)
		})
	})
}

// ListAvailable returns orderable products, filtered by ?q= on the name
func (h *CatalogHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListAvailable(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// GetProduct returns one orderable product
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	product, err := h.catalog.GetAvailableProduct(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Menu returns orderable products grouped under their categories
func (h *CatalogHandler) Menu(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	products, err := h.catalog.ListAvailable(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	grouped := catalog.GroupByCategory(products)
	menu := make([]CategoryGroup, 0, len(categories))
	for _, c := range categories {
		if items := grouped[c.ID.String()]; len(items) > 0 {
			menu = append(menu, CategoryGroup{Category: c, Products: items})
		}
	}
	middleware.RespondWithJSON(w, http.StatusOK, menu)
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

// ListAll pages through every product including hidden ones
func (h *CatalogHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := min(queryInt(r, "page_size", 20), 100)

	products, total, err := h.catalog.ListProducts(r.Context(), r.URL.Query().Get("q"), page, pageSize)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, ProductPage{
		Products: products,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	input, err := req.input()
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), input)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	input, err := req.input()
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	product, err := h.catalog.UpdateProduct(r.Context(), id, input)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	category, err := h.catalog.CreateCategory(r.Context(), req.Name, req.Description)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, category)
}
