package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"merchant-desk/internal/domain"
	"merchant-desk/internal/events"
	"merchant-desk/internal/middleware"
	"merchant-desk/internal/repository"
	"merchant-desk/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

// testShop is a full router over in-memory stores
type testShop struct {
	router     chi.Router
	products   *repository.MemoryProductRepository
	categories *repository.MemoryCategoryRepository
	selections *repository.MemorySelectionRepository
	orders     *repository.MemoryOrderRepository
	expenses   *repository.MemoryExpenseRepository
	catalog    service.CatalogService
	category   *domain.Category
}

func newTestShop(t *testing.T, idempotency IdempotencyStore) *testShop {
	t.Helper()
	logger := zap.NewNop()
	publisher := events.NopPublisher{}

	shop := &testShop{
		router:     chi.NewRouter(),
		products:   repository.NewMemoryProductRepository(),
		categories: repository.NewMemoryCategoryRepository(),
		selections: repository.NewMemorySelectionRepository(),
		orders:     repository.NewMemoryOrderRepository(),
		expenses:   repository.NewMemoryExpenseRepository(),
	}

	shop.catalog = service.NewCatalogService(shop.products, shop.categories)
	carts := service.NewCartService(shop.catalog)
	selections := service.NewSelectionService(shop.selections, publisher, logger)
	orders := service.NewOrderService(shop.orders, publisher, logger)
	conversions := service.NewConversionService(selections, orders, logger)
	expenses := service.NewExpenseService(shop.expenses, publisher, logger)
	reports := service.NewReportService(shop.orders, shop.expenses, time.UTC)

	auth := middleware.AuthMiddleware(testSecret, logger)
	staff := []func(http.Handler) http.Handler{auth, middleware.RequireStaff(logger)}
	owner := []func(http.Handler) http.Handler{auth, middleware.RequireOwner(logger)}

	NewCatalogHandler(shop.catalog, logger).RegisterRoutes(shop.router, owner...)
	NewCartHandler(carts, logger).RegisterRoutes(shop.router)
	NewSelectionHandler(selections, conversions, carts, idempotency, "https://shop.example/#/selection", logger).
		RegisterRoutes(shop.router, nil, staff...)
	NewOrderHandler(orders, logger).RegisterRoutes(shop.router, staff...)
	NewExpenseHandler(expenses, time.UTC, logger).RegisterRoutes(shop.router, staff...)
	NewReportHandler(reports, time.UTC, logger).RegisterRoutes(shop.router, staff...)

	category, err := shop.catalog.CreateCategory(context.Background(), "Pastries", "")
	require.NoError(t, err)
	shop.category = category

	return shop
}

func (s *testShop) addProduct(t *testing.T, name, price string, available bool) *domain.Product {
	t.Helper()
	product, err := s.catalog.CreateProduct(context.Background(), service.ProductInput{
		Name:        name,
		Price:       decimal.RequireFromString(price),
		CategoryID:  s.category.ID,
		IsAvailable: available,
	})
	require.NoError(t, err)
	return product
}

// do sends a JSON request; token may be empty
func (s *testShop) do(t *testing.T, method, path string, body any, token string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func staffToken(t *testing.T, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"account_id": uuid.NewString(),
		"role":       role,
		"exp":        time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func validationFields(t *testing.T, w *httptest.ResponseRecorder) []string {
	t.Helper()
	var resp struct {
		Error struct {
			Details struct {
				ValidationErrors []middleware.ValidationError `json:"validation_errors"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	fields := make([]string, 0, len(resp.Error.Details.ValidationErrors))
	for _, ve := range resp.Error.Details.ValidationErrors {
		fields = append(fields, ve.Field)
	}
	return fields
}

func decimalInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}
