package transport

import (
	"net/http"
	"testing"

	"merchant-desk/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListAvailable_FiltersHiddenAndByName(t *testing.T) {
	shop := newTestShop(t, nil)
	shop.addProduct(t, "Almond Croissant", "4.00", true)
	shop.addProduct(t, "Plain croissant", "3.00", true)
	shop.addProduct(t, "Croissant (staff only)", "1.00", false)
	shop.addProduct(t, "Baguette", "2.50", true)

	all := decode[[]domain.Product](t, shop.do(t, http.MethodGet, "/api/catalog/products", nil, ""))
	assert.Len(t, all, 3)

	filtered := decode[[]domain.Product](t, shop.do(t, http.MethodGet, "/api/catalog/products?q=CROISS", nil, ""))
	require.Len(t, filtered, 2)
	for _, p := range filtered {
		assert.Contains(t, p.Name, "roissant")
		assert.True(t, p.IsAvailable)
	}
}

func TestMenu_GroupsByCategory(t *testing.T) {
	shop := newTestShop(t, nil)
	shop.addProduct(t, "Croissant", "3.00", true)
	shop.addProduct(t, "Hidden", "3.00", false)

	menu := decode[[]CategoryGroup](t, shop.do(t, http.MethodGet, "/api/catalog/menu", nil, ""))
	require.Len(t, menu, 1)
	assert.Equal(t, "Pastries", menu[0].Category.Name)
	assert.Len(t, menu[0].Products, 1)
}

func TestGetProduct_HiddenIsNotFound(t *testing.T) {
	shop := newTestShop(t, nil)
	hidden := shop.addProduct(t, "Hidden", "3.00", false)

	assert.Equal(t, http.StatusNotFound, shop.do(t, http.MethodGet, "/api/catalog/products/"+hidden.ID.String(), nil, "").Code)
	assert.Equal(t, http.StatusNotFound, shop.do(t, http.MethodGet, "/api/catalog/products/"+uuid.NewString(), nil, "").Code)
}

func TestCatalogManagement_OwnerOnly(t *testing.T) {
	shop := newTestShop(t, nil)
	body := map[string]any{
		"name":        "Brioche",
		"price":       "5.25",
		"category_id": shop.category.ID.String(),
	}

	assert.Equal(t, http.StatusUnauthorized, shop.do(t, http.MethodPost, "/api/catalog/products", body, "").Code)
	assert.Equal(t, http.StatusForbidden, shop.do(t, http.MethodPost, "/api/catalog/products", body, staffToken(t, domain.RoleMerchant)).Code)

	owner := staffToken(t, domain.RoleOwner)
	w := shop.do(t, http.MethodPost, "/api/catalog/products", body, owner)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	product := decode[domain.Product](t, w)
	assert.True(t, product.IsAvailable, "availability defaults to true")

	body["is_available"] = false
	body["price"] = "6.00"
	w = shop.do(t, http.MethodPut, "/api/catalog/products/"+product.ID.String(), body, owner)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[domain.Product](t, w)
	assert.False(t, updated.IsAvailable)
	assert.Equal(t, "6", updated.Price.String())

	page := decode[ProductPage](t, shop.do(t, http.MethodGet, "/api/catalog/manage/products", nil, owner))
	assert.Equal(t, 1, page.Total)

	assert.Equal(t, http.StatusNoContent, shop.do(t, http.MethodDelete, "/api/catalog/products/"+product.ID.String(), nil, owner).Code)
}

func TestCreateProduct_Validation(t *testing.T) {
	shop := newTestShop(t, nil)
	owner := staffToken(t, domain.RoleOwner)

	negative := shop.do(t, http.MethodPost, "/api/catalog/products", map[string]any{
		"name": "Brioche", "price": "-1", "category_id": shop.category.ID.String(),
	}, owner)
	assert.Equal(t, http.StatusBadRequest, negative.Code)
	assert.Contains(t, validationFields(t, negative), "price")

	unknownCategory := shop.do(t, http.MethodPost, "/api/catalog/products", map[string]any{
		"name": "Brioche", "price": "1", "category_id": uuid.NewString(),
	}, owner)
	assert.Equal(t, http.StatusBadRequest, unknownCategory.Code)
	assert.Contains(t, validationFields(t, unknownCategory), "category_id")

	noName := shop.do(t, http.MethodPost, "/api/catalog/products", map[string]any{
		"price": "1", "category_id": shop.category.ID.String(),
	}, owner)
	assert.Contains(t, validationFields(t, noName), "name")
}

func TestCreateCategory_Duplicate(t *testing.T) {
	shop := newTestShop(t, nil)
	owner := staffToken(t, domain.RoleOwner)

	w := shop.do(t, http.MethodPost, "/api/catalog/categories", map[string]any{"name": "Pastries"}, owner)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = shop.do(t, http.MethodPost, "/api/catalog/categories", map[string]any{"name": "Breads"}, owner)
	assert.Equal(t, http.StatusCreated, w.Code)

	categories := decode[[]domain.Category](t, shop.do(t, http.MethodGet, "/api/catalog/categories", nil, ""))
	assert.Len(t, categories, 2)
}

func TestProperty_CartQuoteTotals(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("quote totals equal sum of quantity times price", prop.ForAll(
		func(qa, qb int) bool {
			shop := newTestShop(t, nil)
			a := shop.addProduct(t, "A", "2.50", true)
			b := shop.addProduct(t, "B", "1.25", true)

			w := shop.do(t, http.MethodPost, "/api/cart/quote", map[string]any{
				"lines": []any{line(a.ID, 5), line(b.ID, qb), line(a.ID, qa)},
			}, "")
			if w.Code != http.StatusOK {
				return false
			}
			quote := decode[QuoteResponse](t, w)

			wantItems := max(qa, 0) + max(qb, 0)
			want := a.Price.Mul(decimalInt(max(qa, 0))).Add(b.Price.Mul(decimalInt(max(qb, 0))))
			return quote.Totals.TotalItems == wantItems && quote.Totals.TotalPrice.Equal(want)
		},
		gen.IntRange(-2, 20),
		gen.IntRange(-2, 20),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCartQuote_UnknownProductIgnored(t *testing.T) {
	shop := newTestShop(t, nil)
	a := shop.addProduct(t, "A", "10.00", true)

	w := shop.do(t, http.MethodPost, "/api/cart/quote", map[string]any{
		"lines": []any{line(uuid.New(), 3), line(a.ID, 2), line(a.ID, 1)},
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	quote := decode[QuoteResponse](t, w)
	require.Len(t, quote.Items, 1)
	assert.Equal(t, 1, quote.Totals.TotalItems)
	assert.Equal(t, "10", quote.Totals.TotalPrice.String())
}
