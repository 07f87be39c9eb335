// Package acceptance runs the Gherkin features against the full HTTP server
// backed by in-memory stores.
package acceptance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"merchant-desk/internal/config"
	"merchant-desk/internal/domain"
	"merchant-desk/internal/report"
	"merchant-desk/internal/server"
	"merchant-desk/internal/service"

	"github.com/cucumber/godog"
	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const jwtSecret = "acceptance-secret"

type shopContext struct {
	stores   server.Stores
	handler  http.Handler
	products map[string]uuid.UUID
	token    string

	status    int
	body      []byte
	selection uuid.UUID
}

func (c *shopContext) reset() error {
	c.stores = server.MemoryStores()
	srv, err := server.NewServer(server.Deps{
		Config: &config.Config{
			Server: config.ServerConfig{Port: "0", Env: "test", PublicURL: "https://shop.example"},
			JWT:    config.JWTConfig{Secret: jwtSecret, AccessExpiry: 15, RefreshExpiry: 7},
			Report: config.ReportConfig{Timezone: "UTC"},
		},
		Logger: zap.NewNop(),
		Stores: c.stores,
	})
	if err != nil {
		return err
	}
	c.handler = srv.Handler
	c.products = make(map[string]uuid.UUID)
	c.token = ""
	c.status = 0
	c.body = nil
	c.selection = uuid.Nil
	return nil
}

func (c *shopContext) do(method, path string, body any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)

	c.status = w.Code
	c.body = w.Body.Bytes()
	return nil
}

func (c *shopContext) theCatalogHasTheseProducts(table *godog.Table) error {
	ctx := context.Background()
	category := &domain.Category{ID: uuid.New(), Name: "Menu", CreatedAt: time.Now()}
	if err := c.stores.Categories.Create(ctx, category); err != nil {
		return err
	}

	for _, row := range table.Rows[1:] {
		name := row.Cells[0].Value
		price, err := decimal.NewFromString(row.Cells[1].Value)
		if err != nil {
			return err
		}
		p := &domain.Product{
			ID:          uuid.New(),
			Name:        name,
			Price:       price,
			CategoryID:  category.ID,
			IsAvailable: true,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
		if err := c.stores.Products.Create(ctx, p); err != nil {
			return err
		}
		c.products[name] = p.ID
	}
	return nil
}

func (c *shopContext) login(email, password string) error {
	if err := c.do(http.MethodPost, "/api/accounts/login", map[string]string{"email": email, "password": password}); err != nil {
		return err
	}
	var login struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(c.body, &login); err != nil {
		return err
	}
	if login.AccessToken == "" {
		return fmt.Errorf("login returned %d without a token: %s", c.status, c.body)
	}
	c.token = login.AccessToken
	return nil
}

// aMerchantIsSignedIn has the owner enrol a merchant, then signs in as that merchant.
func (c *shopContext) aMerchantIsSignedIn() error {
	accounts := service.NewAccountService(c.stores.Accounts, c.stores.RefreshTokens, service.TokenConfig{Secret: jwtSecret})
	if _, err := accounts.RegisterOwner(context.Background(), "owner@shop.example", "owner-password", "Olga", "Owner"); err != nil {
		return err
	}
	if err := c.login("owner@shop.example", "owner-password"); err != nil {
		return err
	}

	merchant := map[string]string{
		"email":      "staff@shop.example",
		"password":   "correct-horse",
		"first_name": "Sam",
		"last_name":  "Staff",
	}
	if err := c.do(http.MethodPost, "/api/accounts/register", merchant); err != nil {
		return err
	}
	if c.status != http.StatusCreated {
		return fmt.Errorf("register returned %d: %s", c.status, c.body)
	}
	return c.login(merchant["email"], merchant["password"])
}

func (c *shopContext) submit(name, phone string, items []map[string]any) error {
	token := c.token
	c.token = ""
	defer func() { c.token = token }()

	if err := c.do(http.MethodPost, "/api/selections", map[string]any{
		"customer_name":  name,
		"customer_phone": phone,
		"items":          items,
	}); err != nil {
		return err
	}
	if c.status == http.StatusCreated {
		var s domain.CustomerSelection
		if err := json.Unmarshal(c.body, &s); err != nil {
			return err
		}
		c.selection = s.ID
	}
	return nil
}

func (c *shopContext) customerSubmitsTwoProducts(name, phone string, qtyA int, productA string, qtyB int, productB string) error {
	return c.submit(name, phone, []map[string]any{
		{"product_id": c.products[productA], "quantity": qtyA},
		{"product_id": c.products[productB], "quantity": qtyB},
	})
}

func (c *shopContext) customerSubmitsPricedProduct(name, phone string, qty int, product, price string) error {
	return c.submit(name, phone, []map[string]any{
		{"product_id": c.products[product], "quantity": qty, "price": price},
	})
}

func (c *shopContext) customerSubmitsNothing(name, phone string) error {
	return c.submit(name, phone, []map[string]any{})
}

func (c *shopContext) theResponseStatusIs(want int) error {
	if c.status != want {
		return fmt.Errorf("expected status %d, got %d: %s", want, c.status, c.body)
	}
	return nil
}

func (c *shopContext) pending() ([]domain.CustomerSelection, error) {
	if err := c.do(http.MethodGet, "/api/selections/pending", nil); err != nil {
		return nil, err
	}
	if c.status != http.StatusOK {
		return nil, fmt.Errorf("pending list returned %d: %s", c.status, c.body)
	}
	var out []domain.CustomerSelection
	return out, json.Unmarshal(c.body, &out)
}

func (c *shopContext) thereArePendingSelections(count int) error {
	pending, err := c.pending()
	if err != nil {
		return err
	}
	if len(pending) != count {
		return fmt.Errorf("expected %d pending selections, got %s", count, spew.Sdump(pending))
	}
	return nil
}

func (c *shopContext) firstPendingSelectionTotals(count int, total string) error {
	pending, err := c.pending()
	if err != nil {
		return err
	}
	if len(pending) != count {
		return fmt.Errorf("expected %d pending selections, got %s", count, spew.Sdump(pending))
	}
	return equalMoney("selection total", total, pending[0].Total())
}

func (c *shopContext) theMerchantConvertsTheSelection() error {
	return c.do(http.MethodPost, "/api/selections/"+c.selection.String()+"/convert", nil)
}

func (c *shopContext) theOrderTotalIs(total string) error {
	var order domain.Order
	if err := json.Unmarshal(c.body, &order); err != nil {
		return err
	}
	if order.SelectionID == nil || *order.SelectionID != c.selection {
		return fmt.Errorf("order is not linked to the selection: %s", spew.Sdump(order))
	}
	return equalMoney("order total", total, order.TotalPrice)
}

func (c *shopContext) anOrderWasEnteredToday(total string) error {
	if err := c.do(http.MethodPost, "/api/orders", map[string]any{
		"items": []map[string]any{{"name": "Catering", "price": total, "quantity": 1}},
	}); err != nil {
		return err
	}
	return c.theResponseStatusIs(http.StatusCreated)
}

func (c *shopContext) anExpenseWasRecordedToday(amount string) error {
	if err := c.do(http.MethodPost, "/api/expenses", map[string]any{
		"amount":   amount,
		"category": "supplies",
	}); err != nil {
		return err
	}
	return c.theResponseStatusIs(http.StatusCreated)
}

func (c *shopContext) daily() (report.WindowReport, error) {
	if err := c.do(http.MethodGet, "/api/reports/standard", nil); err != nil {
		return report.WindowReport{}, err
	}
	if c.status != http.StatusOK {
		return report.WindowReport{}, fmt.Errorf("reports returned %d: %s", c.status, c.body)
	}
	var reports report.StandardReports
	if err := json.Unmarshal(c.body, &reports); err != nil {
		return report.WindowReport{}, err
	}
	return reports.Daily, nil
}

func (c *shopContext) todaysRevenueIs(total string) error {
	daily, err := c.daily()
	if err != nil {
		return err
	}
	return equalMoney("daily revenue", total, daily.TotalRevenue)
}

func (c *shopContext) todaysExpensesAre(total string) error {
	daily, err := c.daily()
	if err != nil {
		return err
	}
	return equalMoney("daily expenses", total, daily.TotalExpenses)
}

func equalMoney(what, want string, got decimal.Decimal) error {
	expected, err := decimal.NewFromString(want)
	if err != nil {
		return err
	}
	if !got.Equal(expected) {
		return fmt.Errorf("%s: expected %s, got %s", what, expected, got)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	sc := &shopContext{}

	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, sc.reset()
	})

	ctx.Step(`^the catalog has these products:$`, sc.theCatalogHasTheseProducts)
	ctx.Step(`^a merchant is signed in$`, sc.aMerchantIsSignedIn)
	ctx.Step(`^an order for "([^"]*)" was entered today$`, sc.anOrderWasEnteredToday)
	ctx.Step(`^an expense of "([^"]*)" was recorded today$`, sc.anExpenseWasRecordedToday)

	ctx.Step(`^customer "([^"]*)" with phone "([^"]*)" submits (\d+) "([^"]*)" and (\d+) "([^"]*)"$`, sc.customerSubmitsTwoProducts)
	ctx.Step(`^customer "([^"]*)" with phone "([^"]*)" submits (\d+) "([^"]*)" priced at "([^"]*)"$`, sc.customerSubmitsPricedProduct)
	ctx.Step(`^customer "([^"]*)" with phone "([^"]*)" submits nothing$`, sc.customerSubmitsNothing)
	ctx.Step(`^the merchant converts the selection$`, sc.theMerchantConvertsTheSelection)

	ctx.Step(`^the response status is (\d+)$`, sc.theResponseStatusIs)
	ctx.Step(`^there is (\d+) pending selection totalling "([^"]*)"$`, sc.firstPendingSelectionTotals)
	ctx.Step(`^there are (\d+) pending selections$`, sc.thereArePendingSelections)
	ctx.Step(`^the order total is "([^"]*)"$`, sc.theOrderTotalIs)
	ctx.Step(`^today's revenue is "([^"]*)"$`, sc.todaysRevenueIs)
	ctx.Step(`^today's expenses are "([^"]*)"$`, sc.todaysExpensesAre)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
