package transport

import (
	"net/http"
	"time"

	"merchant-desk/internal/middleware"
	"merchant-desk/internal/report"
	"merchant-desk/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RecordExpenseRequest records a business cost. date defaults to now.
type RecordExpenseRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Date     *time.Time      `json:"date"`
	Category string          `json:"category" validate:"max=100"`
	Note     string          `json:"note" validate:"max=500"`
}

// ExpenseHandler serves expense entry and listing for staff
type ExpenseHandler struct {
	expenses service.ExpenseService
	location *time.Location
	logger   *zap.Logger
}

// NewExpenseHandler creates a new ExpenseHandler; loc resolves date-only query bounds
func NewExpenseHandler(expenses service.ExpenseService, loc *time.Location, logger *zap.Logger) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses, location: loc, logger: logger}
}

func (h *ExpenseHandler) RegisterRoutes(r chi.Router, staff ...func(http.Handler) http.Handler) {
	r.Route("/api/expenses", func(r chi.Router) {
		r.Use(staff...)
		r.Post("/", h.RecordExpense)
		r.Get("/", h.ListExpenses)
	})
}

func (h *ExpenseHandler) RecordExpense(w http.ResponseWriter, r *http.Request) {
	var req RecordExpenseRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	date := time.Now()
	if req.Date != nil {
		date = *req.Date
	}

	expense, err := h.expenses.RecordExpense(r.Context(), service.RecordExpenseInput{
		Amount:   req.Amount,
		Date:     date,
		Category: req.Category,
		Note:     req.Note,
	})
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, expense)
}

// ListExpenses returns expenses dated within optional ?from= and ?to= bounds
func (h *ExpenseHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	from, ok := queryTime(r, "from", h.location)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid from")
		return
	}
	to, ok := queryTime(r, "to", h.location)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid to")
		return
	}
	if raw := r.URL.Query().Get("to"); len(raw) == len(time.DateOnly) {
		to = report.EndOfDay(to)
	}

	expenses, err := h.expenses.ListExpenses(r.Context(), from, to)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, expenses)
}
