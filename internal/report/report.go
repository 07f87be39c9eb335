// Package report computes revenue and expense rollups from raw order and
// expense history. Everything here is a pure function of its inputs.
package report

import (
	"time"

	"merchant-desk/internal/domain"

	"github.com/shopspring/decimal"
)

// FinancialStats is the revenue/expense aggregate of one closed window
type FinancialStats struct {
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
}

// IsEmpty reports whether the window saw no activity at all
func (s FinancialStats) IsEmpty() bool {
	return s.TotalRevenue.IsZero() && s.TotalExpenses.IsZero()
}

// Window is a closed interval [Start, End]
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies in the window, both ends included
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// WindowReport pairs a window with its stats
type WindowReport struct {
	Window
	FinancialStats
}

// StandardReports holds the four windows derived from one reference instant
type StandardReports struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Daily       WindowReport `json:"daily"`
	Weekly      WindowReport `json:"weekly"`
	Monthly     WindowReport `json:"monthly"`
	Yearly      WindowReport `json:"yearly"`
}

// Summary is the all-time dashboard view
type Summary struct {
	TotalSales  decimal.Decimal `json:"total_sales"`
	OrdersCount int             `json:"orders_count"`
}

// ComputeWindow sums order totals and expense amounts whose timestamps fall
// within [start, end]. Sums run in input order.
func ComputeWindow(orders []*domain.Order, expenses []*domain.Expense, start, end time.Time) FinancialStats {
	w := Window{Start: start, End: end}
	stats := FinancialStats{TotalRevenue: decimal.Zero, TotalExpenses: decimal.Zero}

	for _, o := range orders {
		if w.Contains(o.CreatedAt) {
			stats.TotalRevenue = stats.TotalRevenue.Add(o.TotalPrice)
		}
	}
	for _, e := range expenses {
		if w.Contains(e.Date) {
			stats.TotalExpenses = stats.TotalExpenses.Add(e.Amount)
		}
	}

	return stats
}

// StandardWindows derives the daily, weekly, monthly and yearly windows for now
func StandardWindows(now time.Time) (daily, weekly, monthly, yearly Window) {
	daily = Window{Start: StartOfDay(now), End: EndOfDay(now)}
	weekly = Window{Start: StartOfWeek(now), End: now}
	monthly = Window{Start: StartOfMonth(now), End: now}
	yearly = Window{Start: StartOfYear(now), End: now}
	return daily, weekly, monthly, yearly
}

// ComputeStandardReports computes all four windows from the single instant now.
// Callers sample the clock once and pass it in.
func ComputeStandardReports(orders []*domain.Order, expenses []*domain.Expense, now time.Time) StandardReports {
	daily, weekly, monthly, yearly := StandardWindows(now)

	build := func(w Window) WindowReport {
		return WindowReport{Window: w, FinancialStats: ComputeWindow(orders, expenses, w.Start, w.End)}
	}

	return StandardReports{
		GeneratedAt: now,
		Daily:       build(daily),
		Weekly:      build(weekly),
		Monthly:     build(monthly),
		Yearly:      build(yearly),
	}
}

// Summarize totals every order ever recorded
func Summarize(orders []*domain.Order) Summary {
	summary := Summary{TotalSales: decimal.Zero, OrdersCount: len(orders)}
	for _, o := range orders {
		summary.TotalSales = summary.TotalSales.Add(o.TotalPrice)
	}
	return summary
}
