package service

import (
	"context"
	"fmt"
	"time"

	"merchant-desk/internal/domain"
	"merchant-desk/internal/report"
	"merchant-desk/internal/repository"
)

// ReportService loads order and expense history and hands it to the report package
type ReportService interface {
	// StandardReports samples the clock once for all four windows
	StandardReports(ctx context.Context) (report.StandardReports, error)
	Window(ctx context.Context, start, end time.Time) (report.WindowReport, error)
	Dashboard(ctx context.Context) (report.Summary, error)
}

type reportService struct {
	orders   repository.OrderRepository
	expenses repository.ExpenseRepository
	location *time.Location
	now      func() time.Time
}

// NewReportService creates a ReportService whose calendar windows are cut in loc
func NewReportService(orders repository.OrderRepository, expenses repository.ExpenseRepository, loc *time.Location) ReportService {
	if loc == nil {
		loc = time.Local
	}
	return &reportService{orders: orders, expenses: expenses, location: loc, now: time.Now}
}

func (s *reportService) history(ctx context.Context) ([]*domain.Order, []*domain.Expense, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load orders: %w", err)
	}
	expenses, err := s.expenses.List(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load expenses: %w", err)
	}
	return orders, expenses, nil
}

func (s *reportService) StandardReports(ctx context.Context) (report.StandardReports, error) {
	now := s.now().In(s.location)

	orders, expenses, err := s.history(ctx)
	if err != nil {
		return report.StandardReports{}, err
	}
	return report.ComputeStandardReports(orders, expenses, now), nil
}

func (s *reportService) Window(ctx context.Context, start, end time.Time) (report.WindowReport, error) {
	if start.IsZero() || end.IsZero() {
		return report.WindowReport{}, domain.NewValidationError("window", "start and end are required")
	}
	if end.Before(start) {
		return report.WindowReport{}, domain.NewValidationError("window", "end must not be before start")
	}

	orders, expenses, err := s.history(ctx)
	if err != nil {
		return report.WindowReport{}, err
	}
	return report.WindowReport{
		Window:         report.Window{Start: start, End: end},
		FinancialStats: report.ComputeWindow(orders, expenses, start, end),
	}, nil
}

func (s *reportService) Dashboard(ctx context.Context) (report.Summary, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return report.Summary{}, fmt.Errorf("failed to load orders: %w", err)
	}
	return report.Summarize(orders), nil
}
