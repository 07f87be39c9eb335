package transport

import (
	"net/http"
	"time"

	"merchant-desk/internal/middleware"
	"merchant-desk/internal/report"
	"merchant-desk/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ReportHandler serves financial rollups to staff
type ReportHandler struct {
	reports  service.ReportService
	location *time.Location
	logger   *zap.Logger
}

// NewReportHandler creates a new ReportHandler; loc resolves date-only window bounds
func NewReportHandler(reports service.ReportService, loc *time.Location, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, location: loc, logger: logger}
}

func (h *ReportHandler) RegisterRoutes(r chi.Router, staff ...func(http.Handler) http.Handler) {
	r.Route("/api/reports", func(r chi.Router) {
		r.Use(staff...)
		r.Get("/standard", h.Standard)
		r.Get("/window", h.Window)
		r.Get("/dashboard", h.Dashboard)
	})
}

// Standard returns the daily, weekly, monthly and yearly windows
func (h *ReportHandler) Standard(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reports.StandardReports(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, reports)
}

// Window returns stats for [start, end]. A date-only end covers that whole day.
func (h *ReportHandler) Window(w http.ResponseWriter, r *http.Request) {
	start, ok := queryTime(r, "start", h.location)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid start")
		return
	}
	end, ok := queryTime(r, "end", h.location)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid end")
		return
	}
	if raw := r.URL.Query().Get("end"); len(raw) == len(time.DateOnly) {
		end = report.EndOfDay(end)
	}

	stats, err := h.reports.Window(r.Context(), start, end)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, stats)
}

// Dashboard returns all-time sales and order count
func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reports.Dashboard(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, summary)
}
