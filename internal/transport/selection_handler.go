package transport

import (
	"context"
	"net/http"

	"merchant-desk/internal/domain"
	"merchant-desk/internal/middleware"
	"merchant-desk/internal/redisx"
	"merchant-desk/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubmitSelectionRequest is the customer's finished cart with contact details.
// Item names and prices are re-read from the catalog, never taken from the client.
type SubmitSelectionRequest struct {
	CustomerName  string            `json:"customer_name" validate:"required,max=200"`
	CustomerPhone string            `json:"customer_phone" validate:"required,max=50"`
	CustomerEmail string            `json:"customer_email" validate:"omitempty,email"`
	Items         []CartLineRequest `json:"items" validate:"required,min=1,dive"`
}

// ShareLinkResponse carries the public URL of the customer selection page
type ShareLinkResponse struct {
	URL string `json:"url"`
}

// IdempotencyStore deduplicates selection submissions that carry an Idempotency-Key
type IdempotencyStore interface {
	Reserve(ctx context.Context, key string) (redisx.ReservationState, uuid.UUID, error)
	Complete(ctx context.Context, key string, selectionID uuid.UUID) error
	Release(ctx context.Context, key string) error
}

// SelectionHandler serves customer submission and the merchant's pending queue
type SelectionHandler struct {
	selections  service.SelectionService
	conversions service.ConversionService
	carts       service.CartService
	idempotency IdempotencyStore
	shareURL    string
	logger      *zap.Logger
}

// NewSelectionHandler creates a new SelectionHandler. idempotency may be nil.
func NewSelectionHandler(
	selections service.SelectionService,
	conversions service.ConversionService,
	carts service.CartService,
	idempotency IdempotencyStore,
	shareURL string,
	logger *zap.Logger,
) *SelectionHandler {
	return &SelectionHandler{
		selections:  selections,
		conversions: conversions,
		carts:       carts,
		idempotency: idempotency,
		shareURL:    shareURL,
		logger:      logger,
	}
}

// RegisterRoutes mounts the public submit endpoints and the staff queue.
// submitLimits wraps only the submission route.
func (h *SelectionHandler) RegisterRoutes(r chi.Router, submitLimits []func(http.Handler) http.Handler, staff ...func(http.Handler) http.Handler) {
	r.Route("/api/selections", func(r chi.Router) {
		r.With(submitLimits...).Post("/", h.Submit)
		r.Get("/share-link", h.ShareLink)

		r.Group(func(r chi.Router) {
			r.Use(staff...)
			r.Get("/pending", h.ListPending)
			r.Get("/{id}", h.GetSelection)
			r.Post("/{id}/convert", h.Convert)
		})
	})
}

// Submit records a pending selection
func (h *SelectionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitSelectionRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Selection validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	ctx := r.Context()
	key := h.idempotencyKey(r)
	if key != "" {
		state, existing, err := h.idempotency.Reserve(ctx, key)
		switch {
		case err != nil:
			// Redis unavailable: submit without deduplication.
			h.logger.Warn("Idempotency check failed", zap.Error(err))
			key = ""
		case state == redisx.InFlight:
			middleware.RespondWithError(w, http.StatusConflict, "submission already in progress")
			return
		case state == redisx.Completed:
			selection, err := h.selections.GetSelection(ctx, existing)
			if err != nil {
				middleware.RespondWithDomainError(w, err, h.logger)
				return
			}
			middleware.RespondWithJSON(w, http.StatusOK, selection)
			return
		}
	}

	selection, err := h.submit(ctx, req)
	if err != nil {
		if key != "" {
			if relErr := h.idempotency.Release(ctx, key); relErr != nil {
				h.logger.Warn("Failed to release idempotency key", zap.Error(relErr))
			}
		}
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	if key != "" {
		if err := h.idempotency.Complete(ctx, key, selection.ID); err != nil {
			h.logger.Warn("Failed to record idempotency key", zap.Error(err))
		}
	}

	middleware.RespondWithJSON(w, http.StatusCreated, selection)
}

func (h *SelectionHandler) idempotencyKey(r *http.Request) string {
	key := r.Header.Get(middleware.IdempotencyKeyHeader)
	if key == "" || h.idempotency == nil {
		return ""
	}
	return redisx.SelectionSubmitKey(key)
}

func (h *SelectionHandler) submit(ctx context.Context, req SubmitSelectionRequest) (*domain.CustomerSelection, error) {
	lines, err := cartLines(req.Items)
	if err != nil {
		return nil, err
	}

	c, err := h.carts.Build(ctx, lines)
	if err != nil {
		return nil, err
	}

	return h.selections.Submit(ctx, service.SubmitSelectionInput{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Items:         c.Items(),
	})
}

// ShareLink returns the URL customers open to build a selection
func (h *SelectionHandler) ShareLink(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, ShareLinkResponse{URL: h.shareURL})
}

// ListPending returns pending selections, newest first
func (h *SelectionHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	pending := make([]*domain.CustomerSelection, 0)
	for selection, err := range h.selections.ListPending(r.Context()) {
		if err != nil {
			middleware.RespondWithDomainError(w, err, h.logger)
			return
		}
		pending = append(pending, selection)
	}
	middleware.RespondWithJSON(w, http.StatusOK, pending)
}

func (h *SelectionHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid selection ID")
		return
	}

	selection, err := h.selections.GetSelection(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, selection)
}

// Convert claims a pending selection and invoices it
func (h *SelectionHandler) Convert(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid selection ID")
		return
	}

	order, err := h.conversions.Convert(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, order)
}
