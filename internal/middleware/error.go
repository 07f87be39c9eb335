package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"merchant-desk/internal/domain"
	"merchant-desk/internal/repository"

	"go.uber.org/zap"
)

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp string         `json:"timestamp"`
}

// RespondWithError sends a structured error response
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	RespondWithErrorDetails(w, statusCode, message, nil)
}

// RespondWithErrorDetails sends a structured error response with additional details
func RespondWithErrorDetails(w http.ResponseWriter, statusCode int, message string, details map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorDetail{
			Code:      http.StatusText(statusCode),
			Message:   message,
			Details:   details,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// RespondWithValidationErrors sends validation error response
func RespondWithValidationErrors(w http.ResponseWriter, errs []ValidationError) {
	RespondWithErrorDetails(w, http.StatusBadRequest, "validation failed", map[string]any{
		"validation_errors": errs,
	})
}

var notFoundErrors = []error{
	domain.ErrProductNotFound,
	domain.ErrSelectionNotFound,
	domain.ErrOrderNotFound,
	repository.ErrCategoryNotFound,
	repository.ErrAccountNotFound,
}

var conflictErrors = []error{
	domain.ErrAlreadyProcessed,
	repository.ErrSelectionAlreadyInvoiced,
	repository.ErrCategoryAlreadyExists,
	repository.ErrAccountAlreadyExists,
}

// RespondWithDomainError maps service errors onto the error envelope.
// Anything unrecognised is logged and reported as a 500 without its message.
func RespondWithDomainError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		RespondWithValidationErrors(w, []ValidationError{{Field: ve.Field, Message: ve.Message}})
		return
	}

	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			RespondWithError(w, http.StatusNotFound, target.Error())
			return
		}
	}

	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			RespondWithError(w, http.StatusConflict, target.Error())
			return
		}
	}

	logger.Error("Request failed", zap.Error(err))
	RespondWithError(w, http.StatusInternalServerError, "internal server error")
}

// ErrorHandlingMiddleware catches panics and converts them to 500 errors
func ErrorHandlingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("Panic recovered",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
					)

					RespondWithError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RespondWithJSON sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}
