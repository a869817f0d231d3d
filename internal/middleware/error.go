package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"marketplace/internal/domain"

	"go.uber.org/zap"
)

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// RespondWithError sends a structured error response
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	RespondWithErrorDetails(w, statusCode, message, nil)
}

// RespondWithErrorDetails sends a structured error response with additional details
func RespondWithErrorDetails(w http.ResponseWriter, statusCode int, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error: ErrorDetail{
			Code:      http.StatusText(statusCode),
			Message:   message,
			Details:   details,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	json.NewEncoder(w).Encode(response)
}

// RespondWithValidationErrors sends validation error response
func RespondWithValidationErrors(w http.ResponseWriter, fields []ValidationError) {
	details := make(map[string]interface{})
	details["validation_errors"] = fields

	RespondWithErrorDetails(w, http.StatusBadRequest, "validation failed", details)
}

// RespondWithDomainError maps a service error onto the error envelope.
// Unrecognised errors are logged and reported as 500.
func RespondWithDomainError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var (
		vErr *domain.ValidationError
		tErr *domain.TransportError
	)

	switch {
	case errors.As(err, &vErr):
		fields := make([]ValidationError, 0, len(vErr.Fields))
		for _, f := range vErr.Fields {
			fields = append(fields, ValidationError{Field: f.Field, Message: f.Message})
		}
		RespondWithValidationErrors(w, fields)
	case errors.Is(err, domain.ErrNotFound):
		RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		RespondWithError(w, http.StatusForbidden, "you do not own this resource")
	case errors.Is(err, domain.ErrConflict):
		RespondWithError(w, http.StatusConflict, err.Error())
	case errors.As(err, &tErr):
		logger.Error("Storage request failed", zap.String("op", tErr.Op), zap.Error(tErr.Err))
		RespondWithError(w, http.StatusBadGateway, tErr.Message)
	default:
		logger.Error("Unhandled error", zap.Error(err))
		RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
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
func RespondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}
