package transport

import (
	"encoding/json"
	"fmt"
	"net/http"

	"marketplace/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// currentUser reads the authenticated user id set by the auth middleware
func currentUser(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		logger.Error("User ID not found in context")
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

// pathID parses the named URL parameter as a uuid
func pathID(w http.ResponseWriter, r *http.Request, param, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", label))
		return uuid.Nil, false
	}
	return id, true
}

// decodeJSON decodes a body whose fields are validated further down
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}, logger *zap.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logger.Debug("Request decode failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
