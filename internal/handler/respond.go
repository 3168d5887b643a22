package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/fridgly/internal/identity"
	"github.com/dukerupert/fridgly/internal/inventory"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps a service error onto an HTTP status and a client-safe
// message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, identity.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid token"
	case errors.Is(err, inventory.ErrItemNotFound):
		return http.StatusNotFound, "item not found"
	case errors.Is(err, inventory.ErrNoGroupAssociation):
		return http.StatusConflict, "no group association"
	case errors.Is(err, inventory.ErrPersistence):
		return http.StatusServiceUnavailable, "storage unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// writeServiceError logs server-side failures and writes the mapped
// status.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	status, text := statusFor(err)
	if status >= 500 {
		logger.Error(msg, "error", err)
	}
	writeError(w, status, text)
}
