package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dukerupert/fridgly/internal/identity"
	"github.com/dukerupert/fridgly/internal/inventory"
	"github.com/dukerupert/fridgly/internal/middleware"
	"github.com/dukerupert/fridgly/internal/model"
)

type SignInService interface {
	SignIn(ctx context.Context, token string) (identity.Identity, inventory.Membership, error)
}

type SessionHandler struct {
	auth   SignInService
	logger *slog.Logger
}

func NewSessionHandler(auth SignInService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{auth: auth, logger: logger}
}

type sessionResponse struct {
	User    *model.User `json:"user"`
	GroupID string      `json:"groupId"`
	Created bool        `json:"created"`
}

// Create signs the caller in and returns their active group. The group is
// created on first sign-in, answered with 201.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.BearerToken(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	_, m, err := h.auth.SignIn(r.Context(), token)
	if err != nil {
		writeServiceError(w, h.logger, "sign in", err)
		return
	}

	status := http.StatusOK
	if m.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, sessionResponse{User: m.User, GroupID: m.GroupID, Created: m.Created})
}
