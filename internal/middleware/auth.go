package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/fridgly/internal/auth"
	"github.com/dukerupert/fridgly/internal/identity"
	"github.com/dukerupert/fridgly/internal/inventory"
	"github.com/dukerupert/fridgly/internal/model"
	"github.com/dukerupert/fridgly/internal/session"
)

var ErrMissingToken = errors.New("authorization token required")

// GroupResolver maps a verified identity onto its household group.
type GroupResolver interface {
	Resolve(ctx context.Context, id identity.Identity) (inventory.Membership, error)
	ActiveGroup(u *model.User) (string, error)
}

// Authenticator verifies bearer tokens and resolves the caller's group,
// consulting the session cache before the directory.
type Authenticator struct {
	verifier identity.Verifier
	groups   GroupResolver
	cache    session.Cache
	logger   *slog.Logger
}

func NewAuthenticator(verifier identity.Verifier, groups GroupResolver, cache session.Cache, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		verifier: verifier,
		groups:   groups,
		cache:    cache,
		logger:   logger.With("component", "auth"),
	}
}

// SignIn verifies token and resolves the group through the directory,
// creating it on first sign-in. The resolved user is written to the
// session cache.
func (a *Authenticator) SignIn(ctx context.Context, token string) (identity.Identity, inventory.Membership, error) {
	id, err := a.verifier.Verify(ctx, token)
	if err != nil {
		return identity.Identity{}, inventory.Membership{}, err
	}

	m, err := a.groups.Resolve(ctx, id)
	if err != nil {
		return id, inventory.Membership{}, err
	}
	if err := a.cache.Save(ctx, m.User); err != nil {
		a.logger.Warn("save session", "user_id", id.ID, "error", err)
	}
	return id, m, nil
}

// Authenticate is SignIn with a session cache lookup in front of it.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (auth.AuthContext, error) {
	id, err := a.verifier.Verify(ctx, token)
	if err != nil {
		return auth.AuthContext{}, err
	}

	u, err := a.cache.Load(ctx, id.ID)
	if err != nil {
		a.logger.Warn("load session", "user_id", id.ID, "error", err)
	}
	if u != nil {
		if gid, err := a.groups.ActiveGroup(u); err == nil {
			return auth.AuthContext{IdentityID: id.ID, GroupID: gid}, nil
		}
	}

	m, err := a.groups.Resolve(ctx, id)
	if err != nil {
		return auth.AuthContext{}, err
	}
	if err := a.cache.Save(ctx, m.User); err != nil {
		a.logger.Warn("save session", "user_id", id.ID, "error", err)
	}
	return auth.AuthContext{IdentityID: id.ID, GroupID: m.GroupID}, nil
}

// RequireAuth validates the bearer token and populates AuthContext.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := BearerToken(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		ac, err := a.Authenticate(r.Context(), token)
		switch {
		case errors.Is(err, identity.ErrInvalidToken):
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		case errors.Is(err, inventory.ErrNoGroupAssociation):
			writeError(w, http.StatusConflict, "no group association")
			return
		case err != nil:
			a.logger.Error("authenticate", "error", err)
			writeError(w, http.StatusServiceUnavailable, "authentication unavailable")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
	})
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
// Browsers cannot set headers on websocket upgrades, so an access_token
// query parameter is accepted as well.
func BearerToken(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") && strings.TrimSpace(token) != "" {
			return strings.TrimSpace(token), nil
		}
		return "", ErrMissingToken
	}
	if token := r.URL.Query().Get("access_token"); token != "" {
		return token, nil
	}
	return "", ErrMissingToken
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
