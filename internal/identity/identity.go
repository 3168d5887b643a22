// Package identity turns bearer tokens from the mobile client into verified
// identities.
package identity

import (
	"context"
	"errors"
	"strings"
)

var ErrInvalidToken = errors.New("invalid or expired identity token")

// Identity is the authenticated principal issued by the identity provider.
type Identity struct {
	ID          string
	DisplayName string
	Email       string
}

// Name returns the display name, falling back to the local part of the
// email address when the provider did not supply one.
func (i Identity) Name() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	if local, _, ok := strings.Cut(i.Email, "@"); ok && local != "" {
		return local
	}
	return "My"
}

type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}
