package identity

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"firebase.google.com/go/auth"
)

// IDTokenVerifier is the subset of *auth.Client used to check ID tokens.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseVerifier validates Firebase Auth ID tokens.
type FirebaseVerifier struct {
	client IDTokenVerifier
}

func NewFirebaseVerifier(client IDTokenVerifier) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	tok, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		if transient(err) {
			return Identity{}, fmt.Errorf("verify id token: %w", err)
		}
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if tok.UID == "" {
		return Identity{}, ErrInvalidToken
	}

	id := Identity{ID: tok.UID}
	id.Email, _ = tok.Claims["email"].(string)
	id.DisplayName, _ = tok.Claims["name"].(string)
	return id, nil
}

// transient reports whether a verification failure says nothing about the
// token itself. The v3 SDK returns untyped errors, so a failed public key
// fetch is recognised by its message.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return strings.Contains(err.Error(), "retrieving public keys")
}
