// Package auth carries the authenticated caller through a request context.
package auth

import "context"

type contextKey struct{}

// AuthContext is set by the auth middleware once the caller's token has
// been verified and their group resolved.
type AuthContext struct {
	IdentityID string
	GroupID    string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func GroupID(ctx context.Context) string {
	ac, _ := FromContext(ctx)
	return ac.GroupID
}

func IdentityID(ctx context.Context) string {
	ac, _ := FromContext(ctx)
	return ac.IdentityID
}
