// internal/auth/identity.go
package auth

import (
	"context"

	"github.com/google/uuid"
)

// IdentityResolver resolves the user on whose behalf a store call runs.
// The remote project store takes one as an explicit constructor dependency;
// it never reaches for a global session object.
type IdentityResolver interface {
	// CurrentUser returns the acting user's id, or ok=false when there is
	// no active session. Callers treat ok=false as "operation unavailable",
	// not as an error.
	CurrentUser(ctx context.Context) (uuid.UUID, bool)
}

type ctxKey struct{}

// WithUser returns a context carrying the authenticated user id.
// The HTTP layer calls this after reading the gateway-injected X-User-ID
// header; everything below only sees the context.
func WithUser(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// ContextResolver reads the user id placed on the context by WithUser.
type ContextResolver struct{}

func (ContextResolver) CurrentUser(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxKey{}).(uuid.UUID)
	return id, ok
}

// StaticResolver always resolves to a fixed user. Used for websocket editing
// sessions (the user is authenticated once at upgrade time) and in tests.
type StaticResolver struct {
	ID uuid.UUID
}

func (r StaticResolver) CurrentUser(context.Context) (uuid.UUID, bool) {
	if r.ID == uuid.Nil {
		return uuid.Nil, false
	}
	return r.ID, true
}

// NoneResolver never resolves a user. It models a signed-out session.
type NoneResolver struct{}

func (NoneResolver) CurrentUser(context.Context) (uuid.UUID, bool) {
	return uuid.Nil, false
}
