package api

import (
	"context"

	"housing/internal/identity"
)

type ctxKey string

const ctxKeyIdentity ctxKey = "identity"

func WithIdentity(ctx context.Context, id *identity.Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

// IdentityFromContext returns nil when the request carries no valid session.
func IdentityFromContext(ctx context.Context) *identity.Identity {
	v := ctx.Value(ctxKeyIdentity)
	if v == nil {
		return nil
	}
	id, _ := v.(*identity.Identity)
	return id
}
