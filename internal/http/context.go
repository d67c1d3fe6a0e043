package http

import (
	"context"
	"net/http"

	"contabile/internal/auth"
)

type contextKey int

const (
	identityKey contextKey = iota
	requestIDKey
)

func withIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// identityFrom returns the authenticated caller. Handlers behind the
// protected middleware can rely on it being present.
func identityFrom(ctx context.Context) auth.Identity {
	id, _ := ctx.Value(identityKey).(auth.Identity)
	return id
}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func requireAdmin(r *http.Request) error {
	return auth.RequireAdmin(identityFrom(r.Context()))
}
