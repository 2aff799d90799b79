package core

import "context"

type contextKey string

const (
	ctxKeySession   contextKey = "session_id"
	ctxKeyIPAddress contextKey = "client_ip"
	ctxKeyUser      contextKey = "user"
)

// ContextWithSession adds the browser session ID to context.
func ContextWithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeySession, id)
}

// SessionFromContext extracts the session ID from context.
func SessionFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeySession).(string); ok {
		return v
	}
	return ""
}

// ContextWithIPAddress adds the client IP address to context.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// IPAddressFromContext extracts the client IP address from context.
func IPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}

// ContextWithUser adds the signed-in account to context.
func ContextWithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, ctxKeyUser, u)
}

// UserFromContext returns the signed-in account, if any.
func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(ctxKeyUser).(User)
	return u, ok
}

// Owner returns the key history is kept under: the signed-in account's ID,
// or the browser session when nobody is signed in.
func Owner(ctx context.Context) string {
	if u, ok := UserFromContext(ctx); ok {
		return u.ID
	}
	return SessionFromContext(ctx)
}
