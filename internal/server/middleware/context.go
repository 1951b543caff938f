package middleware

import "context"

type contextKey string

const (
	ContextKeySessionID contextKey = "session_id"
	ContextKeyIdentity  contextKey = "identity"
)

func SessionIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeySessionID).(string)
	return v, ok
}

func IdentityFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyIdentity).(string)
	return v, ok
}
