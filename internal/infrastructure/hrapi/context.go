package hrapi

import "context"

type contextKey string

const tokenKey contextKey = "bearer-token"

// WithToken attaches the caller's upstream bearer token to the context.
// The gateway acts on behalf of the authenticated user, so every
// per-user resource call forwards that user's token.
func WithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext extracts a bearer token attached via WithToken.
func TokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenKey).(string)
	return t, ok && t != ""
}
