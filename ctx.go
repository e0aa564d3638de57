package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/goliatone/go-jobboard-auth/middleware/jwtware"
)

var identityCtxKey = &contextKey{"identity"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// RequestIdentity is what the auth gate attaches to an authenticated request
type RequestIdentity struct {
	SubjectID int64
	Username  string
}

// WithIdentityContext sets the RequestIdentity in the given context
func WithIdentityContext(ctx context.Context, identity RequestIdentity) context.Context {
	return context.WithValue(ctx, identityCtxKey, identity)
}

// IdentityFromContext finds the RequestIdentity in the context.
func IdentityFromContext(ctx context.Context) (RequestIdentity, bool) {
	raw, ok := ctx.Value(identityCtxKey).(RequestIdentity)
	return raw, ok
}

// WithClaimsContext sets the AuthClaims in the given context
func WithClaimsContext(ctx context.Context, claims AuthClaims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, claims)
}

// GetClaims extracts the AuthClaims from the standard context
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}

// GetFiberClaims extracts the AuthClaims stored in the request locals
func GetFiberClaims(c *fiber.Ctx, key string) (AuthClaims, bool) {
	if key == "" {
		key = "user" // Default key used by JWT middleware
	}
	raw := c.Locals(key)
	if raw == nil {
		return nil, false
	}
	claims, ok := raw.(AuthClaims)
	return claims, ok
}

// identityFromClaims builds the identity attached to gated requests
func identityFromClaims(claims jwtware.AuthClaims) RequestIdentity {
	return RequestIdentity{
		SubjectID: claims.UserID(),
		Username:  claims.Username(),
	}
}
