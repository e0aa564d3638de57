package auth

import (
	"context"
)

// TokenValidator validates tokens and extracts claims without tying callers
// to a specific signing implementation.
type TokenValidator interface {
	Validate(ctx context.Context, tokenString string) (AuthClaims, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(ctx context.Context, tokenString string) (AuthClaims, error)

// Validate satisfies the TokenValidator interface.
func (f TokenValidatorFunc) Validate(ctx context.Context, tokenString string) (AuthClaims, error) {
	if f == nil {
		return nil, ErrTokenMalformed
	}
	return f(ctx, tokenString)
}

// KindValidator validates tokens of a single kind against a TokenVerifier
// and rejects ids present in a denylist.
type KindValidator struct {
	verifier TokenVerifier
	kind     TokenKind
	denylist TokenDenylist
	logger   Logger
}

// NewKindValidator binds verifier to kind. A nil denylist disables revocation checks.
func NewKindValidator(verifier TokenVerifier, kind TokenKind, denylist TokenDenylist) *KindValidator {
	if denylist == nil {
		denylist = noopDenylist{}
	}
	return &KindValidator{
		verifier: verifier,
		kind:     kind,
		denylist: denylist,
		logger:   defLogger{},
	}
}

// WithLogger sets the logger
func (v *KindValidator) WithLogger(logger Logger) *KindValidator {
	if logger != nil {
		v.logger = logger
	}
	return v
}

// Validate satisfies the TokenValidator interface.
func (v *KindValidator) Validate(ctx context.Context, tokenString string) (AuthClaims, error) {
	claims, err := v.VerifyClaims(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyClaims is Validate returning the concrete claims
func (v *KindValidator) VerifyClaims(ctx context.Context, tokenString string) (*JWTClaims, error) {
	claims, err := v.verifier.Verify(tokenString, v.kind)
	if err != nil {
		return nil, err
	}

	revoked, err := v.denylist.IsRevoked(ctx, claims.TokenID())
	if err != nil {
		// fail closed, a denylist outage must not resurrect revoked tokens
		v.logger.Error("denylist lookup failed", "jti", claims.TokenID(), "error", err)
		return nil, internalError(err, "failed to check token revocation")
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}
