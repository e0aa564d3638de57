package auth

import (
	"context"
	"time"
)

// Logger is the structured logger used across the package.
// Args are key/value pairs following the message.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds auth options
type Config interface {
	GetAccessTokenSecret() string
	GetRefreshTokenSecret() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetIssuer() string
	GetContextKey() string
	GetTokenLookup() string
	GetAuthScheme() string
}

// UserStore is the persistence boundary for user records.
// Find methods return ErrIdentityNotFound when no record matches,
// Create and Update return ErrConflict on a uniqueness violation.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, user *User) (*User, error)
	Update(ctx context.Context, id int64, changes UserChanges) error
	Delete(ctx context.Context, id int64) error
}

// PasswordHasher turns secrets into one way hashes and checks them
type PasswordHasher interface {
	Hash(ctx context.Context, secret string) (string, error)
	Verify(ctx context.Context, secret, hash string) (bool, error)
}

// TokenIssuer mints signed access and refresh tokens
type TokenIssuer interface {
	IssueAccessToken(userID int64, username string) (*IssuedToken, error)
	IssueRefreshToken(userID int64) (*IssuedToken, error)
}

// TokenVerifier validates a token of the expected kind
type TokenVerifier interface {
	Verify(token string, kind TokenKind) (*JWTClaims, error)
}

// Tokens is what the session service needs from the token layer
type Tokens interface {
	TokenIssuer
	TokenVerifier
}

// TokenDenylist tracks token IDs revoked before their natural expiry.
// Entries only need to live until the token would have expired.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// TokenPair is returned on a successful login
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"-"`
	RefreshExpiresAt time.Time `json:"-"`
}

// IssuedToken is a signed token plus the claims callers usually need
type IssuedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

type noopDenylist struct{}

func (noopDenylist) Revoke(context.Context, string, time.Time) error { return nil }

func (noopDenylist) IsRevoked(context.Context, string) (bool, error) { return false, nil }

type clock func() time.Time
