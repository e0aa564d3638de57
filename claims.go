package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind tells access and refresh tokens apart
type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

func (k TokenKind) String() string {
	return string(k)
}

// AuthClaims is what the auth gate exposes to protected handlers
type AuthClaims interface {
	UserID() int64
	Username() string
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the payload carried by both token kinds.
// Refresh tokens leave Name empty.
type JWTClaims struct {
	jwt.RegisteredClaims
	UID       int64     `json:"uid"`
	Name      string    `json:"username,omitempty"`
	TokenType TokenKind `json:"typ"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() int64 {
	if c.UID != 0 {
		return c.UID
	}
	id, err := strconv.ParseInt(c.Subject(), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// Username returns the username claim
func (c *JWTClaims) Username() string {
	return c.Name
}

// Kind returns the token kind
func (c *JWTClaims) Kind() TokenKind {
	return c.TokenType
}

// TokenID returns the jti claim
func (c *JWTClaims) TokenID() string {
	return c.RegisteredClaims.ID
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
