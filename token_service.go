package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const (
	DefaultAccessTokenTTL  = time.Hour
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// TokenService issues and verifies HS256 tokens. Each kind is signed
// with its own secret so a refresh token never verifies as an access
// token and vice versa.
type TokenService struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	now        clock
	logger     Logger
}

// TokenServiceOption configures a TokenService
type TokenServiceOption func(*TokenService)

// WithClock replaces time.Now, used by tests
func WithClock(now func() time.Time) TokenServiceOption {
	return func(ts *TokenService) {
		if now != nil {
			ts.now = now
		}
	}
}

// WithTokenLogger sets the logger
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenService) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// NewTokenService creates a new TokenService instance. Missing or
// identical secrets are a configuration error and must abort startup.
func NewTokenService(cfg Config, opts ...TokenServiceOption) (*TokenService, error) {
	if cfg == nil {
		return nil, configurationError("token configuration is required")
	}

	access := cfg.GetAccessTokenSecret()
	refresh := cfg.GetRefreshTokenSecret()

	switch {
	case access == "":
		return nil, configurationError("access token secret is not set")
	case refresh == "":
		return nil, configurationError("refresh token secret is not set")
	case access == refresh:
		return nil, configurationError("access and refresh token secrets must differ")
	}

	ts := &TokenService{
		accessKey:  []byte(access),
		refreshKey: []byte(refresh),
		accessTTL:  cfg.GetAccessTokenTTL(),
		refreshTTL: cfg.GetRefreshTokenTTL(),
		issuer:     cfg.GetIssuer(),
		now:        time.Now,
		logger:     defLogger{},
	}

	if ts.accessTTL <= 0 {
		ts.accessTTL = DefaultAccessTokenTTL
	}
	if ts.refreshTTL <= 0 {
		ts.refreshTTL = DefaultRefreshTokenTTL
	}

	for _, opt := range opts {
		opt(ts)
	}

	return ts, nil
}

// IssueAccessToken creates a token carrying subject id and username
func (ts *TokenService) IssueAccessToken(userID int64, username string) (*IssuedToken, error) {
	claims := ts.newClaims(userID, AccessToken, ts.accessTTL)
	claims.Name = username
	return ts.sign(claims)
}

// IssueRefreshToken creates a token carrying only the subject id
func (ts *TokenService) IssueRefreshToken(userID int64) (*IssuedToken, error) {
	return ts.sign(ts.newClaims(userID, RefreshToken, ts.refreshTTL))
}

// IssueAccessTokenWithExpiry is IssueAccessToken with an explicit TTL
func (ts *TokenService) IssueAccessTokenWithExpiry(userID int64, username string, ttl time.Duration) (*IssuedToken, error) {
	claims := ts.newClaims(userID, AccessToken, ttl)
	claims.Name = username
	return ts.sign(claims)
}

// IssueRefreshTokenWithExpiry is IssueRefreshToken with an explicit TTL
func (ts *TokenService) IssueRefreshTokenWithExpiry(userID int64, ttl time.Duration) (*IssuedToken, error) {
	return ts.sign(ts.newClaims(userID, RefreshToken, ttl))
}

func (ts *TokenService) newClaims(userID int64, kind TokenKind, ttl time.Duration) *JWTClaims {
	now := ts.now()
	return &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UID:       userID,
		TokenType: kind,
	}
}

func (ts *TokenService) sign(claims *JWTClaims) (*IssuedToken, error) {
	key, err := ts.keyFor(claims.TokenType)
	if err != nil {
		return nil, err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return &IssuedToken{
		Token:     signed,
		ID:        claims.TokenID(),
		ExpiresAt: claims.Expires(),
	}, nil
}

func (ts *TokenService) keyFor(kind TokenKind) ([]byte, error) {
	switch kind {
	case AccessToken:
		return ts.accessKey, nil
	case RefreshToken:
		return ts.refreshKey, nil
	default:
		return nil, errors.New(fmt.Sprintf("unknown token kind %q", kind), errors.CategoryInternal)
	}
}

// Verify parses tokenString with the key for kind. The signature is
// checked before any claim, then expiry, then the typ claim.
func (ts *TokenService) Verify(tokenString string, kind TokenKind) (*JWTClaims, error) {
	key, err := ts.keyFor(kind)
	if err != nil {
		return nil, err
	}

	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.now),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Warn("token verify encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
	}, parserOptions...)

	if err != nil {
		return nil, mapJWTError(err)
	}

	if !token.Valid {
		return nil, ErrTokenSignatureInvalid
	}

	// Same outer shape, different kind: treat as a signature failure so
	// callers cannot tell which kind a foreign token was.
	if claims.TokenType != kind {
		return nil, ErrTokenSignatureInvalid
	}

	return claims, nil
}

// jwt/v5 reports expiry only after the signature verified, and treats
// a token as expired once now >= exp.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		// remaining claim failures (missing exp, wrong issuer, nbf) are not
		// tokens we issued with this key
		return ErrTokenSignatureInvalid
	}
}

// AccessValidator adapts the service to the auth gate
func (ts *TokenService) AccessValidator(denylist TokenDenylist) *KindValidator {
	return NewKindValidator(ts, AccessToken, denylist).WithLogger(ts.logger)
}
