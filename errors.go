package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidInput          = "INVALID_INPUT"
	TextCodeEmptyPassword         = "EMPTY_PASSWORD"
	TextCodeUserExists            = "USER_EXISTS"
	TextCodeInvalidCreds          = "INVALID_CREDENTIALS"
	TextCodeInvalidRefresh        = "INVALID_REFRESH_TOKEN"
	TextCodeUnauthenticated       = "UNAUTHENTICATED"
	TextCodeUserNotFound          = "USER_NOT_FOUND"
	TextCodeConfiguration         = "CONFIGURATION_ERROR"
	TextCodeTokenMalformed        = "TOKEN_MALFORMED"
	TextCodeTokenSignatureInvalid = "TOKEN_SIGNATURE_INVALID"
	TextCodeTokenExpired          = "TOKEN_EXPIRED"
	TextCodeTokenRevoked          = "TOKEN_REVOKED"
)

// ErrInvalidInput is returned for malformed request data
var ErrInvalidInput = errors.New("invalid input", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidInput).
	WithCode(errors.CodeBadRequest)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrConflict is returned when a username or email is already taken
var ErrConflict = errors.New("user already exists", errors.CategoryConflict).
	WithTextCode(TextCodeUserExists).
	WithCode(errors.CodeBadRequest)

// ErrUnauthorized is the single error for failed logins and refreshes.
// It must not reveal whether the username or the password was wrong.
var ErrUnauthorized = errors.New("invalid username or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidRefreshToken is what clients see when a refresh or logout is rejected
var ErrInvalidRefreshToken = errors.New("invalid refresh token", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidRefresh).
	WithCode(errors.CodeUnauthorized)

// ErrUnauthenticated is returned by the auth gate for missing or invalid bearer tokens
var ErrUnauthenticated = errors.New("unauthorized", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrConfiguration marks a fatal startup misconfiguration
var ErrConfiguration = errors.New("invalid configuration", errors.CategoryInternal).
	WithTextCode(TextCodeConfiguration).
	WithCode(errors.CodeInternal)

// ErrTokenMalformed is returned when a token is not a parseable JWT
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTokenSignatureInvalid is returned when the signature does not match the key for the expected kind
var ErrTokenSignatureInvalid = errors.New("token signature is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeTokenSignatureInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when now >= exp
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenRevoked is returned for tokens present in the denylist
var ErrTokenRevoked = errors.New("token has been revoked", errors.CategoryAuth).
	WithTextCode(TextCodeTokenRevoked).
	WithCode(errors.CodeUnauthorized)

// HasTextCode reports whether err, or any rich error it wraps, carries code
func HasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}

// IsInvalidInput reports validation failures, including wrapped ozzo errors
func IsInvalidInput(err error) bool {
	return HasTextCode(err, TextCodeInvalidInput) || HasTextCode(err, TextCodeEmptyPassword)
}

// IsConflict reports uniqueness violations
func IsConflict(err error) bool {
	return HasTextCode(err, TextCodeUserExists)
}

// IsNotFound reports a missing identity
func IsNotFound(err error) bool {
	return HasTextCode(err, TextCodeUserNotFound)
}

// IsConfigurationError reports startup misconfiguration
func IsConfigurationError(err error) bool {
	return HasTextCode(err, TextCodeConfiguration)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if HasTextCode(err, TextCodeTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if HasTextCode(err, TextCodeTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsSignatureInvalidError reports tokens signed with a different key or kind
func IsSignatureInvalidError(err error) bool {
	return HasTextCode(err, TextCodeTokenSignatureInvalid)
}

// IsTokenError reports any token verification failure
func IsTokenError(err error) bool {
	return IsMalformedError(err) ||
		IsSignatureInvalidError(err) ||
		IsTokenExpiredError(err) ||
		HasTextCode(err, TextCodeTokenRevoked)
}

func invalidInput(err error) error {
	return errors.Wrap(err, errors.CategoryValidation, err.Error()).
		WithTextCode(TextCodeInvalidInput).
		WithCode(errors.CodeBadRequest)
}

func configurationError(message string) error {
	return errors.New(message, errors.CategoryInternal).
		WithTextCode(TextCodeConfiguration).
		WithCode(errors.CodeInternal)
}

func internalError(err error, message string) error {
	return errors.Wrap(err, errors.CategoryInternal, message).
		WithCode(errors.CodeInternal)
}
