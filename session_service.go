package auth

import (
	"context"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// bcrypt ignores input past 72 bytes, longer secrets are rejected
const maxPasswordBytes = 72

// RegisterInput payload
type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// Validate will run validation rules
func (r RegisterInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Username,
			validation.Required,
			validation.Length(1, 64),
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(1, maxPasswordBytes),
		),
		validation.Field(
			&r.Email,
			validation.Required,
			is.EmailFormat,
		),
	)
}

// ProfileUpdate is a partial update, nil fields are not changed
type ProfileUpdate struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// IsEmpty reports whether no field was supplied
func (p ProfileUpdate) IsEmpty() bool {
	return p.Username == nil && p.Email == nil && p.Password == nil
}

// Validate will run validation rules. Supplied fields must not be empty.
func (p ProfileUpdate) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(
			&p.Username,
			validation.NilOrNotEmpty,
			validation.Length(1, 64),
		),
		validation.Field(
			&p.Email,
			validation.NilOrNotEmpty,
			is.EmailFormat,
		),
		validation.Field(
			&p.Password,
			validation.NilOrNotEmpty,
			validation.Length(1, maxPasswordBytes),
		),
	)
}

// LogoutInput carries the tokens to revoke. AccessToken is optional.
type LogoutInput struct {
	RefreshToken string
	AccessToken  string
}

// SessionService orchestrates registration, login, refresh and profile
// flows over a UserStore, a PasswordHasher and the token service.
type SessionService struct {
	store    UserStore
	hasher   PasswordHasher
	tokens   Tokens
	denylist TokenDenylist
	logger   Logger

	dummyOnce sync.Once
	dummyHash string
}

// SessionOption configures a SessionService
type SessionOption func(*SessionService)

// WithSessionLogger sets the logger
func WithSessionLogger(logger Logger) SessionOption {
	return func(s *SessionService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDenylist enables refresh token revocation on logout
func WithDenylist(denylist TokenDenylist) SessionOption {
	return func(s *SessionService) {
		if denylist != nil {
			s.denylist = denylist
		}
	}
}

// NewSessionService creates a SessionService. Without WithDenylist
// tokens stay valid until they expire.
func NewSessionService(store UserStore, hasher PasswordHasher, tokens Tokens, opts ...SessionOption) *SessionService {
	s := &SessionService{
		store:    store,
		hasher:   hasher,
		tokens:   tokens,
		denylist: noopDenylist{},
		logger:   defLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Denylist returns the configured denylist
func (s *SessionService) Denylist() TokenDenylist {
	return s.denylist
}

// Register creates a new identity and returns its id
func (s *SessionService) Register(ctx context.Context, in RegisterInput) (int64, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if err := in.Validate(); err != nil {
		return 0, invalidInput(err)
	}

	_, err := s.store.FindByUsername(ctx, in.Username)
	switch {
	case err == nil:
		return 0, ErrConflict
	case !IsNotFound(err):
		return 0, internalError(err, "failed to look up user")
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		if IsInvalidInput(err) {
			return 0, err
		}
		return 0, internalError(err, "failed to hash password")
	}

	// the unique index is authoritative, a concurrent register lands here
	user, err := s.store.Create(ctx, &User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         RoleUser,
	})
	if err != nil {
		if IsConflict(err) {
			return 0, ErrConflict
		}
		return 0, internalError(err, "failed to create user")
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)

	return user.ID, nil
}

// Login verifies credentials and issues an access and a refresh token.
// Unknown usernames and wrong passwords fail with the same error.
// The username is trimmed the same way Register stores it.
func (s *SessionService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrUnauthorized
	}

	user, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if !IsNotFound(err) {
			return nil, internalError(err, "failed to look up user")
		}
		s.burnDummyHash(ctx, password)
		s.logger.Debug("login rejected", "username", username)
		return nil, ErrUnauthorized
	}

	ok, err := s.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		return nil, internalError(err, "failed to verify password")
	}
	if !ok {
		s.logger.Debug("login rejected", "username", username)
		return nil, ErrUnauthorized
	}

	access, err := s.tokens.IssueAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, internalError(err, "failed to issue access token")
	}

	refresh, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, internalError(err, "failed to issue refresh token")
	}

	s.logger.Info("user logged in", "user_id", user.ID)

	return &TokenPair{
		AccessToken:      access.Token,
		RefreshToken:     refresh.Token,
		AccessExpiresAt:  access.ExpiresAt,
		RefreshExpiresAt: refresh.ExpiresAt,
	}, nil
}

// Refresh exchanges a refresh token for a new access token. The username
// is read from storage since refresh tokens do not carry it.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*IssuedToken, error) {
	claims, err := s.verifyRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.store.FindByID(ctx, claims.UserID())
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrUnauthorized
		}
		return nil, internalError(err, "failed to look up user")
	}

	access, err := s.tokens.IssueAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, internalError(err, "failed to issue access token")
	}

	return access, nil
}

// Logout revokes the refresh token, and the access token when given,
// until their natural expiry. With no denylist configured it only
// checks the refresh token.
func (s *SessionService) Logout(ctx context.Context, in LogoutInput) error {
	claims, err := s.verifyRefresh(ctx, in.RefreshToken)
	if err != nil {
		return err
	}

	if err := s.denylist.Revoke(ctx, claims.TokenID(), claims.Expires()); err != nil {
		return internalError(err, "failed to revoke refresh token")
	}

	if in.AccessToken != "" {
		// only tokens of the same subject are revoked
		access, err := s.tokens.Verify(in.AccessToken, AccessToken)
		if err == nil && access.UserID() == claims.UserID() {
			if err := s.denylist.Revoke(ctx, access.TokenID(), access.Expires()); err != nil {
				return internalError(err, "failed to revoke access token")
			}
		}
	}

	s.logger.Info("user logged out", "user_id", claims.UserID())

	return nil
}

// Profile returns the identity for userID
func (s *SessionService) Profile(ctx context.Context, userID int64) (*User, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, internalError(err, "failed to look up user")
	}
	return user, nil
}

// UpdateProfile applies the supplied fields. A new password is re-hashed
// and nothing is written when no field is supplied.
func (s *SessionService) UpdateProfile(ctx context.Context, userID int64, in ProfileUpdate) error {
	if in.Username != nil {
		v := strings.TrimSpace(*in.Username)
		in.Username = &v
	}
	if in.Email != nil {
		v := strings.TrimSpace(*in.Email)
		in.Email = &v
	}

	if err := in.Validate(); err != nil {
		return invalidInput(err)
	}

	if in.IsEmpty() {
		_, err := s.Profile(ctx, userID)
		return err
	}

	changes := UserChanges{
		Username: in.Username,
		Email:    in.Email,
	}

	if in.Password != nil {
		hash, err := s.hasher.Hash(ctx, *in.Password)
		if err != nil {
			if IsInvalidInput(err) {
				return err
			}
			return internalError(err, "failed to hash password")
		}
		changes.PasswordHash = &hash
	}

	if err := s.store.Update(ctx, userID, changes); err != nil {
		switch {
		case IsNotFound(err):
			return err
		case IsConflict(err):
			return ErrConflict
		default:
			return internalError(err, "failed to update user")
		}
	}

	s.logger.Info("user profile updated", "user_id", userID)

	return nil
}

// DeleteAccount removes the identity. Outstanding tokens stay valid
// until expiry, but Refresh fails once the record is gone.
func (s *SessionService) DeleteAccount(ctx context.Context, userID int64) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		if IsNotFound(err) {
			return err
		}
		return internalError(err, "failed to delete user")
	}

	s.logger.Info("user deleted", "user_id", userID)

	return nil
}

func (s *SessionService) verifyRefresh(ctx context.Context, refreshToken string) (*JWTClaims, error) {
	if refreshToken == "" {
		return nil, ErrUnauthorized
	}

	claims, err := NewKindValidator(s.tokens, RefreshToken, s.denylist).
		WithLogger(s.logger).
		VerifyClaims(ctx, refreshToken)
	if err != nil {
		if IsTokenError(err) {
			s.logger.Debug("refresh token rejected", "reason", err.Error())
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	return claims, nil
}

// burnDummyHash runs one bcrypt comparison so unknown usernames cost
// about as much as wrong passwords.
func (s *SessionService) burnDummyHash(ctx context.Context, password string) {
	s.dummyOnce.Do(func() {
		hash, err := RandomPasswordHash(context.WithoutCancel(ctx), s.hasher)
		if err != nil {
			s.logger.Warn("failed to prepare dummy hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash == "" {
		return
	}
	_, _ = s.hasher.Verify(ctx, password, s.dummyHash)
}
