package auth_test

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	auth "github.com/goliatone/go-jobboard-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T, clk *fakeClock) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService(newTestConfig(), auth.WithClock(clk.Now))
	require.NoError(t, err)
	return ts
}

func TestNewTokenService_Configuration(t *testing.T) {
	tests := []struct {
		name    string
		access  string
		refresh string
		wantErr bool
	}{
		{name: "both secrets set", access: "a", refresh: "b"},
		{name: "missing access secret", access: "", refresh: "b", wantErr: true},
		{name: "missing refresh secret", access: "a", refresh: "", wantErr: true},
		{name: "equal secrets", access: "same", refresh: "same", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig()
			cfg.accessSecret = tt.access
			cfg.refreshSecret = tt.refresh

			ts, err := auth.NewTokenService(cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, ts)
				assert.True(t, auth.IsConfigurationError(err))
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, ts)
		})
	}
}

func TestNewTokenService_NilConfig(t *testing.T) {
	_, err := auth.NewTokenService(nil)
	assert.True(t, auth.IsConfigurationError(err))
}

func TestTokenService_IssueAccessToken(t *testing.T) {
	clk := newFakeClock()
	ts := newTestTokenService(t, clk)

	issued, err := ts.IssueAccessToken(42, "alice")
	require.NoError(t, err)

	assert.Len(t, strings.Split(issued.Token, "."), 3)
	assert.NotEmpty(t, issued.ID)
	assert.WithinDuration(t, clk.Now().Add(time.Hour), issued.ExpiresAt, 0)

	claims, err := ts.Verify(issued.Token, auth.AccessToken)
	require.NoError(t, err)

	assert.Equal(t, int64(42), claims.UserID())
	assert.Equal(t, "42", claims.Subject())
	assert.Equal(t, "alice", claims.Username())
	assert.Equal(t, auth.AccessToken, claims.Kind())
	assert.Equal(t, issued.ID, claims.TokenID())
	assert.WithinDuration(t, clk.Now(), claims.IssuedAt(), 0)
	assert.WithinDuration(t, clk.Now().Add(time.Hour), claims.Expires(), 0)
}

func TestTokenService_IssueRefreshToken(t *testing.T) {
	clk := newFakeClock()
	ts := newTestTokenService(t, clk)

	issued, err := ts.IssueRefreshToken(7)
	require.NoError(t, err)

	claims, err := ts.Verify(issued.Token, auth.RefreshToken)
	require.NoError(t, err)

	assert.Equal(t, int64(7), claims.UserID())
	assert.Empty(t, claims.Username(), "refresh tokens carry no username")
	assert.Equal(t, auth.RefreshToken, claims.Kind())
	assert.WithinDuration(t, clk.Now().Add(7*24*time.Hour), claims.Expires(), 0)
}

func TestTokenService_TokensAreUnique(t *testing.T) {
	ts := newTestTokenService(t, newFakeClock())

	first, err := ts.IssueAccessToken(1, "alice")
	require.NoError(t, err)
	second, err := ts.IssueAccessToken(1, "alice")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.Token, second.Token)
}

func TestTokenService_CrossKindRejected(t *testing.T) {
	ts := newTestTokenService(t, newFakeClock())

	access, err := ts.IssueAccessToken(1, "alice")
	require.NoError(t, err)
	refresh, err := ts.IssueRefreshToken(1)
	require.NoError(t, err)

	_, err = ts.Verify(refresh.Token, auth.AccessToken)
	assert.ErrorIs(t, err, auth.ErrTokenSignatureInvalid)

	_, err = ts.Verify(access.Token, auth.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrTokenSignatureInvalid)
}

func TestTokenService_Expiry(t *testing.T) {
	clk := newFakeClock()
	ts := newTestTokenService(t, clk)

	issued, err := ts.IssueAccessToken(1, "alice")
	require.NoError(t, err)

	clk.Advance(time.Hour - time.Second)
	_, err = ts.Verify(issued.Token, auth.AccessToken)
	assert.NoError(t, err, "still valid one second before exp")

	clk.Advance(time.Second)
	_, err = ts.Verify(issued.Token, auth.AccessToken)
	assert.ErrorIs(t, err, auth.ErrTokenExpired, "expired when now == exp")
	assert.True(t, auth.IsTokenExpiredError(err))
}

func TestTokenService_RefreshExpiry(t *testing.T) {
	clk := newFakeClock()
	ts := newTestTokenService(t, clk)

	issued, err := ts.IssueRefreshTokenWithExpiry(1, time.Minute)
	require.NoError(t, err)

	clk.Advance(2 * time.Minute)
	_, err = ts.Verify(issued.Token, auth.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestTokenService_AccessExpiryWithTTL(t *testing.T) {
	clk := newFakeClock()
	ts := newTestTokenService(t, clk)

	issued, err := ts.IssueAccessTokenWithExpiry(7, "alice", 30*time.Second)
	require.NoError(t, err)
	assert.WithinDuration(t, clk.Now().Add(30*time.Second), issued.ExpiresAt, time.Second)

	claims, err := ts.Verify(issued.Token, auth.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID())
	assert.Equal(t, "alice", claims.Username())

	clk.Advance(time.Minute)
	_, err = ts.Verify(issued.Token, auth.AccessToken)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestTokenService_Malformed(t *testing.T) {
	ts := newTestTokenService(t, newFakeClock())

	tests := []string{
		"",
		"not-a-token",
		"a.b",
		"a.b.c",
	}

	for _, raw := range tests {
		t.Run(strconv.Quote(raw), func(t *testing.T) {
			_, err := ts.Verify(raw, auth.AccessToken)
			assert.ErrorIs(t, err, auth.ErrTokenMalformed)
			assert.True(t, auth.IsMalformedError(err))
		})
	}
}

func TestTokenService_ForgedSignature(t *testing.T) {
	clk := newFakeClock()
	ts := newTestTokenService(t, clk)

	claims := &auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    "jobboard-test",
			IssuedAt:  jwt.NewNumericDate(clk.Now()),
			ExpiresAt: jwt.NewNumericDate(clk.Now().Add(time.Hour)),
		},
		UID:       1,
		Name:      "mallory",
		TokenType: auth.AccessToken,
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("attacker-key"))
	require.NoError(t, err)

	_, err = ts.Verify(forged, auth.AccessToken)
	assert.ErrorIs(t, err, auth.ErrTokenSignatureInvalid)
}

func TestTokenService_SignatureCheckedBeforeExpiry(t *testing.T) {
	clk := newFakeClock()
	ts := newTestTokenService(t, clk)

	claims := &auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			IssuedAt:  jwt.NewNumericDate(clk.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(clk.Now().Add(-time.Hour)),
		},
		UID:       1,
		TokenType: auth.AccessToken,
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("attacker-key"))
	require.NoError(t, err)

	_, err = ts.Verify(forged, auth.AccessToken)
	assert.ErrorIs(t, err, auth.ErrTokenSignatureInvalid)
	assert.False(t, auth.IsTokenExpiredError(err))
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	clk := newFakeClock()
	ts := newTestTokenService(t, clk)

	claims := &auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(clk.Now().Add(time.Hour)),
		},
		UID:       1,
		TokenType: auth.AccessToken,
	}

	t.Run("none", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = ts.Verify(unsigned, auth.AccessToken)
		assert.ErrorIs(t, err, auth.ErrTokenSignatureInvalid)
	})

	t.Run("HS512 with the right key", func(t *testing.T) {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).
			SignedString([]byte(testAccessSecret))
		require.NoError(t, err)

		_, err = ts.Verify(signed, auth.AccessToken)
		assert.ErrorIs(t, err, auth.ErrTokenSignatureInvalid)
	})
}

func TestTokenService_IssuerMismatch(t *testing.T) {
	clk := newFakeClock()
	ts := newTestTokenService(t, clk)

	other := newTestConfig()
	other.issuer = "someone-else"
	foreign, err := auth.NewTokenService(other, auth.WithClock(clk.Now))
	require.NoError(t, err)

	issued, err := foreign.IssueAccessToken(1, "alice")
	require.NoError(t, err)

	_, err = ts.Verify(issued.Token, auth.AccessToken)
	assert.Error(t, err)
}

func TestTokenService_TTLDefaults(t *testing.T) {
	clk := newFakeClock()
	cfg := newTestConfig()
	cfg.accessTTL = 0
	cfg.refreshTTL = 0

	ts, err := auth.NewTokenService(cfg, auth.WithClock(clk.Now))
	require.NoError(t, err)

	access, err := ts.IssueAccessToken(1, "alice")
	require.NoError(t, err)
	refresh, err := ts.IssueRefreshToken(1)
	require.NoError(t, err)

	assert.WithinDuration(t, clk.Now().Add(auth.DefaultAccessTokenTTL), access.ExpiresAt, 0)
	assert.WithinDuration(t, clk.Now().Add(auth.DefaultRefreshTokenTTL), refresh.ExpiresAt, 0)
}

func TestKindValidator(t *testing.T) {
	clk := newFakeClock()
	ts := newTestTokenService(t, clk)
	ctx := context.Background()

	issued, err := ts.IssueAccessToken(9, "bob")
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		denylist := new(MockDenylist)
		denylist.On("IsRevoked", mock.Anything, issued.ID).Return(false, nil)

		claims, err := ts.AccessValidator(denylist).Validate(ctx, issued.Token)
		require.NoError(t, err)
		assert.Equal(t, int64(9), claims.UserID())
		assert.Equal(t, "bob", claims.Username())
		denylist.AssertExpectations(t)
	})

	t.Run("revoked token", func(t *testing.T) {
		denylist := new(MockDenylist)
		denylist.On("IsRevoked", mock.Anything, issued.ID).Return(true, nil)

		_, err := ts.AccessValidator(denylist).Validate(ctx, issued.Token)
		assert.ErrorIs(t, err, auth.ErrTokenRevoked)
	})

	t.Run("denylist failure fails closed", func(t *testing.T) {
		denylist := new(MockDenylist)
		denylist.On("IsRevoked", mock.Anything, issued.ID).Return(false, assert.AnError)

		_, err := ts.AccessValidator(denylist).Validate(ctx, issued.Token)
		assert.Error(t, err)
	})

	t.Run("invalid token skips denylist", func(t *testing.T) {
		denylist := new(MockDenylist)

		_, err := ts.AccessValidator(denylist).Validate(ctx, "garbage")
		assert.ErrorIs(t, err, auth.ErrTokenMalformed)
		denylist.AssertNotCalled(t, "IsRevoked", mock.Anything, mock.Anything)
	})

	t.Run("nil denylist", func(t *testing.T) {
		_, err := ts.AccessValidator(nil).Validate(ctx, issued.Token)
		assert.NoError(t, err)
	})
}
