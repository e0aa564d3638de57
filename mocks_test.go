package auth_test

import (
	"context"
	"sync"
	"time"

	auth "github.com/goliatone/go-jobboard-auth"
	"github.com/stretchr/testify/mock"
)

const (
	testAccessSecret  = "access-secret-for-tests"
	testRefreshSecret = "refresh-secret-for-tests"
)

// testConfig implements auth.Config
type testConfig struct {
	accessSecret  string
	refreshSecret string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	tokenLookup   string
	authScheme    string
}

func newTestConfig() *testConfig {
	return &testConfig{
		accessSecret:  testAccessSecret,
		refreshSecret: testRefreshSecret,
		accessTTL:     time.Hour,
		refreshTTL:    7 * 24 * time.Hour,
		issuer:        "jobboard-test",
		tokenLookup:   "header:Authorization",
		authScheme:    "Bearer",
	}
}

func (c *testConfig) GetAccessTokenSecret() string      { return c.accessSecret }
func (c *testConfig) GetRefreshTokenSecret() string     { return c.refreshSecret }
func (c *testConfig) GetAccessTokenTTL() time.Duration  { return c.accessTTL }
func (c *testConfig) GetRefreshTokenTTL() time.Duration { return c.refreshTTL }
func (c *testConfig) GetIssuer() string                 { return c.issuer }
func (c *testConfig) GetContextKey() string             { return "user" }
func (c *testConfig) GetTokenLookup() string            { return c.tokenLookup }
func (c *testConfig) GetAuthScheme() string             { return c.authScheme }

// fakeClock is a settable time source
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// MockLogger implements auth.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(msg string, args ...any) {
	m.Called(msg, args)
}

func (m *MockLogger) Info(msg string, args ...any) {
	m.Called(msg, args)
}

func (m *MockLogger) Warn(msg string, args ...any) {
	m.Called(msg, args)
}

func (m *MockLogger) Error(msg string, args ...any) {
	m.Called(msg, args)
}

// MockUserStore implements auth.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	args := m.Called(ctx, username)
	if user, ok := args.Get(0).(*auth.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserStore) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	args := m.Called(ctx, id)
	if user, ok := args.Get(0).(*auth.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserStore) Create(ctx context.Context, user *auth.User) (*auth.User, error) {
	args := m.Called(ctx, user)
	if created, ok := args.Get(0).(*auth.User); ok {
		return created, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserStore) Update(ctx context.Context, id int64, changes auth.UserChanges) error {
	args := m.Called(ctx, id, changes)
	return args.Error(0)
}

func (m *MockUserStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockDenylist implements auth.TokenDenylist
type MockDenylist struct {
	mock.Mock
}

func (m *MockDenylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	args := m.Called(ctx, tokenID, until)
	return args.Error(0)
}

func (m *MockDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}
