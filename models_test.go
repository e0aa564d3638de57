package auth

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRoleIsValid(t *testing.T) {
	assert.True(t, RoleUser.IsValid())
	assert.True(t, RoleAdmin.IsValid())
	assert.False(t, UserRole("owner").IsValid())
	assert.False(t, UserRole("").IsValid())
}

func TestUserChangesIsEmpty(t *testing.T) {
	assert.True(t, UserChanges{}.IsEmpty())

	email := "a@example.com"
	assert.False(t, UserChanges{Email: &email}.IsEmpty())
}

func TestUserJSONOmitsHash(t *testing.T) {
	u := &User{ID: 1, Username: "alice", Email: "alice@example.com", PasswordHash: "$2a$12$secret", Role: RoleUser}

	raw, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")

	raw, err = json.Marshal(u.ToProfile())
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"username":"alice","email":"alice@example.com","role":"user"}`, string(raw))
}

func TestPrepareDefaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &users{now: func() time.Time { return now }}
	u := &User{Username: "  alice ", Email: " alice@example.com"}

	repo.prepareDefaults(u)

	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, RoleUser, u.Role)
	assert.Equal(t, now, u.CreatedAt)
	assert.Equal(t, now, u.UpdatedAt)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, isUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)")))
	assert.False(t, isUniqueViolation(errors.New("database is locked")))
}
