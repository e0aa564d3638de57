//go:build race

package auth_test

import (
	"testing"

	auth "github.com/goliatone/go-jobboard-auth"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_DefaultCost(t *testing.T) {
	assert.Equal(t, bcrypt.MinCost, auth.NewBcryptHasher().Cost())
}
