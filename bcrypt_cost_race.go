//go:build race

package auth

import "golang.org/x/crypto/bcrypt"

// Race builds are test builds; the detector makes cost 12 painfully slow.
func defaultHashCost() int {
	return bcrypt.MinCost
}
