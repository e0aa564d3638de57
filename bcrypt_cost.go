//go:build !race

package auth

func defaultHashCost() int {
	return DefaultHashCost
}
