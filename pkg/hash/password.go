package hash

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultCost       = 10
	MinPasswordLength = 3
)

// Hash returns a salted bcrypt digest of password. A cost of 0 selects DefaultCost.
func Hash(password string, cost int) (string, error) {
	if len(password) < MinPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}

	if cost == 0 {
		cost = DefaultCost
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashedBytes), nil
}

func Compare(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
