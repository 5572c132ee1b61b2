// Package password generates credentials for provisioned database users.
package password

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"model-registry/internal/core/domain"
)

const (
	lowercase = "abcdefghijklmnopqrstuvwxyz"
	uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits    = "0123456789"
	symbols   = "!@#$%^&*()-_=+[]{}:,.?"
)

// MinLength is the shortest password worth generating.
const MinLength = 4

// Generate returns a random password of exactly length characters drawn from
// lowercase, uppercase and digits, plus symbols when includeSpecial is set.
// At least one character of each enabled class is guaranteed; the rest are
// uniform over the full pool. All randomness comes from crypto/rand.
func Generate(length int, includeSpecial bool) (string, error) {
	if length < MinLength {
		return "", domain.ErrPasswordTooShort
	}

	classes := []string{lowercase, uppercase, digits}
	if includeSpecial {
		classes = append(classes, symbols)
	}
	pool := strings.Join(classes, "")

	buf := make([]byte, length)
	for i, class := range classes {
		c, err := randByte(class)
		if err != nil {
			return "", err
		}
		buf[i] = c
	}
	for i := len(classes); i < length; i++ {
		c, err := randByte(pool)
		if err != nil {
			return "", err
		}
		buf[i] = c
	}

	// Fisher-Yates so the guaranteed class characters do not sit at fixed
	// positions.
	for i := length - 1; i > 0; i-- {
		j, err := randInt(i + 1)
		if err != nil {
			return "", err
		}
		buf[i], buf[j] = buf[j], buf[i]
	}

	return string(buf), nil
}

func randByte(pool string) (byte, error) {
	i, err := randInt(len(pool))
	if err != nil {
		return 0, err
	}
	return pool[i], nil
}

func randInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("read random source: %w", err)
	}
	return int(v.Int64()), nil
}
