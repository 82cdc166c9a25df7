package utils

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// HashFields replaces the string values stored under fields with their
// bcrypt hash.  Missing fields, null values and values that already are
// bcrypt hashes are left alone.
func HashFields(rec map[string]any, fields []string, cost int) error {
	for _, f := range fields {
		v, ok := rec[f]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%s must be a string", f)
		}
		if _, err := bcrypt.Cost([]byte(s)); err == nil {
			continue
		}
		h, err := HashPassword(s, cost)
		if err != nil {
			return fmt.Errorf("hash %s: %w", f, err)
		}
		rec[f] = h
	}
	return nil
}
