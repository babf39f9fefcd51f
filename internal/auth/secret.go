// Package auth compares supplied secrets against the document's stored hash
// and issues the short-lived admin session tokens the server hands out.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultAdminSecret is the admin secret of a freshly seeded document
const DefaultAdminSecret = "admin"

// MinSecretLength is enforced when the admin changes the secret
const MinSecretLength = 4

var (
	ErrSecretMismatch = errors.New("secret does not match")
	ErrSecretTooShort = fmt.Errorf("secret must be at least %d characters", MinSecretLength)
)

// HashSecret returns a bcrypt hash of secret
func HashSecret(secret string) (string, error) {
	if len(secret) < MinSecretLength {
		return "", ErrSecretTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hash), nil
}

// CheckSecret compares secret against hash. Hashes written by older tools are
// unsalted SHA-256 hex digests; those are still accepted.
func CheckSecret(hash, secret string) error {
	if hash == "" {
		return ErrSecretMismatch
	}
	if isBcrypt(hash) {
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
			return ErrSecretMismatch
		}
		return nil
	}

	sum := sha256.Sum256([]byte(secret))
	if subtle.ConstantTimeCompare([]byte(strings.ToLower(hash)), []byte(hex.EncodeToString(sum[:]))) != 1 {
		return ErrSecretMismatch
	}
	return nil
}

// IsLegacyHash reports whether hash predates bcrypt and should be upgraded
func IsLegacyHash(hash string) bool {
	return hash != "" && !isBcrypt(hash)
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}
