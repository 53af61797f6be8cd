package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the cost factor for bcrypt password hashing.
const BcryptCost = 12

// UnknownDevice is the sentinel fingerprint recorded when a request
// carries no user agent. Keeping it a distinct value means repeated
// logins without a user agent still count as a known device.
const UnknownDevice = "unknown"

// HashPassword hashes a plaintext password with bcrypt. The salt is
// random, so two hashes of the same password differ.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt hash.
// A malformed hash fails closed: the function returns false, it never
// panics or surfaces an error to the login path.
func VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// FingerprintDevice derives a stable one-way fingerprint from a raw
// user agent string. The same input always yields the same output; the
// fingerprint is used only for membership tests and is never reversed.
func FingerprintDevice(rawUserAgent string) string {
	ua := strings.TrimSpace(rawUserAgent)
	if ua == "" {
		return UnknownDevice
	}
	sum := sha256.Sum256([]byte(ua))
	return hex.EncodeToString(sum[:])
}
