package timesheet

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Authorizer decides whether a secret unlocks the admin capabilities.
type Authorizer interface {
	Authorize(secret string) bool
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(secret string) bool

func (f AuthorizerFunc) Authorize(secret string) bool { return f(secret) }

// StaticSecret compares against a shared passphrase.
// An empty StaticSecret rejects everything.
type StaticSecret string

func (s StaticSecret) Authorize(secret string) bool {
	if s == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s), []byte(secret)) == 1
}

// =============================================================================
// HASHED SECRET - v1$iterations$salt$digest
// =============================================================================

const (
	secretHashVersion = "v1"
	secretIterations  = 180000
	minIterations     = 100000
)

// HashedSecret holds an encoded salted digest produced by HashSecret.
type HashedSecret string

// HashSecret encodes secret for storage in configuration.
func HashSecret(secret string) (HashedSecret, error) {
	if secret == "" {
		return "", errors.New("secret is required")
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	digest := deriveDigest(secret, salt, secretIterations)
	return HashedSecret(fmt.Sprintf("%s$%d$%s$%s", secretHashVersion, secretIterations,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest))), nil
}

func (h HashedSecret) Authorize(secret string) bool {
	parts := strings.Split(string(h), "$")
	if len(parts) != 4 || parts[0] != secretHashVersion {
		return false
	}

	iters, err := strconv.Atoi(parts[1])
	if err != nil || iters < minIterations {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil || len(salt) == 0 {
		return false
	}

	expected, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil || len(expected) != sha256.Size {
		return false
	}

	return subtle.ConstantTimeCompare(deriveDigest(secret, salt, iters), expected) == 1
}

func deriveDigest(secret string, salt []byte, rounds int) []byte {
	digest := sha256.Sum256(append(append([]byte{}, salt...), secret...))
	buf := digest[:]
	for i := 1; i < rounds; i++ {
		next := sha256.Sum256(append(buf, salt...))
		buf = next[:]
	}
	out := make([]byte, len(buf))
	copy(out, buf)
	return out
}
