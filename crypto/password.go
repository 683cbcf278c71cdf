package crypto

import (
	"fmt"

	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"

	"golang.org/x/crypto/pbkdf2"
)

// Constants

const (
	// saltLength is the number of random bytes
	// put into each newly generated salt.
	saltLength = 16

	// iterations is the PBKDF2 round count. High on
	// purpose, hashing a password is a rare operation.
	iterations = 65536

	// keyLength is the length in bytes
	// of the derived password digest.
	keyLength = 32
)

// Functions

// NewSalt returns a cryptographically random,
// base64-encoded salt for use with HashPassword.
func NewSalt() (string, error) {

	salt := make([]byte, saltLength)

	_, err := rand.Read(salt)
	if err != nil {
		return "", fmt.Errorf("failed to draw random salt: %v", err)
	}

	return base64.StdEncoding.EncodeToString(salt), nil
}

// HashPassword derives a PBKDF2-HMAC-SHA256 digest from
// supplied password and base64-encoded salt. The result is
// deterministic for a fixed (password, salt) pair and is
// returned base64-encoded.
func HashPassword(password string, salt string) (string, error) {

	rawSalt, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return "", fmt.Errorf("failed to decode salt: %v", err)
	}

	digest := pbkdf2.Key([]byte(password), rawSalt, iterations, keyLength, sha256.New)

	return base64.StdEncoding.EncodeToString(digest), nil
}

// VerifyPassword recomputes the digest of supplied password
// under supplied salt and compares it in constant time against
// the expected digest.
func VerifyPassword(password string, salt string, expected string) (bool, error) {

	computed, err := HashPassword(password, salt)
	if err != nil {
		return false, err
	}

	return subtle.ConstantTimeCompare([]byte(computed), []byte(expected)) == 1, nil
}
