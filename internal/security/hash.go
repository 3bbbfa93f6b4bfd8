package security

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	hashSaltLen    = 16
	hashIterations = 15000
	hashKeyLen     = 64
)

// HashSecret derives a salted PBKDF2-SHA512 key from the plaintext and
// returns it as "saltHex.keyHex". Used for OTP codes, passwords and shared
// secrets alike.
func HashSecret(plaintext string) (string, error) {
	salt := make([]byte, hashSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := pbkdf2.Key([]byte(plaintext), salt, hashIterations, hashKeyLen, sha512.New)
	return hex.EncodeToString(salt) + "." + hex.EncodeToString(key), nil
}

// VerifySecret recomputes the derivation and compares in constant time.
// A malformed stored form is treated as a non-match, never an error.
func VerifySecret(plaintext, stored string) bool {
	saltHex, keyHex, ok := strings.Cut(stored, ".")
	if !ok {
		return false
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}
	expected, err := hex.DecodeString(keyHex)
	if err != nil || len(expected) == 0 {
		return false
	}
	actual := pbkdf2.Key([]byte(plaintext), salt, hashIterations, len(expected), sha512.New)
	return subtle.ConstantTimeCompare(actual, expected) == 1
}
