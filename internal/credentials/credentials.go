// Package credentials wraps the one-way hashing and random token
// generation behind the user credential lifecycle.
package credentials

import (
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt work factor used by Digest. Tests drop it to
// bcrypt.MinCost to keep hashing fast.
var Cost = bcrypt.DefaultCost

// TokenLength is the length of tokens produced by NewToken: 16 random
// bytes in unpadded URL-safe base64.
const TokenLength = 22

// Digest hashes a secret with bcrypt. The result carries its own salt
// and cost, so Verify needs nothing besides the digest itself.
func Digest(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether candidate matches digest. An empty digest
// fails closed.
func Verify(digest, candidate string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(candidate)) == nil
}

// NewToken returns a URL-safe random token suitable for cookies and
// email links. 16 random bytes give 128 bits of entropy.
func NewToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
