package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// refreshTokenBytes is the entropy of an opaque refresh token
const refreshTokenBytes = 64

// NewRefreshToken returns an opaque, URL-safe refresh token. The token
// carries no structure; possession of the stored value is the only proof.
func NewRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
