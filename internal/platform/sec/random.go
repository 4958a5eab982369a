// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// GenerateSecureToken returns n bytes from the system CSPRNG encoded as
// unpadded URL-safe base64.
func GenerateSecureToken(n int) (string, error) {
	buffer := make([]byte, n)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("sec: failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// HashToken returns the hex SHA-256 digest of a high-entropy token.
//
// It is only suitable for values that already carry at least 128 bits of
// entropy (session tokens, API keys); passwords go through [Hasher].
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
