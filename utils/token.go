package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateInviteToken pravi kriptografski nasumičan, URL-safe token koji
// služi kao jednokratni bearer kredencijal pozivnice.
func GenerateInviteToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %v", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
