package game

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Credentials are stored as bcrypt hashes. Values predating hashing remain
// plaintext until the first successful login rewrites them.

const hashedCredentialMinLength = 50

func isHashedCredential(credential string) bool {
	return len(credential) >= hashedCredentialMinLength && strings.HasPrefix(credential, "$2")
}

func hashPassword(raw string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// verifyCredential accepts both hashed and legacy plaintext credentials.
func verifyCredential(stored, presented string) bool {
	if isHashedCredential(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(presented)) == nil
	}
	return stored == presented
}
