package auth

import "crypto/subtle"

// PinMatches compares the presented admin pin against the configured secret
// in constant time. Empty values never match.
func PinMatches(configured, presented string) bool {
	if configured == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(presented)) == 1
}
