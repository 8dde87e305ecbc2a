package internal

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashBindingValue returns the lowercase hex SHA-256 of v. Integrity tokens
// are bound to this value instead of the raw client id.
func HashBindingValue(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}
