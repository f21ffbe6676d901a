// Package sha256 derives the hex digests that key page artifacts. Artifact
// paths embed a digest of the canonical URL instead of the escaped URL so
// keys stay short and never collide on case-insensitive filesystems.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// URLDigest returns the hex SHA-256 digest of a canonical URL.
func URLDigest(canonicalURL string) string {
	sum := sha256.Sum256([]byte(canonicalURL))
	return hex.EncodeToString(sum[:])
}
