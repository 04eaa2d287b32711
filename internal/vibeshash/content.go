package vibeshash

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashBytes returns the 64-hex SHA-256 digest of raw bytes, used for
// content-addressing blob files (reasoning blobs) independently of any
// manifest entry's own hash.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
