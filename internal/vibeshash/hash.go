// Package vibeshash implements the content-addressing scheme for manifest
// entries: a canonical, timestamp-stripped JSON serialization hashed with
// SHA-256 into the 64-hex digest used as a manifest key everywhere else.
package vibeshash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Entry is implemented by every manifest entry variant. CanonicalFields
// returns the entry's content as a map, including the type discriminant; it
// may include created_at, which Canonicalize drops — the hasher never needs
// variant-specific knowledge beyond this.
type Entry interface {
	CanonicalFields() map[string]any
}

// Canonicalize produces the sorted-key JSON preimage used for hashing. It
// never includes a created_at key, regardless of whether the entry's
// CanonicalFields implementation included one.
func Canonicalize(e Entry) ([]byte, error) {
	fields := e.CanonicalFields()
	if _, ok := fields["created_at"]; ok {
		clone := make(map[string]any, len(fields))
		for k, v := range fields {
			if k == "created_at" {
				continue
			}
			clone[k] = v
		}
		fields = clone
	}
	// encoding/json sorts map[string]any keys lexicographically on marshal,
	// which gives canonical ordering without a bespoke walker.
	out, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("vibeshash: canonicalize: %w", err)
	}
	return out, nil
}

// Hash returns the 64-character lowercase hex SHA-256 digest of the entry's
// canonical form.
func Hash(e Entry) (string, error) {
	canon, err := Canonicalize(e)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}
