package util

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// HashIDSet returns a deterministic digest of an unordered ID collection.
// IDs are sorted before hashing so the same set always yields the same key
// regardless of input order. The version marker invalidates old keys when
// the payload shape changes.
func HashIDSet(ids []string, version string) string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)

	var b strings.Builder
	b.WriteString(version)
	for _, id := range sorted {
		b.WriteByte('|')
		b.WriteString(id)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
