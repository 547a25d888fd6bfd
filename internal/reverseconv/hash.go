package reverseconv

import (
	"crypto/sha256"
	"encoding/hex"
)

// contentHash hashes raw artifact bytes with SHA-256. Unlike
// mitchellh/hashstructure (used for BackupManifest.contextHash over a Go
// value), this hashes the serialized bytes the core actually wrote, so
// two artifacts are "the same" only if their written content matches
// byte-for-byte. No pack library covers byte-content hashing.
func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
