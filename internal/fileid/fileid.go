// Package fileid provides deterministic evidence document IDs.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const (
	filePrefix = "file:"
	urlPrefix  = "url:"
)

// FileDocID returns a stable ID for a document dropped into an inbox folder.
// Same path always yields the same ID, so re-dropping a file replaces it.
func FileDocID(absolutePath string) string {
	return hashed(filePrefix, filepath.Clean(absolutePath))
}

// URLDocID returns a stable ID for a document downloaded from normalizedURL.
// The same document found by two runs is indexed once.
func URLDocID(normalizedURL string) string {
	return hashed(urlPrefix, normalizedURL)
}

func hashed(prefix, key string) string {
	hash := sha256.Sum256([]byte(key))
	return prefix + hex.EncodeToString(hash[:])
}
