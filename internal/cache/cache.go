// Package cache stores scored pair results so that re-running an evaluation
// over unchanged corpora skips the scoring work.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key from the content of every part. Parts are
// length-prefixed so that ("ab", "c") and ("a", "bc") differ.
func Key(parts ...[]byte) string {
	h := sha256.New()
	var size [8]byte
	for _, p := range parts {
		n := uint64(len(p))
		for i := range size {
			size[i] = byte(n >> (8 * i))
		}
		h.Write(size[:])
		h.Write(p)
	}
	return "fallacia:v1:" + hex.EncodeToString(h.Sum(nil))
}
