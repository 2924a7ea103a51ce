package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for memoizing collaborator responses
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// NoteKey generates a cache key for one diary note. Identical text on
// the same date resolves to the same key, so repeated notes are only
// analyzed once per TTL window.
func NoteKey(date, text string) string {
	hash := sha256.Sum256([]byte(date + "|" + text))
	return "healthscope:v1:" + hex.EncodeToString(hash[:])
}
