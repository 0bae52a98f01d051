package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

// CacheKey is the global registry of Redis key builders.
var CacheKey = &CacheKeyStruct{}

// SessionSnapshotKey returns the cache key for a candidate's live session
// snapshot.
func (r *CacheKeyStruct) SessionSnapshotKey(candidateID int) string {
	return fmt.Sprintf("candidate:%d:session", candidateID)
}
