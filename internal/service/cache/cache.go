package cache

import (
	"fmt"
	"time"
)

// BytesCache is a minimal cache API storing raw bytes with TTL.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}

// SnapshotKey builds the cache key for a metrics snapshot response.
// Threshold is part of the key so callers with different thresholds
// never see each other's entries.
func SnapshotKey(sessionID string, thresholdPct float64) string {
	return fmt.Sprintf("snapshot:%s:%.4f", sessionID, thresholdPct)
}
