package cache

import (
	"errors"
)

// Common errors for cache operations
var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrCacheCorrupted is returned when a stored entry cannot be decoded
	ErrCacheCorrupted = errors.New("cache data corrupted")
)

// Level identifies a cache tier.
type Level int

const (
	// LevelMemory is the in-process LRU.
	LevelMemory Level = iota

	// LevelDisk is the persistent compressed store.
	LevelDisk
)

// String returns the string representation of the cache level
func (l Level) String() string {
	switch l {
	case LevelMemory:
		return "memory"
	case LevelDisk:
		return "disk"
	default:
		return "unknown"
	}
}

// Stats holds cache performance metrics
type Stats struct {
	Capacity  int64 // Maximum capacity in bytes
	Size      int64 // Current size in bytes
	Items     int   // Number of items in cache
	Hits      int64
	Misses    int64
	Evictions int64
}

// HitRate returns hits / (hits + misses), or zero before any lookup.
func (s Stats) HitRate() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

// Config holds configuration for the two-level cache.
type Config struct {
	// Memory tier
	MemoryCapacity int64 // Bytes

	// Disk tier; disabled when DiskPath is empty
	DiskPath         string
	DiskCapacity     int64 // Bytes
	CompressionLevel int   // Zstd compression level, 0 disables compression
}

// DefaultConfig returns default cache configuration without a disk tier.
func DefaultConfig() Config {
	return Config{
		MemoryCapacity:   16 * 1024 * 1024,  // 16MB
		DiskCapacity:     256 * 1024 * 1024, // 256MB
		CompressionLevel: 3,
	}
}

// Store is implemented by every cache tier.
type Store interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
	Delete(key string) error
	Contains(key string) bool
	Stats() Stats
}
