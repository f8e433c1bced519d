package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync/atomic"
)

// Manager coordinates the memory and disk tiers. Reads check memory first
// and promote disk hits into memory. Writes go to both tiers.
type Manager struct {
	memory *MemoryCache
	disk   *DiskCache // nil when no disk path is configured

	memoryHits atomic.Int64
	diskHits   atomic.Int64
	misses     atomic.Int64
}

// NewManager creates a cache manager. The disk tier is only opened when
// config.DiskPath is set.
func NewManager(config Config) (*Manager, error) {
	if config.MemoryCapacity <= 0 {
		config.MemoryCapacity = DefaultConfig().MemoryCapacity
	}

	m := &Manager{memory: NewMemoryCache(config.MemoryCapacity)}
	if config.DiskPath != "" {
		capacity := config.DiskCapacity
		if capacity <= 0 {
			capacity = DefaultConfig().DiskCapacity
		}
		disk, err := NewDiskCache(config.DiskPath, capacity, config.CompressionLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to create disk cache: %w", err)
		}
		m.disk = disk
	}
	return m, nil
}

// Get looks a key up in memory, then on disk.
func (m *Manager) Get(key string) ([]byte, Level, bool) {
	if data, ok := m.memory.Get(key); ok {
		m.memoryHits.Add(1)
		return data, LevelMemory, true
	}

	if m.disk != nil {
		if data, ok := m.disk.Get(key); ok {
			m.diskHits.Add(1)
			// Promotion failure only means the next read goes to disk again.
			_ = m.memory.Put(key, data)
			return data, LevelDisk, true
		}
	}

	m.misses.Add(1)
	return nil, LevelMemory, false
}

// Put stores value in every tier. An item too large for memory may still
// be kept on disk.
func (m *Manager) Put(key string, value []byte) error {
	memErr := m.memory.Put(key, value)
	if m.disk == nil {
		return memErr
	}
	if err := m.disk.Put(key, value); err != nil {
		return fmt.Errorf("disk cache: %w", err)
	}
	return nil
}

// ManagerStats summarises both tiers.
type ManagerStats struct {
	Memory     Stats
	Disk       Stats
	MemoryHits int64
	DiskHits   int64
	Misses     int64
}

// Stats returns statistics for both tiers.
func (m *Manager) Stats() ManagerStats {
	s := ManagerStats{
		Memory:     m.memory.Stats(),
		MemoryHits: m.memoryHits.Load(),
		DiskHits:   m.diskHits.Load(),
		Misses:     m.misses.Load(),
	}
	if m.disk != nil {
		s.Disk = m.disk.Stats()
	}
	return s
}

// Close releases the disk tier.
func (m *Manager) Close() error {
	if m.disk != nil {
		return m.disk.Close()
	}
	return nil
}

// GenerateKey derives a cache key for synthesized speech. Text is trimmed
// and the language is lower-cased so trivially different requests share an
// entry.
func GenerateKey(text, lang string) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(lang))))
	h.Write([]byte{0})
	h.Write([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(h.Sum(nil))
}
