package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const (
	extCompressed = ".zst"
	extRaw        = ".raw"
)

// DiskCache is the persistent tier. Entries are files named after a hash of
// their key, compressed with zstd when that saves space. The index is rebuilt
// from the directory on open, so no separate index file is kept.
type DiskCache struct {
	basePath string
	capacity int64
	size     int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	index map[string]*diskEntry // by file stem

	mu    sync.Mutex
	stats Stats
}

type diskEntry struct {
	path       string
	size       int64
	lastAccess time.Time
}

// NewDiskCache opens or creates a disk cache rooted at basePath.
func NewDiskCache(basePath string, capacity int64, compressionLevel int) (*DiskCache, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dc := &DiskCache{
		basePath: basePath,
		capacity: capacity,
		index:    make(map[string]*diskEntry),
	}

	var err error
	if compressionLevel > 0 {
		dc.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
	}
	// The decoder is always available so entries written with compression
	// remain readable after compression is turned off.
	dc.decoder, err = zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	if err := dc.scan(); err != nil {
		return nil, fmt.Errorf("failed to scan cache directory: %w", err)
	}
	return dc, nil
}

// Get reads and decompresses an entry.
func (dc *DiskCache) Get(key string) ([]byte, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	stem := stemFor(key)
	entry, ok := dc.index[stem]
	if !ok {
		dc.stats.Misses++
		return nil, false
	}

	data, err := dc.read(entry)
	if err != nil {
		dc.drop(stem)
		dc.stats.Misses++
		return nil, false
	}

	entry.lastAccess = time.Now()
	dc.stats.Hits++
	return data, true
}

// Put writes an entry, evicting least recently used files to stay within
// capacity.
func (dc *DiskCache) Put(key string, value []byte) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	payload, ext := value, extRaw
	if dc.encoder != nil {
		if compressed := dc.encoder.EncodeAll(value, nil); len(compressed) < len(value) {
			payload, ext = compressed, extCompressed
		}
	}

	n := int64(len(payload))
	if n > dc.capacity {
		return ErrItemTooLarge
	}

	stem := stemFor(key)
	if _, ok := dc.index[stem]; ok {
		dc.drop(stem)
	}
	for dc.size+n > dc.capacity && len(dc.index) > 0 {
		dc.evictOldest()
	}

	path := filepath.Join(dc.basePath, stem+ext)
	if err := writeFileAtomic(path, payload); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	dc.index[stem] = &diskEntry{path: path, size: n, lastAccess: time.Now()}
	dc.size += n
	return nil
}

// Delete removes an entry.
func (dc *DiskCache) Delete(key string) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	dc.drop(stemFor(key))
	return nil
}

// Contains reports whether key has an entry on disk.
func (dc *DiskCache) Contains(key string) bool {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	_, ok := dc.index[stemFor(key)]
	return ok
}

// Stats returns cache statistics.
func (dc *DiskCache) Stats() Stats {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	s := dc.stats
	s.Capacity = dc.capacity
	s.Size = dc.size
	s.Items = len(dc.index)
	return s
}

// Close releases the zstd coders.
func (dc *DiskCache) Close() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.encoder != nil {
		if err := dc.encoder.Close(); err != nil {
			return err
		}
		dc.encoder = nil
	}
	dc.decoder.Close()
	return nil
}

func (dc *DiskCache) read(entry *diskEntry) ([]byte, error) {
	data, err := os.ReadFile(entry.path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(entry.path, extCompressed) {
		data, err = dc.decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCacheCorrupted, err)
		}
	}
	return data, nil
}

// drop removes an entry and its file (must be called with lock held).
func (dc *DiskCache) drop(stem string) {
	entry, ok := dc.index[stem]
	if !ok {
		return
	}
	_ = os.Remove(entry.path)
	dc.size -= entry.size
	delete(dc.index, stem)
}

func (dc *DiskCache) evictOldest() {
	var oldest string
	var oldestTime time.Time
	for stem, entry := range dc.index {
		if oldest == "" || entry.lastAccess.Before(oldestTime) {
			oldest, oldestTime = stem, entry.lastAccess
		}
	}
	if oldest != "" {
		dc.drop(oldest)
		dc.stats.Evictions++
	}
}

// scan rebuilds the index from files already in the directory, using the
// modification time as the last access time.
func (dc *DiskCache) scan() error {
	entries, err := os.ReadDir(dc.basePath)
	if err != nil {
		return err
	}

	for _, e := range entries {
		name := e.Name()
		ext := filepath.Ext(name)
		if e.IsDir() || (ext != extCompressed && ext != extRaw) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		stem := strings.TrimSuffix(name, ext)
		dc.index[stem] = &diskEntry{
			path:       filepath.Join(dc.basePath, name),
			size:       info.Size(),
			lastAccess: info.ModTime(),
		}
		dc.size += info.Size()
	}
	return nil
}

func stemFor(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:16])
}

// writeFileAtomic writes to a temp file first, then renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
