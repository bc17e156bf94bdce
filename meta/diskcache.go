package meta

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// DiskCache persists meta payloads under a directory, one file per hash.
// Entries are verified against their hash on read so a corrupted file is
// treated as a miss.
type DiskCache struct {
	dir string
}

type diskEntry struct {
	Hash     string    `msgpack:"hash"`
	Data     []byte    `msgpack:"data"`
	StoredAt time.Time `msgpack:"storedAt"`
}

// NewDiskCache opens (creating if needed) a cache directory.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return &DiskCache{dir: dir}, nil
}

func (dc *DiskCache) path(hash string) string {
	return filepath.Join(dc.dir, hash+".meta")
}

// Get reads the payload stored under hash.
func (dc *DiskCache) Get(hash string) ([]byte, error) {
	raw, err := os.ReadFile(dc.path(hash))
	if err != nil {
		return nil, err
	}

	var entry diskEntry
	if err := msgpack.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if entry.Hash != hash || Hash(entry.Data) != hash {
		return nil, ErrHashMismatch
	}
	return entry.Data, nil
}

// Put writes the payload for hash, replacing any previous entry.
func (dc *DiskCache) Put(hash string, data []byte) error {
	raw, err := msgpack.Marshal(diskEntry{
		Hash:     hash,
		Data:     data,
		StoredAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	tmp := dc.path(hash) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, dc.path(hash))
}
