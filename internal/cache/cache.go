// Package cache provides a file-backed cache of content digests so repeated
// scans can skip re-reading files whose size and mtime have not changed.
package cache

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	bucketName = "digests"
	digestSize = 16 // MD5
)

// Cache stores digests in a BoltDB file. It is self-cleaning: each run
// writes to a fresh database and only entries touched during the run survive
// the atomic swap performed by Close.
type Cache struct {
	readDB  *bolt.DB // previous generation (read-only)
	writeDB *bolt.DB // current generation - BoltDB locks this file
	path    string   // final path (for atomic swap)
	enabled bool
}

// Open opens the previous cache generation for reading and creates the next
// one for writing. An empty path returns a disabled cache whose methods are
// all no-ops.
func Open(path string) (*Cache, error) {
	if path == "" {
		return &Cache{enabled: false}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	c := &Cache{path: path, enabled: true}
	var err error

	if _, statErr := os.Stat(path); statErr == nil {
		c.readDB, err = bolt.Open(path, 0o600, &bolt.Options{
			ReadOnly: true,
			Timeout:  1 * time.Second,
		})
		if err != nil {
			// Can't open previous generation - continue without it
			c.readDB = nil
		}
	}

	newPath := path + ".new"
	c.writeDB, err = bolt.Open(newPath, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("create new cache (locked by another instance?): %w", err)
	}

	if err := c.writeDB.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	}); err != nil {
		_ = c.Close()
		return nil, err
	}

	return c, nil
}

// Close closes both generations and atomically replaces the old file with
// the new one. The swap happens only if the write database closed cleanly.
func (c *Cache) Close() error {
	var errs []error
	if c.readDB != nil {
		if err := c.readDB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.writeDB != nil {
		if err := c.writeDB.Close(); err != nil {
			errs = append(errs, err)
		} else {
			if err := os.Rename(c.path+".new", c.path); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

const keyVersion byte = 1 // Increment when key format changes

// makeKey builds the deterministic lookup key.
// Key = ver(1) + path + NUL + size(8) + mtime(8) + threshold(8)
// The threshold participates because it selects full vs. partial digests.
func makeKey(path string, size, mtime, threshold int64) []byte {
	buf := new(bytes.Buffer)
	buf.WriteByte(keyVersion)
	buf.WriteString(path)
	buf.WriteByte(0) // NUL separator
	_ = binary.Write(buf, binary.BigEndian, size)
	_ = binary.Write(buf, binary.BigEndian, mtime)
	_ = binary.Write(buf, binary.BigEndian, threshold)
	return buf.Bytes()
}

// Lookup retrieves a cached digest. Any change to size, mtime or threshold is
// a miss. On hit the entry is copied to the new generation (self-cleaning).
// Returns nil when not found or when the cache is disabled.
func (c *Cache) Lookup(path string, size, mtime, threshold int64) []byte {
	if !c.enabled || c.readDB == nil {
		return nil
	}

	key := makeKey(path, size, mtime, threshold)
	var digest []byte

	err := c.readDB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		data := b.Get(key)
		if len(data) == digestSize {
			digest = make([]byte, digestSize)
			copy(digest, data)
		}
		return nil
	})
	if err != nil || digest == nil {
		return nil
	}

	_ = c.Store(path, size, mtime, threshold, digest)

	return digest
}

// Store saves a digest to the current generation.
func (c *Cache) Store(path string, size, mtime, threshold int64, digest []byte) error {
	if !c.enabled || c.writeDB == nil || len(digest) != digestSize {
		return nil
	}

	err := c.writeDB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		return b.Put(makeKey(path, size, mtime, threshold), digest)
	})
	if err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}
