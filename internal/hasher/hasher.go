// Package hasher computes content fingerprints for scanned files.
//
// The digest is MD5 - an identity fingerprint for change detection, not a
// security primitive. Files at or below the configured threshold get a
// full-content digest. Larger files get a deterministic partial digest:
//
//	MD5(first 1 MiB || last 1 MiB || file size as 8-byte big-endian)
//
// Folding the exact size into the partial digest distinguishes large files
// that happen to share identical head and tail segments.
package hasher

import (
	"crypto/md5" //nolint:gosec // identity fingerprint, not a security boundary
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"mediascan/internal/cache"
)

const (
	// probeSize is the size of the head/tail segments of a partial digest (1 MiB).
	probeSize = 1 << 20
	// blockSize is the read buffer size (64 KiB).
	blockSize = 64 * 1024
)

// Hasher fingerprints file content with an optional digest cache.
type Hasher struct {
	threshold int64
	digests   *cache.Cache // disabled cache is a no-op, never nil
}

// New creates a Hasher. Files larger than threshold bytes get a partial
// digest. digests may be a disabled cache but must not be nil.
func New(threshold int64, digests *cache.Cache) *Hasher {
	return &Hasher{threshold: threshold, digests: digests}
}

// Sum returns the hex-encoded digest for a file and whether it is partial.
// size and mtime must come from the same stat that discovered the file; they
// key the cache lookup.
func (h *Hasher) Sum(path string, size, mtime int64) (digest string, partial bool, err error) {
	partial = size > h.threshold

	if cached := h.digests.Lookup(path, size, mtime, h.threshold); cached != nil {
		return hex.EncodeToString(cached), partial, nil
	}

	var raw []byte
	if partial {
		raw, err = partialSum(path, size)
	} else {
		raw, err = fullSum(path)
	}
	if err != nil {
		return "", partial, err
	}

	_ = h.digests.Store(path, size, mtime, h.threshold, raw)

	return hex.EncodeToString(raw), partial, nil
}

// fullSum digests the entire file content.
func fullSum(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sum := md5.New() //nolint:gosec
	buf := make([]byte, blockSize)
	if _, err := io.CopyBuffer(sum, f, buf); err != nil {
		return nil, err
	}
	return sum.Sum(nil), nil
}

// partialSum digests the leading and trailing probe plus the file size.
// The two probes overlap for files between threshold and 2*probeSize; the
// scheme stays deterministic either way.
func partialSum(path string, size int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sum := md5.New() //nolint:gosec
	buf := make([]byte, blockSize)

	if _, err := io.CopyBuffer(sum, io.LimitReader(f, probeSize), buf); err != nil {
		return nil, err
	}

	tailStart := size - probeSize
	if tailStart < 0 {
		tailStart = 0
	}
	if _, err := f.Seek(tailStart, io.SeekStart); err != nil {
		return nil, err
	}
	if _, err := io.CopyBuffer(sum, io.LimitReader(f, probeSize), buf); err != nil {
		return nil, err
	}

	var sizeBytes [8]byte
	binary.BigEndian.PutUint64(sizeBytes[:], uint64(size))
	if _, err := sum.Write(sizeBytes[:]); err != nil {
		return nil, fmt.Errorf("fold size: %w", err)
	}

	return sum.Sum(nil), nil
}
