package cache

import (
	"bytes"
	"path/filepath"
	"testing"
)

func md5ish(b byte) []byte {
	d := make([]byte, digestSize)
	for i := range d {
		d[i] = b
	}
	return d
}

func TestCacheDisabled(t *testing.T) {
	c, err := Open("")
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer func() { _ = c.Close() }()

	if err := c.Store("/test/file", 100, 1700000000, 1<<20, md5ish(0xaa)); err != nil {
		t.Errorf("Store() on disabled cache: %v", err)
	}
	if got := c.Lookup("/test/file", 100, 1700000000, 1<<20); got != nil {
		t.Errorf("Lookup() on disabled cache returned %v, want nil", got)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "digests.db")

	c1, err := Open(cachePath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	digest := md5ish(0x5c)
	if err := c1.Store("/media/a.mp4", 2048, 1700000000, 1<<20, digest); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}
	if err := c1.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	c2, err := Open(cachePath)
	if err != nil {
		t.Fatalf("Open() second time failed: %v", err)
	}
	defer func() { _ = c2.Close() }()

	got := c2.Lookup("/media/a.mp4", 2048, 1700000000, 1<<20)
	if !bytes.Equal(got, digest) {
		t.Errorf("Lookup() = %x, want %x", got, digest)
	}

	// Any key component change is a miss
	if c2.Lookup("/media/a.mp4", 2049, 1700000000, 1<<20) != nil {
		t.Error("size change should miss")
	}
	if c2.Lookup("/media/a.mp4", 2048, 1700000001, 1<<20) != nil {
		t.Error("mtime change should miss")
	}
	if c2.Lookup("/media/a.mp4", 2048, 1700000000, 2<<20) != nil {
		t.Error("threshold change should miss")
	}
	if c2.Lookup("/media/b.mp4", 2048, 1700000000, 1<<20) != nil {
		t.Error("path change should miss")
	}
}

func TestCacheSelfCleaning(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "digests.db")

	c1, err := Open(cachePath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	_ = c1.Store("/keep", 1, 1, 1, md5ish(0x01))
	_ = c1.Store("/drop", 2, 2, 2, md5ish(0x02))
	_ = c1.Close()

	// Second generation: touch only /keep
	c2, err := Open(cachePath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if c2.Lookup("/keep", 1, 1, 1) == nil {
		t.Fatal("expected hit for /keep")
	}
	_ = c2.Close()

	// Third generation: /keep survived the swap, /drop did not
	c3, err := Open(cachePath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer func() { _ = c3.Close() }()
	if c3.Lookup("/keep", 1, 1, 1) == nil {
		t.Error("entry touched last run should survive")
	}
	if c3.Lookup("/drop", 2, 2, 2) != nil {
		t.Error("untouched entry should be evicted")
	}
}

func TestCacheRejectsWrongDigestSize(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "digests.db")
	c, err := Open(cachePath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer func() { _ = c.Close() }()

	if err := c.Store("/x", 1, 1, 1, []byte("short")); err != nil {
		t.Errorf("Store() with wrong size should be a no-op, got %v", err)
	}
	if c.Lookup("/x", 1, 1, 1) != nil {
		t.Error("wrong-size digest must not be stored")
	}
}
