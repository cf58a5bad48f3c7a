// Package config defines the immutable scan configuration built once by the
// CLI and shared read-only by every component for the scan's lifetime.
package config

import (
	"errors"
	"runtime"
	"strings"
	"time"
)

const (
	// DefaultLargeFileThreshold is the size above which files get a partial
	// digest instead of a full-content digest (100 MiB).
	DefaultLargeFileThreshold = 100 << 20

	// DefaultBatchSize is the number of records per persistence transaction.
	DefaultBatchSize = 1000

	// DefaultMaxDepth limits recursive traversal (root = depth 0).
	DefaultMaxDepth = 3

	// DefaultProgressInterval throttles progress events.
	DefaultProgressInterval = 200 * time.Millisecond
)

// defaultIgnoreDirs are directory names skipped during traversal in addition
// to hidden directories.
var defaultIgnoreDirs = []string{
	"$RECYCLE.BIN",
	"System Volume Information",
	".Trash",
	".Trash-1000",
	"@eaDir",
	".git",
	".svn",
	"node_modules",
	"__pycache__",
	".cache",
}

// ScanConfig holds every knob of a scan run. Built once, never mutated after.
type ScanConfig struct {
	// Roots are the top-level directories to scan.
	Roots []string

	// Recursive enables descending into subdirectories. When false the
	// effective depth is 0 regardless of MaxDepth.
	Recursive bool

	// MaxDepth limits recursion; the root itself is depth 0.
	MaxDepth int

	// Workers is the traversal pool size. 0 means one worker per logical CPU.
	Workers int

	// BatchSize bounds each persistence transaction.
	BatchSize int

	// ComputeHash enables content fingerprinting.
	ComputeHash bool

	// IncludeUnknown retains files whose extension is not a recognized media
	// extension. Off by default: only media files are scanned.
	IncludeUnknown bool

	// LargeFileThreshold is the full-vs-partial digest cutoff in bytes.
	LargeFileThreshold int64

	// ProgressInterval is the minimum spacing between progress events.
	ProgressInterval time.Duration

	// IgnoreDirs are directory names never descended into.
	IgnoreDirs map[string]struct{}

	// DBPath locates the durable store. Empty disables persistence.
	DBPath string

	// CacheFile locates the optional digest cache. Empty disables it.
	CacheFile string
}

// Default returns a ScanConfig with all defaults applied and no roots.
func Default() *ScanConfig {
	ignore := make(map[string]struct{}, len(defaultIgnoreDirs))
	for _, d := range defaultIgnoreDirs {
		ignore[d] = struct{}{}
	}
	return &ScanConfig{
		Recursive:          true,
		MaxDepth:           DefaultMaxDepth,
		BatchSize:          DefaultBatchSize,
		LargeFileThreshold: DefaultLargeFileThreshold,
		ProgressInterval:   DefaultProgressInterval,
		IgnoreDirs:         ignore,
	}
}

// Validate reports a fatal configuration error before any worker starts.
func (c *ScanConfig) Validate() error {
	if len(c.Roots) == 0 {
		return errors.New("no scan roots configured")
	}
	if c.MaxDepth < 0 {
		return errors.New("max depth must be >= 0")
	}
	if c.BatchSize <= 0 {
		return errors.New("batch size must be > 0")
	}
	return nil
}

// EffectiveWorkers resolves the worker count (0 = logical core count).
func (c *ScanConfig) EffectiveWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// EffectiveMaxDepth resolves the depth limit. Non-recursive scans only
// expand the roots themselves.
func (c *ScanConfig) EffectiveMaxDepth() int {
	if !c.Recursive {
		return 0
	}
	return c.MaxDepth
}

// IgnoreDir reports whether a directory name should be skipped. Hidden
// directories are always skipped.
func (c *ScanConfig) IgnoreDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	_, ok := c.IgnoreDirs[name]
	return ok
}
