// Package differ classifies scanned files against the previous scan snapshot.
//
// The snapshot index is read-only after construction and safely shared by
// all scanner workers. The seen-set used to derive deletions is mutable and
// must only be touched by the single collector goroutine (MarkSeen/Deleted).
package differ

import (
	"sort"
	"strings"

	"mediascan/internal/types"
)

// Differ holds the prior snapshot and tracks which paths were observed.
type Differ struct {
	snapshot map[string]types.FileState
	seen     map[string]struct{}
}

// New creates a Differ over a snapshot index keyed by path. A nil snapshot
// means a first run: every file classifies as new.
func New(snapshot map[string]types.FileState) *Differ {
	if snapshot == nil {
		snapshot = map[string]types.FileState{}
	}
	return &Differ{
		snapshot: snapshot,
		seen:     make(map[string]struct{}, len(snapshot)),
	}
}

// SnapshotSize returns the number of previously known files. Used as the
// estimated total for progress ETA.
func (d *Differ) SnapshotSize() int { return len(d.snapshot) }

// Classify assigns a status to f by comparing size and mtime against the
// snapshot, and sets it on f. Unchanged files inherit the prior digest so
// they are never rehashed. Safe for concurrent use: it only reads.
func (d *Differ) Classify(f *types.ScannedFile) types.FileStatus {
	prior, ok := d.snapshot[f.Path]
	switch {
	case !ok:
		f.Status = types.StatusNew
	case prior.Size == f.Size && prior.MTime == f.MTime:
		f.Status = types.StatusUnchanged
		f.Hash = prior.Hash
		f.IsPartialHash = prior.IsPartial
	default:
		f.Status = types.StatusModified
	}
	return f.Status
}

// MarkSeen records that a path was observed this run.
// Collector goroutine only.
func (d *Differ) MarkSeen(path string) {
	d.seen[path] = struct{}{}
}

// Deleted returns the sorted snapshot paths under any of the given roots
// that were not observed this run. Paths under roots not scanned this run
// are never reported. Call after traversal completes; collector goroutine only.
func (d *Differ) Deleted(roots []string) []string {
	var deleted []string
	for path := range d.snapshot {
		if _, ok := d.seen[path]; ok {
			continue
		}
		if underAnyRoot(path, roots) {
			deleted = append(deleted, path)
		}
	}
	sort.Strings(deleted)
	return deleted
}

// underAnyRoot reports whether path is root itself or below it, comparing
// whole path components.
func underAnyRoot(path string, roots []string) bool {
	for _, root := range roots {
		if path == root || strings.HasPrefix(path, strings.TrimSuffix(root, "/")+"/") {
			return true
		}
	}
	return false
}
