// Package aggregate accumulates per-scan counters and directory groupings
// into the final ScanResult.
//
// The Aggregator is fed by the single collector goroutine only; it needs no
// locking. Freeze produces the immutable result consumed by output
// formatting and the final progress event.
package aggregate

import (
	"path/filepath"
	"sort"
	"time"

	"mediascan/internal/media"
	"mediascan/internal/types"
)

// Directory groups the files of one directory, preserving the name-sorted
// order established by traversal.
type Directory struct {
	Path  string              `json:"path"`
	Files []types.ScannedFile `json:"files"`
}

// ScanResult is the frozen final aggregate of one scan.
type ScanResult struct {
	TotalFiles     uint64 `json:"total_files"`
	TotalDirs      uint64 `json:"total_dirs"`
	NewFiles       uint64 `json:"new_files"`
	ModifiedFiles  uint64 `json:"modified_files"`
	UnchangedFiles uint64 `json:"unchanged_files"`
	DeletedFiles   uint64 `json:"deleted_files"`

	VideoCount   uint64 `json:"video_count"`
	ImageCount   uint64 `json:"image_count"`
	AudioCount   uint64 `json:"audio_count"`
	UnknownCount uint64 `json:"unknown_count"`

	// Directories holds the grouped accepted files, sorted by path.
	Directories []Directory `json:"directories,omitempty"`
	// DeletedPaths lists removed files (incremental scans), sorted.
	DeletedPaths []string `json:"deleted_paths,omitempty"`

	Errors     []*types.ScanError `json:"-"`
	ErrorCount int                `json:"error_count"`
	DurationMS int64              `json:"duration_ms"`
}

// Aggregator builds a ScanResult incrementally. Single consumer only.
type Aggregator struct {
	incremental bool
	byDir       map[string][]types.ScannedFile
	dirOrder    []string

	totalFiles uint64
	byStatus   map[types.FileStatus]uint64
	byMedia    map[media.Type]uint64

	deleted []string
	errors  []*types.ScanError
	start   time.Time
}

// New creates an Aggregator. In incremental mode only New and Modified
// records are retained in the grouped output; all observations are still
// counted.
func New(incremental bool) *Aggregator {
	return &Aggregator{
		incremental: incremental,
		byDir:       make(map[string][]types.ScannedFile),
		byStatus:    make(map[types.FileStatus]uint64),
		byMedia:     make(map[media.Type]uint64),
		start:       time.Now(),
	}
}

// AddFile records one observed file.
func (a *Aggregator) AddFile(f types.ScannedFile) {
	a.totalFiles++
	a.byStatus[f.Status]++
	a.byMedia[f.MediaType]++

	if a.incremental && f.Status == types.StatusUnchanged {
		return
	}
	dir := filepath.Dir(f.Path)
	if _, ok := a.byDir[dir]; !ok {
		a.dirOrder = append(a.dirOrder, dir)
	}
	a.byDir[dir] = append(a.byDir[dir], f)
}

// AddError records one recoverable error.
func (a *Aggregator) AddError(e *types.ScanError) {
	a.errors = append(a.errors, e)
}

// SetDeleted records the derived deleted-path list (already sorted).
func (a *Aggregator) SetDeleted(paths []string) {
	a.deleted = paths
}

// Freeze produces the final result. totalDirs comes from the traversal
// tracker since empty directories never produce file records.
func (a *Aggregator) Freeze(totalDirs uint64) *ScanResult {
	dirs := make([]Directory, 0, len(a.byDir))
	sort.Strings(a.dirOrder)
	for _, path := range a.dirOrder {
		dirs = append(dirs, Directory{Path: path, Files: a.byDir[path]})
	}

	return &ScanResult{
		TotalFiles:     a.totalFiles,
		TotalDirs:      totalDirs,
		NewFiles:       a.byStatus[types.StatusNew],
		ModifiedFiles:  a.byStatus[types.StatusModified],
		UnchangedFiles: a.byStatus[types.StatusUnchanged],
		DeletedFiles:   uint64(len(a.deleted)),
		VideoCount:     a.byMedia[media.TypeVideo],
		ImageCount:     a.byMedia[media.TypeImage],
		AudioCount:     a.byMedia[media.TypeAudio],
		UnknownCount:   a.byMedia[media.TypeUnknown],
		Directories:    dirs,
		DeletedPaths:   a.deleted,
		Errors:         a.errors,
		ErrorCount:     len(a.errors),
		DurationMS:     time.Since(a.start).Milliseconds(),
	}
}
