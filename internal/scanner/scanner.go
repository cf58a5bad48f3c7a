// Package scanner provides parallel filesystem traversal for media indexing.
//
// # Concurrency Model
//
// The scanner uses a fixed worker pool draining an explicit work queue of
// (directory, depth) items - fork-join style rather than unbounded recursive
// goroutine spawning, so fan-out is controlled and memory stays bounded:
//
//  1. WORKER GOROUTINES (fixed pool)
//     - N workers consume directory jobs from jobCh
//     - Each worker lists one directory, emits its files, enqueues subdirs
//
//  2. PENDING COUNTER
//     - pending tracks queued-but-unfinished directories
//     - When it drains, jobCh is closed and the pool winds down
//
//  3. QUEUE-FULL FALLBACK
//     - A worker that cannot enqueue a subdirectory without blocking
//       processes it inline; recursion depth is bounded by tree depth, so
//       workers never deadlock on a full queue
//
// Entries within one directory are listed in name order, giving deterministic
// per-directory output ordering. No ordering exists across directories.
// Symbolic links are never followed. Per-entry errors are reported on the
// error channel and never abort the traversal.
package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"mediascan/internal/config"
	"mediascan/internal/differ"
	"mediascan/internal/hasher"
	"mediascan/internal/media"
	"mediascan/internal/progress"
	"mediascan/internal/types"
)

// jobQueueSize bounds the directory work queue. Overflow is handled by the
// inline-processing fallback, not by growing memory.
const jobQueueSize = 1024

// dirJob is one unit of traversal work.
type dirJob struct {
	path  string
	depth int
}

// Scanner walks the configured roots and emits ScannedFile values.
//
// The scanner is designed for single-use: create with New(), call Run() once.
type Scanner struct {
	// Config (immutable, set by New)
	cfg     *config.ScanConfig
	diff    *differ.Differ
	hash    *hasher.Hasher
	tracker *progress.Tracker
	out     chan<- types.ScannedFile
	errs    chan<- *types.ScanError

	// Runtime (initialized in Run)
	jobCh    chan dirJob
	pending  sync.WaitGroup // queued-but-unfinished directories
	workerWg sync.WaitGroup
	maxDepth int

	mu          sync.Mutex
	openedRoots []string
}

// New creates a Scanner. Discovered files are sent to out and recoverable
// errors to errs; neither channel is closed by the scanner.
func New(cfg *config.ScanConfig, diff *differ.Differ, hash *hasher.Hasher,
	tracker *progress.Tracker, out chan<- types.ScannedFile, errs chan<- *types.ScanError,
) *Scanner {
	return &Scanner{
		cfg:     cfg,
		diff:    diff,
		hash:    hash,
		tracker: tracker,
		out:     out,
		errs:    errs,
	}
}

// Run executes the traversal and blocks until every directory has been
// processed. Roots that cannot be opened are reported as errors without
// affecting the other roots.
func (s *Scanner) Run() {
	s.jobCh = make(chan dirJob, jobQueueSize)
	s.maxDepth = s.cfg.EffectiveMaxDepth()

	workers := s.cfg.EffectiveWorkers()
	for i := 0; i < workers; i++ {
		s.workerWg.Add(1)
		go func() {
			defer s.workerWg.Done()
			for j := range s.jobCh {
				s.scanDir(j)
			}
		}()
	}

	for _, root := range s.cfg.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			s.errs <- types.IOError(root, err)
			continue
		}
		info, err := os.Stat(abs)
		if err != nil {
			s.errs <- types.IOError(abs, err)
			continue
		}
		if !info.IsDir() {
			s.errs <- types.NewScanError(types.ErrIO, abs, "not a directory")
			continue
		}
		s.enqueue(dirJob{path: abs, depth: 0})
	}

	// Close the queue once every queued directory has been processed
	go func() {
		s.pending.Wait()
		close(s.jobCh)
	}()

	s.workerWg.Wait()
}

// OpenedRoots returns the absolute roots whose top-level listing succeeded.
// Only valid after Run returns.
func (s *Scanner) OpenedRoots() []string {
	return s.openedRoots
}

// enqueue adds a directory job, falling back to inline processing when the
// queue is full so workers never block each other into a deadlock.
func (s *Scanner) enqueue(j dirJob) {
	s.pending.Add(1)
	select {
	case s.jobCh <- j:
	default:
		s.scanDir(j)
	}
}

// scanDir lists one directory, emits its files and enqueues subdirectories.
func (s *Scanner) scanDir(j dirJob) {
	defer s.pending.Done()

	entries, err := os.ReadDir(j.path) // sorted by name
	if err != nil {
		s.errs <- types.IOError(j.path, err)
		return
	}

	// A root counts as scanned only once its top-level listing succeeds;
	// deletion derivation must never cover a root that contributed nothing.
	if j.depth == 0 {
		s.mu.Lock()
		s.openedRoots = append(s.openedRoots, j.path)
		s.mu.Unlock()
	}

	s.tracker.DirVisited(j.path)

	for _, entry := range entries {
		if entry.IsDir() {
			if s.cfg.IgnoreDir(entry.Name()) {
				continue
			}
			if j.depth < s.maxDepth {
				s.enqueue(dirJob{path: filepath.Join(j.path, entry.Name()), depth: j.depth + 1})
			}
			continue
		}

		// Symlinks, devices, sockets are never followed or recorded
		if !entry.Type().IsRegular() {
			continue
		}

		s.processFile(j.path, entry)
	}
}

// processFile stats, classifies and optionally fingerprints one entry.
func (s *Scanner) processFile(dir string, entry os.DirEntry) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(entry.Name()), "."))
	mediaType := media.FromExtension(ext)
	if mediaType == media.TypeUnknown && !s.cfg.IncludeUnknown {
		return
	}

	path := filepath.Join(dir, entry.Name())
	info, err := entry.Info()
	if err != nil {
		// Entry vanished between listing and stat
		s.errs <- types.IOError(path, err)
		return
	}

	f := newScannedFile(path, ext, mediaType, info)
	status := s.diff.Classify(&f)

	// Unchanged files keep the prior digest; everything else is hashed when
	// hashing is enabled.
	if s.cfg.ComputeHash && status != types.StatusUnchanged {
		digest, partial, err := s.hash.Sum(path, f.Size, f.MTime)
		if err != nil {
			// Degrade to no digest, keep the record
			s.errs <- types.HashError(path, err)
		} else {
			f.Hash = digest
			f.IsPartialHash = partial
		}
	}

	s.tracker.FileScanned(mediaType, f.Size)
	s.out <- f // may block when the persistence intake is full (backpressure)
}
