// Package scan orchestrates one scan run: traversal, classification,
// persistence and progress reporting wired together around a single
// collector goroutine.
//
// # Pipeline
//
//  1. Scanner workers emit classified files on the output channel and
//     recoverable errors on the error channel.
//  2. The collector consumes the output channel; it is the only goroutine
//     touching the differ's seen-set, the aggregator and the batcher intake.
//  3. The error drain consumes the error channel, forwarding each error to
//     the event stream; errors are merged into the aggregator only after
//     both the batcher and the drain have stopped.
package scan

import (
	"context"

	"github.com/rs/zerolog/log"

	"mediascan/internal/aggregate"
	"mediascan/internal/cache"
	"mediascan/internal/config"
	"mediascan/internal/differ"
	"mediascan/internal/hasher"
	"mediascan/internal/progress"
	"mediascan/internal/scanner"
	"mediascan/internal/store"
	"mediascan/internal/types"
)

const (
	outBufferSize = 256
	errBufferSize = 64
)

// Options wires one scan run together. Store and Digests are owned by the
// caller; Run never closes them.
type Options struct {
	Config *config.ScanConfig

	// Store persists results. Nil disables persistence entirely.
	Store *store.Store

	// Digests is the optional digest cache. Nil behaves like a disabled cache.
	Digests *cache.Cache

	// Reporter emits the sequenced event stream. Nil disables it.
	Reporter *progress.Reporter

	// Bar is the interactive progress bar. Nil disables it.
	Bar *progress.Bar

	// Incremental diffs against the persisted snapshot and derives deletions.
	// Without a store it degrades to a plain full scan.
	Incremental bool
}

// Run executes one scan and returns the frozen result. Recoverable errors
// are collected into the result; only configuration and snapshot-load
// failures return an error.
func Run(ctx context.Context, opts Options) (*aggregate.ScanResult, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Bar == nil {
		opts.Bar = progress.NewBar(false)
	}
	if opts.Digests == nil {
		opts.Digests, _ = cache.Open("")
	}

	incremental := opts.Incremental && opts.Store != nil

	var snapshot map[string]types.FileState
	if incremental {
		var err error
		if snapshot, err = opts.Store.Snapshot(ctx); err != nil {
			return nil, err
		}
		log.Debug().Int("known_files", len(snapshot)).Msg("loaded snapshot")
	}

	diff := differ.New(snapshot)
	tracker := progress.NewTracker(diff.SnapshotSize())
	hash := hasher.New(cfg.LargeFileThreshold, opts.Digests)
	agg := aggregate.New(incremental)

	opts.Reporter.Start(cfg.Roots, cfg.Recursive, cfg.EffectiveMaxDepth(), cfg.ComputeHash)

	out := make(chan types.ScannedFile, outBufferSize)
	errCh := make(chan *types.ScanError, errBufferSize)

	var batcher *store.Batcher
	if opts.Store != nil {
		batcher = store.NewBatcher(opts.Store, cfg.BatchSize, errCh)
	}

	// Error drain: forward to the event stream, hold for the final result.
	var drained []*types.ScanError
	drainDone := make(chan struct{})
	go func() {
		defer close(drainDone)
		for e := range errCh {
			log.Debug().Str("kind", string(e.Kind)).Str("path", e.Path).Msg(e.Message)
			opts.Reporter.Error(e)
			drained = append(drained, e)
		}
	}()

	// Collector: sole owner of the seen-set, aggregator and batcher intake.
	collectDone := make(chan struct{})
	go func() {
		defer close(collectDone)
		for f := range out {
			diff.MarkSeen(f.Path)
			agg.AddFile(f)
			if batcher != nil && (f.Status == types.StatusNew || f.Status == types.StatusModified) {
				batcher.Put(f)
			}
			opts.Bar.Describe(tracker)
			opts.Reporter.Progress(progress.PhaseScan, tracker.Snapshot())
		}
	}()

	sc := scanner.New(cfg, diff, hash, tracker, out, errCh)
	sc.Run()
	close(out)
	<-collectDone

	opts.Reporter.Progress(progress.PhaseProcess, tracker.Snapshot())

	if incremental {
		// Restricted to the roots that actually opened: a root that failed to
		// stat or list contributed no observations, so treating its absence
		// as deletions would purge its persisted index on a transient outage.
		deleted := diff.Deleted(sc.OpenedRoots())
		agg.SetDeleted(deleted)
		for _, path := range deleted {
			batcher.Delete(path)
		}
	}

	// Batcher may still report persistence errors; close it before the drain.
	if batcher != nil {
		batcher.Close()
	}
	close(errCh)
	<-drainDone
	for _, e := range drained {
		agg.AddError(e)
	}

	snap := tracker.Snapshot()
	res := agg.Freeze(snap.Dirs)

	opts.Reporter.Done(progress.DoneStats{
		TotalFiles: res.TotalFiles,
		TotalDirs:  res.TotalDirs,
		NewFiles:   res.NewFiles,
		Modified:   res.ModifiedFiles,
		Deleted:    res.DeletedFiles,
		ErrorCount: uint64(res.ErrorCount),
	})
	opts.Bar.Finish(tracker)

	return res, nil
}
