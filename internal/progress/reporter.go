// Package progress emits the sequenced liveness event stream of a scan.
//
// The reporter writes line-delimited JSON to a side channel (stderr in the
// CLI) so a supervising process can observe liveness without touching the
// result stream. Events are totally ordered by a sequence number; consumers
// use it to detect drops or reordering.
package progress

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"mediascan/internal/types"
)

// Reporter serializes progress events onto a writer. One instance per scan.
// All methods are safe for concurrent use; the internal mutex guarantees
// that sequence numbers and write order agree.
type Reporter struct {
	mu       sync.Mutex
	out      io.Writer // nil = disabled
	interval time.Duration
	seq      uint64
	start    time.Time
	last     time.Time
}

// NewReporter creates a Reporter writing to out, throttling Progress events
// to at most one per interval. A nil out disables all output.
func NewReporter(out io.Writer, interval time.Duration) *Reporter {
	now := time.Now()
	return &Reporter{out: out, interval: interval, start: now, last: now.Add(-interval)}
}

// Enabled reports whether the reporter writes anywhere.
func (r *Reporter) Enabled() bool { return r != nil && r.out != nil }

// elapsedMS is the monotonic time since reporter creation, in milliseconds.
func (r *Reporter) elapsedMS() int64 {
	return time.Since(r.start).Milliseconds()
}

// emit marshals one event and writes it as a single line. Caller holds mu.
func (r *Reporter) emit(event any) {
	line, err := json.Marshal(event)
	if err != nil {
		return
	}
	_, _ = r.out.Write(append(line, '\n'))
}

// Start emits the start event with the scan configuration snapshot.
func (r *Reporter) Start(roots []string, recursive bool, maxDepth int, computeHash bool) {
	if !r.Enabled() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emit(StartEvent{
		Type:        "start",
		Seq:         r.nextSeq(),
		TS:          r.elapsedMS(),
		Roots:       roots,
		Recursive:   recursive,
		MaxDepth:    maxDepth,
		ComputeHash: computeHash,
	})
}

// Progress emits a progress event unless one was emitted less than the
// configured interval ago. Returns whether an event was written.
func (r *Reporter) Progress(phase Phase, snap Snapshot) bool {
	if !r.Enabled() {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.last) < r.interval {
		return false
	}
	ev := ProgressEvent{
		Type:    "p",
		Seq:     r.nextSeq(),
		TS:      r.elapsedMS(),
		Phase:   phase,
		Files:   snap.Files,
		Dirs:    snap.Dirs,
		Video:   snap.Video,
		Image:   snap.Image,
		Audio:   snap.Audio,
		Dir:     snap.Dir,
		Elapsed: snap.Elapsed.Milliseconds(),
	}
	if snap.HasEta {
		eta := snap.Eta.Milliseconds()
		ev.EtaMS = &eta
	}
	r.emit(ev)
	r.last = time.Now()
	return true
}

// Error emits an error event immediately, bypassing the interval limiter.
func (r *Reporter) Error(e *types.ScanError) {
	if !r.Enabled() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emit(ErrorEvent{
		Type:      "err",
		Seq:       r.nextSeq(),
		TS:        r.elapsedMS(),
		ErrorType: string(e.Kind),
		Message:   e.Message,
		Path:      e.Path,
	})
}

// Done emits the final event with aggregate counts and total elapsed time.
func (r *Reporter) Done(stats DoneStats) {
	if !r.Enabled() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emit(DoneEvent{
		Type:       "done",
		Seq:        r.nextSeq(),
		TS:         r.elapsedMS(),
		TotalFiles: stats.TotalFiles,
		TotalDirs:  stats.TotalDirs,
		NewFiles:   stats.NewFiles,
		Modified:   stats.Modified,
		Deleted:    stats.Deleted,
		ErrorCount: stats.ErrorCount,
		Elapsed:    r.elapsedMS(),
	})
}

// nextSeq returns the next sequence number. Caller holds mu.
func (r *Reporter) nextSeq() uint64 {
	seq := r.seq
	r.seq++
	return seq
}
