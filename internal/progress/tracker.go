package progress

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"mediascan/internal/media"
)

// Tracker accumulates running scan totals. All counters are atomic so every
// scanner worker can update them without locking; readers get a slightly
// stale but consistent-enough view for progress display.
type Tracker struct {
	files   atomic.Uint64
	dirs    atomic.Uint64
	bytes   atomic.Uint64
	video   atomic.Uint64
	image   atomic.Uint64
	audio   atomic.Uint64
	unknown atomic.Uint64

	currentDir atomic.Value // string

	// expectedTotal is the prior snapshot size, used for ETA. Zero means no
	// estimate is available.
	expectedTotal uint64
	start         time.Time
}

// NewTracker creates a Tracker. expectedTotal may be 0 when no prior
// snapshot exists.
func NewTracker(expectedTotal int) *Tracker {
	t := &Tracker{expectedTotal: uint64(expectedTotal), start: time.Now()}
	t.currentDir.Store("")
	return t
}

// FileScanned records one discovered file.
func (t *Tracker) FileScanned(mt media.Type, size int64) {
	t.files.Add(1)
	t.bytes.Add(uint64(size))
	switch mt {
	case media.TypeVideo:
		t.video.Add(1)
	case media.TypeImage:
		t.image.Add(1)
	case media.TypeAudio:
		t.audio.Add(1)
	default:
		t.unknown.Add(1)
	}
}

// DirVisited records one expanded directory.
func (t *Tracker) DirVisited(path string) {
	t.dirs.Add(1)
	t.currentDir.Store(path)
}

// Snapshot is a point-in-time view of the tracker.
type Snapshot struct {
	Files   uint64
	Dirs    uint64
	Bytes   uint64
	Video   uint64
	Image   uint64
	Audio   uint64
	Unknown uint64
	Dir     string
	Elapsed time.Duration
	Eta     time.Duration
	HasEta  bool
}

// Snapshot captures the current totals, elapsed time and an ETA once
// throughput and the expected total allow one.
func (t *Tracker) Snapshot() Snapshot {
	s := Snapshot{
		Files:   t.files.Load(),
		Dirs:    t.dirs.Load(),
		Bytes:   t.bytes.Load(),
		Video:   t.video.Load(),
		Image:   t.image.Load(),
		Audio:   t.audio.Load(),
		Unknown: t.unknown.Load(),
		Dir:     t.currentDir.Load().(string),
		Elapsed: time.Since(t.start),
	}
	if t.expectedTotal > 0 && s.Files > 0 && s.Elapsed > 0 && s.Files < t.expectedTotal {
		perFile := s.Elapsed / time.Duration(s.Files)
		s.Eta = perFile * time.Duration(t.expectedTotal-s.Files)
		s.HasEta = true
	}
	return s
}

// String renders the totals for the interactive progress bar description.
func (t *Tracker) String() string {
	s := t.Snapshot()
	return fmt.Sprintf("Scanned %d files (%s) in %d dirs in %.1fs",
		s.Files, humanize.IBytes(s.Bytes), s.Dirs, s.Elapsed.Seconds())
}
