package progress

// Phase indicates where a scan currently is.
type Phase string

const (
	// PhaseScan covers directory traversal and file discovery.
	PhaseScan Phase = "scan"
	// PhaseProcess covers post-traversal diffing and the final flush.
	PhaseProcess Phase = "process"
	// PhaseDone marks completion.
	PhaseDone Phase = "done"
)

// The event structs below form a closed set; each serializes to one
// line-delimited JSON object on the progress channel. Every event carries a
// sequence number starting at 0 and incrementing by exactly 1 across the
// whole stream regardless of event type.

// StartEvent is emitted exactly once, before any other event.
type StartEvent struct {
	Type        string   `json:"_t"` // "start"
	Seq         uint64   `json:"seq"`
	TS          int64    `json:"ts"` // milliseconds since reporter creation
	Roots       []string `json:"roots"`
	Recursive   bool     `json:"recursive"`
	MaxDepth    int      `json:"max_depth"`
	ComputeHash bool     `json:"compute_hash"`
}

// ProgressEvent carries running totals. Emitted at most once per interval.
type ProgressEvent struct {
	Type    string `json:"_t"` // "p"
	Seq     uint64 `json:"seq"`
	TS      int64  `json:"ts"`
	Phase   Phase  `json:"phase"`
	Files   uint64 `json:"f"`
	Dirs    uint64 `json:"d"`
	Video   uint64 `json:"v"`
	Image   uint64 `json:"i"`
	Audio   uint64 `json:"a"`
	Dir     string `json:"dir"`
	Elapsed int64  `json:"ms"`
	EtaMS   *int64 `json:"eta_ms,omitempty"`
}

// ErrorEvent is emitted immediately for every recoverable error, bypassing
// the interval limiter.
type ErrorEvent struct {
	Type      string `json:"_t"` // "err"
	Seq       uint64 `json:"seq"`
	TS        int64  `json:"ts"`
	ErrorType string `json:"error_type"`
	Message   string `json:"message"`
	Path      string `json:"path,omitempty"`
}

// DoneEvent is emitted exactly once, after every other event.
type DoneEvent struct {
	Type       string `json:"_t"` // "done"
	Seq        uint64 `json:"seq"`
	TS         int64  `json:"ts"`
	TotalFiles uint64 `json:"tf"`
	TotalDirs  uint64 `json:"td"`
	NewFiles   uint64 `json:"nf"`
	Modified   uint64 `json:"mf"`
	Deleted    uint64 `json:"df"`
	ErrorCount uint64 `json:"ec"`
	Elapsed    int64  `json:"ms"`
}

// DoneStats are the final aggregate counts fed into the Done event.
type DoneStats struct {
	TotalFiles uint64
	TotalDirs  uint64
	NewFiles   uint64
	Modified   uint64
	Deleted    uint64
	ErrorCount uint64
}
