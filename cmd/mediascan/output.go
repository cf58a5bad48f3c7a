package main

import (
	"encoding/json"
	"fmt"
	"io"

	"mediascan/internal/aggregate"
)

// Output formats:
//
//	json    - one indented document with summary and per-directory file lists
//	ndjson  - one summary line, then one line per file, then a deleted line
//	compact - short field names, one line per directory; built for piping
//	          large results to downstream tooling
const (
	formatJSON    = "json"
	formatNDJSON  = "ndjson"
	formatCompact = "compact"
)

// summaryLine is the leading stats record of the ndjson and compact formats.
type summaryLine struct {
	Type       string `json:"_t"` // "s"
	TotalFiles uint64 `json:"tf"`
	TotalDirs  uint64 `json:"td"`
	NewFiles   uint64 `json:"nf"`
	Modified   uint64 `json:"mf"`
	Unchanged  uint64 `json:"uf"`
	Deleted    uint64 `json:"df"`
	Video      uint64 `json:"v"`
	Image      uint64 `json:"i"`
	Audio      uint64 `json:"a"`
	ErrorCount int    `json:"ec"`
	Elapsed    int64  `json:"ms"`
}

// deletedLine lists removed paths. Emitted only when non-empty.
type deletedLine struct {
	Type  string   `json:"_t"` // "d"
	Paths []string `json:"paths"`
}

// compactDir is one directory in the compact format.
type compactDir struct {
	Path  string        `json:"path"`
	Files []compactFile `json:"files"`
}

// compactFile carries one file with single-character field names and coded
// media type and status values.
type compactFile struct {
	Name   string `json:"n"`
	Size   int64  `json:"s"`
	MTime  int64  `json:"m"`
	Type   string `json:"t"`
	Status string `json:"st"`
	Hash   string `json:"h,omitempty"`
}

// writeResult renders the scan result in the requested format.
func writeResult(w io.Writer, res *aggregate.ScanResult, format string) error {
	switch format {
	case formatJSON:
		return writeJSON(w, res)
	case formatNDJSON:
		return writeNDJSON(w, res)
	case formatCompact:
		return writeCompact(w, res)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func summarize(res *aggregate.ScanResult) summaryLine {
	return summaryLine{
		Type:       "s",
		TotalFiles: res.TotalFiles,
		TotalDirs:  res.TotalDirs,
		NewFiles:   res.NewFiles,
		Modified:   res.ModifiedFiles,
		Unchanged:  res.UnchangedFiles,
		Deleted:    res.DeletedFiles,
		Video:      res.VideoCount,
		Image:      res.ImageCount,
		Audio:      res.AudioCount,
		ErrorCount: res.ErrorCount,
		Elapsed:    res.DurationMS,
	}
}

func writeJSON(w io.Writer, res *aggregate.ScanResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func writeNDJSON(w io.Writer, res *aggregate.ScanResult) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(summarize(res)); err != nil {
		return err
	}
	for _, dir := range res.Directories {
		for _, f := range dir.Files {
			if err := enc.Encode(f); err != nil {
				return err
			}
		}
	}
	if len(res.DeletedPaths) > 0 {
		return enc.Encode(deletedLine{Type: "d", Paths: res.DeletedPaths})
	}
	return nil
}

func writeCompact(w io.Writer, res *aggregate.ScanResult) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(summarize(res)); err != nil {
		return err
	}
	for _, dir := range res.Directories {
		cd := compactDir{Path: dir.Path, Files: make([]compactFile, 0, len(dir.Files))}
		for _, f := range dir.Files {
			cd.Files = append(cd.Files, compactFile{
				Name:   f.Name,
				Size:   f.Size,
				MTime:  f.MTime,
				Type:   f.MediaType.Code(),
				Status: f.Status.Code(),
				Hash:   f.Hash,
			})
		}
		if err := enc.Encode(cd); err != nil {
			return err
		}
	}
	if len(res.DeletedPaths) > 0 {
		return enc.Encode(deletedLine{Type: "d", Paths: res.DeletedPaths})
	}
	return nil
}
