// Package types provides shared types used across the mediascan codebase.
package types

import (
	"errors"
	"fmt"
	"io/fs"

	"mediascan/internal/media"
)

// FileStatus classifies a file relative to the previous scan snapshot.
type FileStatus string

const (
	StatusNew       FileStatus = "new"
	StatusModified  FileStatus = "modified"
	StatusUnchanged FileStatus = "unchanged"
	StatusDeleted   FileStatus = "deleted"
)

// Code returns the single-character code used by the compact output format.
func (s FileStatus) Code() string {
	switch s {
	case StatusModified:
		return "m"
	case StatusUnchanged:
		return "u"
	case StatusDeleted:
		return "d"
	default:
		return "n"
	}
}

func (s FileStatus) String() string { return string(s) }

// ScannedFile holds metadata for one file discovered during traversal.
// Immutable once it leaves the scanner worker that created it.
type ScannedFile struct {
	Path          string     `json:"path"`
	Name          string     `json:"name"`
	Size          int64      `json:"size"`
	MTime         int64      `json:"mtime"`
	CTime         int64      `json:"ctime"`
	Extension     string     `json:"extension"`
	MediaType     media.Type `json:"media_type"`
	Hash          string     `json:"hash,omitempty"`
	IsPartialHash bool       `json:"is_partial_hash,omitempty"`
	Status        FileStatus `json:"status"`
}

// FileState is one row of the previous scan's snapshot, loaded from the
// durable store before traversal begins. Read-only after load.
type FileState struct {
	Path      string
	Size      int64
	MTime     int64
	Hash      string
	IsPartial bool
}

// ErrorKind categorizes recoverable scan errors. The names match the
// error_type field of the progress wire protocol.
type ErrorKind string

const (
	ErrPermissionDenied ErrorKind = "PermissionDenied"
	ErrNotFound         ErrorKind = "NotFound"
	ErrIO               ErrorKind = "IoError"
	ErrHash             ErrorKind = "HashError"
	ErrDatabase         ErrorKind = "DatabaseError"
)

// ScanError is a recoverable error encountered during a scan. It is recorded
// and reported but never aborts the run.
type ScanError struct {
	Kind    ErrorKind
	Path    string
	Message string
}

func (e *ScanError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (path: %s)", e.Kind, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewScanError builds a ScanError with an explicit kind.
func NewScanError(kind ErrorKind, path, message string) *ScanError {
	return &ScanError{Kind: kind, Path: path, Message: message}
}

// IOError classifies a filesystem error by its underlying cause.
func IOError(path string, err error) *ScanError {
	kind := ErrIO
	switch {
	case errors.Is(err, fs.ErrPermission):
		kind = ErrPermissionDenied
	case errors.Is(err, fs.ErrNotExist):
		kind = ErrNotFound
	}
	return &ScanError{Kind: kind, Path: path, Message: err.Error()}
}

// HashError wraps a failure to fingerprint a file's content.
func HashError(path string, err error) *ScanError {
	return &ScanError{Kind: ErrHash, Path: path, Message: err.Error()}
}

// DatabaseError wraps a persistence failure.
func DatabaseError(err error) *ScanError {
	return &ScanError{Kind: ErrDatabase, Message: err.Error()}
}
