// Package media classifies files into media types by extension.
package media

import "strings"

// Type is the media classification of a file.
type Type string

const (
	TypeVideo   Type = "video"
	TypeImage   Type = "image"
	TypeAudio   Type = "audio"
	TypeUnknown Type = "unknown"
)

// byExtension maps lower-cased extensions (without dot) to media types.
// Built once at init, shared read-only afterwards.
var byExtension = map[string]Type{}

var (
	videoExtensions = []string{"mp4", "mkv", "avi", "wmv", "flv", "mov", "webm", "m4v", "ts", "rmvb"}
	imageExtensions = []string{"jpg", "jpeg", "png", "gif", "webp", "bmp", "tiff", "tif"}
	audioExtensions = []string{"mp3", "flac", "wav", "aac", "ogg", "wma", "m4a"}
)

func init() {
	for _, ext := range videoExtensions {
		byExtension[ext] = TypeVideo
	}
	for _, ext := range imageExtensions {
		byExtension[ext] = TypeImage
	}
	for _, ext := range audioExtensions {
		byExtension[ext] = TypeAudio
	}
}

// FromExtension returns the media type for a file extension (with or
// without a leading dot, any case). Unrecognized extensions are TypeUnknown.
func FromExtension(ext string) Type {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if t, ok := byExtension[ext]; ok {
		return t
	}
	return TypeUnknown
}

// Code returns the single-character code used by the compact output format.
func (t Type) Code() string {
	switch t {
	case TypeVideo:
		return "v"
	case TypeImage:
		return "i"
	case TypeAudio:
		return "a"
	default:
		return "u"
	}
}

func (t Type) String() string { return string(t) }
