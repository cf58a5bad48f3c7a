package scanner

import (
	"os"

	"mediascan/internal/media"
	"mediascan/internal/types"
)

// newScannedFile builds a ScannedFile from a stat result.
func newScannedFile(path, ext string, mediaType media.Type, info os.FileInfo) types.ScannedFile {
	mtime := info.ModTime().Unix()
	return types.ScannedFile{
		Path:      path,
		Name:      info.Name(),
		Size:      info.Size(),
		MTime:     mtime,
		CTime:     ctime(info, mtime),
		Extension: ext,
		MediaType: mediaType,
		Status:    types.StatusNew,
	}
}
