//go:build !linux

package scanner

import "os"

// ctime falls back to mtime on platforms without a portable change time.
func ctime(_ os.FileInfo, mtime int64) int64 {
	return mtime
}
