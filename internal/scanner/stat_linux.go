//go:build linux

package scanner

import (
	"os"
	"syscall"
)

// ctime extracts the inode change time from the platform stat.
func ctime(info os.FileInfo, mtime int64) int64 {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		return stat.Ctim.Sec
	}
	return mtime
}
