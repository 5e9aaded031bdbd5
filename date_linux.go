//go:build linux

package artcatalog

import (
	"os"
	"syscall"
	"time"
)

// fileCreationTime returns the stat ctime. Linux does not expose a true
// creation time through os.FileInfo, so last-status-change time is the
// closest stable equivalent.
func fileCreationTime(fi os.FileInfo) time.Time {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	}
	return fi.ModTime()
}
