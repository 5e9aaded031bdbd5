//go:build !linux

package artcatalog

import (
	"os"
	"time"
)

// fileCreationTime falls back to modification time on platforms where the
// stat ctime field is not portably accessible.
func fileCreationTime(fi os.FileInfo) time.Time {
	return fi.ModTime()
}
