//go:build windows

package catalog

import (
	"os"
	"syscall"
	"time"
)

// createdTime extracts the file creation time from the Win32 metadata.
func createdTime(fi os.FileInfo) time.Time {
	if st, ok := fi.Sys().(*syscall.Win32FileAttributeData); ok {
		return time.Unix(0, st.CreationTime.Nanoseconds())
	}
	return time.Time{}
}
