//go:build darwin

package catalog

import (
	"os"
	"syscall"
	"time"
)

// createdTime extracts the file birth time where the platform records one.
func createdTime(fi os.FileInfo) time.Time {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Birthtimespec.Sec, st.Birthtimespec.Nsec)
	}
	return time.Time{}
}
