//go:build !darwin && !windows

package catalog

import (
	"os"
	"time"
)

// createdTime returns the zero time on platforms that do not expose a file
// birth time through os.FileInfo (notably Linux). Callers fall back to the
// modification time.
func createdTime(_ os.FileInfo) time.Time {
	return time.Time{}
}
