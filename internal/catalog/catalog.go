// Package catalog walks a directory tree and produces immutable file
// records for the grouping and rename engines. It reads metadata only;
// file content is never opened here.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileRecord is a snapshot of one file taken at scan time. Records are
// never mutated after the scan; a new scan produces new records.
type FileRecord struct {
	Path    string    // absolute path
	Name    string    // base name
	Folder  string    // parent directory path
	Size    int64     // bytes
	ModTime time.Time // sub-second precision preserved
	Created time.Time // zero when the platform does not expose it
}

// Stem returns the file name without its extension.
func (r FileRecord) Stem() string {
	return strings.TrimSuffix(r.Name, filepath.Ext(r.Name))
}

// Ext returns the file extension including the leading dot, preserving
// its original case ("" when there is none).
func (r FileRecord) Ext() string {
	return filepath.Ext(r.Name)
}

// ScanScope configures which files a scan collects.
type ScanScope struct {
	Root       string // directory to scan; must exist
	Recursive  bool   // descend into subdirectories
	DaysBack   int    // only files modified within the last N days; 0 = unbounded
	NamePrefix string // required file-name prefix (case-sensitive); "" = no filter
}

// SkipReasons buckets files skipped during traversal by cause.
type SkipReasons struct {
	Permissions int `json:"permissions" yaml:"permissions"`
	Missing     int `json:"missing" yaml:"missing"`
	TransientIO int `json:"transient_io" yaml:"transient_io"`
}

// Total returns the sum of all skip buckets.
func (s SkipReasons) Total() int {
	return s.Permissions + s.Missing + s.TransientIO
}

func (s *SkipReasons) record(err error) {
	switch {
	case os.IsPermission(err):
		s.Permissions++
	case os.IsNotExist(err):
		s.Missing++
	default:
		s.TransientIO++
	}
}

// ScanOutcome is the result of one scan: the collected records in stable
// traversal order plus skip accounting and elapsed wall-clock time.
type ScanOutcome struct {
	Records []FileRecord
	Skipped SkipReasons
	Elapsed time.Duration
}

// ProgressFunc receives traversal progress. It is called from the scanning
// goroutine after each collected file.
type ProgressFunc func(filesFound int, currentPath string)

// Scanner walks directories and collects file records.
type Scanner struct {
	progress ProgressFunc
	now      func() time.Time
}

// New creates a Scanner.
func New() *Scanner {
	return &Scanner{now: time.Now}
}

// SetProgress sets an optional progress callback.
func (s *Scanner) SetProgress(fn ProgressFunc) {
	s.progress = fn
}

// Scan traverses scope.Root and returns every regular file that passes the
// scope filters. Per-entry I/O failures are counted in the skip buckets and
// never abort the scan; only an unusable root is fatal. Cancellation via
// ctx is checked between entries, never mid-entry.
func (s *Scanner) Scan(ctx context.Context, scope ScanScope) (*ScanOutcome, error) {
	start := s.now()

	info, err := os.Stat(scope.Root)
	if err != nil {
		return nil, fmt.Errorf("cannot open scan root %s: %w", scope.Root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root is not a directory: %s", scope.Root)
	}

	var cutoff time.Time
	if scope.DaysBack > 0 {
		cutoff = s.now().Add(-time.Duration(scope.DaysBack) * 24 * time.Hour)
	}

	outcome := &ScanOutcome{}

	err = filepath.WalkDir(scope.Root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if walkErr != nil {
			// The root itself failing to enumerate is the only fatal case.
			if path == scope.Root {
				return fmt.Errorf("cannot enumerate scan root %s: %w", path, walkErr)
			}
			outcome.Skipped.record(walkErr)
			return nil
		}

		if d.IsDir() {
			if !scope.Recursive && path != scope.Root {
				return fs.SkipDir
			}
			return nil
		}

		// Symlinks, sockets and other non-regular entries are skipped
		// silently; they are not scan errors.
		if !d.Type().IsRegular() {
			return nil
		}

		name := d.Name()
		if scope.NamePrefix != "" && !strings.HasPrefix(name, scope.NamePrefix) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			// Vanished or unreadable between listing and stat.
			outcome.Skipped.record(err)
			return nil
		}

		if scope.DaysBack > 0 && fi.ModTime().Before(cutoff) {
			return nil
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}

		outcome.Records = append(outcome.Records, FileRecord{
			Path:    abs,
			Name:    name,
			Folder:  filepath.Dir(abs),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
			Created: createdTime(fi),
		})

		if s.progress != nil {
			s.progress(len(outcome.Records), abs)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, err
	}

	outcome.Elapsed = s.now().Sub(start)
	return outcome, nil
}
