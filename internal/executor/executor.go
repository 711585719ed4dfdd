// Package executor applies deletion and rename decisions against the real
// filesystem. Deletes are trash-first with a permanent fallback, and every
// batch operation tolerates per-path failures: one locked file never stops
// the rest of the batch.
package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/realdedupe/dedupe/internal/progress"
	"github.com/realdedupe/dedupe/internal/renamer"
)

// Executor performs destructive file operations sequentially per
// invocation. It holds no state between calls other than the manifest.
type Executor struct {
	trasher          Trasher
	permanent        bool
	manifest         *Manifest
	progressReporter *progress.Reporter
}

// New creates an Executor using the platform trash facility.
func New() *Executor {
	return &Executor{
		trasher:  SystemTrasher(),
		manifest: NewManifest(),
	}
}

// NewWithTrasher creates an Executor with a custom trash implementation.
func NewWithTrasher(t Trasher) *Executor {
	return &Executor{
		trasher:  t,
		manifest: NewManifest(),
	}
}

// SetPermanent skips the trash entirely and deletes permanently.
func (e *Executor) SetPermanent(v bool) {
	e.permanent = v
}

// SetProgressReporter sets a custom progress reporter
func (e *Executor) SetProgressReporter(pr *progress.Reporter) {
	e.progressReporter = pr
}

// GetManifest returns the record of files deleted by this executor.
func (e *Executor) GetManifest() *Manifest {
	return e.manifest
}

// DeleteResult represents the result of a batch delete operation
type DeleteResult struct {
	Deleted   int
	Reclaimed int64
	Errors    []*DeletionError
}

// Delete removes the given paths, preferring the trash when available and
// falling back to permanent deletion. A path that no longer exists is a
// no-op success with a zero size contribution. Failures are collected per
// path; the batch always runs to the end.
func (e *Executor) Delete(paths []string) *DeleteResult {
	result := &DeleteResult{}
	start := time.Now()

	for i, path := range paths {
		e.reportExec(progress.PhaseDeleting, path, i, len(paths), result.Reclaimed, len(result.Errors), start)

		info, err := os.Lstat(path)
		if err != nil {
			if os.IsNotExist(err) {
				// Vanished since the scan; deleting it was the goal anyway.
				result.Deleted++
				continue
			}
			result.Errors = append(result.Errors, CategorizeError(path, err))
			continue
		}
		size := info.Size()

		if !e.permanent {
			if err := e.trasher.Trash(path); err == nil {
				e.manifest.Add(path, size)
				result.Deleted++
				result.Reclaimed += size
				continue
			}
			// Trash failed (unavailable, cross-device, ...); fall back to
			// permanent deletion below.
		}

		if delErr := removeWithRetry(path); delErr != nil {
			result.Errors = append(result.Errors, delErr)
			continue
		}
		e.manifest.Add(path, size)
		result.Deleted++
		result.Reclaimed += size
	}

	e.reportExec(progress.PhaseComplete, "", result.Deleted, len(paths), result.Reclaimed, len(result.Errors), start)
	return result
}

// removeWithRetry attempts a permanent delete, retrying briefly when the
// failure is transient (file in use).
func removeWithRetry(path string) *DeletionError {
	retryDelays := []time.Duration{
		100 * time.Millisecond,
		500 * time.Millisecond,
		2 * time.Second,
	}

	var lastErr *DeletionError
	for attempt := 0; ; attempt++ {
		err := os.Remove(path)
		if err == nil || os.IsNotExist(err) {
			return nil
		}
		lastErr = CategorizeError(path, err)
		if !lastErr.Retryable || attempt >= len(retryDelays) {
			return lastErr
		}
		time.Sleep(retryDelays[attempt])
	}
}

// RenameError reports a single failed rename mapping.
type RenameError struct {
	Path    string
	Message string
}

// RenameResult represents the result of applying a rename plan
type RenameResult struct {
	Renamed int
	Skipped int
	Errors  []RenameError
}

// ApplyRenames applies a preview plan. Each file is renamed within its own
// folder to exactly the name the preview produced. A target that collides
// with an existing file not covered by the plan is an error, never a
// silent overwrite. Mappings whose source vanished, or whose target equals
// the source, are counted as skipped.
//
// Mappings are processed in a deterministic order; a mapping whose target
// is currently occupied by another source in the same plan is deferred
// until that source has moved away, so chains like a→b, b→c resolve
// without ever overwriting.
func (e *Executor) ApplyRenames(plan renamer.Plan) *RenameResult {
	result := &RenameResult{}
	start := time.Now()

	sources := make([]string, 0, len(plan))
	for src := range plan {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	// Targets produced by mappings already applied in this run.
	claimed := make(map[string]bool, len(plan))
	// Sources still waiting to move, keyed by current path.
	pendingSource := make(map[string]bool, len(plan))
	for _, src := range sources {
		pendingSource[src] = true
	}

	pending := sources
	for len(pending) > 0 {
		var deferred []string
		progressed := false

		for _, src := range pending {
			target := filepath.Join(filepath.Dir(src), plan[src])

			if target == src {
				delete(pendingSource, src)
				result.Skipped++
				progressed = true
				continue
			}
			if _, err := os.Lstat(src); os.IsNotExist(err) {
				delete(pendingSource, src)
				result.Skipped++
				progressed = true
				continue
			}
			if claimed[target] {
				delete(pendingSource, src)
				result.Errors = append(result.Errors, RenameError{
					Path:    src,
					Message: fmt.Sprintf("target %s already produced by this plan", filepath.Base(target)),
				})
				progressed = true
				continue
			}
			if _, err := os.Lstat(target); err == nil {
				if pendingSource[target] {
					// Occupied by a file that this plan will move; retry
					// after the rest of the pass.
					deferred = append(deferred, src)
					continue
				}
				delete(pendingSource, src)
				result.Errors = append(result.Errors, RenameError{
					Path:    src,
					Message: fmt.Sprintf("target %s already exists", filepath.Base(target)),
				})
				progressed = true
				continue
			}

			e.reportExec(progress.PhaseRenaming, src, result.Renamed, len(plan), 0, len(result.Errors), start)
			if err := os.Rename(src, target); err != nil {
				delete(pendingSource, src)
				result.Errors = append(result.Errors, RenameError{Path: src, Message: err.Error()})
				progressed = true
				continue
			}
			delete(pendingSource, src)
			claimed[target] = true
			result.Renamed++
			progressed = true
		}

		if !progressed {
			// A cycle (a→b while b→a): no mapping can move first.
			for _, src := range deferred {
				result.Errors = append(result.Errors, RenameError{
					Path:    src,
					Message: "rename cycle: target occupied by another pending rename",
				})
			}
			break
		}
		pending = deferred
	}

	e.reportExec(progress.PhaseComplete, "", result.Renamed, len(plan), 0, len(result.Errors), start)
	return result
}

// RenameKept renames a kept file to a collision-free timestamped name,
// <stem>_<date>_<time>_<seq>.<ext>, picking the first free sequence
// number. Callers invoke this only after the group's duplicates were
// deleted successfully, so a failed deletion never leaves the kept file
// renamed while its duplicates remain.
func (e *Executor) RenameKept(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("cannot stat kept file: %w", err)
	}

	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := filepath.Base(path)
	stem = stem[:len(stem)-len(ext)]
	stamp := info.ModTime().Format("20060102_150405")

	for seq := 1; seq <= 999; seq++ {
		name := fmt.Sprintf("%s_%s_%03d%s", stem, stamp, seq, ext)
		target := filepath.Join(dir, name)
		if target == path {
			return path, nil
		}
		if _, err := os.Lstat(target); err == nil {
			continue
		}
		if err := os.Rename(path, target); err != nil {
			return "", err
		}
		return target, nil
	}
	return "", fmt.Errorf("no free name for kept file %s after 999 attempts", path)
}

func (e *Executor) reportExec(phase progress.Phase, current string, done, total int, reclaimed int64, errCount int, start time.Time) {
	if e.progressReporter == nil {
		return
	}
	e.progressReporter.UpdateExec(&progress.ExecProgress{
		Phase:         phase,
		CurrentFile:   current,
		DoneFiles:     done,
		TotalFiles:    total,
		ReclaimedSize: reclaimed,
		ErrorCount:    errCount,
		StartTime:     start,
	})
}
