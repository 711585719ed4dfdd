// Package progress provides thread-safe progress reporting for the scan,
// hash, delete and rename phases. Hosts subscribe for updates; the engine
// never blocks on a slow listener.
package progress

import (
	"sync"
	"time"
)

// Phase represents the current phase of operation
type Phase string

const (
	PhaseScanning Phase = "scanning"
	PhaseHashing  Phase = "hashing"
	PhaseDeleting Phase = "deleting"
	PhaseRenaming Phase = "renaming"
	PhaseComplete Phase = "complete"
	PhaseError    Phase = "error"
)

// ScanProgress represents progress during scanning and hashing
type ScanProgress struct {
	Phase       Phase
	CurrentPath string
	FilesFound  int
	HashedFiles int
	TotalToHash int
	StartTime   time.Time
	Error       error
}

// ExecProgress represents progress during deletion or renaming
type ExecProgress struct {
	Phase         Phase
	CurrentFile   string
	DoneFiles     int
	TotalFiles    int
	ReclaimedSize int64
	ErrorCount    int
	StartTime     time.Time
	Error         error
}

// Reporter provides thread-safe progress reporting
type Reporter struct {
	scanProgress *ScanProgress
	execProgress *ExecProgress
	mu           sync.RWMutex
	listeners    []chan interface{}
}

// NewReporter creates a new progress reporter
func NewReporter() *Reporter {
	return &Reporter{
		listeners: make([]chan interface{}, 0),
	}
}

// Subscribe returns a channel that receives progress updates
func (r *Reporter) Subscribe() <-chan interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan interface{}, 10)
	r.listeners = append(r.listeners, ch)
	return ch
}

// Unsubscribe closes and removes a listener channel
func (r *Reporter) Unsubscribe(ch <-chan interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, listener := range r.listeners {
		if listener == ch {
			close(listener)
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			return
		}
	}
}

// UpdateScan publishes scan/hash progress to all listeners
func (r *Reporter) UpdateScan(p *ScanProgress) {
	r.mu.Lock()
	r.scanProgress = p
	listeners := make([]chan interface{}, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	for _, ch := range listeners {
		select {
		case ch <- p:
		default:
			// Listener is behind; drop the update rather than block.
		}
	}
}

// UpdateExec publishes delete/rename progress to all listeners
func (r *Reporter) UpdateExec(p *ExecProgress) {
	r.mu.Lock()
	r.execProgress = p
	listeners := make([]chan interface{}, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	for _, ch := range listeners {
		select {
		case ch <- p:
		default:
		}
	}
}

// LastScan returns the most recent scan progress update
func (r *Reporter) LastScan() *ScanProgress {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.scanProgress
}

// LastExec returns the most recent exec progress update
func (r *Reporter) LastExec() *ExecProgress {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.execProgress
}

// Close closes all listener channels
func (r *Reporter) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ch := range r.listeners {
		close(ch)
	}
	r.listeners = nil
}
