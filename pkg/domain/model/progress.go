package model

import "sync"

// ProgressCeiling caps the progress value shown to users. The true count
// keeps increasing past it.
const ProgressCeiling = 100

// ProgressSnapshot is a point-in-time view of traversal progress.
type ProgressSnapshot struct {
	Completed int // Completed file downloads
	Display   int // Completed capped at ProgressCeiling
}

// Reporter is a passive sink for traversal progress and failures. Download
// tasks report into it concurrently; it never influences control flow.
type Reporter struct {
	mu        sync.Mutex
	completed int
	lastErr   error
	onUpdate  func(ProgressSnapshot)
}

// NewReporter creates a Reporter. onUpdate, when non-nil, is invoked after
// every completed file while the reporter lock is held, so it must be fast
// and must not call back into the reporter.
func NewReporter(onUpdate func(ProgressSnapshot)) *Reporter {
	return &Reporter{onUpdate: onUpdate}
}

// FileDone records one completed file download.
func (x *Reporter) FileDone() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.completed++
	if x.onUpdate != nil {
		x.onUpdate(x.snapshot())
	}
}

// Fail records a failure. The slot holds the most recent error only.
func (x *Reporter) Fail(err error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.lastErr = err
}

// LastError returns the most recently recorded failure, or nil.
func (x *Reporter) LastError() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.lastErr
}

// Snapshot returns the current progress.
func (x *Reporter) Snapshot() ProgressSnapshot {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.snapshot()
}

func (x *Reporter) snapshot() ProgressSnapshot {
	display := x.completed
	if display > ProgressCeiling {
		display = ProgressCeiling
	}
	return ProgressSnapshot{Completed: x.completed, Display: display}
}
