package metrics

import "healthd/internal/domain"

type SnapshotReader interface {
	Get() domain.Snapshot
}

// Follower tracks what one subscriber was last sent, so that an unchanged
// snapshot is never delivered twice.
type Follower struct {
	store SnapshotReader
	last  string
	sent  bool
}

func NewFollower(store SnapshotReader) *Follower {
	return &Follower{store: store}
}

// Next returns the current line if it differs from the last delivered one.
// Before the first sampling cycle there is nothing to deliver.
func (f *Follower) Next() (string, bool) {
	line := f.store.Get().Line
	if line == "" {
		return "", false
	}
	if f.sent && line == f.last {
		return "", false
	}
	return line, true
}

// Delivered records line as sent.
func (f *Follower) Delivered(line string) {
	f.last = line
	f.sent = true
}
