// Package storage implements the versioned blob store: each named blob is
// read and written as a whole, with an opaque version token carrying the
// optimistic-concurrency precondition. A remote object-storage backend is
// the source of truth; when it is unreachable the store degrades to plain
// local files, where no version token exists.
package storage

import "context"

// Remote is the object-storage contract the store consumes. Implementations
// must return common.ErrNotFound when the object is absent and
// common.ErrVersionConflict when a write precondition fails; any other
// error is treated as "backend unavailable".
type Remote interface {
	// Get returns the object content and its current version token.
	Get(ctx context.Context, key string) (content []byte, version string, err error)

	// Put overwrites the object. A non-empty expectedVersion makes the
	// write conditional on the stored version still matching; an empty
	// one writes unconditionally.
	Put(ctx context.Context, key string, content []byte, expectedVersion string) error
}

// ReadResult is the outcome of a store read. Found is false when the blob
// exists neither remotely nor locally; Version is empty when no remote
// version was observed (local fallback or first write).
type ReadResult struct {
	Content []byte
	Found   bool
	Version string
}

// WriteOutcome tags where a successful write landed. Conflicts are reported
// as an outcome rather than folded into the error value so callers can
// distinguish "retry is meaningful" from "retry is futile".
type WriteOutcome int

const (
	WriteCommitted WriteOutcome = iota // remote write under the precondition succeeded
	WriteConflict                      // precondition failed, another writer committed first
	WriteDegraded                      // remote unavailable, content saved to the local file
)

func (o WriteOutcome) String() string {
	switch o {
	case WriteCommitted:
		return "committed"
	case WriteConflict:
		return "conflict"
	case WriteDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}
