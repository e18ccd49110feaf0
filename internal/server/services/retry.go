package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pwisniewski/hipokrates/internal/common"
	"github.com/pwisniewski/hipokrates/internal/storage"
)

const (
	maxWriteAttempts = 5
	backoffStep      = 100 * time.Millisecond
)

// transformFunc turns the current blob content into the content to write.
// It runs against freshly re-read state on every attempt.
type transformFunc func(content []byte, found bool) ([]byte, error)

// writeWithRetry drives one mutating operation to completion under
// optimistic concurrency: read the blob and its version token, transform,
// then write conditionally on that token. Version conflicts are retried up
// to maxWriteAttempts with a linearly growing backoff; a Degraded outcome
// (local fallback) counts as success and is never retried.
//
// Errors from the transform are treated as validation failures: they abort
// immediately and are never retried. Unexpected read/write errors consume
// an attempt like a conflict does, but exhaustion then surfaces as a
// generic internal error instead of a conflict.
func writeWithRetry(ctx context.Context, store *storage.VersionedStore, name string, transform transformFunc) (storage.WriteOutcome, error) {
	var lastErr error

	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepBackoff(ctx, attempt-1); err != nil {
				return 0, err
			}
		}

		cur, err := store.Read(ctx, name)
		if err != nil {
			lastErr = err
			continue
		}

		next, err := transform(cur.Content, cur.Found)
		if err != nil {
			return 0, err
		}

		outcome, err := store.Write(ctx, name, next, cur.Version)
		if err != nil {
			lastErr = err
			continue
		}
		if outcome == storage.WriteConflict {
			lastErr = common.ErrVersionConflict
			continue
		}
		return outcome, nil
	}

	if errors.Is(lastErr, common.ErrVersionConflict) {
		return 0, lastErr
	}
	return 0, fmt.Errorf("%w: giving up after %d attempts: %v", common.ErrInternal, maxWriteAttempts, lastErr)
}

// sleepBackoff waits retryNumber*backoffStep, aborting early when the
// caller goes away.
func sleepBackoff(ctx context.Context, retryNumber int) error {
	timer := time.NewTimer(time.Duration(retryNumber) * backoffStep)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
