package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pwisniewski/hipokrates/internal/common"
	"github.com/pwisniewski/hipokrates/internal/logging"
)

// VersionedStore reads and writes named blobs through the remote backend,
// falling back to files under dir when the backend is unavailable. A nil
// remote puts the store in local-only mode.
type VersionedStore struct {
	remote  Remote
	dir     string
	timeout time.Duration
	logger  logging.Logger
}

func NewVersionedStore(remote Remote, dir string, timeout time.Duration, logger logging.Logger) *VersionedStore {
	return &VersionedStore{
		remote:  remote,
		dir:     dir,
		timeout: timeout,
		logger:  logger.With("module", "storage"),
	}
}

// Read returns the current blob content and its version token. Remote
// failures of any kind fall back to the local file; a missing local file
// yields Found=false rather than an error, so a read-for-edit of a blob
// that was never written behaves as an empty record set.
func (s *VersionedStore) Read(ctx context.Context, name string) (ReadResult, error) {
	if s.remote != nil {
		rctx, cancel := context.WithTimeout(ctx, s.timeout)
		content, version, err := s.remote.Get(rctx, name)
		cancel()
		if err == nil {
			return ReadResult{Content: content, Found: true, Version: version}, nil
		}
		if errors.Is(err, common.ErrNotFound) {
			s.logger.Debug(ctx, "blob absent in remote storage", "name", name)
		} else {
			s.logger.Warn(ctx, "remote read failed, falling back to local file", "name", name, "error", err.Error())
		}
	}

	content, err := os.ReadFile(s.localPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return ReadResult{}, nil
		}
		return ReadResult{}, fmt.Errorf("reading local %s: %w", name, err)
	}
	return ReadResult{Content: content, Found: true}, nil
}

// Write replaces the blob content. With a non-empty expectedVersion the
// remote write is conditional; a precondition failure is reported as
// WriteConflict with a nil error. Any other remote failure degrades to an
// unconditional local overwrite, reported as WriteDegraded. An error is
// returned only when the local fallback itself fails.
func (s *VersionedStore) Write(ctx context.Context, name string, content []byte, expectedVersion string) (WriteOutcome, error) {
	if s.remote != nil {
		wctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.remote.Put(wctx, name, content, expectedVersion)
		cancel()
		if err == nil {
			return WriteCommitted, nil
		}
		if errors.Is(err, common.ErrVersionConflict) {
			return WriteConflict, nil
		}
		s.logger.Warn(ctx, "remote write failed, saving to local file", "name", name, "error", err.Error())
	}

	if err := os.WriteFile(s.localPath(name), content, 0o660); err != nil {
		return 0, fmt.Errorf("writing local %s: %w", name, err)
	}
	return WriteDegraded, nil
}

func (s *VersionedStore) localPath(name string) string {
	return filepath.Join(s.dir, name)
}
