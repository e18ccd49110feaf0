package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/pwisniewski/hipokrates/internal/common"
	"github.com/pwisniewski/hipokrates/internal/logging"
	"github.com/pwisniewski/hipokrates/internal/storage"
)

// fakeRemote is a scriptable single-object backend. An empty version means
// the object does not exist yet.
type fakeRemote struct {
	mu      sync.Mutex
	content []byte
	version string
	rev     int

	getErr       error
	putErr       error
	putConflicts int // first N puts fail with a version conflict

	getCalls  int
	putCalls  int
	beforePut func(f *fakeRemote) // runs under the lock, before the put is applied
}

func (f *fakeRemote) Get(ctx context.Context, key string) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.getCalls++
	if f.getErr != nil {
		return nil, "", f.getErr
	}
	if f.version == "" {
		return nil, "", common.ErrNotFound
	}
	return append([]byte(nil), f.content...), f.version, nil
}

func (f *fakeRemote) Put(ctx context.Context, key string, content []byte, expectedVersion string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.putCalls++
	if f.beforePut != nil {
		f.beforePut(f)
	}
	if f.putErr != nil {
		return f.putErr
	}
	if f.putConflicts > 0 {
		f.putConflicts--
		return common.ErrVersionConflict
	}
	if expectedVersion != "" && expectedVersion != f.version {
		return common.ErrVersionConflict
	}
	f.store(content)
	return nil
}

// store applies content and bumps the version. Caller must hold the lock.
func (f *fakeRemote) store(content []byte) {
	f.content = append([]byte(nil), content...)
	f.rev++
	f.version = fmt.Sprintf("g%d", f.rev)
}

func newStore(t *testing.T, remote storage.Remote) *storage.VersionedStore {
	t.Helper()
	return storage.NewVersionedStore(remote, t.TempDir(), time.Second, testLogger())
}

func testLogger() logging.Logger {
	return logging.NewJSON(io.Discard)
}
