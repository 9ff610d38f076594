package runner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// ErrLocked is returned when another run already writes to the destination.
var ErrLocked = errors.New("another squeeze run is writing to this destination")

// Lock guards a destination directory for the length of a run. The lock
// file lives in the temp dir so in-place runs leave nothing in the tree.
type Lock struct {
	path string
	lock *flock.Flock
}

// LockDestination takes an exclusive, non-blocking lock keyed by the
// absolute path of dest.
func LockDestination(dest string) (*Lock, error) {
	abs, err := filepath.Abs(dest)
	if err != nil {
		return nil, err
	}

	name := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.Clean(abs))).String()
	path := filepath.Join(os.TempDir(), "squeeze-"+name+".lock")

	l := &Lock{path: path, lock: flock.New(path)}
	ok, err := l.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, abs)
	}
	return l, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Unlock releases the lock.
func (l *Lock) Unlock() error {
	return l.lock.Unlock()
}
