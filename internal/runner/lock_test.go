package runner

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestLockDestination(t *testing.T) {
	dir := t.TempDir()

	first, err := LockDestination(dir)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	if _, err := LockDestination(filepath.Join(dir, ".")); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	other, err := LockDestination(t.TempDir())
	if err != nil {
		t.Fatalf("lock other: %v", err)
	}
	_ = other.Unlock()

	if err := first.Unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	again, err := LockDestination(dir)
	if err != nil {
		t.Fatalf("relock: %v", err)
	}
	_ = again.Unlock()
}
