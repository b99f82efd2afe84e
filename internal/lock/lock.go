// Package lock serializes catalog writers across processes.
package lock

import (
	"fmt"

	"github.com/gofrs/flock"

	"github.com/starford/albumdex/internal/apperr"
)

// Lock is an exclusive advisory file lock.
type Lock struct {
	fl *flock.Flock
}

// Acquire takes the lock at path without waiting. If another process
// holds it the error wraps apperr.ErrLocked.
func Acquire(path string) (*Lock, error) {
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock: acquire %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("lock: %s: %w", path, apperr.ErrLocked)
	}
	return &Lock{fl: fl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.fl.Path() }

// Release unlocks. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("lock: release %s: %w", l.fl.Path(), err)
	}
	return nil
}
