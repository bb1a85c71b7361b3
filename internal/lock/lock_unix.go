//go:build unix

package lock

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// LockDirectory attempts to acquire an exclusive, non-blocking advisory lock
// on the given directory using a lock file.
//
// On Unix systems, this uses flock(2) to place an exclusive lock on a file
// named "LOCK" inside the directory. If the lock cannot be acquired, the
// directory is assumed to be in use by another Bitcask instance.
//
// The returned Lock must be held for as long as the directory is in use.
func LockDirectory(path string) (*Lock, error) {
	f, err := os.OpenFile(lockFilePath(path), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("unable to open lock file: %w", err)
	}

	err = unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err != nil {
		f.Close()
		return nil, ErrLocked
	}

	l := &Lock{f: f}
	if err := l.writeID(); err != nil {
		l.Unlock()
		return nil, fmt.Errorf("unable to write lock file: %w", err)
	}

	return l, nil
}

// Unlock releases the advisory flock and closes the file.
func (l *Lock) Unlock() {
	unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	l.f.Close()
}
