//go:build windows

package lock

import (
	"fmt"
	"os"
)

// LockDirectory attempts to acquire an exclusive lock on the given directory
// using a lock file.
//
// On Windows, this is implemented by atomically creating a file named "LOCK"
// inside the directory. If the file already exists, the directory is assumed
// to be in use by another Bitcask instance.
func LockDirectory(path string) (*Lock, error) {
	f, err := os.OpenFile(lockFilePath(path), os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		return nil, ErrLocked
	}

	l := &Lock{f: f}
	if err := l.writeID(); err != nil {
		l.Unlock()
		return nil, fmt.Errorf("unable to write lock file: %w", err)
	}

	return l, nil
}

// Unlock removes the lock file from disk. It should be called exactly once
// for each successful LockDirectory call.
func (l *Lock) Unlock() {
	name := l.f.Name()
	l.f.Close()
	os.Remove(name)
}
