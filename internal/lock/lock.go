// Package lock keeps two bitcask instances from opening the same directory.
package lock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileName is the name of the lock file inside a bitcask directory.
const FileName = "LOCK"

// Lock is a held directory lock.
type Lock struct {
	f *os.File
	// ID identifies the instance holding the lock. It is written into the
	// lock file so an operator can tell which process owns the directory.
	ID string
}

// ErrLocked is returned when another instance holds the directory.
var ErrLocked = fmt.Errorf("directory already in use by another bitcask instance")

func lockFilePath(dir string) string {
	return filepath.Join(dir, FileName)
}

func (l *Lock) writeID() error {
	l.ID = uuid.NewString()

	if err := l.f.Truncate(0); err != nil {
		return err
	}
	if _, err := l.f.WriteAt([]byte(fmt.Sprintf("%s %d\n", l.ID, os.Getpid())), 0); err != nil {
		return err
	}
	return l.f.Sync()
}
