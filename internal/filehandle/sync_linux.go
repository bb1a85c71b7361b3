//go:build linux

package filehandle

import (
	"os"

	"golang.org/x/sys/unix"
)

// Records are read back by offset from the index, never scanned forward, so
// tell the kernel not to bother with readahead.
func adviseRandom(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_RANDOM)
}

func datasync(f *os.File) error {
	return unix.Fdatasync(int(f.Fd()))
}
