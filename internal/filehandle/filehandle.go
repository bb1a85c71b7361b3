// Package filehandle provides a file with independent read and write cursors.
//
// A Handle opens the same path twice: one descriptor serves buffered appends,
// the other serves random-offset reads. Each cursor has its own lock, so a
// reader seeking around the file never moves the position of the next append
// and an append never disturbs a read in progress.
package filehandle

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

const defaultBufferSize = 64 * 1024

// IOError wraps a failed open, read, write or sync on a Handle.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

type Handle struct {
	path string

	rmu  sync.Mutex // guards r and the read cursor
	r    *os.File
	rpos atomic.Uint64

	wmu  sync.Mutex // guards wf, w and the write cursor
	wf   *os.File
	w    *bufio.Writer
	wpos atomic.Uint64

	closed atomic.Bool
}

// Open opens path for reading and, creating it if necessary, for appending.
// The write cursor starts at the current end of the file.
func Open(path string) (*Handle, error) {
	wf, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}

	end, err := wf.Seek(0, io.SeekEnd)
	if err != nil {
		wf.Close()
		return nil, &IOError{Op: "seek", Path: path, Err: err}
	}

	r, err := os.Open(path)
	if err != nil {
		wf.Close()
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}

	adviseRandom(r)

	h := &Handle{
		path: path,
		r:    r,
		wf:   wf,
		w:    bufio.NewWriterSize(wf, defaultBufferSize),
	}
	h.wpos.Store(uint64(end))

	return h, nil
}

// Path returns the path the handle was opened with.
func (h *Handle) Path() string {
	return h.path
}

// Write appends p through the write cursor. The bytes sit in the write buffer
// until Flush, Sync or Close. The write cursor advances by n even when err is
// non-nil.
func (h *Handle) Write(p []byte) (n int, err error) {
	h.wmu.Lock()
	defer h.wmu.Unlock()

	if h.closed.Load() {
		return 0, &IOError{Op: "write", Path: h.path, Err: os.ErrClosed}
	}

	n, err = h.w.Write(p)
	h.wpos.Add(uint64(n))
	if err != nil {
		return n, &IOError{Op: "write", Path: h.path, Err: err}
	}
	return n, nil
}

// ReadAt moves the read cursor to offset and fills buf from there. It returns
// fewer than len(buf) bytes, and a nil error, when the file ends first.
func (h *Handle) ReadAt(offset uint64, buf []byte) (int, error) {
	h.rmu.Lock()
	defer h.rmu.Unlock()

	if h.closed.Load() {
		return 0, &IOError{Op: "read", Path: h.path, Err: os.ErrClosed}
	}
	if offset > 1<<63-1 {
		return 0, &IOError{Op: "seek", Path: h.path, Err: fmt.Errorf("offset %d out of range", offset)}
	}

	pos, err := h.r.Seek(int64(offset), io.SeekStart)
	if err != nil {
		return 0, &IOError{Op: "seek", Path: h.path, Err: err}
	}
	h.rpos.Store(uint64(pos))

	n, err := io.ReadFull(h.r, buf)
	h.rpos.Add(uint64(n))
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return n, &IOError{Op: "read", Path: h.path, Err: err}
	}
	return n, nil
}

// WritePos is the offset at which the next append will land.
func (h *Handle) WritePos() uint64 {
	return h.wpos.Load()
}

// ReadPos is the offset just past the last byte read.
func (h *Handle) ReadPos() uint64 {
	return h.rpos.Load()
}

// Buffered returns the number of appended bytes not yet handed to the OS.
func (h *Handle) Buffered() int {
	h.wmu.Lock()
	defer h.wmu.Unlock()
	return h.w.Buffered()
}

// Flush hands buffered appends to the OS, making them visible to ReadAt.
func (h *Handle) Flush() error {
	h.wmu.Lock()
	defer h.wmu.Unlock()
	return h.flush()
}

func (h *Handle) flush() error {
	if h.closed.Load() {
		return &IOError{Op: "flush", Path: h.path, Err: os.ErrClosed}
	}
	if err := h.w.Flush(); err != nil {
		return &IOError{Op: "flush", Path: h.path, Err: err}
	}
	return nil
}

// Sync flushes buffered appends and forces them to stable storage.
func (h *Handle) Sync() error {
	h.wmu.Lock()
	defer h.wmu.Unlock()

	if err := h.flush(); err != nil {
		return err
	}
	if err := datasync(h.wf); err != nil {
		return &IOError{Op: "sync", Path: h.path, Err: err}
	}
	return nil
}

// Size returns the number of bytes visible to readers.
func (h *Handle) Size() (int64, error) {
	fi, err := h.r.Stat()
	if err != nil {
		return 0, &IOError{Op: "stat", Path: h.path, Err: err}
	}
	return fi.Size(), nil
}

// Truncate discards everything from size onwards and moves the write cursor
// there. Pending appends are flushed first.
func (h *Handle) Truncate(size int64) error {
	h.wmu.Lock()
	defer h.wmu.Unlock()

	if err := h.flush(); err != nil {
		return err
	}
	if err := h.wf.Truncate(size); err != nil {
		return &IOError{Op: "truncate", Path: h.path, Err: err}
	}
	if _, err := h.wf.Seek(size, io.SeekStart); err != nil {
		return &IOError{Op: "seek", Path: h.path, Err: err}
	}
	if err := h.wf.Sync(); err != nil {
		return &IOError{Op: "sync", Path: h.path, Err: err}
	}
	h.wpos.Store(uint64(size))
	return nil
}

// Close flushes pending appends and closes both descriptors.
func (h *Handle) Close() error {
	h.wmu.Lock()
	defer h.wmu.Unlock()
	h.rmu.Lock()
	defer h.rmu.Unlock()

	if h.closed.Swap(true) {
		return nil
	}

	var errs []error
	if err := h.w.Flush(); err != nil {
		errs = append(errs, &IOError{Op: "flush", Path: h.path, Err: err})
	}
	if err := h.wf.Close(); err != nil {
		errs = append(errs, &IOError{Op: "close", Path: h.path, Err: err})
	}
	if err := h.r.Close(); err != nil {
		errs = append(errs, &IOError{Op: "close", Path: h.path, Err: err})
	}
	return errors.Join(errs...)
}
