package datafile

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/0xRadioAc7iv/caskdb/internal/filehandle"
	"github.com/0xRadioAc7iv/caskdb/internal/logging"
	"github.com/0xRadioAc7iv/caskdb/internal/metrics"
	"github.com/0xRadioAc7iv/caskdb/internal/record"
)

// FilePrefix is the base name shared by all segment files.
const FilePrefix = "data"

var (
	ErrReadOnly = errors.New("write to a read only datafile")
	ErrFileName = errors.New("datafile name not in format data.<id>")
)

type DataFile struct {
	fh       *filehandle.Handle
	readonly atomic.Bool

	writeMu     sync.Mutex
	syncOnWrite bool

	metrics *metrics.Metrics
	logger  hclog.Logger
}

type Option func(*DataFile)

// WithSyncOnWrite makes every write fsync before returning.
func WithSyncOnWrite(sync bool) Option {
	return func(df *DataFile) {
		df.syncOnWrite = sync
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(df *DataFile) {
		df.metrics = m
	}
}

func WithLogger(l hclog.Logger) Option {
	return func(df *DataFile) {
		df.logger = l
	}
}

// Open opens (creating if absent) the datafile at path.
func Open(path string, readonly bool, opts ...Option) (*DataFile, error) {
	fh, err := filehandle.Open(path)
	if err != nil {
		return nil, err
	}

	df := &DataFile{fh: fh}
	for _, opt := range opts {
		opt(df)
	}
	df.logger = logging.OrDiscard(df.logger).With("file", filepath.Base(path))
	df.readonly.Store(readonly)

	return df, nil
}

// Path returns the path of the underlying file.
func (df *DataFile) Path() string {
	return df.fh.Path()
}

// SetReadOnly toggles whether the datafile accepts writes.
func (df *DataFile) SetReadOnly(readonly bool) {
	df.readonly.Store(readonly)
}

func (df *DataFile) ReadOnly() bool {
	return df.readonly.Load()
}

// WritePos is the offset at which the next record will be appended.
func (df *DataFile) WritePos() uint64 {
	return df.fh.WritePos()
}

// Size returns the number of bytes readable from the file.
func (df *DataFile) Size() (int64, error) {
	return df.fh.Size()
}

// Write appends a record for key and value and returns the number of bytes
// appended. It fails with ErrReadOnly, without touching the file, when the
// datafile is read-only.
func (df *DataFile) Write(key, value []byte, ts record.Timestamp) (int, error) {
	_, n, err := df.Append(key, value, ts)
	return n, err
}

// Append is Write that also reports the offset the record was written at.
func (df *DataFile) Append(key, value []byte, ts record.Timestamp) (offset uint64, n int, err error) {
	if df.readonly.Load() {
		df.metrics.ObserveReadOnlyRejection()
		return 0, 0, ErrReadOnly
	}

	start := time.Now()
	data := record.Encode(key, value, ts)

	df.writeMu.Lock()
	defer df.writeMu.Unlock()

	offset = df.fh.WritePos()
	n, err = df.fh.Write(data)
	if err != nil {
		return offset, n, err
	}
	if n != len(data) {
		return offset, n, &filehandle.IOError{Op: "write", Path: df.Path(), Err: io.ErrShortWrite}
	}

	if df.syncOnWrite {
		err = df.fh.Sync()
		df.metrics.ObserveSync()
	} else {
		err = df.fh.Flush()
	}
	if err != nil {
		return offset, n, err
	}

	df.metrics.ObserveWrite(n, start)
	df.logger.Trace("record appended", "offset", offset, "length", n)

	return offset, n, nil
}

// Read reads the length bytes at offset and decodes them into an Entry.
// A short read fails with a *record.LengthError; corrupt bytes fail with
// the codec's errors, annotated with offset.
func (df *DataFile) Read(offset, length uint64) (e *record.Entry, err error) {
	start := time.Now()
	defer func() {
		df.metrics.ObserveRead(err, start)
		if err != nil {
			df.logger.Warn("record read failed", "offset", offset, "length", length, "error", err)
		}
	}()

	size, err := df.fh.Size()
	if err != nil {
		return nil, err
	}

	var available uint64
	if uint64(size) > offset {
		available = uint64(size) - offset
	}
	if length > available {
		return nil, &record.LengthError{Offset: int64(offset), Expected: length, Actual: available}
	}

	buf := make([]byte, length)
	n, err := df.fh.ReadAt(offset, buf)
	if err != nil {
		return nil, err
	}
	if uint64(n) != length {
		return nil, &record.LengthError{Offset: int64(offset), Expected: length, Actual: uint64(n)}
	}

	e, err = record.Decode(buf)
	if err != nil {
		return nil, record.WithOffset(err, int64(offset))
	}
	return e, nil
}

// Flush hands buffered records to the OS.
func (df *DataFile) Flush() error {
	return df.fh.Flush()
}

// Sync forces written records to stable storage.
func (df *DataFile) Sync() error {
	df.metrics.ObserveSync()
	return df.fh.Sync()
}

// Truncate drops everything from size onwards.
func (df *DataFile) Truncate(size int64) error {
	if df.readonly.Load() {
		return ErrReadOnly
	}
	df.writeMu.Lock()
	defer df.writeMu.Unlock()
	return df.fh.Truncate(size)
}

// Close flushes pending writes and releases the file.
func (df *DataFile) Close() error {
	return df.fh.Close()
}

// FileName returns the base name of the segment with the given id.
func FileName(id uint64) string {
	return FilePrefix + "." + strconv.FormatUint(id, 10)
}

// ParseFileID extracts the numeric id from a data.<id> file name.
func ParseFileID(path string) (uint64, error) {
	ext := filepath.Ext(path)
	if ext == "" || ext == "." {
		return 0, fmt.Errorf("%w: %q has no extension", ErrFileName, filepath.Base(path))
	}

	id, err := strconv.ParseUint(strings.TrimPrefix(ext, "."), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrFileName, filepath.Base(path), err)
	}
	return id, nil
}

// IsDataFile reports whether name looks like a segment file.
func IsDataFile(name string) bool {
	if !strings.HasPrefix(filepath.Base(name), FilePrefix+".") {
		return false
	}
	_, err := ParseFileID(name)
	return err == nil
}
