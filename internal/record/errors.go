package record

import (
	"errors"
	"fmt"
)

var (
	// ErrChecksumMismatch is matched by every *ChecksumError.
	ErrChecksumMismatch = errors.New("record checksum mismatch")
	// ErrTruncated is matched by every *TruncatedError.
	ErrTruncated = errors.New("record truncated")
	// ErrLengthMismatch is matched by every *LengthError.
	ErrLengthMismatch = errors.New("record length mismatch")
)

// ChecksumError reports a record whose stored checksum does not match the
// checksum recomputed from its bytes.
type ChecksumError struct {
	Offset   int64 // -1 when the record was not read from a file
	Expected uint32
	Actual   uint32
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("record at offset %d: checksum mismatch: stored %#08x, computed %#08x", e.Offset, e.Expected, e.Actual)
}

func (e *ChecksumError) Is(target error) bool { return target == ErrChecksumMismatch }

// TruncatedError reports a record that declares more bytes than are present.
type TruncatedError struct {
	Offset int64
	Need   uint64
	Have   uint64
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("record at offset %d: truncated: need %d bytes, have %d", e.Offset, e.Need, e.Have)
}

func (e *TruncatedError) Is(target error) bool { return target == ErrTruncated }

// LengthError reports a read or decode that produced a different number of
// bytes than the caller asked for.
type LengthError struct {
	Offset   int64
	Expected uint64
	Actual   uint64
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("record at offset %d: wrong data length: expected %d bytes, got %d", e.Offset, e.Expected, e.Actual)
}

func (e *LengthError) Is(target error) bool { return target == ErrLengthMismatch }

// WithOffset returns a copy of a codec error carrying offset. Other errors are
// returned unchanged.
func WithOffset(err error, offset int64) error {
	var (
		ce *ChecksumError
		te *TruncatedError
		le *LengthError
	)
	switch {
	case errors.As(err, &ce):
		c := *ce
		c.Offset = offset
		return &c
	case errors.As(err, &te):
		c := *te
		c.Offset = offset
		return &c
	case errors.As(err, &le):
		c := *le
		c.Offset = offset
		return &c
	}
	return err
}
