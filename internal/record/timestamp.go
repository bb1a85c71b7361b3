package record

import (
	"encoding/binary"
	"fmt"
	"time"
)

// TimestampSize is the encoded width of a Timestamp.
const TimestampSize = 16

// Timestamp is a 128-bit nanosecond wall-clock value, stored as two
// big-endian 64-bit halves. Nanoseconds since the Unix epoch fit in Lo.
type Timestamp struct {
	Hi uint64
	Lo uint64
}

// NewTimestamp returns the Timestamp for ns nanoseconds since the epoch.
func NewTimestamp(ns uint64) Timestamp {
	return Timestamp{Lo: ns}
}

// TimestampFromTime converts t to a Timestamp. Times before the epoch map to zero.
func TimestampFromTime(t time.Time) Timestamp {
	ns := t.UnixNano()
	if ns < 0 {
		return Timestamp{}
	}
	return NewTimestamp(uint64(ns))
}

// Time converts ts back to a time.Time. Values that do not fit in an int64
// of nanoseconds are clamped.
func (ts Timestamp) Time() time.Time {
	if ts.Hi != 0 || ts.Lo > 1<<63-1 {
		return time.Unix(0, 1<<63-1)
	}
	return time.Unix(0, int64(ts.Lo))
}

// Compare returns -1, 0 or +1 depending on whether ts is before, equal to or
// after other.
func (ts Timestamp) Compare(other Timestamp) int {
	switch {
	case ts.Hi < other.Hi:
		return -1
	case ts.Hi > other.Hi:
		return 1
	case ts.Lo < other.Lo:
		return -1
	case ts.Lo > other.Lo:
		return 1
	}
	return 0
}

// After reports whether ts is strictly later than other.
func (ts Timestamp) After(other Timestamp) bool {
	return ts.Compare(other) > 0
}

// IsZero reports whether ts is the zero Timestamp.
func (ts Timestamp) IsZero() bool {
	return ts.Hi == 0 && ts.Lo == 0
}

// Bytes returns the big-endian encoding of ts.
func (ts Timestamp) Bytes() [TimestampSize]byte {
	var b [TimestampSize]byte
	binary.BigEndian.PutUint64(b[:8], ts.Hi)
	binary.BigEndian.PutUint64(b[8:], ts.Lo)
	return b
}

func (ts Timestamp) String() string {
	if ts.Hi == 0 {
		return fmt.Sprintf("%d", ts.Lo)
	}
	return fmt.Sprintf("%#x%016x", ts.Hi, ts.Lo)
}

func timestampFromBytes(b []byte) Timestamp {
	return Timestamp{
		Hi: binary.BigEndian.Uint64(b[:8]),
		Lo: binary.BigEndian.Uint64(b[8:16]),
	}
}
